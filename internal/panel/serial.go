package panel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alscos/hostdash/internal/sysinfo"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// SampleFunc yields the reading to display, e.g. (*sysinfo.Collector).Sample.
type SampleFunc func(ctx context.Context) (sysinfo.Sample, error)

// Serial pushes a short host summary to a USB serial status display.
type Serial struct {
	mu sync.Mutex

	portName string
	baud     int
	log      zerolog.Logger

	port io.WriteCloser
	last string // last committed payload (normalized)

	// open is swapped in tests.
	open func(name string, baud int) (io.WriteCloser, error)
}

// NewSerial creates the bridge. portName is typically a udev symlink such as
// /dev/ttyHOSTDASH_PANEL.
func NewSerial(portName string, baud int, log zerolog.Logger) *Serial {
	if baud <= 0 {
		baud = 115200
	}
	return &Serial{
		portName: portName,
		baud:     baud,
		log:      log,
		open:     openSerial,
	}
}

func openSerial(name string, baud int) (io.WriteCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}

// Start polls sample on an interval and writes changed summaries until ctx ends.
func (p *Serial) Start(ctx context.Context, sample SampleFunc, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Close()
			return
		case <-t.C:
			p.tick(ctx, sample)
		}
	}
}

func (p *Serial) tick(ctx context.Context, sample SampleFunc) {
	s, err := sample(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("panel: sample failed")
		return
	}

	payload := formatLines(s)
	if !p.shouldSend(payload) {
		return
	}
	if err := p.send(payload); err != nil {
		// Without this, permission/open failures go unnoticed.
		p.log.Warn().Err(err).Str("port", p.portName).Msg("panel: send failed")
		p.dropPort()
	}
}

func (p *Serial) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port != nil {
		_ = p.port.Close()
		p.port = nil
	}
}

func (p *Serial) shouldSend(payload string) bool {
	n := normalizePayload(payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	if n == p.last {
		return false
	}
	p.last = n
	return true
}

func (p *Serial) send(payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		port, err := p.open(p.portName, p.baud)
		if err != nil {
			return err
		}
		p.port = port
	}

	_, err := p.port.Write([]byte(payload))
	return err
}

// dropPort closes the port and forgets the last payload so the next tick
// reopens and resends.
func (p *Serial) dropPort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port != nil {
		_ = p.port.Close()
		p.port = nil
	}
	p.last = ""
}

func normalizePayload(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// formatLines renders the four display lines; a blank line commits the frame.
func formatLines(s sysinfo.Sample) string {
	var b bytes.Buffer
	if host := strings.TrimSpace(s.Hostname); host != "" {
		fmt.Fprintf(&b, "HOST: %s\n", host)
	}
	fmt.Fprintf(&b, "CPU: %.0f%%\n", s.CPUPercent)
	fmt.Fprintf(&b, "MEM: %.0f%% %s\n", s.MemUsedPercent, sysinfo.HumanBytes(s.MemTotal))
	fmt.Fprintf(&b, "LOAD: %.2f %.2f %.2f\n", s.Load1, s.Load5, s.Load15)
	b.WriteByte('\n') // commit
	return b.String()
}
