package panel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alscos/hostdash/internal/sysinfo"

	"github.com/rs/zerolog"
)

type bufPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufPort) Close() error {
	b.closed = true
	return nil
}

func TestFormatLines(t *testing.T) {
	s := sysinfo.Sample{
		Hostname:       "rack-01",
		CPUPercent:     12.6,
		MemUsedPercent: 40.2,
		MemTotal:       8 << 30,
		Load1:          0.5,
		Load5:          0.25,
		Load15:         0.1,
	}
	want := "HOST: rack-01\nCPU: 13%\nMEM: 40% 8.0 GiB\nLOAD: 0.50 0.25 0.10\n\n"
	if got := formatLines(s); got != want {
		t.Fatalf("formatLines = %q; want %q", got, want)
	}
}

func TestShouldSendDedup(t *testing.T) {
	p := NewSerial("/dev/null", 0, zerolog.Nop())

	cases := []struct {
		payload string
		want    bool
	}{
		{"CPU: 1%\nMEM: 2%\n\n", true},
		{"CPU: 1%\r\nMEM:   2%\n", false}, // whitespace-only change
		{"CPU: 3%\nMEM: 2%\n\n", true},
	}
	for i, tc := range cases {
		if got := p.shouldSend(tc.payload); got != tc.want {
			t.Fatalf("case %d: shouldSend = %v; want %v", i, got, tc.want)
		}
	}
}

func TestTickWritesChangedPayload(t *testing.T) {
	port := &bufPort{}
	opens := 0
	p := NewSerial("/dev/ttyTEST", 9600, zerolog.Nop())
	p.open = func(name string, baud int) (io.WriteCloser, error) {
		opens++
		if name != "/dev/ttyTEST" || baud != 9600 {
			t.Fatalf("open(%q, %d)", name, baud)
		}
		return port, nil
	}

	cpu := 10.0
	sample := func(context.Context) (sysinfo.Sample, error) {
		return sysinfo.Sample{Hostname: "h", CPUPercent: cpu}, nil
	}

	p.tick(context.Background(), sample)
	p.tick(context.Background(), sample)
	first := port.String()
	if first == "" || opens != 1 {
		t.Fatalf("expected a single write through one open, got %q (opens=%d)", first, opens)
	}

	cpu = 90
	p.tick(context.Background(), sample)
	if port.Len() <= len(first) {
		t.Fatalf("expected second frame after change")
	}
}

func TestTickReopensAfterOpenFailure(t *testing.T) {
	port := &bufPort{}
	fail := true
	p := NewSerial("/dev/ttyTEST", 0, zerolog.Nop())
	p.open = func(string, int) (io.WriteCloser, error) {
		if fail {
			return nil, errors.New("no such device")
		}
		return port, nil
	}
	sample := func(context.Context) (sysinfo.Sample, error) {
		return sysinfo.Sample{Hostname: "h"}, nil
	}

	p.tick(context.Background(), sample)
	if port.Len() != 0 {
		t.Fatalf("unexpected write while port unavailable")
	}

	fail = false
	p.tick(context.Background(), sample)
	if port.Len() == 0 {
		t.Fatalf("expected same payload to be resent after reopen")
	}

	p.Close()
	if !port.closed {
		t.Fatalf("Close did not close port")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	p := NewSerial("/dev/ttyTEST", 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Start(ctx, func(context.Context) (sysinfo.Sample, error) {
			return sysinfo.Sample{}, errors.New("unused")
		}, 0)
		close(done)
	}()
	<-done
}
