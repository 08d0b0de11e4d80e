package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/alscos/hostdash/internal/sysinfo"

	"github.com/gorilla/websocket"
)

const (
	pingPeriod = 25 * time.Second
	pongWait   = 60 * time.Second
	writeWait  = 5 * time.Second

	minStreamInterval = time.Second
	maxStreamInterval = 60 * time.Second
)

// Origin checking stays at the library default (same host only).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type streamMsg struct {
	Type   string          `json:"type"`
	Sample *sysinfo.Sample `json:"sample,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (s *Server) handleMonitorWS(w http.ResponseWriter, r *http.Request) {
	interval := streamInterval(r.URL.Query().Get("interval"), s.cfg.MonitorInterval)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status.
		s.reqLog(r).Warn().Err(err).Msg("monitor: websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.reqLog(r)
	log.Debug().Dur("interval", interval).Msg("monitor: stream opened")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	// The client never sends data; reading only surfaces close and pong frames.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	if err := s.pushSample(conn); err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.base.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case err := <-readErr:
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				log.Debug().Int("code", closeErr.Code).Msg("monitor: stream closed by client")
			} else {
				log.Debug().Err(err).Msg("monitor: stream read ended")
			}
			return
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.pushSample(conn); err != nil {
				log.Debug().Err(err).Msg("monitor: write failed")
				return
			}
		}
	}
}

func (s *Server) pushSample(conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(s.base, 2*time.Second)
	defer cancel()

	msg := streamMsg{Type: "sample"}
	snap, err := s.sys.Sample(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("monitor: sample failed")
		msg = streamMsg{Type: "error", Error: "sample unavailable"}
	} else {
		msg.Sample = &snap
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// streamInterval parses a per-connection override in seconds, clamped to
// [minStreamInterval, maxStreamInterval].
func streamInterval(raw string, def time.Duration) time.Duration {
	d := def
	if raw != "" {
		if sec, err := strconv.ParseFloat(raw, 64); err == nil {
			d = time.Duration(sec * float64(time.Second))
		}
	}
	if d < minStreamInterval {
		d = minStreamInterval
	}
	if d > maxStreamInterval {
		d = maxStreamInterval
	}
	return d
}
