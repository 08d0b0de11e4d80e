package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alscos/hostdash/internal/sysinfo"
)

type infoPage struct {
	Title string
	Facts sysinfo.Facts
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	// Use request context (respects client disconnect + server timeouts)
	facts, err := s.sys.Facts(r.Context())
	if err != nil {
		s.logQueryError(r, err)
		if requestDone(r) {
			return
		}
		s.renderError(w, r, http.StatusInternalServerError, "System information is currently unavailable.")
		return
	}
	s.render(w, r, http.StatusOK, "info.html", infoPage{Title: "System info", Facts: facts})
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := s.sys.Facts(r.Context())
	if err != nil {
		s.logQueryError(r, err)
		if requestDone(r) {
			return
		}
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]any{"error": "system information unavailable"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, facts)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sys.Sample(r.Context())
	if err != nil {
		s.logQueryError(r, err)
		if requestDone(r) {
			return
		}
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]any{"error": "sample unavailable"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) logQueryError(r *http.Request, err error) {
	ev := s.reqLog(r).Error().Err(err)
	var qe *sysinfo.EnvironmentQueryError
	if errors.As(err, &qe) {
		ev = ev.Str("source", qe.Source)
	}
	ev.Msg("environment query failed")
}

// requestDone reports whether the client went away or the request deadline
// passed. The timeout middleware owns the response in that case.
func requestDone(r *http.Request) bool {
	return r.Context().Err() != nil
}

// writeJSON encodes v before touching the response so an encoding failure
// can still turn into a 500.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.reqLog(r).Error().Err(err).Msg("encode json response")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
