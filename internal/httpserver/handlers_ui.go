package httpserver

import (
	"bytes"
	"net/http"
)

const defaultUsername = "Guest"

type page struct {
	Title string
}

type greetingPage struct {
	Title    string
	Username string
}

type errorPage struct {
	Title   string
	Message string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", page{Title: "Host dashboard"})
}

func (s *Server) handleMonitorPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "monitor.html", page{Title: "Monitor"})
}

// handleGreeting greets the caller by the username query parameter. The name
// is bound as template data and escaped on output. Only a missing parameter
// falls back to the default; an empty one greets nobody.
func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	username := defaultUsername
	if v, ok := r.URL.Query()["username"]; ok && len(v) > 0 {
		username = v[0]
	}
	s.render(w, r, http.StatusOK, "vulnerable.html", greetingPage{
		Title:    "Greeting",
		Username: username,
	})
}

// render executes into a buffer first so a failing template never leaves a
// half-written page behind a 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.tpl == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.reqLog(r).Error().Err(err).Str("template", name).Msg("template render failed")
		http.Error(w, "template render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error.html", errorPage{
		Title:   http.StatusText(status),
		Message: msg,
	})
}
