package httpserver

import (
	"context"
	"html/template"
	"net/http"

	"github.com/alscos/hostdash/internal/config"
	"github.com/alscos/hostdash/internal/sysinfo"
	"github.com/alscos/hostdash/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Config config.Config
	Sys    *sysinfo.Collector
	Log    zerolog.Logger

	// BaseContext is cancelled on shutdown; long-lived websocket streams end with it.
	BaseContext context.Context
}

type Server struct {
	cfg     config.Config
	sys     *sysinfo.Collector
	tpl     *template.Template
	log     zerolog.Logger
	metrics *Metrics
	base    context.Context
}

func NewRouter(deps RouterDeps) (http.Handler, error) {
	s := &Server{
		cfg:  deps.Config,
		sys:  deps.Sys,
		log:  deps.Log,
		base: deps.BaseContext,
	}
	if s.sys == nil {
		s.sys = sysinfo.NewCollector(nil)
	}
	if s.base == nil {
		s.base = context.Background()
	}
	s.metrics = NewMetrics(s.sys)

	tpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	s.tpl = tpl

	static, err := web.Static()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	if len(s.cfg.AllowedSubnets) > 0 {
		allow, err := newCIDRAllowlist(s.cfg.AllowedSubnets)
		if err != nil {
			return nil, err
		}
		r.Use(allow.middleware)
	}

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	// Streams and scrapes are not bounded by the request timeout.
	r.Get("/monitor/ws", s.handleMonitorWS)
	if s.cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		// HTML pages
		r.Get("/", s.handleIndex)
		r.Get("/info", s.handleInfo)
		r.Get("/monitor", s.handleMonitorPage)
		r.Get("/vulnerable", s.handleGreeting)

		// JSON API
		r.Get("/api/facts", s.handleFacts)
		r.Get("/api/sample", s.handleSample)
	})

	return r, nil
}
