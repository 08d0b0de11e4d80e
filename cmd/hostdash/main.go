package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alscos/hostdash/internal/config"
	"github.com/alscos/hostdash/internal/httpserver"
	"github.com/alscos/hostdash/internal/logging"
	"github.com/alscos/hostdash/internal/panel"
	"github.com/alscos/hostdash/internal/sysinfo"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var listen, logLevel string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFromEnv()
			if listen != "" {
				cfg.ListenAddr = listen
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides LISTEN_ADDR)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	factsCmd := &cobra.Command{
		Use:   "facts",
		Short: "Print host facts as JSON and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, err := sysinfo.NewCollector(nil).Facts(cmd.Context())
			if err != nil {
				return err
			}
			out, err := facts.PrettyJSON()
			if err != nil {
				return fmt.Errorf("encode facts: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	root := &cobra.Command{
		Use:          "hostdash",
		Short:        "Host system information dashboard",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	root.Flags().AddFlagSet(serveCmd.Flags())
	root.AddCommand(serveCmd, factsCmd)
	return root
}

func serve(parent context.Context, cfg config.Config) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys := sysinfo.NewCollector(nil)
	sys.SampleTTL = cfg.SampleTTL

	r, err := httpserver.NewRouter(httpserver.RouterDeps{
		Config:      cfg,
		Sys:         sys,
		Log:         log,
		BaseContext: ctx,
	})
	if err != nil {
		return fmt.Errorf("router init: %w", err)
	}

	if cfg.PanelPort != "" {
		p := panel.NewSerial(cfg.PanelPort, cfg.PanelBaud, log)
		go p.Start(ctx, sys.Sample, cfg.PanelInterval)
		log.Info().Str("port", cfg.PanelPort).Int("baud", cfg.PanelBaud).Msg("status panel enabled")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Bool("metrics", cfg.MetricsEnabled).Msg("hostdash listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error().Err(err).Msg("server failed")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
