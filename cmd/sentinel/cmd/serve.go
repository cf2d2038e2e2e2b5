package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"FuturesSentinel/internal/api"
	"FuturesSentinel/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	listen     string
	runOnStart bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily schedule, Telegram bot and HTTP API",
		Long: `Start the long-running service:
  - the daily analysis job on schedule.daily_cron
  - Telegram command polling when telegram.polling is set
  - the HTTP API with /healthz, /metrics and /api/v1

Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "HTTP listen address (default from config api.listen, empty disables)")
	cmd.Flags().BoolVar(&opts.runOnStart, "run-on-start", false, "run the analysis once right after startup (env RUN_ON_START)")
	return cmd
}

func serve(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	a, err := newApp(root.configPath, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg
	a.log.Info("FuturesSentinel starting", "version", version, "symbols", len(cfg.Symbols))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.analyzer, a.notifier(), a.recorder, scheduler.Options{
		Symbols:        cfg.Symbols,
		ReportDir:      cfg.Report.OutputDir,
		ReportFormat:   cfg.ReportFormat(),
		HighConfidence: cfg.Signal.HighConfidence,
		SendRetries:    3,
	}, a.log)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if a.telegram != nil && cfg.Telegram.Polling {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	}

	if opts.runOnStart || cfg.Schedule.RunOnStart {
		a.log.Info("run on start enabled, executing daily task now")
		go sched.RunNow()
	}

	listen := cfg.API.Listen
	if opts.listen != "" {
		listen = opts.listen
	}
	errCh := make(chan error, 1)
	var srv *http.Server
	if listen != "" {
		if !strings.EqualFold(cfg.Log.Level, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}
		srv = &http.Server{
			Addr: listen,
			Handler: api.NewRouter(api.Deps{
				Recorder:       a.recorder,
				Trigger:        sched,
				Gatherer:       a.registry,
				Metrics:        a.metrics,
				Logger:         a.log,
				HighConfidence: cfg.Signal.HighConfidence,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.log.Info("http api listening", "addr", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	a.log.Info("FuturesSentinel is running, press Ctrl+C to stop")
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received, stopping")
	case err = <-errCh:
		a.log.Error("server failed", "error", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			a.log.Error("http shutdown", "error", serr)
		}
	}
	a.log.Info("FuturesSentinel stopped")
	return err
}
