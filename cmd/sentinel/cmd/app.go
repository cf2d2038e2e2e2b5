package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"FuturesSentinel/internal/analysis"
	"FuturesSentinel/internal/calculator"
	"FuturesSentinel/internal/collector"
	"FuturesSentinel/internal/config"
	"FuturesSentinel/internal/logger"
	"FuturesSentinel/internal/metrics"
	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/notifier"
	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"
	"FuturesSentinel/internal/strategy"
)

// app holds the collaborators built from one config.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	analyzer *analysis.Analyzer
	recorder recorder.Recorder
	telegram *notifier.TelegramNotifier

	closers []io.Closer
}

// newApp loads and validates the config, then wires the pipeline. Logs go
// to logOut unless the config routes them to a file.
func newApp(configPath string, logOut io.Writer, withDB bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, logCloser, err := logger.Init(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	src, err := collector.NewSource(cfg.DataSource.Config)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init data source: %w", err)
	}
	log.Info("data source", "kind", src.Name(), "frequency", cfg.Frequency())
	if cfg.Orchestrator.RatePerSecond > 0 {
		src = collector.NewRateLimited(src, cfg.Orchestrator.RatePerSecond, cfg.Orchestrator.Burst)
	}

	engine, err := calculator.NewEngine(cfg.Analysis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init indicator engine: %w", err)
	}
	opts := []analysis.Option{
		analysis.WithWorkers(cfg.Orchestrator.Workers),
		analysis.WithSymbolTimeout(cfg.Orchestrator.SymbolTimeout),
		analysis.WithFrequency(cfg.Frequency()),
		analysis.WithLevels(cfg.Signal.Levels),
		analysis.WithMetrics(a.metrics),
		analysis.WithLogger(log),
	}

	a.recorder = recorder.NewNoopRecorder()
	if withDB && cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", "path", cfg.Database.SQLitePath, "error", err)
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr)
			opts = append(opts, analysis.WithSeriesStore(sr))
		}
	}

	a.analyzer = analysis.NewAnalyzer(src, engine, strategy.NewClassifier(), strategy.NewGenerator(cfg.Signal.Weights), opts...)

	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
	}
	return a, nil
}

// notifier returns the Telegram notifier or a no-op.
func (a *app) notifier() notifier.Notifier {
	if a.telegram == nil {
		return notifier.Noop{}
	}
	return a.telegram
}

// Close releases the recorder and the log file, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func notifierReport(batch *model.BatchResult, threshold float64) string {
	return notifier.FormatBatchReport(batch, report.Summarize(batch, threshold))
}
