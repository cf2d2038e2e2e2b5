package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"
)

type runOptions struct {
	symbols   []string
	format    string
	outputDir string
	asOf      string
	noSave    bool
	notify    bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze symbols once and print the report",
		Long: `Fetch bars for every symbol, compute indicators, classify the trend and
print one recommendation per symbol. A symbol that fails is reported with its
error; the run itself fails only when the data source cannot be reached.

Examples:
  sentinel run
  sentinel run --symbols RB,CU --format json
  sentinel run --as-of 2026-03-06 --format parquet --output-dir reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&opts.symbols, "symbols", "s", nil, "symbols to analyze (default from config)")
	f.StringVarP(&opts.format, "format", "f", "", "report format: console, json, csv or parquet (default from config)")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "write the report into this directory instead of stdout")
	f.StringVar(&opts.asOf, "as-of", "", "inclusive analysis date YYYY-MM-DD, or an RFC3339 cutoff (default now)")
	f.BoolVar(&opts.noSave, "no-save", false, "do not persist results to SQLite")
	f.BoolVar(&opts.notify, "notify", false, "push the summary to Telegram")
	return cmd
}

func runOnce(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	a, err := newApp(root.configPath, cmd.ErrOrStderr(), !opts.noSave)
	if err != nil {
		return err
	}
	defer a.Close()

	format := a.cfg.ReportFormat()
	if opts.format != "" {
		if format, err = report.ParseFormat(opts.format); err != nil {
			return err
		}
	}
	if format == report.FormatParquet && opts.outputDir == "" {
		return fmt.Errorf("parquet output needs --output-dir")
	}
	asOf := time.Now()
	if opts.asOf != "" {
		if asOf, err = parseAsOf(opts.asOf); err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
	}
	symbols := opts.symbols
	if len(symbols) == 0 {
		symbols = a.cfg.Symbols
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batch, runErr := a.analyzer.Run(ctx, symbols, asOf)
	if batch == nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	if !opts.noSave {
		if err := recorder.SaveBatch(context.WithoutCancel(ctx), a.recorder, batch); err != nil {
			a.log.Error("persist batch", "run_id", batch.RunID, "error", err)
		}
	}

	threshold := a.cfg.Signal.HighConfidence
	if opts.outputDir != "" {
		path, err := report.WriteFile(opts.outputDir, batch, format, threshold)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written: %s\n", path)
	} else if err := report.RenderWithThreshold(cmd.OutOrStdout(), batch, format, threshold); err != nil {
		return err
	}

	if opts.notify {
		if a.telegram == nil {
			a.log.Warn("telegram is not configured, skipping notification")
		} else if err := a.telegram.SendWithRetry(ctx, notifierReport(batch, threshold), 3); err != nil {
			a.log.Error("send notification", "error", err)
		}
	}
	return runErr
}

// parseAsOf accepts RFC3339 or a bare date. A bare date means the whole
// calendar day, so its cutoff is the last instant of that day in UTC, the
// zone daily bars are stamped in.
func parseAsOf(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}
