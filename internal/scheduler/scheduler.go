package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/notifier"
	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"

	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a batch is requested while another one runs.
var ErrRunInProgress = errors.New("analysis already running")

// Runner executes one analysis batch.
type Runner interface {
	RunDailyAnalysis(ctx context.Context, symbols []string) (*model.BatchResult, error)
}

type retrier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures the daily job.
type Options struct {
	Symbols        []string
	ReportDir      string
	ReportFormat   report.Format
	HighConfidence float64
	SendRetries    int
	LatestLimit    int
}

// Scheduler manages the cron job and chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Ctx      context.Context

	opts Options
	log  *slog.Logger
	mu   sync.Mutex
}

// NewScheduler creates a new Scheduler. A nil notifier or recorder disables that step.
func NewScheduler(ctx context.Context, runner Runner, n notifier.Notifier, rec recorder.Recorder, opts Options, log *slog.Logger) *Scheduler {
	if n == nil {
		n = notifier.Noop{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.HighConfidence <= 0 {
		opts.HighConfidence = report.DefaultHighConfidence
	}
	if opts.LatestLimit <= 0 {
		opts.LatestLimit = 50
	}
	if opts.ReportFormat == "" {
		opts.ReportFormat = report.FormatJSON
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelError))
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLog))),
		Runner:   runner,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		opts:     opts,
		log:      log,
	}
}

// Register adds the daily analysis job.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", "next_run", s.NextRun())
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// NextRun returns the next activation, or the zero time when nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	var next time.Time
	for _, e := range s.Cron.Entries() {
		if !e.Next.IsZero() && (next.IsZero() || e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// RunNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	if _, err := s.Execute(s.Ctx, nil); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.log.Error("daily task", "error", err)
	}
}

// Execute runs one batch for symbols, or the configured symbols when empty.
// Results are persisted, written as a report and pushed to the chat. A
// cancelled batch is still persisted with its partial results.
func (s *Scheduler) Execute(ctx context.Context, symbols []string) (*model.BatchResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	if len(symbols) == 0 {
		symbols = s.opts.Symbols
	}
	if len(symbols) == 0 {
		return nil, errors.New("no symbols configured")
	}

	s.log.Info("running daily analysis", "symbols", len(symbols))
	batch, err := s.Runner.RunDailyAnalysis(ctx, symbols)
	if batch == nil {
		if err == nil {
			err = errors.New("runner returned no batch")
		}
		s.trySend(ctx, notifier.FormatAlert(err))
		return nil, err
	}
	log := s.log.With("run_id", batch.RunID)

	// Persist with a fresh context so a cancelled batch keeps its partial results.
	saveCtx := context.WithoutCancel(ctx)
	if serr := recorder.SaveBatch(saveCtx, s.Recorder, batch); serr != nil {
		log.Error("persist batch", "error", serr)
	}

	sum := report.Summarize(batch, s.opts.HighConfidence)
	if s.opts.ReportDir != "" {
		path, rerr := report.WriteFile(s.opts.ReportDir, batch, s.opts.ReportFormat, s.opts.HighConfidence)
		if rerr != nil {
			log.Error("write report", "error", rerr)
		} else {
			log.Info("report written", "path", path)
		}
	}

	s.trySend(saveCtx, notifier.FormatBatchReport(batch, sum))
	log.Info("daily analysis finished",
		"ok", sum.Succeeded, "failed", sum.Failed,
		"buy", sum.Buy, "sell", sum.Sell, "hold", sum.Hold,
		"duration", sum.Duration)
	return batch, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "立即分析", "/run":
		_, err := s.Execute(ctx, fields[1:])
		switch {
		case errors.Is(err, ErrRunInProgress):
			return "分析正在进行中，请稍后"
		case err != nil:
			return notifier.FormatAlert(err)
		}
		return ""
	case "查看最新分析", "/latest":
		rows, err := s.Recorder.LatestResults(ctx, s.opts.LatestLimit)
		if err != nil {
			return notifier.FormatAlert(err)
		}
		return notifier.FormatLatest(rows)
	case "查看品种报告", "/report":
		if len(fields) < 2 {
			return "用法: /report <品种>"
		}
		rows, err := s.Recorder.History(ctx, fields[1], reportWindow)
		if err != nil {
			return notifier.FormatAlert(err)
		}
		return notifier.FormatSymbolReport(report.BuildSymbolReport(fields[1], rows))
	case "查看运行状态", "/status":
		rec, err := s.Recorder.LastRun(ctx)
		if err != nil {
			return notifier.FormatAlert(err)
		}
		msg := notifier.FormatRunStatus(rec)
		if next := s.NextRun(); !next.IsZero() {
			msg += fmt.Sprintf("\n下次运行: %s", next.Format("2006-01-02 15:04"))
		}
		return msg
	default:
		return helpText
	}
}

const helpText = "可用命令:\n• 立即分析 (/run [品种...])\n• 查看最新分析 (/latest)\n• 查看品种报告 (/report 品种)\n• 查看运行状态 (/status)"

// reportWindow is how many stored signals feed a symbol report.
const reportWindow = 100

func (s *Scheduler) trySend(ctx context.Context, text string) {
	var err error
	if r, ok := s.Notifier.(retrier); ok && s.opts.SendRetries > 0 {
		err = r.SendWithRetry(ctx, text, s.opts.SendRetries)
	} else {
		err = s.Notifier.Send(ctx, text)
	}
	if err != nil {
		s.log.Error("send notification", "error", err)
	}
}
