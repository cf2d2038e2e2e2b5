// Package analysis runs the indicator, trend and signal pipeline for a
// batch of symbols with per-symbol failure isolation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"FuturesSentinel/internal/calculator"
	"FuturesSentinel/internal/collector"
	"FuturesSentinel/internal/metrics"
	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/runid"
	"FuturesSentinel/internal/strategy"
)

// Defaults for Analyzer options.
const (
	DefaultWorkers       = 4
	DefaultSymbolTimeout = 30 * time.Second
	pingTimeout          = 10 * time.Second
)

// Analyzer is safe for concurrent use. It keeps no state between runs.
type Analyzer struct {
	src        collector.BarSource
	engine     *calculator.Engine
	classifier *strategy.Classifier
	generator  *strategy.Generator

	levels  strategy.LevelConfig
	freq    model.Frequency
	workers int
	timeout time.Duration
	metrics *metrics.Metrics
	series  SeriesStore
	log     *slog.Logger
	now     func() time.Time
}

// SeriesStore keeps the bars and per-bar indicators behind each result.
type SeriesStore interface {
	SaveSeries(ctx context.Context, symbol string, bars []model.Bar, sets []model.IndicatorSet) error
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers bounds how many symbols are processed at once.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithSymbolTimeout bounds fetch plus analysis of one symbol. Zero disables it.
func WithSymbolTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithFrequency selects daily or weekly bars.
func WithFrequency(f model.Frequency) Option {
	return func(a *Analyzer) { a.freq = f }
}

// WithLevels sets the stop-loss and take-profit distances.
func WithLevels(cfg strategy.LevelConfig) Option {
	return func(a *Analyzer) { a.levels = cfg }
}

// WithMetrics records run statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithSeriesStore saves every analyzed series to s. Save failures are
// logged and do not fail the symbol.
func WithSeriesStore(s SeriesStore) Option {
	return func(a *Analyzer) { a.series = s }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer wires the pipeline stages to a bar source. Wrap src with
// collector.NewRateLimited to throttle fetches.
func NewAnalyzer(src collector.BarSource, engine *calculator.Engine, classifier *strategy.Classifier, generator *strategy.Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		src:        src,
		engine:     engine,
		classifier: classifier,
		generator:  generator,
		levels:     strategy.DefaultLevelConfig(),
		freq:       model.FrequencyDaily,
		workers:    DefaultWorkers,
		timeout:    DefaultSymbolTimeout,
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunDailyAnalysis analyzes symbols as of now.
func (a *Analyzer) RunDailyAnalysis(ctx context.Context, symbols []string) (*model.BatchResult, error) {
	return a.Run(ctx, symbols, a.now())
}

// Run analyzes every symbol and returns one entry per distinct symbol in
// input order. Per-symbol failures become error entries. A source that
// cannot be reached at all aborts the batch with a single error and no
// result. When ctx is cancelled, symbols not yet started are recorded as
// cancelled and the partial batch is returned together with ctx.Err().
func (a *Analyzer) Run(ctx context.Context, symbols []string, asOf time.Time) (*model.BatchResult, error) {
	symbols = dedupe(symbols)
	started := a.now()
	batch := &model.BatchResult{
		RunID:     runid.At(started),
		AsOf:      asOf,
		StartedAt: started,
		Entries:   make([]model.BatchEntry, len(symbols)),
	}
	log := a.log.With("run_id", batch.RunID)

	if err := a.preflight(ctx); err != nil {
		a.metrics.ObserveRun("fatal", a.now().Sub(started), a.now())
		log.Error("bar source unavailable, aborting run", "source", a.src.Name(), "error", err)
		return nil, fmt.Errorf("analysis run %s: %w", batch.RunID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		fatalOnce sync.Once
		fatal     error
		begun     = make([]bool, len(symbols))
	)

	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i, sym := range symbols {
		if runCtx.Err() != nil {
			break
		}
		i, sym := i, sym
		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}
			begun[i] = true
			entry, err := a.analyzeSymbol(runCtx, log, batch.RunID, sym, asOf)
			if err != nil {
				fatalOnce.Do(func() {
					fatal = err
					cancel()
				})
				return nil
			}
			batch.Entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	finished := a.now()
	batch.FinishedAt = finished
	if fatal != nil {
		a.metrics.ObserveRun("fatal", finished.Sub(started), finished)
		log.Error("bar source unavailable, aborting run", "source", a.src.Name(), "error", fatal)
		return nil, fmt.Errorf("analysis run %s: %w", batch.RunID, fatal)
	}

	for i, sym := range symbols {
		if begun[i] && batch.Entries[i].Symbol != "" {
			continue
		}
		msg := "not started"
		if err := ctx.Err(); err != nil {
			msg = "not started: " + err.Error()
		}
		batch.Entries[i] = model.BatchEntry{
			Symbol: sym,
			Err:    &model.SymbolError{Symbol: sym, Kind: model.KindCancelled, Message: msg},
		}
		a.metrics.ObserveSymbol(string(model.KindCancelled), 0)
	}

	status := "ok"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	a.metrics.ObserveRun(status, finished.Sub(started), finished)
	log.Info("analysis run finished",
		"symbols", len(symbols),
		"ok", len(batch.Results()),
		"failed", len(batch.Failures()),
		"status", status,
		"elapsed", finished.Sub(started))

	return batch, ctx.Err()
}

// preflight pings the source when it supports it. Only an unreachable
// source is an error; other ping failures are left to the per-symbol path.
func (a *Analyzer) preflight(ctx context.Context) error {
	p, ok := a.src.(collector.Pinger)
	if !ok {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := p.Ping(pctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrSourceUnavailable) {
		return err
	}
	a.log.Warn("bar source ping failed", "source", a.src.Name(), "error", err)
	return nil
}

// analyzeSymbol returns a non-nil error only for batch-wide failures.
func (a *Analyzer) analyzeSymbol(ctx context.Context, log *slog.Logger, runID, symbol string, asOf time.Time) (entry model.BatchEntry, fatal error) {
	start := a.now()
	log = log.With("symbol", symbol)
	entry.Symbol = symbol

	symCtx, cancel := ctx, context.CancelFunc(func() {})
	if a.timeout > 0 {
		symCtx, cancel = context.WithTimeout(ctx, a.timeout)
	}
	defer cancel()

	fail := func(kind model.ErrorKind, err error) {
		log.Error("symbol analysis failed", "stage", string(kind), "error", err)
		entry.Err = &model.SymbolError{Symbol: symbol, Kind: kind, Message: err.Error()}
		a.metrics.ObserveSymbol(string(kind), a.now().Sub(start))
	}

	defer func() {
		if r := recover(); r != nil {
			entry.Result = nil
			fail(model.KindComputation, &model.ComputationError{Stage: "analyze", Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	fetchStart := time.Now()
	bars, err := a.src.Fetch(symCtx, symbol, a.freq, asOf)
	a.metrics.ObserveFetch(a.src.Name(), time.Since(fetchStart))
	if err != nil {
		if errors.Is(err, model.ErrSourceUnavailable) {
			return entry, err
		}
		fail(fetchKind(ctx, symCtx, err), err)
		return entry, nil
	}

	bars = model.TrimAfter(bars, asOf)
	if len(bars) == 0 {
		fail(model.KindFetch, &model.FetchError{Symbol: symbol, Source: a.src.Name(), Err: errors.New("no bars returned")})
		return entry, nil
	}

	res, sets, err := a.analyze(runID, symbol, bars)
	if err != nil {
		fail(analyzeKind(err), err)
		return entry, nil
	}
	if a.series != nil {
		if err := a.series.SaveSeries(context.WithoutCancel(symCtx), symbol, bars, sets); err != nil {
			log.Warn("save series failed", "bars", len(bars), "error", err)
		}
	}
	res.Elapsed = a.now().Sub(start)
	entry.Result = res

	a.metrics.ObserveSymbol("ok", res.Elapsed)
	a.metrics.ObserveSignal(string(res.Recommendation.Action), res.Recommendation.Confidence)
	log.Debug("symbol analyzed",
		"trend", res.Trend.String(),
		"rule", res.TrendRule,
		"action", res.Recommendation.Action,
		"confidence", res.Recommendation.Confidence)
	return entry, nil
}

// AnalyzeBars runs the indicator, trend and signal stages over bars. It is
// a pure function of its inputs.
func (a *Analyzer) AnalyzeBars(runID, symbol string, bars []model.Bar) (*model.AnalysisResult, error) {
	res, _, err := a.analyze(runID, symbol, bars)
	return res, err
}

func (a *Analyzer) analyze(runID, symbol string, bars []model.Bar) (*model.AnalysisResult, []model.IndicatorSet, error) {
	if len(bars) == 0 {
		return nil, nil, &model.DataQualityError{Symbol: symbol, Reason: "empty series"}
	}
	sets, err := a.engine.Compute(bars)
	if err != nil {
		var dq *model.DataQualityError
		if errors.As(err, &dq) && dq.Symbol == "" {
			dq.Symbol = symbol
		}
		return nil, nil, err
	}
	last := sets[len(sets)-1]

	trend, rule := a.classifier.Explain(last, last.Close)
	rec := a.generator.Generate(trend, last)
	if !trend.Valid() || rec.Confidence < 0 || rec.Confidence > 1 {
		return nil, nil, &model.ComputationError{Stage: "signal", Err: fmt.Errorf("trend %v confidence %v out of range", trend, rec.Confidence)}
	}

	return &model.AnalysisResult{
		RunID:          runID,
		Symbol:         symbol,
		Timestamp:      last.Time,
		Price:          last.Close,
		PriceChange:    last.Close - bars[0].Close,
		Bars:           len(bars),
		Indicators:     last,
		Trend:          trend,
		TrendRule:      rule,
		Recommendation: rec,
		Levels:         strategy.Levels(rec.Action, last.Close, a.levels),
		Risk:           strategy.RiskFor(last),
	}, sets, nil
}

func fetchKind(parent, symCtx context.Context, err error) model.ErrorKind {
	switch {
	case parent.Err() != nil:
		return model.KindCancelled
	case errors.Is(symCtx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return model.KindTimeout
	}
	return model.KindFetch
}

func analyzeKind(err error) model.ErrorKind {
	var dq *model.DataQualityError
	if errors.As(err, &dq) {
		return model.KindDataQuality
	}
	return model.KindComputation
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
