package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FuturesSentinel/internal/model"
)

// AnalysisRow is the stored form of one AnalysisResult, keyed by
// (Symbol, BarTime). Undefined indicators are nil.
type AnalysisRow struct {
	Symbol      string          `json:"symbol"`
	BarTime     time.Time       `json:"bar_time"`
	RunID       string          `json:"run_id"`
	Price       float64         `json:"price"`
	PriceChange float64         `json:"price_change"`
	Bars        int             `json:"bars"`
	SMAShort    *float64        `json:"sma_short,omitempty"`
	SMA         *float64        `json:"sma,omitempty"`
	EMA         *float64        `json:"ema,omitempty"`
	RSI         *float64        `json:"rsi,omitempty"`
	MACD        *float64        `json:"macd,omitempty"`
	MACDSignal  *float64        `json:"macd_signal,omitempty"`
	MACDHist    *float64        `json:"macd_hist,omitempty"`
	BBUpper     *float64        `json:"bb_upper,omitempty"`
	BBMiddle    *float64        `json:"bb_middle,omitempty"`
	BBLower     *float64        `json:"bb_lower,omitempty"`
	Trend       model.TrendType `json:"trend"`
	Action      model.Action    `json:"action"`
	Confidence  float64         `json:"confidence"`
	Entry       float64         `json:"entry"`
	Target      float64         `json:"target"`
	StopLoss    float64         `json:"stop_loss"`
	Risk        model.RiskLevel `json:"risk"`
	ElapsedMS   int64           `json:"elapsed_ms"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RunRecord summarizes one persisted batch.
type RunRecord struct {
	RunID      string              `json:"run_id"`
	AsOf       time.Time           `json:"as_of"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Total      int                 `json:"total"`
	OK         int                 `json:"ok"`
	Failed     int                 `json:"failed"`
	Failures   []model.SymbolError `json:"failures,omitempty"`
}

// Recorder persists analysis results and batch runs.
type Recorder interface {
	// SaveAnalysis upserts res keyed by (symbol, bar timestamp).
	SaveAnalysis(ctx context.Context, res *model.AnalysisResult) error
	// RecordRun stores the batch summary and its per-symbol failures.
	RecordRun(ctx context.Context, batch *model.BatchResult) error
	// LatestResults returns the newest row per symbol, at most limit rows.
	LatestResults(ctx context.Context, limit int) ([]AnalysisRow, error)
	// History returns up to limit rows for symbol, newest first.
	History(ctx context.Context, symbol string, limit int) ([]AnalysisRow, error)
	// LastRun returns the most recent run, or nil when none exists.
	LastRun(ctx context.Context) (*RunRecord, error)
	// SaveSeries upserts bars and their indicator sets keyed by
	// (symbol, bar timestamp). sets is either empty or parallel to bars.
	SaveSeries(ctx context.Context, symbol string, bars []model.Bar, sets []model.IndicatorSet) error
	// Bars returns up to limit stored bars for symbol, oldest first.
	Bars(ctx context.Context, symbol string, limit int) ([]model.Bar, error)
	// IndicatorHistory returns up to limit stored indicator sets for
	// symbol, oldest first.
	IndicatorHistory(ctx context.Context, symbol string, limit int) ([]model.IndicatorSet, error)
	Close() error
}

// SaveBatch saves every result of batch and then records the run. It keeps
// going after a failed save and reports all errors together.
func SaveBatch(ctx context.Context, r Recorder, batch *model.BatchResult) error {
	var errs []error
	for _, res := range batch.Results() {
		if err := r.SaveAnalysis(ctx, res); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", res.Symbol, err))
		}
	}
	if err := r.RecordRun(ctx, batch); err != nil {
		errs = append(errs, fmt.Errorf("record run %s: %w", batch.RunID, err))
	}
	return errors.Join(errs...)
}

// RowFromResult flattens res into its stored form.
func RowFromResult(res *model.AnalysisResult) AnalysisRow {
	ind := res.Indicators
	return AnalysisRow{
		Symbol:      res.Symbol,
		BarTime:     res.Timestamp,
		RunID:       res.RunID,
		Price:       res.Price,
		PriceChange: res.PriceChange,
		Bars:        res.Bars,
		SMAShort:    ind.SMAShort.Ptr(),
		SMA:         ind.SMA.Ptr(),
		EMA:         ind.EMA.Ptr(),
		RSI:         ind.RSI.Ptr(),
		MACD:        ind.MACD.Value.Ptr(),
		MACDSignal:  ind.MACD.Signal.Ptr(),
		MACDHist:    ind.MACD.Histogram.Ptr(),
		BBUpper:     ind.Bollinger.Upper.Ptr(),
		BBMiddle:    ind.Bollinger.Middle.Ptr(),
		BBLower:     ind.Bollinger.Lower.Ptr(),
		Trend:       res.Trend,
		Action:      res.Recommendation.Action,
		Confidence:  res.Recommendation.Confidence,
		Entry:       res.Levels.Entry,
		Target:      res.Levels.Target,
		StopLoss:    res.Levels.StopLoss,
		Risk:        res.Risk,
		ElapsedMS:   res.Elapsed.Milliseconds(),
	}
}
