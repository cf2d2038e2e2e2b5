package model

import "time"

// AnalysisResult is produced once per symbol per run and never mutated afterwards.
type AnalysisResult struct {
	RunID          string         `json:"run_id"`
	Symbol         string         `json:"symbol"`
	Timestamp      time.Time      `json:"timestamp"`
	Price          float64        `json:"price"`
	PriceChange    float64        `json:"price_change"`
	Bars           int            `json:"bars"`
	Indicators     IndicatorSet   `json:"indicators"`
	Trend          TrendType      `json:"trend"`
	TrendRule      string         `json:"trend_rule,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Levels         TradeLevels    `json:"levels"`
	Risk           RiskLevel      `json:"risk"`
	Elapsed        time.Duration  `json:"elapsed_ns"`
}

// ErrorKind classifies a per-symbol failure.
type ErrorKind string

const (
	KindFetch       ErrorKind = "fetch"
	KindDataQuality ErrorKind = "data_quality"
	KindComputation ErrorKind = "computation"
	KindTimeout     ErrorKind = "timeout"
	KindCancelled   ErrorKind = "cancelled"
)

// SymbolError is the structured error entry recorded for a failed symbol.
type SymbolError struct {
	Symbol  string    `json:"symbol"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *SymbolError) Error() string { return e.Symbol + ": " + string(e.Kind) + ": " + e.Message }

// BatchEntry holds either a result or an error for one requested symbol.
type BatchEntry struct {
	Symbol string          `json:"symbol"`
	Result *AnalysisResult `json:"result,omitempty"`
	Err    *SymbolError    `json:"error,omitempty"`
}

// OK reports whether the entry carries a result.
func (e BatchEntry) OK() bool { return e.Result != nil }

// BatchResult maps every requested symbol to a result or an error, in input order.
type BatchResult struct {
	RunID      string       `json:"run_id"`
	AsOf       time.Time    `json:"as_of"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Entries    []BatchEntry `json:"entries"`
}

// Get returns the entry for symbol.
func (b *BatchResult) Get(symbol string) (BatchEntry, bool) {
	for _, e := range b.Entries {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return BatchEntry{}, false
}

// Symbols returns the entry symbols in order.
func (b *BatchResult) Symbols() []string {
	out := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Symbol
	}
	return out
}

// Results returns the successful results in input order.
func (b *BatchResult) Results() []*AnalysisResult {
	var out []*AnalysisResult
	for _, e := range b.Entries {
		if e.Result != nil {
			out = append(out, e.Result)
		}
	}
	return out
}

// Failures returns the error entries in input order.
func (b *BatchResult) Failures() []*SymbolError {
	var out []*SymbolError
	for _, e := range b.Entries {
		if e.Err != nil {
			out = append(out, e.Err)
		}
	}
	return out
}
