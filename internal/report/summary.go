package report

import (
	"sort"
	"time"

	"FuturesSentinel/internal/model"
)

// DefaultHighConfidence is the confidence at or above which a
// recommendation counts as high confidence.
const DefaultHighConfidence = 0.7

// Summary aggregates a batch for the report header.
type Summary struct {
	RunID          string                  `json:"run_id"`
	AsOf           time.Time               `json:"as_of"`
	Duration       time.Duration           `json:"duration_ns"`
	Total          int                     `json:"total"`
	Succeeded      int                     `json:"succeeded"`
	Failed         int                     `json:"failed"`
	Buy            int                     `json:"buy"`
	Sell           int                     `json:"sell"`
	Hold           int                     `json:"hold"`
	Uptrend        int                     `json:"uptrend"`
	Sideways       int                     `json:"sideways"`
	Downtrend      int                     `json:"downtrend"`
	HighConfidence int                     `json:"high_confidence"`
	Threshold      float64                 `json:"high_confidence_threshold"`
	AvgConfidence  float64                 `json:"avg_confidence"`
	FailuresByKind map[model.ErrorKind]int `json:"failures_by_kind,omitempty"`
	// TopPicks lists high-confidence buy/sell symbols, most confident first.
	TopPicks []string `json:"top_picks,omitempty"`
}

// Summarize counts actions, trends and failures in batch.
func Summarize(batch *model.BatchResult, highConfidence float64) Summary {
	s := Summary{
		RunID:     batch.RunID,
		AsOf:      batch.AsOf,
		Duration:  batch.FinishedAt.Sub(batch.StartedAt),
		Total:     len(batch.Entries),
		Threshold: highConfidence,
	}
	if s.Duration < 0 {
		s.Duration = 0
	}

	var picks []*model.AnalysisResult
	var confSum float64
	for _, e := range batch.Entries {
		if e.Err != nil {
			s.Failed++
			if s.FailuresByKind == nil {
				s.FailuresByKind = make(map[model.ErrorKind]int)
			}
			s.FailuresByKind[e.Err.Kind]++
			continue
		}
		if e.Result == nil {
			continue
		}
		r := e.Result
		s.Succeeded++
		confSum += r.Recommendation.Confidence

		switch r.Recommendation.Action {
		case model.ActionBuy:
			s.Buy++
		case model.ActionSell:
			s.Sell++
		default:
			s.Hold++
		}
		switch r.Trend {
		case model.Uptrend:
			s.Uptrend++
		case model.Downtrend:
			s.Downtrend++
		default:
			s.Sideways++
		}
		if r.Recommendation.Confidence >= highConfidence {
			s.HighConfidence++
			if r.Recommendation.Action != model.ActionHold {
				picks = append(picks, r)
			}
		}
	}
	if s.Succeeded > 0 {
		s.AvgConfidence = confSum / float64(s.Succeeded)
	}

	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].Recommendation.Confidence > picks[j].Recommendation.Confidence
	})
	for _, p := range picks {
		s.TopPicks = append(s.TopPicks, p.Symbol)
	}
	return s
}
