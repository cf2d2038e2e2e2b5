package calculator

import (
	"fmt"
	"math"

	"FuturesSentinel/internal/model"
)

// ValidateBars rejects non-finite prices and non-increasing timestamps. It
// reports the first offending index and never skips bars.
func ValidateBars(bars []model.Bar) error {
	for i, b := range bars {
		prices := []struct {
			name string
			v    float64
		}{
			{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close},
		}
		for _, p := range prices {
			if !isFinite(p.v) {
				return &model.DataQualityError{Symbol: b.Symbol, Index: i, Reason: fmt.Sprintf("%s price is not finite (%v)", p.name, p.v)}
			}
		}
		if !isFinite(b.Volume) {
			return &model.DataQualityError{Symbol: b.Symbol, Index: i, Reason: "volume is not finite"}
		}
		if b.Time.IsZero() {
			return &model.DataQualityError{Symbol: b.Symbol, Index: i, Reason: "missing timestamp"}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &model.DataQualityError{
				Symbol: b.Symbol,
				Index:  i,
				Reason: fmt.Sprintf("timestamp %s does not follow %s", b.Time.Format("2006-01-02 15:04:05"), bars[i-1].Time.Format("2006-01-02 15:04:05")),
			}
		}
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
