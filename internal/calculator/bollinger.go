package calculator

import (
	"math"

	"FuturesSentinel/internal/model"
)

// BollingerSeries computes middle = SMA(window) and upper/lower = middle ± k·σ,
// where σ is the population standard deviation of the same window.
func BollingerSeries(prices []float64, window int, k float64) []model.Bollinger {
	out := make([]model.Bollinger, len(prices))
	middle := SMASeries(prices, window)
	for i := range prices {
		if !middle[i].Valid {
			continue
		}
		mean := middle[i].V
		variance := 0.0
		for _, p := range prices[i-window+1 : i+1] {
			d := p - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(window))
		out[i] = model.Bollinger{
			Upper:  model.Defined(mean + k*sd),
			Middle: middle[i],
			Lower:  model.Defined(mean - k*sd),
		}
	}
	return out
}
