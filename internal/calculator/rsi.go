package calculator

import (
	"FuturesSentinel/internal/model"
)

// neutralRSI is reported for a perfectly flat window (no gains and no losses).
const neutralRSI = 50.0

// RSISeries computes the Wilder-smoothed RSI at every index. The first value
// needs period price changes, i.e. period+1 bars.
//
// avgLoss == 0 with avgGain > 0 yields 100. A flat window yields 50.
func RSISeries(prices []float64, period int) []model.Value {
	out := make([]model.Value, len(prices))
	if period <= 0 || len(prices) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = model.Defined(rsiFrom(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = model.Defined(rsiFrom(avgGain, avgLoss))
	}
	return out
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return neutralRSI
		}
		return 100
	}
	rs := avgGain / avgLoss
	return clamp(100-100/(1+rs), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
