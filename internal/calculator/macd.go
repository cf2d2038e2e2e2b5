package calculator

import "FuturesSentinel/internal/model"

// MACDSeries computes value = EMA(fast) - EMA(slow), signal = EMA(value, signal)
// and histogram = value - signal. All three lines stay undefined until the
// signal EMA has completed its own seed window.
func MACDSeries(prices []float64, fast, slow, signal int) []model.MACD {
	out := make([]model.MACD, len(prices))
	fastEMA := EMASeries(prices, fast)
	slowEMA := EMASeries(prices, slow)

	line := make([]model.Value, len(prices))
	for i := range prices {
		if fastEMA[i].Valid && slowEMA[i].Valid {
			line[i] = model.Defined(fastEMA[i].V - slowEMA[i].V)
		}
	}

	sig := emaOver(line, signal)
	for i := range prices {
		if !sig[i].Valid {
			continue
		}
		out[i] = model.MACD{
			Value:     line[i],
			Signal:    sig[i],
			Histogram: model.Defined(line[i].V - sig[i].V),
		}
	}
	return out
}
