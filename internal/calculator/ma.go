package calculator

import (
	"errors"

	"FuturesSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the SMA ending at every index. Entries before the
// window fills are undefined.
func SMASeries(prices []float64, period int) []model.Value {
	out := make([]model.Value, len(prices))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(prices); i++ {
		// Summing each window from scratch keeps results independent of
		// earlier rounding.
		sma, _ := CalculateSMA(prices[:i+1], period)
		out[i] = model.Defined(sma)
	}
	return out
}

// EMASeries returns the exponential moving average with smoothing 2/(period+1),
// seeded by the SMA of the first period prices.
func EMASeries(prices []float64, period int) []model.Value {
	in := make([]model.Value, len(prices))
	for i, p := range prices {
		in[i] = model.Defined(p)
	}
	return emaOver(in, period)
}

// emaOver computes an EMA over a series whose defined values form one
// contiguous run. Seeding starts at the first defined value.
func emaOver(in []model.Value, period int) []model.Value {
	out := make([]model.Value, len(in))
	if period <= 0 {
		return out
	}
	multiplier := 2.0 / float64(period+1)

	first := -1
	for i, v := range in {
		if v.Valid {
			first = i
			break
		}
	}
	if first < 0 {
		return out
	}

	var ema, warmupSum float64
	for i := first; i < len(in); i++ {
		if !in[i].Valid {
			break
		}
		n := i - first + 1
		switch {
		case n < period:
			warmupSum += in[i].V
		case n == period:
			warmupSum += in[i].V
			ema = warmupSum / float64(period)
			out[i] = model.Defined(ema)
		default:
			ema = (in[i].V-ema)*multiplier + ema
			out[i] = model.Defined(ema)
		}
	}
	return out
}
