package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/model"
)

var day0 = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

func barsFromCloses(closes []float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Symbol: "RB",
			Time:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 5*math.Sin(float64(i)/3) + 0.3*float64(i)
	}
	return out
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	sma, err := CalculateSMA([]float64{100, 102, 104, 103, 105}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 104.0, sma, 1e-9)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestSMASeries_UndefinedUntilWindowFull(t *testing.T) {
	got := SMASeries([]float64{100, 102, 104, 103, 105}, 3)
	want := []model.Value{{}, {}, model.Defined(102), model.Defined(103), model.Defined(104)}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Valid, got[i].Valid, "index %d", i)
		if want[i].Valid {
			assert.InDelta(t, want[i].V, got[i].V, 1e-9, "index %d", i)
		}
	}
}

func TestEMASeries_SeededBySMA(t *testing.T) {
	// EMA(3): seed = (2+4+6)/3 = 4, k = 0.5
	// idx3: (8-4)*0.5+4 = 6, idx4: (10-6)*0.5+6 = 8
	got := EMASeries([]float64{2, 4, 6, 8, 10}, 3)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assert.InDelta(t, 4.0, got[2].V, 1e-12)
	assert.InDelta(t, 6.0, got[3].V, 1e-12)
	assert.InDelta(t, 8.0, got[4].V, 1e-12)
}

func TestRSISeries_Bounds(t *testing.T) {
	closes := wave(120)
	for i, v := range RSISeries(closes, 14) {
		if i < 14 {
			assert.False(t, v.Valid, "index %d", i)
			continue
		}
		require.True(t, v.Valid, "index %d", i)
		assert.GreaterOrEqual(t, v.V, 0.0)
		assert.LessOrEqual(t, v.V, 100.0)
	}
}

func TestRSISeries_ZeroLoss(t *testing.T) {
	rsi, ok := lastValue(RSISeries(ramp(20, 100, 1), 14))
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi)

	rsi, ok = lastValue(RSISeries(ramp(20, 100, -1), 14))
	require.True(t, ok)
	assert.Equal(t, 0.0, rsi)
}

func TestRSISeries_FlatIsNeutral(t *testing.T) {
	rsi, ok := lastValue(RSISeries(ramp(30, 3500, 0), 14))
	require.True(t, ok)
	assert.Equal(t, 50.0, rsi)
}

func TestMACDSeries_AllOrNothing(t *testing.T) {
	closes := wave(60)
	macd := MACDSeries(closes, 12, 26, 9)
	firstDefined := 26 + 9 - 2
	for i, m := range macd {
		if i < firstDefined {
			assert.False(t, m.Value.Valid || m.Signal.Valid || m.Histogram.Valid, "index %d", i)
			continue
		}
		require.True(t, m.Defined(), "index %d", i)
		assert.InDelta(t, m.Value.V-m.Signal.V, m.Histogram.V, 1e-12)
	}
}

func TestMACDSeries_MatchesManualEMAs(t *testing.T) {
	closes := wave(50)
	fast := EMASeries(closes, 12)
	slow := EMASeries(closes, 26)
	macd := MACDSeries(closes, 12, 26, 9)

	// Signal seed is the mean of the first nine MACD line values.
	seed := 0.0
	for i := 25; i < 34; i++ {
		seed += fast[i].V - slow[i].V
	}
	seed /= 9
	assert.InDelta(t, seed, macd[33].Signal.V, 1e-9)
	assert.InDelta(t, fast[40].V-slow[40].V, macd[40].Value.V, 1e-9)
}

func TestBollingerSeries_Ordering(t *testing.T) {
	for _, closes := range [][]float64{wave(80), ramp(40, 100, 1), ramp(40, 100, 0)} {
		for i, b := range BollingerSeries(closes, 20, 2) {
			if i < 19 {
				assert.False(t, b.Defined())
				continue
			}
			require.True(t, b.Defined())
			assert.LessOrEqual(t, b.Lower.V, b.Middle.V)
			assert.LessOrEqual(t, b.Middle.V, b.Upper.V)
		}
	}
}

func TestAgainstTALib(t *testing.T) {
	closes := wave(120)

	sma := SMASeries(closes, 20)
	refSMA := talib.Sma(closes, 20)
	ema := EMASeries(closes, 20)
	refEMA := talib.Ema(closes, 20)
	rsi := RSISeries(closes, 14)
	refRSI := talib.Rsi(closes, 14)
	bb := BollingerSeries(closes, 20, 2)
	refUpper, refMiddle, refLower := talib.BBands(closes, 20, 2, 2, talib.SMA)

	for i := range closes {
		if sma[i].Valid {
			assert.InDelta(t, refSMA[i], sma[i].V, 1e-9, "sma %d", i)
		}
		if ema[i].Valid {
			assert.InDelta(t, refEMA[i], ema[i].V, 1e-9, "ema %d", i)
		}
		if rsi[i].Valid {
			assert.InDelta(t, refRSI[i], rsi[i].V, 1e-6, "rsi %d", i)
		}
		if bb[i].Defined() {
			assert.InDelta(t, refUpper[i], bb[i].Upper.V, 1e-6, "upper %d", i)
			assert.InDelta(t, refMiddle[i], bb[i].Middle.V, 1e-9, "middle %d", i)
			assert.InDelta(t, refLower[i], bb[i].Lower.V, 1e-6, "lower %d", i)
		}
	}
}

func lastValue(series []model.Value) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1].Get()
}
