package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/model"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RSIPeriod = 0
	_, err := NewEngine(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.MACDFast, cfg.MACDSlow = 26, 12
	_, err = NewEngine(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.BollingerK = 0
	_, err = NewEngine(cfg)
	assert.Error(t, err)
}

func TestCompute_SameLengthAndOrder(t *testing.T) {
	bars := barsFromCloses(wave(40))
	sets, err := newEngine(t).Compute(bars)
	require.NoError(t, err)
	require.Len(t, sets, len(bars))
	for i := range bars {
		assert.Equal(t, bars[i].Time, sets[i].Time)
		assert.Equal(t, bars[i].Close, sets[i].Close)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	e := newEngine(t)
	bars := barsFromCloses(wave(90))
	a, err := e.Compute(bars)
	require.NoError(t, err)
	b, err := e.Compute(bars)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompute_NoLookAhead(t *testing.T) {
	e := newEngine(t)
	bars := barsFromCloses(wave(60))
	full, err := e.Compute(bars)
	require.NoError(t, err)
	prefix, err := e.Compute(bars[:45])
	require.NoError(t, err)
	assert.Equal(t, full[:45], prefix)
}

func TestCompute_InsufficientHistory(t *testing.T) {
	sets, err := newEngine(t).Compute(barsFromCloses([]float64{100, 101, 102, 101, 103}))
	require.NoError(t, err)
	last := sets[len(sets)-1]
	assert.False(t, last.SMA.Valid)
	assert.False(t, last.EMA.Valid)
	assert.False(t, last.RSI.Valid)
	assert.False(t, last.MACD.Defined())
	assert.False(t, last.Bollinger.Defined())
	assert.True(t, last.SMAShort.Valid)
	assert.Equal(t, 0, last.DefinedCount())
}

func TestCompute_MonotoneUptrend(t *testing.T) {
	sets, err := newEngine(t).Compute(barsFromCloses(ramp(25, 100, 1)))
	require.NoError(t, err)

	for i := 20; i < 25; i++ {
		assert.Greater(t, sets[i].SMA.V, sets[i-1].SMA.V)
		assert.Greater(t, sets[i].EMA.V, sets[i-1].EMA.V)
	}
	assert.Equal(t, 100.0, sets[24].RSI.V)
}

func TestCompute_AcceleratingMACDCrossesAbove(t *testing.T) {
	closes := make([]float64, 45)
	for i := range closes {
		closes[i] = 100 + 0.05*float64(i*i)
	}
	sets, err := newEngine(t).Compute(barsFromCloses(closes))
	require.NoError(t, err)
	last := sets[len(sets)-1]
	require.True(t, last.MACD.Defined())
	assert.Greater(t, last.MACD.Value.V, last.MACD.Signal.V)
}

func TestCompute_FlatSeries(t *testing.T) {
	sets, err := newEngine(t).Compute(barsFromCloses(ramp(30, 3500, 0)))
	require.NoError(t, err)
	last := sets[len(sets)-1]
	assert.Equal(t, 50.0, last.RSI.V)
	assert.Equal(t, 3500.0, last.Bollinger.Upper.V)
	assert.Equal(t, 3500.0, last.Bollinger.Lower.V)
}

func TestCompute_DataQuality(t *testing.T) {
	e := newEngine(t)

	bars := barsFromCloses(wave(10))
	bars[6].Close = math.NaN()
	_, err := e.Compute(bars)
	var dq *model.DataQualityError
	require.True(t, errors.As(err, &dq))
	assert.Equal(t, 6, dq.Index)

	bars = barsFromCloses(wave(10))
	bars[4].Time = bars[3].Time
	_, err = e.Compute(bars)
	require.True(t, errors.As(err, &dq))
	assert.Equal(t, 4, dq.Index)

	bars = barsFromCloses(wave(10))
	bars[2].High = math.Inf(1)
	_, err = e.Compute(bars)
	require.True(t, errors.As(err, &dq))
	assert.Equal(t, 2, dq.Index)
}

func TestCompute_OverflowIsComputationError(t *testing.T) {
	closes := ramp(25, 1e308, 0)
	_, err := newEngine(t).Compute(barsFromCloses(closes))
	var ce *model.ComputationError
	assert.True(t, errors.As(err, &ce))
}

func TestLatest(t *testing.T) {
	e := newEngine(t)
	_, err := e.Latest(nil)
	assert.Error(t, err)

	set, err := e.Latest(barsFromCloses(wave(30)))
	require.NoError(t, err)
	assert.True(t, set.SMA.Valid)
}
