package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/calculator"
	"FuturesSentinel/internal/model"
)

func macdSet(value, signal float64) model.MACD {
	return model.MACD{
		Value:     model.Defined(value),
		Signal:    model.Defined(signal),
		Histogram: model.Defined(value - signal),
	}
}

func barsFromCloses(closes []float64) []model.Bar {
	t0 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Symbol: "RB", Time: t0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 10}
	}
	return bars
}

func TestClassify_RuleOrder(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name  string
		set   model.IndicatorSet
		price float64
		want  model.TrendType
		rule  string
	}{
		{
			name:  "macd bullish above short sma",
			set:   model.IndicatorSet{MACD: macdSet(2, 1), SMAShort: model.Defined(100), RSI: model.Defined(20)},
			price: 101,
			want:  model.Uptrend,
			rule:  "macd_bullish_above_short_sma",
		},
		{
			name:  "macd bearish below short sma beats overbought rsi",
			set:   model.IndicatorSet{MACD: macdSet(1, 2), SMAShort: model.Defined(100), RSI: model.Defined(80)},
			price: 99,
			want:  model.Downtrend,
			rule:  "macd_bearish_below_short_sma",
		},
		{
			name:  "macd bullish but price below sma falls through to rsi",
			set:   model.IndicatorSet{MACD: macdSet(2, 1), SMAShort: model.Defined(100), RSI: model.Defined(25)},
			price: 99,
			want:  model.Downtrend,
			rule:  "rsi_momentum",
		},
		{
			name:  "undefined macd skips to rsi overbought",
			set:   model.IndicatorSet{SMAShort: model.Defined(100), RSI: model.Defined(75)},
			price: 101,
			want:  model.Uptrend,
			rule:  "rsi_momentum",
		},
		{
			name:  "rsi at boundary is not decisive",
			set:   model.IndicatorSet{RSI: model.Defined(70)},
			price: 101,
			want:  model.Sideways,
			rule:  "default",
		},
		{
			name:  "all undefined",
			set:   model.IndicatorSet{},
			price: 101,
			want:  model.Sideways,
			rule:  "default",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := c.Explain(tt.set, tt.price)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.want, c.Classify(tt.set, tt.price))
		})
	}
}

func TestClassify_AlwaysClosedValue(t *testing.T) {
	c := NewClassifier()
	for _, rsi := range []float64{0, 10, 29.9, 30, 50, 70, 70.1, 100} {
		for _, hist := range []float64{-1, 0, 1} {
			set := model.IndicatorSet{RSI: model.Defined(rsi), MACD: macdSet(hist, 0), SMAShort: model.Defined(10)}
			for _, price := range []float64{9, 10, 11} {
				assert.True(t, c.Classify(set, price).Valid())
			}
		}
	}
}

func TestClassifier_RulesIsACopy(t *testing.T) {
	c := NewClassifier()
	rules := c.Rules()
	require.Len(t, rules, len(DefaultRules))
	rules[0] = Rule{Name: "mutated"}
	assert.Equal(t, "macd_bullish_above_short_sma", c.Rules()[0].Name)
}

func TestClassifier_CustomRules(t *testing.T) {
	always := Rule{Name: "always_down", Eval: func(model.IndicatorSet, float64) (model.TrendType, bool) {
		return model.Downtrend, true
	}}
	invalid := Rule{Name: "invalid", Eval: func(model.IndicatorSet, float64) (model.TrendType, bool) {
		return model.TrendType(9), true
	}}
	got, rule := NewClassifier(invalid, always).Explain(model.IndicatorSet{}, 1)
	assert.Equal(t, model.Downtrend, got)
	assert.Equal(t, "always_down", rule)
}

func TestClassify_MonotoneUptrend(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	engine, err := calculator.NewEngine(calculator.DefaultConfig())
	require.NoError(t, err)
	set, err := engine.Latest(barsFromCloses(closes))
	require.NoError(t, err)

	assert.Equal(t, model.Uptrend, NewClassifier().Classify(set, set.Close))
}
