package strategy

import "FuturesSentinel/internal/model"

// Rule is one step of the trend decision table. Eval returns ok=false when
// the rule is not decisive for the given inputs, including when any input it
// needs is undefined.
type Rule struct {
	Name string
	Eval func(set model.IndicatorSet, price float64) (model.TrendType, bool)
}

// RSI momentum bounds.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// DefaultRules is the trend decision table in priority order. The first
// decisive rule wins.
var DefaultRules = []Rule{
	{Name: "macd_bullish_above_short_sma", Eval: macdBullish},
	{Name: "macd_bearish_below_short_sma", Eval: macdBearish},
	{Name: "rsi_momentum", Eval: rsiMomentum},
}

func macdBullish(set model.IndicatorSet, price float64) (model.TrendType, bool) {
	if !set.MACD.Defined() || !set.SMAShort.Valid {
		return 0, false
	}
	if set.MACD.Value.V > set.MACD.Signal.V && price > set.SMAShort.V {
		return model.Uptrend, true
	}
	return 0, false
}

func macdBearish(set model.IndicatorSet, price float64) (model.TrendType, bool) {
	if !set.MACD.Defined() || !set.SMAShort.Valid {
		return 0, false
	}
	if set.MACD.Value.V < set.MACD.Signal.V && price < set.SMAShort.V {
		return model.Downtrend, true
	}
	return 0, false
}

func rsiMomentum(set model.IndicatorSet, _ float64) (model.TrendType, bool) {
	rsi, ok := set.RSI.Get()
	if !ok {
		return 0, false
	}
	switch {
	case rsi > RSIOverbought:
		return model.Uptrend, true
	case rsi < RSIOversold:
		return model.Downtrend, true
	}
	return 0, false
}

// Classifier derives a TrendType from one IndicatorSet. It is stateless.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier over rules, or DefaultRules when none
// are given.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Rules returns the rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify walks the rules and falls back to Sideways.
func (c *Classifier) Classify(set model.IndicatorSet, price float64) model.TrendType {
	trend, _ := c.Explain(set, price)
	return trend
}

// Explain is Classify plus the name of the deciding rule ("default" when
// no rule fired).
func (c *Classifier) Explain(set model.IndicatorSet, price float64) (model.TrendType, string) {
	for _, r := range c.rules {
		if trend, ok := r.Eval(set, price); ok && trend.Valid() {
			return trend, r.Name
		}
	}
	return model.Sideways, "default"
}
