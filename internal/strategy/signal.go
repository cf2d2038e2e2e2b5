package strategy

import (
	"errors"
	"fmt"
	"math"

	"FuturesSentinel/internal/model"
)

// LowDataConfidenceCap bounds confidence when fewer than two indicator
// families are defined.
const LowDataConfidenceCap = 0.3

// Weights are the relative weights of the confidence contributors.
type Weights struct {
	MACD float64 `yaml:"macd"`
	RSI  float64 `yaml:"rsi"`
	Band float64 `yaml:"band"`
}

// DefaultWeights weighs every contributor equally.
func DefaultWeights() Weights { return Weights{MACD: 1, RSI: 1, Band: 1} }

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"macd": w.MACD, "rsi": w.RSI, "band": w.Band} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative number, got %v", name, v)
		}
	}
	if w.MACD+w.RSI+w.Band == 0 {
		return errors.New("at least one weight must be positive")
	}
	return nil
}

// Generator turns a trend and its indicators into a Recommendation.
type Generator struct {
	weights Weights
}

// NewGenerator returns a Generator using w.
func NewGenerator(w Weights) *Generator {
	return &Generator{weights: w}
}

// Generate maps trend to an action and scores confidence. Each defined
// contributor is normalized into [0,1] and weighted; directional trends
// reward agreement with the trend, Sideways rewards neutrality.
func (g *Generator) Generate(trend model.TrendType, set model.IndicatorSet) model.Recommendation {
	if !trend.Valid() {
		trend = model.Sideways
	}
	factors := g.factors(trend, set)

	var sum, weights float64
	for _, f := range factors {
		sum += f.Weighted
		weights += f.Weight
	}
	confidence := 0.0
	if weights > 0 {
		confidence = clamp01(sum / weights)
	}

	rec := model.Recommendation{
		Action:     model.ActionFor(trend),
		Confidence: confidence,
		Factors:    factors,
	}
	if set.DefinedCount() < 2 && rec.Confidence > LowDataConfidenceCap {
		rec.Confidence = LowDataConfidenceCap
		rec.Capped = true
	}
	return rec
}

func (g *Generator) factors(trend model.TrendType, set model.IndicatorSet) []model.FactorScore {
	var out []model.FactorScore
	add := func(name string, raw, weight float64, commentary string) {
		if weight <= 0 {
			return
		}
		raw = clamp01(raw)
		out = append(out, model.FactorScore{
			Name:       name,
			RawScore:   raw,
			Weight:     weight,
			Weighted:   raw * weight,
			Commentary: commentary,
		})
	}

	dir := direction(trend)

	if set.MACD.Defined() {
		strength := macdStrength(set.MACD)
		add("macd", score(dir, strength), g.weights.MACD,
			fmt.Sprintf("histogram=%.4f", set.MACD.Histogram.V))
	}
	if rsi, ok := set.RSI.Get(); ok {
		add("rsi", score(dir, (rsi-50)/50), g.weights.RSI, fmt.Sprintf("RSI=%.1f", rsi))
	}
	if dist, ok := bandDistance(set); ok {
		add("band", score(dir, dist), g.weights.Band, fmt.Sprintf("distance=%+.2f half-bandwidths", dist))
	}
	return out
}

// score normalizes a signed strength in [-1,1] into [0,1]. With a
// direction it measures agreement; without one it measures neutrality.
func score(dir, strength float64) float64 {
	strength = math.Max(-1, math.Min(1, strength))
	if dir == 0 {
		return 1 - math.Abs(strength)
	}
	return 0.5 + 0.5*dir*strength
}

func direction(t model.TrendType) float64 {
	switch t {
	case model.Uptrend:
		return 1
	case model.Downtrend:
		return -1
	}
	return 0
}

// macdStrength is the histogram relative to the combined line magnitudes.
func macdStrength(m model.MACD) float64 {
	denom := math.Abs(m.Value.V) + math.Abs(m.Signal.V)
	if denom == 0 {
		return 0
	}
	return m.Histogram.V / denom
}

// bandDistance is (close - SMA) over half the Bollinger bandwidth, clamped
// to [-1,1]. A zero bandwidth counts as no distance.
func bandDistance(set model.IndicatorSet) (float64, bool) {
	bw, ok := set.Bollinger.Bandwidth()
	if !ok {
		return 0, false
	}
	center := set.Bollinger.Middle.V
	if set.SMA.Valid {
		center = set.SMA.V
	}
	if bw == 0 {
		return 0, true
	}
	d := (set.Close - center) / (bw / 2)
	return math.Max(-1, math.Min(1, d)), true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
