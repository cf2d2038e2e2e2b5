package strategy

import (
	"errors"

	"github.com/shopspring/decimal"

	"FuturesSentinel/internal/model"
)

// LevelConfig holds the stop-loss and take-profit distances as fractions
// of the entry price.
type LevelConfig struct {
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
}

// DefaultLevelConfig uses a 2% stop and a 5% target.
func DefaultLevelConfig() LevelConfig {
	return LevelConfig{StopLossPct: 0.02, TakeProfitPct: 0.05}
}

func (c LevelConfig) Validate() error {
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return errors.New("stop_loss_pct must be in (0,1)")
	}
	if c.TakeProfitPct <= 0 {
		return errors.New("take_profit_pct must be positive")
	}
	return nil
}

const priceScale = 4

// Levels suggests entry, target and stop prices for action at price. Hold
// and non-positive prices yield zero levels.
func Levels(action model.Action, price float64, cfg LevelConfig) model.TradeLevels {
	if price <= 0 || action == model.ActionHold {
		return model.TradeLevels{}
	}
	entry := decimal.NewFromFloat(price)
	one := decimal.NewFromInt(1)
	stopPct := decimal.NewFromFloat(cfg.StopLossPct)
	takePct := decimal.NewFromFloat(cfg.TakeProfitPct)

	var target, stop decimal.Decimal
	switch action {
	case model.ActionBuy:
		target = entry.Mul(one.Add(takePct))
		stop = entry.Mul(one.Sub(stopPct))
	case model.ActionSell:
		target = entry.Mul(one.Sub(takePct))
		stop = entry.Mul(one.Add(stopPct))
	default:
		return model.TradeLevels{}
	}

	levels := model.TradeLevels{
		Entry:    entry.Round(priceScale).InexactFloat64(),
		Target:   target.Round(priceScale).InexactFloat64(),
		StopLoss: stop.Round(priceScale).InexactFloat64(),
	}
	if risk := entry.Sub(stop).Abs(); !risk.IsZero() {
		levels.RiskReward = target.Sub(entry).Abs().Div(risk).Round(2).InexactFloat64()
	}
	return levels
}

// Risk thresholds on bandwidth / middle band.
const (
	lowRiskBandwidth    = 0.04
	mediumRiskBandwidth = 0.10
)

// RiskFor grades volatility from the relative Bollinger bandwidth. Without
// bands the risk is medium.
func RiskFor(set model.IndicatorSet) model.RiskLevel {
	bw, ok := set.Bollinger.Bandwidth()
	if !ok || set.Bollinger.Middle.V <= 0 {
		return model.RiskMedium
	}
	rel := bw / set.Bollinger.Middle.V
	switch {
	case rel < lowRiskBandwidth:
		return model.RiskLow
	case rel < mediumRiskBandwidth:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}
