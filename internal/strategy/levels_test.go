package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FuturesSentinel/internal/model"
)

func TestLevels(t *testing.T) {
	cfg := DefaultLevelConfig()

	buy := Levels(model.ActionBuy, 3500, cfg)
	assert.Equal(t, model.TradeLevels{Entry: 3500, Target: 3675, StopLoss: 3430, RiskReward: 2.5}, buy)

	sell := Levels(model.ActionSell, 3500, cfg)
	assert.Equal(t, model.TradeLevels{Entry: 3500, Target: 3325, StopLoss: 3570, RiskReward: 2.5}, sell)

	assert.Equal(t, model.TradeLevels{}, Levels(model.ActionHold, 3500, cfg))
	assert.Equal(t, model.TradeLevels{}, Levels(model.ActionBuy, 0, cfg))
}

func TestLevels_RoundsToFourPlaces(t *testing.T) {
	lv := Levels(model.ActionBuy, 1.23456789, DefaultLevelConfig())
	assert.Equal(t, 1.2346, lv.Entry)
	assert.Equal(t, 1.2963, lv.Target)
	assert.Equal(t, 1.2099, lv.StopLoss)
}

func TestLevelConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultLevelConfig().Validate())
	assert.Error(t, LevelConfig{StopLossPct: 0, TakeProfitPct: 0.05}.Validate())
	assert.Error(t, LevelConfig{StopLossPct: 0.02}.Validate())
}

func TestRiskFor(t *testing.T) {
	band := func(lower, middle, upper float64) model.IndicatorSet {
		return model.IndicatorSet{Bollinger: model.Bollinger{
			Upper: model.Defined(upper), Middle: model.Defined(middle), Lower: model.Defined(lower),
		}}
	}
	assert.Equal(t, model.RiskLow, RiskFor(band(99, 100, 101)))
	assert.Equal(t, model.RiskMedium, RiskFor(band(97, 100, 103)))
	assert.Equal(t, model.RiskHigh, RiskFor(band(90, 100, 110)))
	assert.Equal(t, model.RiskMedium, RiskFor(model.IndicatorSet{}))
}
