package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/recorder"
)

func historyRows(trends []model.TrendType, confs []float64) []recorder.AnalysisRow {
	rows := make([]recorder.AnalysisRow, len(trends))
	for i, tr := range trends {
		rows[i] = recorder.AnalysisRow{
			Symbol:     "RB",
			BarTime:    asOf.AddDate(0, 0, -i),
			Trend:      tr,
			Action:     model.ActionFor(tr),
			Confidence: confs[i],
		}
	}
	return rows
}

func TestBuildSymbolReport(t *testing.T) {
	rows := historyRows(
		[]model.TrendType{model.Uptrend, model.Uptrend, model.Sideways, model.Uptrend, model.Downtrend},
		[]float64{0.9, 0.8, 0.7, 0.85, 0.75},
	)
	rep := BuildSymbolReport("RB", rows)

	assert.Equal(t, 5, rep.Signals)
	assert.Equal(t, model.Uptrend, rep.DominantTrend)
	assert.Equal(t, TrendShare{Count: 3, Percentage: 60}, rep.Distribution[model.Uptrend])
	assert.Equal(t, TrendShare{Count: 1, Percentage: 20}, rep.Distribution[model.Downtrend])
	assert.Equal(t, 0.4, rep.Stability)
	assert.Equal(t, 0.8, rep.AvgConfidence)
	assert.Equal(t, model.RiskLow, rep.Risk)
	assert.Equal(t, asOf, rep.To)
	assert.Equal(t, asOf.AddDate(0, 0, -4), rep.From)
	require.NotNil(t, rep.Latest)
	assert.Equal(t, model.Uptrend, rep.Latest.Trend)
}

func TestBuildSymbolReport_TieGoesToMostRecent(t *testing.T) {
	rep := BuildSymbolReport("RB", historyRows(
		[]model.TrendType{model.Downtrend, model.Uptrend},
		[]float64{0.6, 0.7},
	))
	assert.Equal(t, model.Downtrend, rep.DominantTrend)
	assert.Equal(t, 0.5, rep.Stability)
	assert.Equal(t, model.RiskMedium, rep.Risk)
}

func TestBuildSymbolReport_RoundsPercentages(t *testing.T) {
	rep := BuildSymbolReport("RB", historyRows(
		[]model.TrendType{model.Uptrend, model.Uptrend, model.Downtrend},
		[]float64{0.5, 0.5, 0.5},
	))
	assert.Equal(t, 66.67, rep.Distribution[model.Uptrend].Percentage)
	assert.Equal(t, 33.33, rep.Distribution[model.Downtrend].Percentage)
	assert.Equal(t, model.RiskHigh, rep.Risk)
}

func TestBuildSymbolReport_ShortHistory(t *testing.T) {
	empty := BuildSymbolReport("CU", nil)
	assert.Equal(t, model.Sideways, empty.DominantTrend)
	assert.Zero(t, empty.Stability)
	assert.Empty(t, empty.Distribution)
	assert.Nil(t, empty.Latest)

	single := BuildSymbolReport("CU", historyRows([]model.TrendType{model.Uptrend}, []float64{0.9}))
	assert.Equal(t, model.Uptrend, single.DominantTrend)
	assert.Zero(t, single.Stability)
	assert.Equal(t, TrendShare{Count: 1, Percentage: 100}, single.Distribution[model.Uptrend])
}
