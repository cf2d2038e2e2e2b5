package report

import (
	"time"

	"github.com/shopspring/decimal"

	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/recorder"
)

// TrendShare is one bucket of a trend distribution.
type TrendShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SymbolReport summarizes the stored signal history of one symbol.
type SymbolReport struct {
	Symbol        string                         `json:"symbol"`
	Signals       int                            `json:"signals"`
	From          time.Time                      `json:"from"`
	To            time.Time                      `json:"to"`
	Distribution  map[model.TrendType]TrendShare `json:"trend_distribution"`
	DominantTrend model.TrendType                `json:"dominant_trend"`
	Stability     float64                        `json:"trend_stability"`
	AvgConfidence float64                        `json:"avg_confidence"`
	Risk          model.RiskLevel                `json:"risk"`
	Latest        *recorder.AnalysisRow          `json:"latest,omitempty"`
}

// BuildSymbolReport aggregates rows, newest first as returned by
// Recorder.History. The dominant trend is the most frequent one, ties going
// to the trend seen most recently; with no rows it is Sideways. Stability is
// 1 - changes/len, rounded to four places, and zero below two signals.
func BuildSymbolReport(symbol string, rows []recorder.AnalysisRow) SymbolReport {
	rep := SymbolReport{
		Symbol:        symbol,
		Signals:       len(rows),
		Distribution:  make(map[model.TrendType]TrendShare),
		DominantTrend: model.Sideways,
		Risk:          model.RiskHigh,
	}
	if len(rows) == 0 {
		return rep
	}
	latest := rows[0]
	rep.Latest = &latest
	rep.To = rows[0].BarTime
	rep.From = rows[len(rows)-1].BarTime

	counts := make(map[model.TrendType]int)
	var order []model.TrendType
	var confSum float64
	changes := 0
	for i, r := range rows {
		if counts[r.Trend] == 0 {
			order = append(order, r.Trend)
		}
		counts[r.Trend]++
		confSum += r.Confidence
		if i > 0 && r.Trend != rows[i-1].Trend {
			changes++
		}
	}

	best := 0
	for _, t := range order {
		if counts[t] > best {
			best = counts[t]
			rep.DominantTrend = t
		}
		pct := decimal.NewFromInt(int64(counts[t] * 100)).Div(decimal.NewFromInt(int64(len(rows)))).Round(2)
		rep.Distribution[t] = TrendShare{Count: counts[t], Percentage: pct.InexactFloat64()}
	}

	if len(rows) > 1 {
		ratio := decimal.NewFromInt(int64(changes)).Div(decimal.NewFromInt(int64(len(rows))))
		rep.Stability = decimal.NewFromInt(1).Sub(ratio).Round(4).InexactFloat64()
	}
	rep.AvgConfidence = decimal.NewFromFloat(confSum / float64(len(rows))).Round(4).InexactFloat64()
	rep.Risk = riskFromConfidence(rep.AvgConfidence)
	return rep
}

func riskFromConfidence(avg float64) model.RiskLevel {
	switch {
	case avg >= 0.8:
		return model.RiskLow
	case avg >= 0.6:
		return model.RiskMedium
	}
	return model.RiskHigh
}
