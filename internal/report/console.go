package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"FuturesSentinel/internal/model"
)

// ConsoleRenderer writes an aligned plain-text table.
type ConsoleRenderer struct{}

func (ConsoleRenderer) Extension() string { return "txt" }

func (ConsoleRenderer) Render(w io.Writer, batch *model.BatchResult, sum Summary) error {
	fmt.Fprintf(w, "Futures analysis %s (run %s)\n", sum.AsOf.Format("2006-01-02"), sum.RunID)
	fmt.Fprintf(w, "Symbols: %d  ok: %d  failed: %d  elapsed: %s\n",
		sum.Total, sum.Succeeded, sum.Failed, sum.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Buy: %d  Sell: %d  Hold: %d  High confidence (>=%.2f): %d  Avg confidence: %.2f\n\n",
		sum.Buy, sum.Sell, sum.Hold, sum.Threshold, sum.HighConfidence, sum.AvgConfidence)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tTREND\tACTION\tCONF\tRSI\tMACD HIST\tRISK\tTARGET\tSTOP")
	for _, e := range batch.Entries {
		if e.Err != nil {
			fmt.Fprintf(tw, "%s\tERROR\t%s\t%s\t\t\t\t\t\t\n", e.Symbol, e.Err.Kind, e.Err.Message)
			continue
		}
		if e.Result == nil {
			continue
		}
		r := e.Result
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			r.Symbol, r.Price, r.Trend, r.Recommendation.Action, r.Recommendation.Confidence,
			fmtValue(r.Indicators.RSI, 1), fmtValue(r.Indicators.MACD.Histogram, 4), r.Risk,
			fmtLevel(r.Levels.Target), fmtLevel(r.Levels.StopLoss))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(sum.TopPicks) > 0 {
		fmt.Fprintf(w, "\nTop picks: %v\n", sum.TopPicks)
	}
	return nil
}

func fmtValue(v model.Value, prec int) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v.V)
}

func fmtLevel(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
