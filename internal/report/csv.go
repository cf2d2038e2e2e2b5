package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"FuturesSentinel/internal/model"
)

// CSVRenderer writes one row per symbol with a header. Undefined values
// are empty cells.
type CSVRenderer struct{}

func (CSVRenderer) Extension() string { return "csv" }

var csvHeader = []string{
	"run_id", "symbol", "status", "timestamp", "price", "price_change", "trend", "trend_code",
	"action", "confidence", "sma_short", "sma", "ema", "rsi", "macd", "macd_signal", "macd_hist",
	"bb_upper", "bb_middle", "bb_lower", "risk", "target", "stop_loss", "error_kind", "error_message",
}

func (CSVRenderer) Render(w io.Writer, batch *model.BatchResult, _ Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Rows(batch) {
		ts, code := "", ""
		if r.Status == "ok" {
			ts = time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339)
			code = strconv.Itoa(int(r.TrendCode))
		}
		if err := cw.Write([]string{
			r.RunID, r.Symbol, r.Status, ts, floatCell(r.Price), floatCell(r.PriceChange), r.Trend, code,
			r.Action, floatCell(r.Confidence), floatCell(r.SMAShort), floatCell(r.SMA), floatCell(r.EMA),
			floatCell(r.RSI), floatCell(r.MACD), floatCell(r.MACDSignal), floatCell(r.MACDHist),
			floatCell(r.BBUpper), floatCell(r.BBMiddle), floatCell(r.BBLower), r.Risk,
			floatCell(r.Target), floatCell(r.StopLoss), r.ErrorKind, r.ErrorMessage,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func floatCell(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 4, 64)
}
