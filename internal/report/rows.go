package report

import (
	"FuturesSentinel/internal/model"
)

// Row is the flat per-symbol record shared by the CSV and Parquet
// renderers. Failed symbols carry only Symbol, Status and the error columns.
type Row struct {
	RunID        string   `parquet:"run_id"`
	Symbol       string   `parquet:"symbol"`
	Status       string   `parquet:"status"`
	Timestamp    int64    `parquet:"timestamp"`
	Price        *float64 `parquet:"price,optional"`
	PriceChange  *float64 `parquet:"price_change,optional"`
	Trend        string   `parquet:"trend,optional"`
	TrendCode    int32    `parquet:"trend_code"`
	Action       string   `parquet:"action,optional"`
	Confidence   *float64 `parquet:"confidence,optional"`
	SMAShort     *float64 `parquet:"sma_short,optional"`
	SMA          *float64 `parquet:"sma,optional"`
	EMA          *float64 `parquet:"ema,optional"`
	RSI          *float64 `parquet:"rsi,optional"`
	MACD         *float64 `parquet:"macd,optional"`
	MACDSignal   *float64 `parquet:"macd_signal,optional"`
	MACDHist     *float64 `parquet:"macd_hist,optional"`
	BBUpper      *float64 `parquet:"bb_upper,optional"`
	BBMiddle     *float64 `parquet:"bb_middle,optional"`
	BBLower      *float64 `parquet:"bb_lower,optional"`
	Risk         string   `parquet:"risk,optional"`
	Target       *float64 `parquet:"target,optional"`
	StopLoss     *float64 `parquet:"stop_loss,optional"`
	ErrorKind    string   `parquet:"error_kind,optional"`
	ErrorMessage string   `parquet:"error_message,optional"`
}

// Rows flattens batch in entry order.
func Rows(batch *model.BatchResult) []Row {
	rows := make([]Row, 0, len(batch.Entries))
	for _, e := range batch.Entries {
		row := Row{RunID: batch.RunID, Symbol: e.Symbol}
		switch {
		case e.Err != nil:
			row.Status = "error"
			row.ErrorKind = string(e.Err.Kind)
			row.ErrorMessage = e.Err.Message
		case e.Result != nil:
			r := e.Result
			ind := r.Indicators
			row.Status = "ok"
			row.Timestamp = r.Timestamp.Unix()
			row.Price = ptr(r.Price)
			row.PriceChange = ptr(r.PriceChange)
			row.Trend = r.Trend.String()
			row.TrendCode = int32(r.Trend)
			row.Action = string(r.Recommendation.Action)
			row.Confidence = ptr(r.Recommendation.Confidence)
			row.SMAShort = ind.SMAShort.Ptr()
			row.SMA = ind.SMA.Ptr()
			row.EMA = ind.EMA.Ptr()
			row.RSI = ind.RSI.Ptr()
			row.MACD = ind.MACD.Value.Ptr()
			row.MACDSignal = ind.MACD.Signal.Ptr()
			row.MACDHist = ind.MACD.Histogram.Ptr()
			row.BBUpper = ind.Bollinger.Upper.Ptr()
			row.BBMiddle = ind.Bollinger.Middle.Ptr()
			row.BBLower = ind.Bollinger.Lower.Ptr()
			row.Risk = string(r.Risk)
			if r.Levels.Entry != 0 {
				row.Target = ptr(r.Levels.Target)
				row.StopLoss = ptr(r.Levels.StopLoss)
			}
		default:
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func ptr(v float64) *float64 { return &v }
