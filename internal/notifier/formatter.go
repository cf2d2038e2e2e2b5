package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"
)

var actionLabels = map[model.Action]string{
	model.ActionBuy:  "🟢 买入",
	model.ActionSell: "🔴 卖出",
	model.ActionHold: "⚪ 观望",
}

var trendLabels = map[model.TrendType]string{
	model.Uptrend:   "上涨",
	model.Sideways:  "震荡",
	model.Downtrend: "下跌",
}

func actionLabel(a model.Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

func trendLabel(t model.TrendType) string {
	if l, ok := trendLabels[t]; ok {
		return l
	}
	return t.String()
}

// FormatBatchReport formats a daily batch into a Telegram message.
func FormatBatchReport(batch *model.BatchResult, sum report.Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>FuturesSentinel 日报</b> | %s\n", batch.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("运行: <code>%s</code>\n\n", html.EscapeString(batch.RunID)))

	b.WriteString(fmt.Sprintf("品种: %d | 成功: %d | 失败: %d\n", sum.Total, sum.Succeeded, sum.Failed))
	b.WriteString(fmt.Sprintf("买入: %d | 卖出: %d | 观望: %d\n", sum.Buy, sum.Sell, sum.Hold))
	b.WriteString(fmt.Sprintf("平均置信度: %.2f | 高置信度(≥%.2f): %d\n\n", sum.AvgConfidence, sum.Threshold, sum.HighConfidence))

	if len(sum.TopPicks) > 0 {
		b.WriteString("⭐ <b>重点关注:</b>\n")
		for _, sym := range sum.TopPicks {
			e, ok := batch.Get(sym)
			if !ok || e.Result == nil {
				continue
			}
			r := e.Result
			b.WriteString(fmt.Sprintf("  %s %s %.2f (置信度 %.2f)\n",
				html.EscapeString(r.Symbol), actionLabel(r.Recommendation.Action), r.Price, r.Recommendation.Confidence))
			if r.Levels.Entry > 0 {
				b.WriteString(fmt.Sprintf("     止盈 %.2f | 止损 %.2f | 盈亏比 %.2f\n",
					r.Levels.Target, r.Levels.StopLoss, r.Levels.RiskReward))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("📈 <b>明细:</b>\n")
	for _, e := range batch.Entries {
		if e.Result == nil {
			continue
		}
		r := e.Result
		rsi := "-"
		if v, ok := r.Indicators.RSI.Get(); ok {
			rsi = fmt.Sprintf("%.1f", v)
		}
		b.WriteString(fmt.Sprintf("  %s: %.2f %s | %s %.2f | RSI %s\n",
			html.EscapeString(r.Symbol), r.Price, trendLabel(r.Trend),
			actionLabel(r.Recommendation.Action), r.Recommendation.Confidence, rsi))
	}

	if failures := batch.Failures(); len(failures) > 0 {
		b.WriteString("\n⚠️ <b>失败:</b>\n")
		for _, f := range failures {
			b.WriteString(fmt.Sprintf("  %s [%s] %s\n",
				html.EscapeString(f.Symbol), f.Kind, html.EscapeString(f.Message)))
		}
	}

	return b.String()
}

// FormatLatest formats the newest stored result per symbol.
func FormatLatest(rows []recorder.AnalysisRow) string {
	if len(rows) == 0 {
		return "暂无分析结果"
	}
	var b strings.Builder
	b.WriteString("📋 <b>最新分析</b>\n\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s %s: %.2f %s | %s %.2f\n",
			r.BarTime.Format("2006-01-02"), html.EscapeString(r.Symbol), r.Price,
			trendLabel(r.Trend), actionLabel(r.Action), r.Confidence))
	}
	return b.String()
}

// FormatSymbolReport formats the signal history summary of one symbol.
func FormatSymbolReport(rep report.SymbolReport) string {
	sym := html.EscapeString(rep.Symbol)
	if rep.Signals == 0 {
		return fmt.Sprintf("%s 暂无分析结果", sym)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s 信号报告</b>\n\n", sym))
	b.WriteString(fmt.Sprintf("区间: %s ~ %s (%d 条)\n",
		rep.From.Format("2006-01-02"), rep.To.Format("2006-01-02"), rep.Signals))
	b.WriteString(fmt.Sprintf("主导趋势: %s | 稳定性: %.4f\n", trendLabel(rep.DominantTrend), rep.Stability))
	for _, t := range []model.TrendType{model.Uptrend, model.Sideways, model.Downtrend} {
		if share, ok := rep.Distribution[t]; ok {
			b.WriteString(fmt.Sprintf("  %s: %d (%.2f%%)\n", trendLabel(t), share.Count, share.Percentage))
		}
	}
	b.WriteString(fmt.Sprintf("平均置信度: %.2f | 风险: %s\n", rep.AvgConfidence, rep.Risk))
	return b.String()
}

// FormatRunStatus formats the last recorded run.
func FormatRunStatus(rec *recorder.RunRecord) string {
	if rec == nil {
		return "尚未运行过分析"
	}
	var b strings.Builder
	b.WriteString("📦 <b>运行状态</b>\n\n")
	b.WriteString(fmt.Sprintf("运行: <code>%s</code>\n", html.EscapeString(rec.RunID)))
	b.WriteString(fmt.Sprintf("数据日期: %s\n", rec.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("完成时间: %s (耗时 %s)\n",
		rec.FinishedAt.Format("2006-01-02 15:04"), rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("品种: %d | 成功: %d | 失败: %d\n", rec.Total, rec.OK, rec.Failed))
	for _, f := range rec.Failures {
		b.WriteString(fmt.Sprintf("  %s [%s] %s\n", html.EscapeString(f.Symbol), f.Kind, html.EscapeString(f.Message)))
	}
	return b.String()
}

// FormatAlert formats a failed run for the operator.
func FormatAlert(err error) string {
	return fmt.Sprintf("🚨 <b>分析失败</b>\n\n%s", html.EscapeString(err.Error()))
}
