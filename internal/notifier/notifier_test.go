package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = url
	n.BaseBackoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3))
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendWithRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendWithRetryCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	n.BaseBackoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := n.SendWithRetry(ctx, "x", 5)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls atomic.Int32
	replies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":"/status","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/run","chat":{"id":99}}}]}`)
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			replies <- body["text"]
		}
	}))
	defer srv.Close()

	var handled []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		newTestNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "ok " + cmd
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/status"}, handled)
	require.Len(t, replies, 1)
	assert.Equal(t, "ok /status", <-replies)
}

func sampleBatch() *model.BatchResult {
	asOf := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	return &model.BatchResult{
		RunID:      "01RUN",
		AsOf:       asOf,
		StartedAt:  asOf,
		FinishedAt: asOf.Add(2 * time.Second),
		Entries: []model.BatchEntry{
			{Symbol: "RB", Result: &model.AnalysisResult{
				Symbol: "RB", Price: 3500, Trend: model.Uptrend,
				Indicators:     model.IndicatorSet{RSI: model.Defined(72.5)},
				Recommendation: model.Recommendation{Action: model.ActionBuy, Confidence: 0.85},
				Levels:         model.TradeLevels{Entry: 3500, Target: 3675, StopLoss: 3430, RiskReward: 2.5},
			}},
			{Symbol: "CU", Err: &model.SymbolError{Symbol: "CU", Kind: model.KindFetch, Message: "status <503>"}},
		},
	}
}

func TestFormatBatchReport(t *testing.T) {
	batch := sampleBatch()
	msg := FormatBatchReport(batch, report.Summarize(batch, report.DefaultHighConfidence))

	assert.Contains(t, msg, "FuturesSentinel 日报</b> | 2026-03-06")
	assert.Contains(t, msg, "品种: 2 | 成功: 1 | 失败: 1")
	assert.Contains(t, msg, "重点关注")
	assert.Contains(t, msg, "止盈 3675.00 | 止损 3430.00 | 盈亏比 2.50")
	assert.Contains(t, msg, "RSI 72.5")
	assert.Contains(t, msg, "CU [fetch] status &lt;503&gt;")
}

func TestFormatLatest(t *testing.T) {
	assert.Equal(t, "暂无分析结果", FormatLatest(nil))

	msg := FormatLatest([]recorder.AnalysisRow{{
		Symbol: "RB", BarTime: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		Price: 3500, Trend: model.Downtrend, Action: model.ActionSell, Confidence: 0.6,
	}})
	assert.Contains(t, msg, "2026-03-06 RB: 3500.00 下跌 | 🔴 卖出 0.60")
}

func TestFormatSymbolReport(t *testing.T) {
	assert.Equal(t, "RB 暂无分析结果", FormatSymbolReport(report.BuildSymbolReport("RB", nil)))

	day := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	rows := []recorder.AnalysisRow{
		{Symbol: "RB", BarTime: day, Trend: model.Uptrend, Confidence: 0.9},
		{Symbol: "RB", BarTime: day.AddDate(0, 0, -1), Trend: model.Downtrend, Confidence: 0.7},
	}
	msg := FormatSymbolReport(report.BuildSymbolReport("RB", rows))
	assert.Contains(t, msg, "RB 信号报告")
	assert.Contains(t, msg, "区间: 2026-03-05 ~ 2026-03-06 (2 条)")
	assert.Contains(t, msg, "主导趋势: 上涨 | 稳定性: 0.5000")
	assert.Contains(t, msg, "下跌: 1 (50.00%)")
	assert.NotContains(t, msg, "震荡")
	assert.Contains(t, msg, "平均置信度: 0.80 | 风险: low")
}

func TestFormatRunStatus(t *testing.T) {
	assert.Equal(t, "尚未运行过分析", FormatRunStatus(nil))

	start := time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC)
	msg := FormatRunStatus(&recorder.RunRecord{
		RunID: "01RUN", AsOf: start, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Total: 3, OK: 2, Failed: 1,
		Failures: []model.SymbolError{{Symbol: "CU", Kind: model.KindTimeout, Message: "deadline"}},
	})
	assert.Contains(t, msg, "<code>01RUN</code>")
	assert.Contains(t, msg, "耗时 1.5s")
	assert.Contains(t, msg, "品种: 3 | 成功: 2 | 失败: 1")
	assert.Contains(t, msg, "CU [timeout] deadline")
}

func TestFormatAlert(t *testing.T) {
	assert.Contains(t, FormatAlert(errors.New("a < b")), "a &lt; b")
}
