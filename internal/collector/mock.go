package collector

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"FuturesSentinel/internal/model"
)

// MockSource returns deterministic synthetic bars for development and
// tests. Fixed bars and errors can be injected per symbol.
type MockSource struct {
	// Bars overrides the generated series for a symbol.
	Bars map[string][]model.Bar
	// Errs makes Fetch fail for a symbol.
	Errs map[string]error
	// Delay is waited out (or cancelled) before every Fetch.
	Delay time.Duration
	// Count is the number of generated bars.
	Count int
	// PingErr is returned by Ping.
	PingErr error

	mu    sync.Mutex
	calls []string
}

// NewMockSource returns a mock generating 120 bars per symbol.
func NewMockSource() *MockSource {
	return &MockSource{Count: 120}
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Ping(context.Context) error { return m.PingErr }

// Calls returns the symbols fetched so far, in call order.
func (m *MockSource) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Fetch implements BarSource.
func (m *MockSource) Fetch(ctx context.Context, symbol string, freq model.Frequency, asOf time.Time) ([]model.Bar, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return model.TrimAfter(bars, asOf), nil
	}

	step := 24 * time.Hour
	if freq == model.FrequencyWeekly {
		step = 7 * step
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return generateMockBars(symbol, m.Count, asOf, step), nil
}

// generateMockBars builds a gently trending, oscillating series whose
// shape depends only on the symbol. The last bar falls on end.
func generateMockBars(symbol string, count int, end time.Time, step time.Duration) []model.Bar {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := h.Sum32()
	base := 1000 + float64(seed%4000)
	drift := (float64(seed%21) - 10) / 10000
	phase := float64(seed % 17)

	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := base * (1 + drift*float64(i) + 0.02*math.Sin((float64(i)+phase)/6))
		bars[i] = model.Bar{
			Symbol: symbol,
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
