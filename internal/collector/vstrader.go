package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"FuturesSentinel/internal/model"
)

// VsTraderSource reads futures bars from the vstrader REST API. Only
// supported futures products are accepted.
type VsTraderSource struct {
	BaseURL      string
	APIKey       string
	Client       *http.Client
	LookbackDays int
}

// NewVsTraderSource creates a new source with optional proxy support.
func NewVsTraderSource(baseURL, apiKey, proxyURL string) *VsTraderSource {
	return &VsTraderSource{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Client:       newHTTPClient(proxyURL),
		LookbackDays: DefaultLookbackDays,
	}
}

func (s *VsTraderSource) Name() string { return "vstrader" }

// vsBar is the JSON shape returned by the bars endpoints.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Fetch implements BarSource. Weekly bars fall back to aggregated daily
// bars when the weekly endpoint fails.
func (s *VsTraderSource) Fetch(ctx context.Context, symbol string, freq model.Frequency, asOf time.Time) ([]model.Bar, error) {
	code, ok := ResolveSymbol(symbol)
	if !ok {
		return nil, fetchError(s.Name(), symbol, fmt.Errorf("unsupported symbol %q", symbol))
	}
	from := lookbackStart(asOf, freq, s.LookbackDays)

	if freq == model.FrequencyWeekly {
		bars, err := s.fetchBars(ctx, "weekly", symbol, code, from, asOf)
		if err == nil {
			return model.TrimAfter(bars, asOf), nil
		}
		if unreachable(err) || ctx.Err() != nil {
			return nil, fetchError(s.Name(), symbol, err)
		}
		daily, dailyErr := s.fetchBars(ctx, "daily", symbol, code, from, asOf)
		if dailyErr != nil {
			return nil, fetchError(s.Name(), symbol, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr))
		}
		return AggregateWeekly(model.TrimAfter(daily, asOf)), nil
	}

	bars, err := s.fetchBars(ctx, "daily", symbol, code, from, asOf)
	if err != nil {
		return nil, fetchError(s.Name(), symbol, err)
	}
	return model.TrimAfter(bars, asOf), nil
}

// Ping checks that the API host answers. Any HTTP response counts.
func (s *VsTraderSource) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/api/v1/ping", nil)
	if err != nil {
		return err
	}
	s.authorize(req)
	resp, err := s.Client.Do(req)
	if err != nil {
		return fetchError(s.Name(), "", err)
	}
	resp.Body.Close()
	return nil
}

func (s *VsTraderSource) authorize(req *http.Request) {
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
}

func (s *VsTraderSource) fetchBars(ctx context.Context, period, symbol, code string, from, to time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", code)
	q.Set("start", from.Format("20060102"))
	q.Set("end", to.Format("20060102"))
	endpoint := fmt.Sprintf("%s/api/v1/bars/%s?%s", s.BaseURL, period, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s bars: status %d, body: %s", period, resp.StatusCode, string(body))
	}
	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fmt.Errorf("decode %s bars: %w", period, err)
	}
	bars := make([]model.Bar, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.Bar{
			Symbol: symbol,
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
