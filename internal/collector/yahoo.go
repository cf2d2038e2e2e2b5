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

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource reads bars from the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL      string
	Client       *http.Client
	LookbackDays int
	// SymbolMap maps internal symbols to Yahoo tickers.
	SymbolMap map[string]string
}

// NewYahooSource creates a Yahoo source with optional proxy support.
func NewYahooSource(proxyURL string) *YahooSource {
	symbols := make(map[string]string, len(yahooTickers))
	for k, v := range yahooTickers {
		symbols[k] = v
	}
	return &YahooSource{
		BaseURL:      yahooBaseURL,
		Client:       newHTTPClient(proxyURL),
		LookbackDays: DefaultLookbackDays,
		SymbolMap:    symbols,
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) ticker(symbol string) string {
	if mapped, ok := s.SymbolMap[symbol]; ok {
		return mapped
	}
	if code, ok := ResolveSymbol(symbol); ok {
		if mapped, ok := s.SymbolMap[code]; ok {
			return mapped
		}
	}
	return symbol
}

// yahooChart is the response structure of the chart API. Missing quotes
// are JSON nulls.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch implements BarSource.
func (s *YahooSource) Fetch(ctx context.Context, symbol string, freq model.Frequency, asOf time.Time) ([]model.Bar, error) {
	interval := "1d"
	if freq == model.FrequencyWeekly {
		interval = "1wk"
	}
	from := lookbackStart(asOf, freq, s.LookbackDays)

	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", fmt.Sprint(from.Unix()))
	q.Set("period2", fmt.Sprint(asOf.Add(24*time.Hour).Unix()))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.BaseURL, url.PathEscape(s.ticker(symbol)), q.Encode())

	bars, err := s.fetchChart(ctx, symbol, u)
	if err != nil {
		return nil, fetchError(s.Name(), symbol, err)
	}
	return model.TrimAfter(bars, asOf), nil
}

// Ping checks that the chart host answers at all.
func (s *YahooSource) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fetchError(s.Name(), "", err)
	}
	resp.Body.Close()
	return nil
}

func (s *YahooSource) fetchChart(ctx context.Context, symbol, u string) ([]model.Bar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	at := func(vals []*float64, i int) (float64, bool) {
		if i >= len(vals) || vals[i] == nil {
			return 0, false
		}
		return *vals[i], true
	}

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			// holidays and suspended sessions come back as nulls
			continue
		}
		// partial rows fall back to the close so the range stays valid
		o, ok := at(quote.Open, i)
		if !ok {
			o = c
		}
		h, ok := at(quote.High, i)
		if !ok {
			h = max(c, o)
		}
		l, ok := at(quote.Low, i)
		if !ok {
			l = min(c, o)
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.Bar{
			Symbol: symbol,
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
