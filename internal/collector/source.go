package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"FuturesSentinel/internal/model"
)

// BarSource fetches an ordered bar series ending at or before asOf.
type BarSource interface {
	Fetch(ctx context.Context, symbol string, freq model.Frequency, asOf time.Time) ([]model.Bar, error)
	Name() string
}

// Pinger is implemented by sources that can check reachability before a
// batch starts. A Ping error wrapping model.ErrSourceUnavailable is fatal.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config selects and configures a BarSource.
type Config struct {
	Kind         string `yaml:"kind"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	CSVDir       string `yaml:"csv_dir"`
	Proxy        string `yaml:"proxy"`
	LookbackDays int    `yaml:"lookback_days"`
}

// DefaultLookbackDays covers the MACD warm-up with room to spare.
const DefaultLookbackDays = 180

// NewSource builds the source named by cfg.Kind.
func NewSource(cfg Config) (BarSource, error) {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	switch cfg.Kind {
	case "yahoo":
		y := NewYahooSource(cfg.Proxy)
		if cfg.BaseURL != "" {
			y.BaseURL = cfg.BaseURL
		}
		y.LookbackDays = lookback
		return y, nil
	case "vstrader":
		if cfg.BaseURL == "" {
			return nil, errors.New("vstrader source requires base_url")
		}
		v := NewVsTraderSource(cfg.BaseURL, cfg.APIKey, cfg.Proxy)
		v.LookbackDays = lookback
		return v, nil
	case "csv":
		if cfg.CSVDir == "" {
			return nil, errors.New("csv source requires csv_dir")
		}
		return NewCSVSource(cfg.CSVDir), nil
	case "mock", "":
		return NewMockSource(), nil
	}
	return nil, fmt.Errorf("unknown data source kind %q", cfg.Kind)
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// fetchError wraps err for symbol. Errors showing the host itself cannot be
// reached also wrap model.ErrSourceUnavailable.
func fetchError(source, symbol string, err error) error {
	if unreachable(err) {
		err = fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}
	return &model.FetchError{Symbol: symbol, Source: source, Err: err}
}

func unreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// lookbackStart returns the first calendar day requested for freq.
func lookbackStart(asOf time.Time, freq model.Frequency, days int) time.Time {
	if freq == model.FrequencyWeekly {
		days *= 5
	}
	return asOf.AddDate(0, 0, -days)
}
