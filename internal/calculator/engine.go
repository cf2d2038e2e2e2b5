package calculator

import (
	"errors"
	"fmt"
	"math"

	"FuturesSentinel/internal/model"
)

// Config holds the indicator windows.
type Config struct {
	SMAShort        int     `yaml:"sma_short"`
	SMAWindow       int     `yaml:"sma_window"`
	EMAWindow       int     `yaml:"ema_window"`
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BollingerWindow int     `yaml:"bollinger_window"`
	BollingerK      float64 `yaml:"bollinger_k"`
}

// DefaultConfig returns the conventional windows: SMA 5/20, EMA 20, RSI 14,
// MACD 12/26/9 and Bollinger 20/2.
func DefaultConfig() Config {
	return Config{
		SMAShort:        5,
		SMAWindow:       20,
		EMAWindow:       20,
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerWindow: 20,
		BollingerK:      2,
	}
}

// Validate checks that every window is usable.
func (c Config) Validate() error {
	windows := []struct {
		name string
		v    int
	}{
		{"sma_short", c.SMAShort},
		{"sma_window", c.SMAWindow},
		{"ema_window", c.EMAWindow},
		{"rsi_period", c.RSIPeriod},
		{"macd_fast", c.MACDFast},
		{"macd_slow", c.MACDSlow},
		{"macd_signal", c.MACDSignal},
		{"bollinger_window", c.BollingerWindow},
	}
	for _, w := range windows {
		if w.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", w.name, w.v)
		}
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be below macd_slow (%d)", c.MACDFast, c.MACDSlow)
	}
	if c.BollingerK <= 0 || math.IsNaN(c.BollingerK) || math.IsInf(c.BollingerK, 0) {
		return errors.New("bollinger_k must be a positive number")
	}
	return nil
}

// Engine computes indicator sets from ordered bars. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("indicator config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine windows.
func (e *Engine) Config() Config { return e.cfg }

// Compute returns one IndicatorSet per bar, in bar order. Every window only
// looks at bars at or before its own index.
func (e *Engine) Compute(bars []model.Bar) ([]model.IndicatorSet, error) {
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	closes := model.Closes(bars)
	smaShort := SMASeries(closes, e.cfg.SMAShort)
	sma := SMASeries(closes, e.cfg.SMAWindow)
	ema := EMASeries(closes, e.cfg.EMAWindow)
	rsi := RSISeries(closes, e.cfg.RSIPeriod)
	macd := MACDSeries(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	bb := BollingerSeries(closes, e.cfg.BollingerWindow, e.cfg.BollingerK)

	sets := make([]model.IndicatorSet, len(bars))
	for i, b := range bars {
		sets[i] = model.IndicatorSet{
			Time:      b.Time,
			Close:     b.Close,
			SMAShort:  smaShort[i],
			SMA:       sma[i],
			EMA:       ema[i],
			RSI:       rsi[i],
			MACD:      macd[i],
			Bollinger: bb[i],
		}
		if err := checkFinite(sets[i]); err != nil {
			return nil, &model.ComputationError{Stage: fmt.Sprintf("indicators at index %d", i), Err: err}
		}
	}
	return sets, nil
}

// Latest computes the series and returns only the last set.
func (e *Engine) Latest(bars []model.Bar) (model.IndicatorSet, error) {
	if len(bars) == 0 {
		return model.IndicatorSet{}, errors.New("no bars")
	}
	sets, err := e.Compute(bars)
	if err != nil {
		return model.IndicatorSet{}, err
	}
	return sets[len(sets)-1], nil
}

func checkFinite(s model.IndicatorSet) error {
	fields := []struct {
		name string
		v    model.Value
	}{
		{"sma_short", s.SMAShort},
		{"sma", s.SMA},
		{"ema", s.EMA},
		{"rsi", s.RSI},
		{"macd", s.MACD.Value},
		{"macd_signal", s.MACD.Signal},
		{"macd_histogram", s.MACD.Histogram},
		{"bollinger_upper", s.Bollinger.Upper},
		{"bollinger_middle", s.Bollinger.Middle},
		{"bollinger_lower", s.Bollinger.Lower},
	}
	for _, f := range fields {
		if f.v.Valid && !isFinite(f.v.V) {
			return fmt.Errorf("%s is not finite", f.name)
		}
	}
	return nil
}
