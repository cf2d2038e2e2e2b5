package model

import "time"

// MACD holds the three MACD lines. All three are defined together or not at all.
type MACD struct {
	Value     Value `json:"value"`
	Signal    Value `json:"signal"`
	Histogram Value `json:"histogram"`
}

// Defined reports whether the MACD line and its signal are both available.
func (m MACD) Defined() bool { return m.Value.Valid && m.Signal.Valid }

// Bollinger holds the band triple. Lower <= Middle <= Upper whenever all are defined.
type Bollinger struct {
	Upper  Value `json:"upper"`
	Middle Value `json:"middle"`
	Lower  Value `json:"lower"`
}

// Defined reports whether all three bands are available.
func (b Bollinger) Defined() bool { return b.Upper.Valid && b.Middle.Valid && b.Lower.Valid }

// Bandwidth returns Upper-Lower.
func (b Bollinger) Bandwidth() (float64, bool) {
	if !b.Defined() {
		return 0, false
	}
	return b.Upper.V - b.Lower.V, true
}

// IndicatorSet holds all computed technical indicators for one bar.
type IndicatorSet struct {
	Time      time.Time `json:"time"`
	Close     float64   `json:"close"`
	SMAShort  Value     `json:"sma_short"`
	SMA       Value     `json:"sma"`
	EMA       Value     `json:"ema"`
	RSI       Value     `json:"rsi"`
	MACD      MACD      `json:"macd"`
	Bollinger Bollinger `json:"bollinger"`
}

// DefinedCount counts the indicator families (SMA, EMA, RSI, MACD, Bollinger)
// that have a value for this bar.
func (s IndicatorSet) DefinedCount() int {
	n := 0
	for _, ok := range []bool{s.SMA.Valid, s.EMA.Valid, s.RSI.Valid, s.MACD.Defined(), s.Bollinger.Defined()} {
		if ok {
			n++
		}
	}
	return n
}
