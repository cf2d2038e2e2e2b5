package model

import (
	"fmt"
	"strings"
	"time"
)

// Bar represents a single end-of-period candlestick for one instrument.
type Bar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Frequency is the bar period requested from a bar source.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// ParseFrequency accepts "daily"/"1d" and "weekly"/"1w".
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily", "1d", "d":
		return FrequencyDaily, nil
	case "weekly", "1w", "w":
		return FrequencyWeekly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// Closes extracts the closing prices of bars in order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// TrimAfter drops bars stamped after asOf. Bars must already be time ordered.
func TrimAfter(bars []Bar, asOf time.Time) []Bar {
	if asOf.IsZero() {
		return bars
	}
	n := len(bars)
	for n > 0 && bars[n-1].Time.After(asOf) {
		n--
	}
	return bars[:n]
}
