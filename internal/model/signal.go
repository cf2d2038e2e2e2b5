package model

import (
	"encoding/json"
	"fmt"
)

// TrendType is the discrete market regime. Its numeric encoding (1, 2, 3) is persisted.
type TrendType int

const (
	Uptrend   TrendType = 1
	Sideways  TrendType = 2
	Downtrend TrendType = 3
)

// Valid reports whether t is one of the three regimes.
func (t TrendType) Valid() bool { return t == Uptrend || t == Sideways || t == Downtrend }

func (t TrendType) String() string {
	switch t {
	case Uptrend:
		return "uptrend"
	case Sideways:
		return "sideways"
	case Downtrend:
		return "downtrend"
	default:
		return fmt.Sprintf("TrendType(%d)", int(t))
	}
}

// MarshalJSON writes the numeric code. UnmarshalJSON also accepts the names.
func (t TrendType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid trend type %d", int(t))
	}
	return json.Marshal(int(t))
}

func (t *TrendType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		return t.set(TrendType(n))
	}
	parsed, err := ParseTrendType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *TrendType) set(v TrendType) error {
	if !v.Valid() {
		return fmt.Errorf("invalid trend type %d", int(v))
	}
	*t = v
	return nil
}

// ParseTrendType parses the String form.
func ParseTrendType(s string) (TrendType, error) {
	switch s {
	case "uptrend":
		return Uptrend, nil
	case "sideways":
		return Sideways, nil
	case "downtrend":
		return Downtrend, nil
	}
	return 0, fmt.Errorf("invalid trend type %q", s)
}

// Action is the recommended trading action.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// ActionFor maps a trend to its action.
func ActionFor(t TrendType) Action {
	switch t {
	case Uptrend:
		return ActionBuy
	case Downtrend:
		return ActionSell
	default:
		return ActionHold
	}
}

// FactorScore represents a single confidence contributor.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// Recommendation is the output of the signal generator.
type Recommendation struct {
	Action     Action        `json:"action"`
	Confidence float64       `json:"confidence"`
	Factors    []FactorScore `json:"factors,omitempty"`
	Capped     bool          `json:"capped,omitempty"`
}

// RiskLevel grades the volatility around a recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// TradeLevels are the suggested entry, take-profit and stop-loss prices.
// Zero values mean no position is suggested.
type TradeLevels struct {
	Entry      float64 `json:"entry,omitempty"`
	Target     float64 `json:"target,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	RiskReward float64 `json:"risk_reward,omitempty"`
}
