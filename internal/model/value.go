package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is an indicator reading that is undefined until enough history exists.
type Value struct {
	V     float64
	Valid bool
}

// Defined wraps v as a defined Value.
func Defined(v float64) Value { return Value{V: v, Valid: true} }

// Get returns the value and whether it is defined.
func (v Value) Get() (float64, bool) { return v.V, v.Valid }

// Ptr returns nil for undefined values. Used by the sql and parquet writers.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.V
	return &f
}

// FromPtr is the inverse of Ptr.
func FromPtr(p *float64) Value {
	if p == nil {
		return Value{}
	}
	return Defined(*p)
}

func (v Value) String() string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(v.V, 'f', 4, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}
