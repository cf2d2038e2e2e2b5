package model

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a fetch failure that affects every symbol,
// e.g. the bar source host cannot be reached. It aborts the whole batch.
var ErrSourceUnavailable = errors.New("bar source unavailable")

// DataQualityError reports a malformed bar at Index.
type DataQualityError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *DataQualityError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("bad bar at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: bad bar at index %d: %s", e.Symbol, e.Index, e.Reason)
}

// FetchError is reported by a bar source.
type FetchError struct {
	Symbol string
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Symbol, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ComputationError reports an unexpected numeric fault.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *ComputationError) Unwrap() error { return e.Err }
