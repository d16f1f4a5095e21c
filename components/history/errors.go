package history

import (
	"errors"
	"fmt"
)

// ErrComparisonNotFound signals that the authoritative endpoint has no
// comparison for the requested metric/date. It is the only error class that
// triggers synthesis; everything else propagates to the caller.
var ErrComparisonNotFound = errors.New("history: comparison not found")

// ValidationError rejects an invalid date or date-range selection before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("history: invalid %s: %s", e.Field, e.Reason)
}

// InsufficientDataError reports a computation requested on an empty or
// too-short window.
type InsufficientDataError struct {
	Op   string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("history: %s requires at least %d records, got %d", e.Op, e.Need, e.Got)
}
