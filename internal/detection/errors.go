package detection

import "errors"

var (
	// ErrInsufficientData is returned when a baseline cannot be estimated from the input.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSchemaMismatch is returned when a record or baseline does not cover the tracked feature set.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrDegenerateFeature is returned when a zero-variance feature deviates from its mean.
	ErrDegenerateFeature = errors.New("degenerate feature")
)
