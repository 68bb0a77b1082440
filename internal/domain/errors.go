package domain

import "errors"

// Configuration errors. These reject a request immediately and are never retried.
var (
	// ErrInvalidPeriod is returned for an unrecognized return period name.
	ErrInvalidPeriod = errors.New("invalid period: choose daily, monthly, quarterly, or yearly")

	// ErrInvalidWindow is returned for a non-positive rolling window length.
	ErrInvalidWindow = errors.New("invalid window: length must be positive")

	// ErrInvalidWindowPair is returned when a single crossover run gets short >= long.
	ErrInvalidWindowPair = errors.New("invalid window pair: short window must be less than long window")

	// ErrInvalidBucketSize is returned for a non-positive long/short bucket size.
	ErrInvalidBucketSize = errors.New("invalid bucket size: must be positive")

	// ErrUnknownMetric is returned when a requested metric name is absent from results.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrMisalignedInput is returned when series and panels do not share a valid index.
	ErrMisalignedInput = errors.New("misaligned input")

	// ErrEmptyGrid is returned when a grid search has no valid (short, long) pair.
	ErrEmptyGrid = errors.New("empty parameter grid: no pair with short < long")
)

var configErrors = []error{
	ErrInvalidPeriod,
	ErrInvalidWindow,
	ErrInvalidWindowPair,
	ErrInvalidBucketSize,
	ErrUnknownMetric,
	ErrMisalignedInput,
	ErrEmptyGrid,
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
