package domain

import "errors"

var (
	// ErrTransientFetch is returned when an upstream fetch kept failing after bounded retries
	ErrTransientFetch = errors.New("transient fetch error")

	// ErrDataUnavailable is returned when a required input for a date is missing
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrConsistencyViolation is returned when a uniqueness or ordering invariant would be broken
	ErrConsistencyViolation = errors.New("consistency violation")

	// ErrRateLimited is returned by a source when the upstream API throttles the caller
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable is returned by a source when the upstream API cannot serve the request
	ErrUnavailable = errors.New("source unavailable")

	// ErrNotFound is returned by a source when the requested collection does not exist upstream
	ErrNotFound = errors.New("not found")

	// ErrCollectionNotFound is returned when a configured collection is missing from the store
	ErrCollectionNotFound = errors.New("collection not found")
)

// IsRetryable reports whether a source error should be retried
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
