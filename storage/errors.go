package storage

import "errors"

// Sentinel errors for storage failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrPoolNotFound indicates the named pool does not exist.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrConsumerNotFound indicates the consumer ID is unknown.
	ErrConsumerNotFound = errors.New("consumer not found")
)
