// Package retry provides bounded exponential-backoff execution for the
// flaky network lookups the source clients perform.
package retry

import "time"

// Policy controls how many times an operation is attempted and how the
// delay between attempts grows.
type Policy struct {
	// InitialInterval is the delay before the first retry
	InitialInterval time.Duration

	// BackoffCoefficient multiplies the delay after each failure
	BackoffCoefficient float64

	// MaximumInterval caps the delay between attempts
	MaximumInterval time.Duration

	// MaximumAttempts bounds the total number of attempts
	MaximumAttempts int32
}

// DefaultPolicy returns the policy used for source lookups: three
// attempts with doubling delay starting at half a second.
func DefaultPolicy() *Policy {
	return &Policy{
		InitialInterval:    500 * time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    10 * time.Second,
		MaximumAttempts:    3,
	}
}
