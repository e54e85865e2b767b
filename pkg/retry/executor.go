package retry

import (
	"context"
	"time"

	"github.com/tagus/trailhound/pkg/logging"
)

// Executor runs operations under a retry policy.
type Executor struct {
	policy *Policy
	logger logging.Logger
}

// Option represents an option for configuring the executor
type Option func(*Executor)

// WithLogger sets the logger for the executor
func WithLogger(logger logging.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new retry executor with the given policy.
// A nil policy falls back to DefaultPolicy.
func NewExecutor(policy *Policy, options ...Option) *Executor {
	if policy == nil {
		policy = DefaultPolicy()
	}
	executor := &Executor{
		policy: policy,
		logger: logging.New(),
	}
	for _, option := range options {
		option(executor)
	}
	return executor
}

// Execute runs the operation until it succeeds, the policy's attempt
// budget is spent, or the context is cancelled. The last error is
// returned when all attempts fail.
func (e *Executor) Execute(ctx context.Context, operation func() error) error {
	var lastErr error
	interval := e.policy.InitialInterval

	for attempt := int32(1); attempt <= e.policy.MaximumAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if attempt == e.policy.MaximumAttempts {
			break
		}

		e.logger.Debug(ctx, "Operation failed, backing off before retry", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": e.policy.MaximumAttempts,
			"interval":     interval.String(),
			"error":        lastErr.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval = time.Duration(float64(interval) * e.policy.BackoffCoefficient)
		if interval > e.policy.MaximumInterval {
			interval = e.policy.MaximumInterval
		}
	}

	return lastErr
}
