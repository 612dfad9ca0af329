// Package errors provides the bounded retry loop shared by channel senders
package errors

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/kart-io/pushrelay/pkg/logger"
)

// RetryPolicy defines how operations should be retried
type RetryPolicy interface {
	// ShouldRetry determines if an error should be retried
	ShouldRetry(err error, attempt int) bool

	// RetryDelay calculates the delay before the next retry
	RetryDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of attempts, including the first
	MaxAttempts() int
}

// RandomDelayPolicy sleeps a uniformly random duration in [MinDelay, MaxDelay)
// between attempts. This is the backoff shape the push providers expect:
// PushPlus and WxPusher use 3 to 6 minutes, DingTalk 2 to 5 seconds.
type RandomDelayPolicy struct {
	MinDelay     time.Duration
	MaxDelay     time.Duration
	MaxAttempts_ int
}

// NewRandomDelayPolicy creates a new random delay policy
func NewRandomDelayPolicy(minDelay, maxDelay time.Duration, maxAttempts int) *RandomDelayPolicy {
	return &RandomDelayPolicy{
		MinDelay:     minDelay,
		MaxDelay:     maxDelay,
		MaxAttempts_: maxAttempts,
	}
}

// ShouldRetry determines if an error should be retried
func (p *RandomDelayPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts_ {
		return false
	}

	var pe *PushError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}

	// Unclassified errors during a send are treated as transient
	return true
}

// RetryDelay calculates the delay before the next retry
func (p *RandomDelayPolicy) RetryDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if p.MaxDelay <= p.MinDelay {
		return p.MinDelay
	}
	return p.MinDelay + time.Duration(rand.Int63n(int64(p.MaxDelay-p.MinDelay)))
}

// MaxAttempts returns the maximum number of attempts
func (p *RandomDelayPolicy) MaxAttempts() int {
	return p.MaxAttempts_
}

// FixedDelayPolicy implements fixed delay between retries
type FixedDelayPolicy struct {
	Delay        time.Duration
	MaxAttempts_ int
}

// NewFixedDelayPolicy creates a new fixed delay policy
func NewFixedDelayPolicy(delay time.Duration, maxAttempts int) *FixedDelayPolicy {
	return &FixedDelayPolicy{
		Delay:        delay,
		MaxAttempts_: maxAttempts,
	}
}

// ShouldRetry determines if an error should be retried
func (p *FixedDelayPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts_ {
		return false
	}

	var pe *PushError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return true
}

// RetryDelay calculates the delay before the next retry
func (p *FixedDelayPolicy) RetryDelay(attempt int) time.Duration {
	return p.Delay
}

// MaxAttempts returns the maximum number of attempts
func (p *FixedDelayPolicy) MaxAttempts() int {
	return p.MaxAttempts_
}

// RetryExecutor handles the execution of retryable operations
type RetryExecutor struct {
	policy RetryPolicy
	logger logger.Logger
}

// NewRetryExecutor creates a new retry executor
func NewRetryExecutor(policy RetryPolicy, log logger.Logger) *RetryExecutor {
	if log == nil {
		log = logger.Discard
	}
	return &RetryExecutor{
		policy: policy,
		logger: log,
	}
}

// Execute runs operation until it succeeds, the policy stops retrying, or the
// context is cancelled during a backoff sleep. It returns the last error on
// exhaustion.
func (r *RetryExecutor) Execute(ctx context.Context, operation func(attempt int) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts(); attempt++ {
		err := operation(attempt)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("operation succeeded after retry",
					"attempt", attempt,
					"max_attempts", r.policy.MaxAttempts())
			}
			return nil
		}

		lastErr = err

		if !r.policy.ShouldRetry(err, attempt) {
			r.logger.Warn("operation failed, not retrying",
				"error", err.Error(),
				"attempt", attempt)
			break
		}

		if attempt >= r.policy.MaxAttempts() {
			r.logger.Error("operation failed after max attempts",
				"error", err.Error(),
				"attempts", attempt,
				"max_attempts", r.policy.MaxAttempts())
			break
		}

		delay := r.policy.RetryDelay(attempt)
		r.logger.Info("operation failed, retrying",
			"error", err.Error(),
			"attempt", attempt,
			"next_delay", delay,
			"max_attempts", r.policy.MaxAttempts())

		select {
		case <-ctx.Done():
			return Wrap(ctx.Err(), ErrCancelled, "retry aborted by caller").WithAttempts(attempt)
		case <-time.After(delay):
		}
	}

	return lastErr
}
