package fetch

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy names one of the four retry delay shapes of §4.7.
type Strategy string

const (
	StrategyFixed             Strategy = "fixed"
	StrategyLinear            Strategy = "linear"
	StrategyExponential       Strategy = "exponential"
	StrategyExponentialJitter Strategy = "exponential-jitter"
)

// RetryPolicy configures the retry strategy for one fetcher.
// MaxAttempts includes the first (non-retry) attempt.
type RetryPolicy struct {
	Strategy     Strategy
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy mirrors the spec's default: three attempts with
// exponential-jitter backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Strategy:     StrategyExponentialJitter,
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// delay computes the backoff after the given failed attempt (1-indexed:
// delay(1) is the wait between attempt 1 and attempt 2), clamped to
// MaxDelay. The jitter variant multiplies by a uniform factor in
// [0.5, 1.5).
func (p RetryPolicy) delay(attempt int) time.Duration {
	var d time.Duration
	switch p.Strategy {
	case StrategyFixed:
		d = p.InitialDelay
	case StrategyLinear:
		d = p.InitialDelay * time.Duration(attempt)
	case StrategyExponential, StrategyExponentialJitter:
		d = p.InitialDelay * time.Duration(int64(1)<<uint(attempt-1))
	default:
		d = p.InitialDelay
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}

	if p.Strategy == StrategyExponentialJitter {
		factor := 0.5 + rand.Float64()
		d = time.Duration(float64(d) * factor)
	}

	return d
}

// backOffAdapter makes RetryPolicy satisfy backoff.BackOff so the
// attempt loop can run through cenkalti/backoff's Retry driver.
type backOffAdapter struct {
	policy  RetryPolicy
	attempt int
}

func (b *backOffAdapter) NextBackOff() time.Duration {
	b.attempt++
	if b.policy.MaxAttempts > 0 && b.attempt >= b.policy.MaxAttempts {
		return backoff.Stop
	}
	return b.policy.delay(b.attempt)
}

func (b *backOffAdapter) Reset() { b.attempt = 0 }

// Do runs attempt repeatedly per policy until it succeeds, attempt
// count is exhausted, a non-retryable *Error is returned, or ctx is
// cancelled. attempt is called with a 1-indexed attempt number.
func Do(ctx context.Context, policy RetryPolicy, attempt func(n int) error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	n := 0
	operation := func() error {
		n++
		err := attempt(n)
		if err == nil {
			return nil
		}

		var fe *Error
		if errors.As(err, &fe) && !fe.Retryable {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(&backOffAdapter{policy: policy}, ctx)
	return backoff.Retry(operation, b)
}
