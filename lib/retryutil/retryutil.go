package retryutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultAttempts      = 3
	DefaultInitialDelay  = 1500 * time.Millisecond
	DefaultBackoffFactor = 2
)

type Options struct {
	Attempts      int
	InitialDelay  time.Duration
	BackoffFactor float64
	// OnError is invoked after every failed attempt (including the
	// last one) with the 1-based attempt index. May be nil.
	OnError func(attempt int, err error)
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.BackoffFactor <= 0 {
		o.BackoffFactor = DefaultBackoffFactor
	}
	return o
}

// Do invokes op up to opts.Attempts times, sleeping between attempts
// with exponential backoff (no jitter). When every attempt fails the
// last error is returned. This is the only retry policy in the program.
func Do(ctx context.Context, op func() error, opts Options) error {
	opts = opts.withDefaults()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = opts.InitialDelay
	expo.Multiplier = opts.BackoffFactor
	expo.RandomizationFactor = 0
	// the attempt cap is the only stopping condition
	expo.MaxInterval = time.Hour
	expo.MaxElapsedTime = 0
	expo.Reset()

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err != nil && opts.OnError != nil {
			notify(opts.OnError, attempt, err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(expo, uint64(opts.Attempts-1)),
		ctx,
	)
	return backoff.Retry(wrapped, policy)
}

// a panicking observer must not mask the attempt's real error
func notify(observer func(attempt int, err error), attempt int, err error) {
	defer func() { _ = recover() }()
	observer(attempt, err)
}
