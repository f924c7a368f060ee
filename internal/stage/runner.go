// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stage executes one pipeline stage with a bounded per-attempt
// timeout, a bounded retry count, and exponential backoff.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrTimeout marks an attempt that exceeded the stage timeout. Timeouts are
// retryable until attempts are exhausted.
var ErrTimeout = errors.New("stage attempt timed out")

// Defaults applied when a StageConfig field is zero.
const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 100 * time.Millisecond
	defaultBackoffCap  = 5 * time.Second
)

// Permanent marks err as non-retryable: the runner fails immediately instead
// of burning remaining attempts. Capability implementations use it for
// malformed input and non-transient upstream rejections.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Run invokes fn with the configured timeout and retry policy and returns its
// result. Each attempt gets a fresh context bounded by cfg.Timeout; an attempt
// that does not complete in time is abandoned (its eventual result is
// discarded) and counted as a failure. Failed attempts are retried up to
// cfg.MaxAttempts total with exponential backoff from cfg.BackoffBase doubling
// per attempt up to cfg.BackoffCap, unless the error is Permanent. Parent
// context cancellation stops both attempts and backoff waits.
func Run[T any](ctx context.Context, cfg types.StageConfig, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	ceiling := cfg.BackoffCap
	if ceiling <= 0 {
		ceiling = defaultBackoffCap
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.MaxInterval = ceiling
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	var result T
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type attempt struct {
			value T
			err   error
		}
		ch := make(chan attempt, 1)
		go func() {
			v, err := fn(attemptCtx)
			ch <- attempt{value: v, err: err}
		}()

		select {
		case a := <-ch:
			if a.err != nil {
				return a.err
			}
			result = a.value
			return nil
		case <-attemptCtx.Done():
			// Parent cancellation is not worth retrying.
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
	}

	retries := uint64(maxAttempts - 1)
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx))
	if err != nil {
		return zero, err
	}
	return result, nil
}
