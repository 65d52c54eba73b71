package retry

import (
	"context"
	"fmt"
)

// Do runs fn, retrying according to the Retrier found in ctx (or a
// NoopRetrier if none was injected). It returns the first successful result,
// or an error wrapping the last failure once the retrier gives up.
func Do[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	retrier := FromContextOrNoop(ctx)

	var (
		result T
		err    error
	)

	for attempt := 1; ; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		if !retrier.ShouldRetry(err, attempt) {
			return result, err
		}

		maxAttempts := retrier.MaxAttempts()
		if maxAttempts > 0 && attempt >= maxAttempts {
			return result, fmt.Errorf("max retry attempts (%d) reached: %w", maxAttempts, err)
		}

		if waitErr := retrier.Wait(ctx, attempt); waitErr != nil {
			return result, fmt.Errorf("context cancelled while waiting to retry: %w", waitErr)
		}
	}
}

// DoVoid is Do for operations with no return value beyond an error.
func DoVoid(ctx context.Context, fn func() error) error {
	_, err := Do(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
