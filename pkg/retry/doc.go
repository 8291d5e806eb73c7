// Package retry runs an operation again with exponential backoff when it
// fails in a way that is worth retrying.
//
// What is worth retrying is decided by request failure category: by
// default Timeout and Connection failures are retried, Protocol failures
// are not, since a peer that sent a malformed response will send it again.
//
// Basic Usage:
//
//	err := retry.Retry(ctx, func(ctx context.Context) error {
//	    return fetch(ctx)
//	})
//
// Only timeouts:
//
//	err := retry.DoWithRetryable(ctx, retry.DefaultConfig(), fn, retry.On(failure.ErrTimeout))
//
// When attempts run out the result is a *RetriesExceededError that unwraps
// to the last failure, so errors.Is(err, failure.ErrConnection) still
// works on a wrapped last error.
package retry
