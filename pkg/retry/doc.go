// Package retry provides an explicit retry policy for upstream calls.
//
// The attempt bound, backoff strategy and retryable-error predicate live
// in a Config object separate from the transport call, so fetch behavior
// is testable without real delays:
//
//	cfg := &retry.Config{
//	    MaxAttempts: 3,
//	    Backoff:     &retry.ConstantBackoff{Delay: 5 * time.Second},
//	    RetryIf:     retry.DefaultRetryIf,
//	    Context:     ctx,
//	}
//	record, err := retry.DoWithResult(fetchOnce, cfg)
//
// DefaultRetryIf retries only connection-class typed errors (network,
// rate limit, upstream 5xx); a missing profile is terminal.
package retry
