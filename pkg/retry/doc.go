// Package retry provides backoff strategies for retrying failed fetch rounds.
//
// Strategies implement the BackoffStrategy interface and compute the delay
// before a given attempt. ConstantBackoff waits the same duration every
// time, matching the fetch loop's fixed retry delay; ExponentialBackoff
// doubles the delay per attempt up to a cap.
//
// Wait sleeps for a delay while honoring context cancellation, so an
// interrupted run never blocks on a pending backoff.
package retry
