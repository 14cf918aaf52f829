// Package ratelimit provides rate limiting for requests against the sleep
// cloud endpoint.
//
// The endpoint serves personal backup data and tolerates slow, steady
// polling; the fetcher therefore uses a fixed minimum interval between
// requests rather than a token bucket.
//
// Interface:
//
// Rate limiters implement the Limiter interface:
//   - Wait(ctx) error - Block until the next request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// At most one request per second
//	limiter := ratelimit.NewInterval(time.Second)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    // Context cancelled while waiting
//	}
//	// Proceed with request
package ratelimit
