// Package sleepcloud is the HTTP client for the Sleep as Android cloud
// backup endpoint.
//
// A single GET request fetches the page of records immediately older than
// the given cursor timestamp. Failures are classified into typed errors
// (timeout, network, auth, rate limit, server error) so the fetch loop can
// decide between retrying and giving up. Records missing required fields or
// violating basic invariants are filtered out of the batch rather than
// failing it.
package sleepcloud
