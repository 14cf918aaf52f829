// Package fetcher implements the resumable fetch loop.
//
// The loop walks the cloud endpoint backward through history: each batch's
// oldest record becomes the cursor for the next request. Validated records
// accumulate into chunks that are flushed durably, with a progress
// checkpoint saved after every flush. Interrupting the run keeps the
// checkpoint so the next invocation resumes from the last flushed cursor;
// completing it deletes the checkpoint.
//
// Failures are bounded by two counters: consecutive empty batches and
// consecutive fetch failures each terminate the run once they reach the
// configured maximum, making a flaky endpoint degrade to a best-effort
// result instead of an infinite retry loop. A batch that fails to move the
// cursor strictly backward aborts with ErrStalled.
package fetcher
