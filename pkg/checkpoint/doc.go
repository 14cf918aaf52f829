// Package checkpoint provides functionality for saving and resuming fetch progress.
//
// The checkpoint system allows the fetcher to resume after interruptions
// such as network failures or manual stops. It tracks:
//   - The current pagination cursor (epoch milliseconds)
//   - The running total of fetched records
//   - The wall-clock time of the last save
//
// The checkpoint lives in a small JSON file next to the output data, is
// written atomically to prevent corruption, and is deleted once a run
// completes so a finished download never resumes by accident. A missing or
// corrupt checkpoint is treated as "no checkpoint": the run starts fresh
// rather than failing.
package checkpoint
