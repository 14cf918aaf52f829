// Package storage persists sleep records to the output data file.
//
// Two write modes are provided with different durability trade-offs:
//
// Snapshot writes replace the whole file with a well-formed
// {"sleeps": [...]} document via a temporary file and an atomic rename, so
// readers never observe partial content.
//
// Chunk appends add records to the end of the existing file without
// rewriting it. This keeps the per-chunk cost constant during a long fetch
// run, at the price of leaving the file invalid as a single JSON document
// until Consolidate rewrites it as a snapshot.
//
// Backup copies the current file to <path>.backup before a run mutates it.
package storage
