package fetcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"sleepfetch/pkg/checkpoint"
	"sleepfetch/pkg/config"
	"sleepfetch/pkg/errors"
	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/models"
	"sleepfetch/pkg/ratelimit"
	"sleepfetch/pkg/retry"
	"sleepfetch/pkg/storage"
)

var (
	// ErrInterrupted is returned when the run was cancelled between
	// iterations. The checkpoint is kept so a later run can resume.
	ErrInterrupted = stderrors.New("fetch interrupted, progress saved")

	// ErrStalled is returned when a batch's minimum fromTime does not move
	// the cursor strictly backward; without this guard the loop would fetch
	// the same page forever.
	ErrStalled = stderrors.New("cursor did not advance")
)

// Summary reports the outcome of a fetch run
type Summary struct {
	TotalRecords int
	FinalCursor  int64
	Resumed      bool
}

// Fetcher walks the cloud endpoint backward through history, buffering
// validated records into chunks, persisting them durably and checkpointing
// progress so an interrupted run can resume. It is the only stateful
// component; the client, checkpoint store and chunk writer it drives are
// each stateless between calls.
type Fetcher struct {
	client      RecordFetcher
	store       *storage.Manager
	checkpoints *checkpoint.Manager
	limiter     ratelimit.Limiter
	backoff     retry.BackoffStrategy
	cfg         *config.FetchConfig
	log         logger.Logger
}

// New creates a Fetcher over the given collaborators
func New(client RecordFetcher, store *storage.Manager, checkpoints *checkpoint.Manager, cfg *config.FetchConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:      client,
		store:       store,
		checkpoints: checkpoints,
		limiter:     ratelimit.NewInterval(cfg.RequestDelay),
		backoff:     &retry.ConstantBackoff{Delay: cfg.RetryDelay},
		cfg:         cfg,
		log:         log,
	}
}

// Run executes the fetch loop until history is exhausted, the configured
// lower time bound is reached, or the context is cancelled. Cancellation is
// observed between iterations; buffered records are flushed before returning
// in every exit path.
func (f *Fetcher) Run(ctx context.Context) (*Summary, error) {
	cursor := f.cfg.EndTime
	total := 0
	resumed := false

	if prior, err := f.checkpoints.Load(); err == nil && prior != nil {
		cursor = prior.CurrentTimestamp
		total = prior.TotalRecords
		resumed = true
		f.log.InfoWithFields("Resuming from previous session", map[string]interface{}{
			"cursor":        cursor,
			"total_records": total,
		})
	}

	// Point-in-time backup of the existing store, before any mutation.
	// Failure degrades safety, not correctness.
	if err := f.store.Backup(); err != nil {
		f.log.WithError(err).Error("Failed to create backup")
	}

	// Establish the store so append-mode writes have a leading snapshot to
	// attach to. A resumed run keeps its existing file, but recreates it if
	// the file vanished while the checkpoint survived.
	if !resumed || !f.store.Exists() {
		if err := f.store.WriteSnapshot(nil); err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
	}

	var chunk []models.SleepRecord
	emptyRetries := 0
	failureRetries := 0

	summary := func() *Summary {
		return &Summary{TotalRecords: total, FinalCursor: cursor, Resumed: resumed}
	}

	for cursor > f.cfg.StartTime {
		// Cooperative cancellation, observed between iterations only
		if ctx.Err() != nil {
			return summary(), f.interrupt(chunk)
		}

		batch, err := f.client.FetchRecords(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return summary(), f.interrupt(chunk)
			}

			var typed *errors.Error
			if stderrors.As(err, &typed) && typed.Type == errors.ErrorTypeValidation {
				// Precondition violation, not a runtime failure to recover from
				return summary(), err
			}

			failureRetries++
			f.log.ErrorWithFields("Fetch round failed", map[string]interface{}{
				"cursor":  cursor,
				"error":   err.Error(),
				"attempt": failureRetries,
				"max":     f.cfg.MaxRetries,
			})
			if failureRetries >= f.cfg.MaxRetries {
				f.log.Warn("Giving up after repeated failures, run is best-effort complete")
				break
			}
			if err := retry.Wait(ctx, f.backoff.NextDelay(failureRetries)); err != nil {
				return summary(), f.interrupt(chunk)
			}
			continue
		}

		if len(batch) == 0 {
			emptyRetries++
			if emptyRetries < f.cfg.MaxRetries {
				f.log.WarnWithFields("No records found", map[string]interface{}{
					"cursor":  cursor,
					"attempt": emptyRetries,
					"max":     f.cfg.MaxRetries,
				})
				if err := retry.Wait(ctx, f.backoff.NextDelay(emptyRetries)); err != nil {
					return summary(), f.interrupt(chunk)
				}
				continue
			}
			f.log.Info("No more records found after retries")
			break
		}

		emptyRetries = 0
		failureRetries = 0

		chunk = append(chunk, batch...)
		total += len(batch)

		if len(chunk) >= f.cfg.ChunkSize {
			if err := f.store.AppendChunk(chunk); err != nil {
				// A chunk-write failure risks silent data loss; abort
				return summary(), fmt.Errorf("chunk flush failed: %w", err)
			}
			f.saveCheckpoint(cursor, total)
			chunk = nil
		}

		next, ok := models.MinFromTime(batch)
		if !ok || next >= cursor {
			f.log.ErrorWithFields("Batch did not move the cursor backward", map[string]interface{}{
				"cursor":      cursor,
				"next_cursor": next,
				"batch_size":  len(batch),
			})
			f.flushRemainder(chunk)
			return summary(), ErrStalled
		}
		cursor = next

		f.log.InfoWithFields("Fetched records", map[string]interface{}{
			"batch_size":    len(batch),
			"total_records": total,
			"next_cursor":   cursor,
			"next_time":     time.UnixMilli(cursor).UTC().Format(time.RFC3339),
		})

		// Courtesy rate limit, applied every iteration
		if err := f.limiter.Wait(ctx); err != nil {
			return summary(), f.interrupt(chunk)
		}
	}

	// DONE: flush whatever is buffered and drop the checkpoint, there is
	// nothing left to resume
	if err := f.store.AppendChunk(chunk); err != nil {
		return summary(), fmt.Errorf("final flush failed: %w", err)
	}
	if err := f.checkpoints.Delete(); err != nil {
		f.log.WithError(err).Warn("Failed to delete checkpoint")
	}

	f.log.InfoWithFields("Fetch completed", map[string]interface{}{
		"total_records": total,
		"final_cursor":  cursor,
	})

	return summary(), nil
}

// interrupt flushes buffered records and reports the interrupted exit path.
// The checkpoint is deliberately left in place: it still holds the last
// flushed cursor, which is where the next run must resume.
func (f *Fetcher) interrupt(chunk []models.SleepRecord) error {
	f.log.Warn("Interrupted, flushing buffered records")
	f.flushRemainder(chunk)
	return ErrInterrupted
}

// flushRemainder appends buffered records on a best-effort basis
func (f *Fetcher) flushRemainder(chunk []models.SleepRecord) {
	if len(chunk) == 0 {
		return
	}
	if err := f.store.AppendChunk(chunk); err != nil {
		f.log.ErrorWithFields("Failed to flush buffered records", map[string]interface{}{
			"buffered": len(chunk),
			"error":    err.Error(),
		})
	}
}

// saveCheckpoint persists progress after a successful chunk flush. A failed
// save degrades resumability, not the correctness of already-written data,
// so it is logged and tolerated.
func (f *Fetcher) saveCheckpoint(cursor int64, total int) {
	state := &checkpoint.ProgressState{
		CurrentTimestamp: cursor,
		TotalRecords:     total,
	}
	if err := f.checkpoints.Save(state); err != nil {
		f.log.WithError(err).Error("Failed to save checkpoint")
	}
}
