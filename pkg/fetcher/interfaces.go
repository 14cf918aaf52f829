package fetcher

import (
	"context"

	"sleepfetch/pkg/models"
)

// RecordFetcher fetches one page of records older than the cursor timestamp.
// *sleepcloud.Client satisfies this; tests substitute their own.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, cursor int64) ([]models.SleepRecord, error)
}
