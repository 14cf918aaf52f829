package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "sleep_data.json"), logger.NewTestLogger())
}

func record(from, to int64, quality float64) models.SleepRecord {
	return models.SleepRecord{"fromTime": from, "toTime": to, "quality": quality}
}

func TestWriteSnapshotAndLoad(t *testing.T) {
	mgr := newTestManager(t)

	records := []models.SleepRecord{
		record(1000, 2000, 80),
		{"fromTime": int64(3000), "toTime": int64(4000), "quality": 90.0, "comment": "good night"},
	}
	require.NoError(t, mgr.WriteSnapshot(records))

	set, err := mgr.Load()
	require.NoError(t, err)
	require.Len(t, set.Sleeps, 2)
	assert.Equal(t, "good night", set.Sleeps[1]["comment"])

	// No temporary file survives a successful write
	_, err = os.Stat(mgr.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteSnapshotNil(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.WriteSnapshot(nil))

	set, err := mgr.Load()
	require.NoError(t, err)
	assert.NotNil(t, set.Sleeps)
	assert.Empty(t, set.Sleeps)
}

func TestAppendChunkLeavesFileUnparseable(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.WriteSnapshot(nil))
	require.NoError(t, mgr.AppendChunk([]models.SleepRecord{record(1000, 2000, 80)}))

	// Until consolidation the file is not a single valid document
	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestConsolidate(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.WriteSnapshot([]models.SleepRecord{record(9000, 9500, 70)}))

	// Two separate chunks: records within a chunk are comma-joined, but
	// nothing separates one chunk from the next.
	require.NoError(t, mgr.AppendChunk([]models.SleepRecord{
		record(5000, 6000, 80),
		record(3000, 4000, 85),
	}))
	require.NoError(t, mgr.AppendChunk([]models.SleepRecord{
		record(1000, 2000, 90),
	}))

	require.NoError(t, mgr.Consolidate())

	set, err := mgr.Load()
	require.NoError(t, err)
	require.Len(t, set.Sleeps, 4)

	from, ok := set.Sleeps[3].FromTime()
	require.True(t, ok)
	assert.Equal(t, int64(1000), from)
}

func TestConsolidateIdempotent(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.WriteSnapshot([]models.SleepRecord{record(1000, 2000, 80)}))
	require.NoError(t, mgr.Consolidate())
	require.NoError(t, mgr.Consolidate())

	set, err := mgr.Load()
	require.NoError(t, err)
	assert.Len(t, set.Sleeps, 1)
}

func TestAppendChunkEmpty(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.AppendChunk(nil))

	// An empty append must not create the file
	assert.False(t, mgr.Exists())
}

func TestBackup(t *testing.T) {
	t.Run("copies the store", func(t *testing.T) {
		mgr := newTestManager(t)
		require.NoError(t, mgr.WriteSnapshot([]models.SleepRecord{record(1000, 2000, 80)}))

		require.NoError(t, mgr.Backup())

		original, err := os.ReadFile(mgr.Path())
		require.NoError(t, err)
		backup, err := os.ReadFile(mgr.Path() + ".backup")
		require.NoError(t, err)
		assert.Equal(t, original, backup)
	})

	t.Run("missing store is not an error", func(t *testing.T) {
		mgr := newTestManager(t)

		require.NoError(t, mgr.Backup())

		_, err := os.Stat(mgr.Path() + ".backup")
		assert.True(t, os.IsNotExist(err))
	})
}

func TestConsolidateWithoutLeadingSnapshot(t *testing.T) {
	mgr := newTestManager(t)

	// Appends against a store whose snapshot never got written, or was
	// removed out of band, produce a file of bare records. Consolidation
	// must keep all of them, including the first.
	require.NoError(t, mgr.AppendChunk([]models.SleepRecord{record(3000, 4000, 90)}))
	require.NoError(t, mgr.AppendChunk([]models.SleepRecord{record(1000, 2000, 80)}))

	require.NoError(t, mgr.Consolidate())

	set, err := mgr.Load()
	require.NoError(t, err)
	require.Len(t, set.Sleeps, 2)

	from, ok := set.Sleeps[0].FromTime()
	require.True(t, ok)
	assert.Equal(t, int64(3000), from)
}

func TestDecodeMixedRejectsGarbage(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.WriteSnapshot(nil))

	f, err := os.OpenFile(mgr.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("this is not json")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Error(t, mgr.Consolidate())
}
