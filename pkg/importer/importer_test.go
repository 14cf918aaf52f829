package importer

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/storage"
)

const sampleCSV = `Id,Tz,From,To,Sched,Hours,Rating,Comment,Framerate,Snore,Noise,Cycles,DeepSleep,LenAdjust,Geo,"Event","Event"
1451775000000,Europe/Prague,02. 01. 2016 23:30,03. 01. 2016 07:15,03. 01. 2016 07:00,7.75,4.5,good night,10000,12,0.05,5,0.28,0,abc123,DEEP_START-1451776000000,AWAKE_START-1451780000000
1451861400000,Europe/Prague,not a date,04. 01. 2016 07:00,,,3.0,,,,,,,,,,
1451947800000,Europe/Prague,04. 01. 2016 23:50,05. 01. 2016 06:40,,6.83,6.0,,,,,4,0.31,,,
`

func newTestImporter(t *testing.T) (*Importer, *storage.Manager) {
	t.Helper()
	store := storage.NewManager(filepath.Join(t.TempDir(), "data.json"), logger.NewTestLogger())
	return New(store, logger.NewTestLogger()), store
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

func TestImportFileCSV(t *testing.T) {
	imp, store := newTestImporter(t)

	count, err := imp.ImportFile(writeFile(t, "sleep-export.csv", []byte(sampleCSV)))
	require.NoError(t, err)
	// The second row has an unparseable From date and is skipped
	assert.Equal(t, 2, count)

	set, err := store.Load()
	require.NoError(t, err)
	require.Len(t, set.Sleeps, 2)

	first := set.Sleeps[0]
	wantFrom := time.Date(2016, 1, 2, 23, 30, 0, 0, time.UTC).UnixMilli()
	wantTo := time.Date(2016, 1, 3, 7, 15, 0, 0, time.UTC).UnixMilli()

	from, ok := first.FromTime()
	require.True(t, ok)
	assert.Equal(t, wantFrom, from)
	to, ok := first.ToTime()
	require.True(t, ok)
	assert.Equal(t, wantTo, to)

	assert.Equal(t, "Europe/Prague", first["timezone"])
	assert.Equal(t, "good night", first["comment"])

	hours, ok := first.Float("hours")
	require.True(t, ok)
	assert.InDelta(t, 7.75, hours, 0.001)

	// A 0-5 CSV rating maps onto the cloud's 0-100 quality scale
	quality, ok := first.Quality()
	require.True(t, ok)
	assert.Equal(t, 90.0, quality)

	assert.Equal(t, []string{"DEEP_START-1451776000000", "AWAKE_START-1451780000000"}, first.Strings("events"))

	assert.True(t, first.Valid())
	assert.True(t, set.Sleeps[1].Valid())
}

func TestImportFileQualityClamped(t *testing.T) {
	imp, store := newTestImporter(t)

	_, err := imp.ImportFile(writeFile(t, "sleep-export.csv", []byte(sampleCSV)))
	require.NoError(t, err)

	set, err := store.Load()
	require.NoError(t, err)

	// The third row's rating of 6.0 would scale past 100
	quality, ok := set.Sleeps[1].Quality()
	require.True(t, ok)
	assert.Equal(t, 100.0, quality)
}

func TestImportFileZIP(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("sleep-export.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	imp, store := newTestImporter(t)

	count, err := imp.ImportFile(writeFile(t, "sleep-export.zip", buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	set, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, set.Sleeps, 2)
}

func TestImportFileZIPWithoutCSV(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("nothing here"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	imp, _ := newTestImporter(t)

	_, err = imp.ImportFile(writeFile(t, "sleep-export.zip", buf.Bytes()))
	assert.Error(t, err)
}

func TestImportFileMissing(t *testing.T) {
	imp, _ := newTestImporter(t)

	_, err := imp.ImportFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestImportFileReplacesSnapshot(t *testing.T) {
	imp, store := newTestImporter(t)

	require.NoError(t, store.WriteSnapshot(nil))

	count, err := imp.ImportFile(writeFile(t, "sleep-export.csv", []byte(sampleCSV)))
	require.NoError(t, err)

	set, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, set.Sleeps, count)
}
