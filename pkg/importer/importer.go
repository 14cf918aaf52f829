package importer

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/models"
	"sleepfetch/pkg/storage"
)

// dateLayout matches the "DD. MM. YYYY HH:MM" timestamps used by the
// sleep-export CSV.
const dateLayout = "02. 01. 2006 15:04"

var zipMagic = []byte("PK\x03\x04")

// Importer converts a Sleep as Android CSV export (bare or inside the
// exported ZIP archive) into the output store's record format and writes it
// as a full snapshot.
type Importer struct {
	store *storage.Manager
	log   logger.Logger
}

// New creates an Importer writing to the given store
func New(store *storage.Manager, log logger.Logger) *Importer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Importer{store: store, log: log}
}

// ImportFile reads the export at path, converts its rows to sleep records
// and replaces the store with a snapshot of them. It returns the number of
// imported records. Malformed rows are skipped with a single logged count.
func (i *Importer) ImportFile(path string) (int, error) {
	content, err := readExport(path)
	if err != nil {
		return 0, err
	}

	records, skipped, err := parseCSV(content)
	if err != nil {
		return 0, err
	}

	if skipped > 0 {
		i.log.WarnWithFields("Skipped malformed rows", map[string]interface{}{
			"skipped": skipped,
		})
	}

	if err := i.store.WriteSnapshot(records); err != nil {
		return 0, fmt.Errorf("failed to write imported records: %w", err)
	}

	i.log.InfoWithFields("Import completed", map[string]interface{}{
		"records": len(records),
		"path":    path,
	})

	return len(records), nil
}

// readExport reads the file, unwrapping a ZIP archive if the content starts
// with the ZIP magic bytes.
func readExport(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	if !bytes.HasPrefix(content, zipMagic) {
		return content, nil
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP archive: %w", err)
	}

	for _, file := range reader.File {
		if !strings.HasSuffix(file.Name, ".csv") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV in archive: %w", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV in archive: %w", err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("no CSV file found in ZIP archive")
}

// parseCSV converts export rows to sleep records, returning the records and
// a count of rows skipped for missing or unparseable essentials.
func parseCSV(content []byte) ([]models.SleepRecord, int, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(name)] = idx
	}

	records := []models.SleepRecord{}
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		record, ok := convertRow(header, columns, row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	return records, skipped, nil
}

// convertRow maps a single CSV row to a sleep record. Rows missing the
// essential Id/From/To fields, or whose dates do not parse, are rejected.
func convertRow(header []string, columns map[string]int, row []string) (models.SleepRecord, bool) {
	id := field(columns, row, "Id")
	if id == "" {
		return nil, false
	}

	fromTime, ok := parseDate(field(columns, row, "From"))
	if !ok {
		return nil, false
	}
	toTime, ok := parseDate(field(columns, row, "To"))
	if !ok {
		return nil, false
	}

	record := models.SleepRecord{
		"id":       id,
		"fromTime": fromTime,
		"toTime":   toTime,
	}

	if tz := field(columns, row, "Tz"); tz != "" {
		record["timezone"] = tz
	}
	if sched, ok := parseDate(field(columns, row, "Sched")); ok {
		record["scheduledTime"] = sched
	}
	if hours, ok := parseFloat(field(columns, row, "Hours")); ok {
		record["hours"] = hours
	}
	if rating, ok := parseFloat(field(columns, row, "Rating")); ok {
		record["rating"] = rating
		// The cloud endpoint reports quality on a 0-100 scale; the CSV
		// export rates sleep 0-5. Scale so imported records satisfy the
		// same store invariants.
		quality := rating * 20
		if quality > 100 {
			quality = 100
		}
		record["quality"] = quality
	}
	if comment := field(columns, row, "Comment"); comment != "" {
		record["comment"] = comment
	}
	if framerate, ok := parseInt(field(columns, row, "Framerate")); ok {
		record["framerate"] = framerate
	}
	if snore, ok := parseFloat(field(columns, row, "Snore")); ok {
		record["snore"] = snore
	}
	if noise, ok := parseFloat(field(columns, row, "Noise")); ok {
		record["noise"] = noise
	}
	if cycles, ok := parseInt(field(columns, row, "Cycles")); ok {
		record["cycles"] = cycles
	}
	if deepSleep, ok := parseFloat(field(columns, row, "DeepSleep")); ok {
		record["deepSleep"] = deepSleep
	}
	if lenAdjust, ok := parseInt(field(columns, row, "LenAdjust")); ok {
		record["lenAdjust"] = lenAdjust
	}
	if geo := field(columns, row, "Geo"); geo != "" {
		record["geo"] = geo
	}

	var events []interface{}
	for idx, name := range header {
		if strings.HasPrefix(strings.TrimSpace(name), "Event") && idx < len(row) && row[idx] != "" {
			events = append(events, row[idx])
		}
	}
	if len(events) > 0 {
		record["events"] = events
	}

	return record, true
}

// field returns the trimmed cell for the named column, or empty
func field(columns map[string]int, row []string, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDate parses an export timestamp into epoch milliseconds
func parseDate(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

func parseFloat(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInt(value string) (int64, bool) {
	f, ok := parseFloat(value)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
