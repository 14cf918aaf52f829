package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"sleepfetch/pkg/models"
)

// Aggregate holds averaged sleep metrics for one bucket (a month, a year or
// a season).
type Aggregate struct {
	Key       string
	Count     int
	Hours     float64
	Rating    float64
	DeepSleep float64
	Cycles    float64
}

// Overview summarizes the whole data set for the summary cards and the
// terminal stats output.
type Overview struct {
	TotalRecords int
	AvgHours     float64
	AvgRating    float64
	AvgDeepSleep float64
	First        time.Time
	Last         time.Time
}

// EventStats counts per-session events by category.
type EventStats struct {
	RecordsWithEvents int
	SleepStages       int
	Awake             int
	Alarm             int
	Other             int
	AvgPerRecord      float64
}

var eventCategories = map[string][]string{
	"sleep_stages": {"DEEP_START", "DEEP_END", "REM_START", "REM_END", "LIGHT_START", "LIGHT_END"},
	"awake":        {"AWAKE_START", "AWAKE_END"},
	"alarm":        {"ALARM_EARLIEST", "ALARM_LATEST", "ALARM_STARTED", "ALARM_SNOOZE"},
}

type accumulator struct {
	count     int
	hours     float64
	rating    float64
	deepSleep float64
	cycles    float64
}

func (a *accumulator) add(r models.SleepRecord) {
	a.count++
	if v, ok := r.Float("hours"); ok {
		a.hours += v
	}
	if v, ok := r.Float("rating"); ok {
		a.rating += v
	}
	if v, ok := r.Float("deepSleep"); ok {
		a.deepSleep += v
	}
	if v, ok := r.Float("cycles"); ok {
		a.cycles += v
	}
}

func (a *accumulator) aggregate(key string) Aggregate {
	n := float64(a.count)
	return Aggregate{
		Key:       key,
		Count:     a.count,
		Hours:     a.hours / n,
		Rating:    a.rating / n,
		DeepSleep: a.deepSleep / n,
		Cycles:    a.cycles / n,
	}
}

// bucketBy groups records by the key function and returns per-bucket
// averages sorted by key.
func bucketBy(records []models.SleepRecord, key func(time.Time) string) []Aggregate {
	buckets := make(map[string]*accumulator)
	for _, r := range records {
		from, ok := r.FromTime()
		if !ok {
			continue
		}
		k := key(time.UnixMilli(from))
		acc, ok := buckets[k]
		if !ok {
			acc = &accumulator{}
			buckets[k] = acc
		}
		acc.add(r)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Aggregate, 0, len(keys))
	for _, k := range keys {
		out = append(out, buckets[k].aggregate(k))
	}
	return out
}

// MonthlyAverages returns per-month metric averages, oldest month first.
func MonthlyAverages(records []models.SleepRecord) []Aggregate {
	return bucketBy(records, func(t time.Time) string {
		return t.Format("2006-01")
	})
}

// YearlyAverages returns per-year metric averages, oldest year first.
func YearlyAverages(records []models.SleepRecord) []Aggregate {
	return bucketBy(records, func(t time.Time) string {
		return strconv.Itoa(t.Year())
	})
}

// SeasonalAverages returns per-season metric averages keyed as "YYYY-Season".
func SeasonalAverages(records []models.SleepRecord) []Aggregate {
	return bucketBy(records, func(t time.Time) string {
		var season string
		switch {
		case t.Month() >= time.March && t.Month() <= time.May:
			season = "Spring"
		case t.Month() >= time.June && t.Month() <= time.August:
			season = "Summer"
		case t.Month() >= time.September && t.Month() <= time.November:
			season = "Fall"
		default:
			season = "Winter"
		}
		return fmt.Sprintf("%d-%s", t.Year(), season)
	})
}

// Summarize computes whole-data-set totals and averages.
func Summarize(records []models.SleepRecord) Overview {
	o := Overview{TotalRecords: len(records)}
	if len(records) == 0 {
		return o
	}

	var acc accumulator
	var first, last int64
	for _, r := range records {
		acc.add(r)
		from, ok := r.FromTime()
		if !ok {
			continue
		}
		if first == 0 || from < first {
			first = from
		}
		if from > last {
			last = from
		}
	}

	n := float64(len(records))
	o.AvgHours = acc.hours / n
	o.AvgRating = acc.rating / n
	o.AvgDeepSleep = acc.deepSleep / n
	if first != 0 {
		o.First = time.UnixMilli(first)
	}
	if last != 0 {
		o.Last = time.UnixMilli(last)
	}
	return o
}

// SummarizeEvents categorizes every per-session event across the data set.
func SummarizeEvents(records []models.SleepRecord) EventStats {
	var stats EventStats
	total := 0

	for _, r := range records {
		events := r.Strings("events")
		if len(events) == 0 {
			continue
		}
		stats.RecordsWithEvents++
		total += len(events)

		for _, event := range events {
			eventType := strings.SplitN(event, "-", 2)[0]
			switch categorize(eventType) {
			case "sleep_stages":
				stats.SleepStages++
			case "awake":
				stats.Awake++
			case "alarm":
				stats.Alarm++
			default:
				stats.Other++
			}
		}
	}

	if len(records) > 0 {
		stats.AvgPerRecord = float64(total) / float64(len(records))
	}
	return stats
}

func categorize(eventType string) string {
	for category, types := range eventCategories {
		for _, t := range types {
			if t == eventType {
				return category
			}
		}
	}
	return "other"
}

// Distribution counts records into the given half-open ranges of a metric
// field. The last range is unbounded above.
func Distribution(records []models.SleepRecord, field string, bounds []float64) []int {
	counts := make([]int, len(bounds)+1)
	for _, r := range records {
		v, ok := r.Float(field)
		if !ok {
			continue
		}
		idx := len(bounds)
		for i, bound := range bounds {
			if v < bound {
				idx = i
				break
			}
		}
		counts[idx]++
	}
	return counts
}
