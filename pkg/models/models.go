package models

import (
	"encoding/json"
)

// SleepRecord is a single sleep session as returned by the cloud endpoint.
// Beyond the three required fields (fromTime, toTime, quality) records carry
// arbitrary additional fields which are passed through verbatim, so the
// record is kept as a generic mapping rather than a fixed struct.
type SleepRecord map[string]interface{}

// RecordSet is the wrapping object used by the endpoint and the output store.
type RecordSet struct {
	Sleeps []SleepRecord `json:"sleeps"`
}

// number extracts a numeric field from the record. JSON numbers decode to
// float64; int variants show up when records are built in code.
func (r SleepRecord) number(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FromTime returns the record's start timestamp in epoch milliseconds.
func (r SleepRecord) FromTime() (int64, bool) {
	f, ok := r.number("fromTime")
	return int64(f), ok
}

// ToTime returns the record's end timestamp in epoch milliseconds.
func (r SleepRecord) ToTime() (int64, bool) {
	f, ok := r.number("toTime")
	return int64(f), ok
}

// Quality returns the record's quality score.
func (r SleepRecord) Quality() (float64, bool) {
	return r.number("quality")
}

// Float returns an arbitrary numeric field. Report aggregation reads metric
// fields like hours, rating, deepSleep and cycles through this accessor.
func (r SleepRecord) Float(key string) (float64, bool) {
	return r.number(key)
}

// Strings returns a string-list field such as the per-session event log.
func (r SleepRecord) Strings(key string) []string {
	v, ok := r[key]
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Valid reports whether the record satisfies the store invariants: all three
// required fields present and numeric, fromTime strictly before toTime, and
// quality within [0, 100]. It has no side effects and never panics on
// malformed input.
func (r SleepRecord) Valid() bool {
	from, ok := r.number("fromTime")
	if !ok {
		return false
	}
	to, ok := r.number("toTime")
	if !ok {
		return false
	}
	quality, ok := r.number("quality")
	if !ok {
		return false
	}

	if from >= to {
		return false
	}
	if quality < 0 || quality > 100 {
		return false
	}

	return true
}

// FilterValid splits a batch into valid records and a count of dropped ones.
// Callers log the drop count once per batch rather than per record.
func FilterValid(records []SleepRecord) ([]SleepRecord, int) {
	valid := make([]SleepRecord, 0, len(records))
	for _, r := range records {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	return valid, len(records) - len(valid)
}

// MinFromTime returns the minimum fromTime across the batch. The second
// return value is false for an empty batch or one with no readable fromTime.
func MinFromTime(records []SleepRecord) (int64, bool) {
	var min int64
	found := false
	for _, r := range records {
		from, ok := r.FromTime()
		if !ok {
			continue
		}
		if !found || from < min {
			min = from
			found = true
		}
	}
	return min, found
}
