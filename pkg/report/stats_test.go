package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepfetch/pkg/models"
)

func rec(t time.Time, hours, rating, deepSleep float64, cycles int) models.SleepRecord {
	return models.SleepRecord{
		"fromTime":  t.UnixMilli(),
		"toTime":    t.Add(time.Duration(hours * float64(time.Hour))).UnixMilli(),
		"quality":   rating * 20,
		"hours":     hours,
		"rating":    rating,
		"deepSleep": deepSleep,
		"cycles":    cycles,
	}
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 23, 0, 0, 0, time.UTC)
}

func TestMonthlyAverages(t *testing.T) {
	records := []models.SleepRecord{
		rec(day(2023, time.January, 5), 7, 4, 0.3, 5),
		rec(day(2023, time.January, 20), 9, 2, 0.1, 3),
		rec(day(2023, time.March, 1), 6, 5, 0.4, 4),
	}

	monthly := MonthlyAverages(records)
	require.Len(t, monthly, 2)

	assert.Equal(t, "2023-01", monthly[0].Key)
	assert.Equal(t, 2, monthly[0].Count)
	assert.InDelta(t, 8.0, monthly[0].Hours, 0.001)
	assert.InDelta(t, 3.0, monthly[0].Rating, 0.001)
	assert.InDelta(t, 0.2, monthly[0].DeepSleep, 0.001)
	assert.InDelta(t, 4.0, monthly[0].Cycles, 0.001)

	assert.Equal(t, "2023-03", monthly[1].Key)
	assert.Equal(t, 1, monthly[1].Count)
}

func TestYearlyAverages(t *testing.T) {
	records := []models.SleepRecord{
		rec(day(2022, time.June, 1), 8, 4, 0.3, 5),
		rec(day(2023, time.June, 1), 6, 3, 0.2, 4),
		rec(day(2023, time.July, 1), 7, 3, 0.2, 4),
	}

	yearly := YearlyAverages(records)
	require.Len(t, yearly, 2)
	assert.Equal(t, "2022", yearly[0].Key)
	assert.Equal(t, "2023", yearly[1].Key)
	assert.Equal(t, 2, yearly[1].Count)
	assert.InDelta(t, 6.5, yearly[1].Hours, 0.001)
}

func TestSeasonalAverages(t *testing.T) {
	records := []models.SleepRecord{
		rec(day(2023, time.January, 10), 7, 3, 0.2, 4),
		rec(day(2023, time.April, 10), 7, 3, 0.2, 4),
		rec(day(2023, time.July, 10), 7, 3, 0.2, 4),
		rec(day(2023, time.October, 10), 7, 3, 0.2, 4),
		rec(day(2023, time.December, 10), 7, 3, 0.2, 4),
	}

	seasonal := SeasonalAverages(records)
	keys := make([]string, 0, len(seasonal))
	for _, agg := range seasonal {
		keys = append(keys, agg.Key)
	}
	assert.Equal(t, []string{"2023-Fall", "2023-Spring", "2023-Summer", "2023-Winter"}, keys)

	// January and December land in the same year's winter bucket
	for _, agg := range seasonal {
		if agg.Key == "2023-Winter" {
			assert.Equal(t, 2, agg.Count)
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []models.SleepRecord{
		rec(day(2023, time.January, 5), 6, 2, 0.2, 4),
		rec(day(2023, time.February, 5), 8, 4, 0.4, 5),
	}

	overview := Summarize(records)
	assert.Equal(t, 2, overview.TotalRecords)
	assert.InDelta(t, 7.0, overview.AvgHours, 0.001)
	assert.InDelta(t, 3.0, overview.AvgRating, 0.001)
	assert.InDelta(t, 0.3, overview.AvgDeepSleep, 0.001)
	assert.Equal(t, day(2023, time.January, 5).UnixMilli(), overview.First.UnixMilli())
	assert.Equal(t, day(2023, time.February, 5).UnixMilli(), overview.Last.UnixMilli())
}

func TestSummarizeEmpty(t *testing.T) {
	overview := Summarize(nil)
	assert.Zero(t, overview.TotalRecords)
	assert.True(t, overview.First.IsZero())
	assert.True(t, overview.Last.IsZero())
}

func TestSummarizeEvents(t *testing.T) {
	withEvents := rec(day(2023, time.January, 5), 7, 3, 0.2, 4)
	withEvents["events"] = []interface{}{
		"DEEP_START-1672959600000",
		"DEEP_END-1672963200000",
		"AWAKE_START-1672966800000",
		"ALARM_STARTED-1672988400000",
		"TRACKING_STOPPED_BY_USER-1672988500000",
	}
	without := rec(day(2023, time.January, 6), 7, 3, 0.2, 4)

	stats := SummarizeEvents([]models.SleepRecord{withEvents, without})
	assert.Equal(t, 1, stats.RecordsWithEvents)
	assert.Equal(t, 2, stats.SleepStages)
	assert.Equal(t, 1, stats.Awake)
	assert.Equal(t, 1, stats.Alarm)
	assert.Equal(t, 1, stats.Other)
	assert.InDelta(t, 2.5, stats.AvgPerRecord, 0.001)
}

func TestDistribution(t *testing.T) {
	records := []models.SleepRecord{
		rec(day(2023, time.January, 1), 5.5, 3, 0.2, 4),
		rec(day(2023, time.January, 2), 6.5, 3, 0.2, 4),
		rec(day(2023, time.January, 3), 7.0, 3, 0.2, 4),
		rec(day(2023, time.January, 4), 8.5, 3, 0.2, 4),
		rec(day(2023, time.January, 5), 10.0, 3, 0.2, 4),
	}
	// A record without the metric does not count anywhere
	records = append(records, models.SleepRecord{"fromTime": day(2023, time.January, 6).UnixMilli()})

	counts := Distribution(records, "hours", []float64{6, 7, 8, 9})
	assert.Equal(t, []int{1, 1, 1, 1, 1}, counts)
}
