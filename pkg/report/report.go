// Package report aggregates stored sleep records and renders them as an
// interactive HTML page of charts.
package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/models"
	"sleepfetch/pkg/storage"
)

const (
	chartWidth  = "1100px"
	chartHeight = "450px"
)

// Generator renders the HTML report from the output store.
type Generator struct {
	store *storage.Manager
	log   logger.Logger
}

// NewGenerator creates a report generator reading from the given store
func NewGenerator(store *storage.Manager, log logger.Logger) *Generator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Generator{store: store, log: log}
}

// Generate loads the store, computes the aggregates and writes the report
// to outPath.
func (g *Generator) Generate(outPath string) error {
	set, err := g.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load sleep data: %w", err)
	}
	records := set.Sleeps
	if len(records) == 0 {
		return fmt.Errorf("no sleep records to report on")
	}

	page := components.NewPage()
	page.PageTitle = "Sleep Report"

	page.AddCharts(
		yearlyTrendsChart(YearlyAverages(records)),
		seasonalTrendsChart(SeasonalAverages(records)),
		monthlyChart("Monthly Sleep Duration", "Hours", MonthlyAverages(records), func(a Aggregate) float64 { return a.Hours }),
		monthlyChart("Monthly Sleep Quality", "Rating (0-5)", MonthlyAverages(records), func(a Aggregate) float64 { return a.Rating }),
		monthlyChart("Monthly Deep Sleep", "Fraction of night", MonthlyAverages(records), func(a Aggregate) float64 { return a.DeepSleep }),
		durationDistributionChart(records),
		qualityDistributionChart(records),
		cyclesDistributionChart(records),
		eventDistributionChart(SummarizeEvents(records)),
	)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	g.log.InfoWithFields("Report generated", map[string]interface{}{
		"records": len(records),
		"path":    outPath,
	})
	return nil
}

func yearlyTrendsChart(yearly []Aggregate) *charts.Line {
	return trendsChart("Yearly Sleep Trends", yearly)
}

func seasonalTrendsChart(seasonal []Aggregate) *charts.Line {
	return trendsChart("Seasonal Sleep Patterns", seasonal)
}

// trendsChart plots duration, rating and deep sleep together over the given
// buckets.
func trendsChart(title string, buckets []Aggregate) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	labels := make([]string, len(buckets))
	hours := make([]opts.LineData, len(buckets))
	rating := make([]opts.LineData, len(buckets))
	deepSleep := make([]opts.LineData, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Key
		hours[i] = opts.LineData{Value: round1(b.Hours)}
		rating[i] = opts.LineData{Value: round1(b.Rating)}
		deepSleep[i] = opts.LineData{Value: round1(b.DeepSleep * 100)}
	}

	line.SetXAxis(labels).
		AddSeries("Duration (hours)", hours).
		AddSeries("Quality (0-5)", rating).
		AddSeries("Deep sleep %", deepSleep)
	return line
}

func monthlyChart(title, yLabel string, monthly []Aggregate, value func(Aggregate) float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yLabel}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	labels := make([]string, len(monthly))
	data := make([]opts.LineData, len(monthly))
	for i, b := range monthly {
		labels[i] = b.Key
		data[i] = opts.LineData{Value: round1(value(b))}
	}

	line.SetXAxis(labels).AddSeries(yLabel, data)
	return line
}

func durationDistributionChart(records []models.SleepRecord) *charts.Bar {
	counts := Distribution(records, "hours", []float64{6, 7, 8, 9})
	return distributionChart("Sleep Duration Distribution",
		[]string{"< 6h", "6-7h", "7-8h", "8-9h", "> 9h"}, counts)
}

func qualityDistributionChart(records []models.SleepRecord) *charts.Bar {
	counts := Distribution(records, "rating", []float64{1, 2, 3, 4, 5})
	// The first bucket collects unrated sessions below 1.
	return distributionChart("Sleep Quality Distribution",
		[]string{"< 1", "1-2", "2-3", "3-4", "4-5", "5"}, counts)
}

func cyclesDistributionChart(records []models.SleepRecord) *charts.Bar {
	counts := Distribution(records, "cycles", []float64{3, 4, 5, 6})
	return distributionChart("Sleep Cycles Distribution",
		[]string{"< 3", "3-4", "4-5", "5-6", "> 6"}, counts)
}

func distributionChart(title string, labels []string, counts []int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Records"}),
	)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}

	bar.SetXAxis(labels).AddSeries("Records", data)
	return bar
}

func eventDistributionChart(stats EventStats) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Sleep Event Distribution"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	pie.AddSeries("Events", []opts.PieData{
		{Name: "Sleep stages", Value: stats.SleepStages},
		{Name: "Awake", Value: stats.Awake},
		{Name: "Alarm", Value: stats.Alarm},
		{Name: "Other", Value: stats.Other},
	}).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: "60%"}),
	)
	return pie
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
