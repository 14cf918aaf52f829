package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/report"
	"sleepfetch/pkg/storage"
)

var statsDataFile string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print summary statistics for the downloaded data",
	Long: `Print overall and per-year summary statistics for the downloaded
sleep data: record counts, average duration, quality and deep sleep.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsDataFile, "data-file", "", "input JSON file")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"data-file": statsDataFile,
	})
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	store := storage.NewManager(cfg.Output.DataFile, log)

	if store.Exists() {
		if err := store.Consolidate(); err != nil {
			return fmt.Errorf("failed to consolidate data file: %w", err)
		}
	}

	set, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load sleep data (run 'sleepfetch fetch' first): %w", err)
	}
	records := set.Sleeps

	overview := report.Summarize(records)
	fmt.Printf("Records:          %d\n", overview.TotalRecords)
	if overview.TotalRecords == 0 {
		return nil
	}

	fmt.Printf("Range:            %s to %s\n",
		overview.First.Format("2006-01-02"), overview.Last.Format("2006-01-02"))
	fmt.Printf("Avg duration:     %.1f hours\n", overview.AvgHours)
	fmt.Printf("Avg quality:      %.1f/5\n", overview.AvgRating)
	fmt.Printf("Avg deep sleep:   %.1f%%\n", overview.AvgDeepSleep*100)

	events := report.SummarizeEvents(records)
	if events.RecordsWithEvents > 0 {
		fmt.Printf("Sessions w/events: %d (%.1f events per record)\n",
			events.RecordsWithEvents, events.AvgPerRecord)
	}

	fmt.Println("\nYear    Records  Duration  Quality  Deep sleep")
	for _, year := range report.YearlyAverages(records) {
		fmt.Printf("%-7s %7d  %7.1fh  %6.1f  %9.1f%%\n",
			year.Key, year.Count, year.Hours, year.Rating, year.DeepSleep*100)
	}

	return nil
}
