package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/report"
	"sleepfetch/pkg/storage"
)

var (
	reportDataFile string
	reportOutFile  string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an HTML report from the downloaded data",
	Long: `Generate an interactive HTML report with charts of sleep duration,
quality, deep sleep and per-session events, aggregated monthly, yearly and
seasonally.`,
	Example: `  # Generate sleep_report.html from the default data file
  sleepfetch report

  # Custom input and output paths
  sleepfetch report --data-file sleep_2020.json --output report_2020.html`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDataFile, "data-file", "", "input JSON file")
	reportCmd.Flags().StringVarP(&reportOutFile, "output", "o", "", "output HTML file")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"data-file": reportDataFile,
	})
	if err != nil {
		return err
	}
	if reportOutFile != "" {
		cfg.Output.ReportFile = reportOutFile
	}

	log := logger.GetLogger()
	store := storage.NewManager(cfg.Output.DataFile, log)

	// Repair a file left in append form by an interrupted run before
	// reading it back.
	if store.Exists() {
		if err := store.Consolidate(); err != nil {
			return fmt.Errorf("failed to consolidate data file: %w", err)
		}
	}

	if err := report.NewGenerator(store, log).Generate(cfg.Output.ReportFile); err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", cfg.Output.ReportFile)
	return nil
}
