package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sleepfetch/pkg/importer"
	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/storage"
)

var importDataFile string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <export-file>",
	Short: "Import a Sleep as Android CSV export",
	Long: `Import sleep records from a Sleep as Android export file.

Both the raw sleep-export.csv and the sleep-export.zip archive produced by
the app's backup function are accepted. The imported records replace the
data file as a full snapshot; malformed rows are skipped and counted.`,
	Example: `  # Import the ZIP archive straight from the phone backup
  sleepfetch import sleep-export.zip

  # Import a bare CSV into a custom data file
  sleepfetch import sleep-export.csv --data-file imported.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importDataFile, "data-file", "o", "", "output JSON file")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"data-file": importDataFile,
	})
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	store := storage.NewManager(cfg.Output.DataFile, log)

	count, err := importer.New(store, log).ImportFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d records into %s\n", count, cfg.Output.DataFile)
	return nil
}
