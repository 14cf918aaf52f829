package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sleepfetch/pkg/auth"
	"sleepfetch/pkg/checkpoint"
	"sleepfetch/pkg/fetcher"
	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/sleepcloud"
	"sleepfetch/pkg/storage"
)

var (
	// Fetch command flags
	fetchToken      string
	fetchDataFile   string
	fetchChunkSize  int
	fetchMaxRetries int
	fetchStartTime  int64
	fetchEndTime    int64
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download sleep records from the cloud backup",
	Long: `Download all sleep records from the Sleep as Android cloud backup,
walking backward from the newest record to the configured start time.

A valid user token is required, provided through one of:
  - Stored token (use 'sleepfetch auth login' to store)
  - The SLEEP_CLOUD_TOKEN environment variable
  - The --token flag or the configuration file

Progress is checkpointed after every flushed chunk. Interrupt the run with
Ctrl-C and a later invocation resumes where it left off. When the run
completes, the checkpoint is removed and the data file is consolidated into
a single well-formed JSON document.`,
	Example: `  # Download with stored credentials
  sleepfetch fetch

  # Download a specific time window to a custom file
  sleepfetch fetch --start-time 1577836800000 --end-time 1609459199000 --data-file sleep_2020.json

  # Resume after an interruption (same command, picks up the checkpoint)
  sleepfetch fetch`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchToken, "token", "", "sleep cloud user token")
	fetchCmd.Flags().StringVarP(&fetchDataFile, "data-file", "o", "", "output JSON file")
	fetchCmd.Flags().IntVar(&fetchChunkSize, "chunk-size", 0, "records buffered before a durable flush")
	fetchCmd.Flags().IntVar(&fetchMaxRetries, "max-retries", 0, "consecutive failures tolerated before giving up")
	fetchCmd.Flags().Int64Var(&fetchStartTime, "start-time", 0, "lower time bound, epoch milliseconds")
	fetchCmd.Flags().Int64Var(&fetchEndTime, "end-time", 0, "initial cursor for a fresh run, epoch milliseconds")
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"token":       fetchToken,
		"data-file":   fetchDataFile,
		"chunk-size":  fetchChunkSize,
		"max-retries": fetchMaxRetries,
		"start-time":  fetchStartTime,
		"end-time":    fetchEndTime,
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	log.WithField("version", version).Info("sleepfetch starting")

	// Fall back to the credential manager when no token came from flags,
	// environment or config file.
	if cfg.Cloud.UserToken == "" {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		token, err := manager.Retrieve()
		if err != nil {
			log.Error("No sleep cloud token found")
			fmt.Fprintln(os.Stderr, "No sleep cloud token found.")
			fmt.Fprintln(os.Stderr, "\nTo store a token securely, run:")
			fmt.Fprintln(os.Stderr, "  sleepfetch auth login")
			fmt.Fprintln(os.Stderr, "\nOr export it directly:")
			fmt.Fprintln(os.Stderr, "  export SLEEP_CLOUD_TOKEN=your_token")
			os.Exit(1)
		}
		cfg.Cloud.UserToken = token
		log.WithField("token", auth.MaskToken(token)).Info("Using stored token")
	}

	client, err := sleepcloud.NewClient(&cfg.Cloud, log)
	if err != nil {
		return fmt.Errorf("failed to create cloud client: %w", err)
	}

	store := storage.NewManager(cfg.Output.DataFile, log)
	checkpoints := checkpoint.NewManager(cfg.Output.ProgressFile, log)
	f := fetcher.New(client, store, checkpoints, &cfg.Fetch, log)

	// Ctrl-C cancels the context; the loop observes it between iterations,
	// flushes buffered records and keeps the checkpoint.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := f.Run(ctx)
	if err != nil {
		if stderrors.Is(err, fetcher.ErrInterrupted) {
			log.WithField("total_records", summary.TotalRecords).Warn("Run interrupted, progress saved")
			fmt.Fprintf(os.Stderr, "Interrupted after %d records. Run 'sleepfetch fetch' again to resume.\n", summary.TotalRecords)
			os.Exit(1)
		}
		return err
	}

	// The append-mode writes leave the file as a snapshot with trailing
	// chunks; consolidate into a single well-formed document now that the
	// run is complete.
	if err := store.Consolidate(); err != nil {
		return fmt.Errorf("failed to consolidate data file: %w", err)
	}

	fmt.Printf("Fetched %d records into %s\n", summary.TotalRecords, cfg.Output.DataFile)
	fmt.Printf("Final cursor: %s\n", time.UnixMilli(summary.FinalCursor).UTC().Format(time.RFC3339))
	return nil
}
