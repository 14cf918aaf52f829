package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"sleepfetch/pkg/config"
	"sleepfetch/pkg/logger"
)

var (
	// Version information, set at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sleepfetch",
	Short: "Resumable downloader for Sleep as Android cloud backups",
	Long: `sleepfetch downloads your complete sleep history from the Sleep as
Android cloud backup service into a single JSON file.

Features:
  - Walks history backward page by page from the newest record
  - Durable chunked writes, so a crash never loses flushed data
  - Checkpointed progress: interrupt with Ctrl-C and resume later
  - Secure token storage using the system keychain
  - CSV export import and HTML report generation`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .sleepfetch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`sleepfetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from defaults, config file,
// environment and the given command line overrides, then wires the global
// logger to it.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if quiet {
		flags["log-level"] = "error"
	} else if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}
