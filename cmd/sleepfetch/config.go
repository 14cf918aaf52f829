package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sleepfetch/pkg/auth"
	"sleepfetch/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage sleepfetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (SLEEPFETCH_*, SLEEP_CLOUD_TOKEN)
  - A .env file in the working directory
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with default values",
	Long: `Create a configuration file populated with the default values.

The file is created as '.sleepfetch.yaml' in the current directory unless a
different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. The user token is
masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".sleepfetch.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your token with 'sleepfetch auth login'")
	fmt.Println("2. Start downloading with 'sleepfetch fetch'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Cloud.UserToken != "" {
		display.Cloud.UserToken = auth.MaskToken(display.Cloud.UserToken)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Print(string(data))
	return nil
}
