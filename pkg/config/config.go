package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the sleep-cloud fetcher
type Config struct {
	// Sleep cloud endpoint and credential settings
	Cloud CloudConfig `yaml:"cloud" json:"cloud"`

	// Fetch loop settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Output file settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CloudConfig holds the remote endpoint configuration
type CloudConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserToken      string        `yaml:"user_token" json:"user_token"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// FetchConfig holds the fetch loop configuration
type FetchConfig struct {
	// StartTime is the lower time bound in epoch milliseconds; the loop
	// terminates once the cursor moves at or below it.
	StartTime int64 `yaml:"start_time" json:"start_time"`
	// EndTime seeds the cursor on a fresh run, in epoch milliseconds.
	EndTime      int64         `yaml:"end_time" json:"end_time"`
	ChunkSize    int           `yaml:"chunk_size" json:"chunk_size"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay" json:"retry_delay"`
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	DataFile     string `yaml:"data_file" json:"data_file"`
	ProgressFile string `yaml:"progress_file" json:"progress_file"`
	ReportFile   string `yaml:"report_file" json:"report_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			BaseURL:        "https://sleep-cloud.appspot.com/fetchRecords",
			UserAgent:      "SleepCloudDataFetcher/1.0",
			RequestTimeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			StartTime:    1451606400000, // Jan 1, 2016 00:00:00 GMT+03:00
			EndTime:      1743465599000, // Mar 31, 2025 23:59:59 GMT+03:00
			ChunkSize:    100,
			MaxRetries:   3,
			RetryDelay:   5 * time.Second,
			RequestDelay: time.Second,
		},
		Output: OutputConfig{
			DataFile:     "sleep_data.json",
			ProgressFile: ".sleep_fetch_progress",
			ReportFile:   "sleep_report.html",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("SLEEP_CLOUD_TOKEN"); token != "" {
		c.Cloud.UserToken = token
	}
	if baseURL := os.Getenv("SLEEPFETCH_BASE_URL"); baseURL != "" {
		c.Cloud.BaseURL = baseURL
	}
	if userAgent := os.Getenv("SLEEPFETCH_USER_AGENT"); userAgent != "" {
		c.Cloud.UserAgent = userAgent
	}

	if chunkSize := os.Getenv("SLEEPFETCH_CHUNK_SIZE"); chunkSize != "" {
		var val int
		fmt.Sscanf(chunkSize, "%d", &val)
		if val > 0 {
			c.Fetch.ChunkSize = val
		}
	}
	if maxRetries := os.Getenv("SLEEPFETCH_MAX_RETRIES"); maxRetries != "" {
		var val int
		fmt.Sscanf(maxRetries, "%d", &val)
		if val > 0 {
			c.Fetch.MaxRetries = val
		}
	}

	if dataFile := os.Getenv("SLEEPFETCH_DATA_FILE"); dataFile != "" {
		c.Output.DataFile = dataFile
	}
	if progressFile := os.Getenv("SLEEPFETCH_PROGRESS_FILE"); progressFile != "" {
		c.Output.ProgressFile = progressFile
	}

	if logLevel := os.Getenv("SLEEPFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".sleepfetch.yaml",
		".sleepfetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "sleepfetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "sleepfetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".sleepfetch.yaml"),
		filepath.Join(os.Getenv("HOME"), ".sleepfetch.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Cloud.BaseURL == "" {
		errs = append(errs, errors.New("cloud base URL is required"))
	}
	if c.Cloud.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Fetch.StartTime <= 0 {
		errs = append(errs, errors.New("start time must be positive"))
	}
	if c.Fetch.EndTime <= c.Fetch.StartTime {
		errs = append(errs, errors.New("end time must be after start time"))
	}
	if c.Fetch.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Fetch.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}

	if c.Output.DataFile == "" {
		errs = append(errs, errors.New("data file path is required"))
	}
	if c.Output.ProgressFile == "" {
		errs = append(errs, errors.New("progress file path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Cloud.UserToken = token
	}
	if dataFile, ok := flags["data-file"].(string); ok && dataFile != "" {
		c.Output.DataFile = dataFile
	}
	if chunkSize, ok := flags["chunk-size"].(int); ok && chunkSize > 0 {
		c.Fetch.ChunkSize = chunkSize
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries > 0 {
		c.Fetch.MaxRetries = maxRetries
	}
	if startTime, ok := flags["start-time"].(int64); ok && startTime > 0 {
		c.Fetch.StartTime = startTime
	}
	if endTime, ok := flags["end-time"].(int64); ok && endTime > 0 {
		c.Fetch.EndTime = endTime
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".sleepfetch.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
