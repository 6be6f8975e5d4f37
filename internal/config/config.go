package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Archive   ArchiveConfig
	DB        DBConfig
	Extractor ExtractorConfig
	Job       JobConfig
	Telegram  TelegramConfig
}

// ArchiveConfig holds filesystem layout configuration
type ArchiveConfig struct {
	DataDir     string `envconfig:"ARCHIVE_DATA_DIR" default:"./data"`
	MetadataDir string `envconfig:"ARCHIVE_METADATA_DIR"`
}

// DBConfig holds catalog database configuration
type DBConfig struct {
	Path string `envconfig:"DB_PATH" default:"./data/archive.db"`
}

// ExtractorConfig holds configuration for the yt-dlp extractor
type ExtractorConfig struct {
	Bin       string  `envconfig:"EXTRACTOR_BIN" default:"yt-dlp"`
	RateLimit float64 `envconfig:"EXTRACTOR_RATE_LIMIT" default:"0.5"`
}

// JobConfig holds acquisition job defaults. Politeness values are passed
// through to the extractor, not interpreted here.
type JobConfig struct {
	Workers            int    `envconfig:"JOB_WORKERS" default:"1"`
	Format             string `envconfig:"JOB_FORMAT" default:"bestvideo+bestaudio/best"`
	Container          string `envconfig:"JOB_CONTAINER" default:"mkv"`
	SleepRequests      int    `envconfig:"JOB_SLEEP_REQUESTS" default:"1"`
	SleepInterval      int    `envconfig:"JOB_SLEEP_INTERVAL" default:"5"`
	MaxSleepInterval   int    `envconfig:"JOB_MAX_SLEEP_INTERVAL" default:"15"`
	Retries            int    `envconfig:"JOB_RETRIES" default:"10"`
	FragmentRetries    int    `envconfig:"JOB_FRAGMENT_RETRIES" default:"10"`
	SkipAcquired       bool   `envconfig:"JOB_SKIP_ACQUIRED" default:"true"`
	CookiesFromBrowser string `envconfig:"JOB_COOKIES_FROM_BROWSER" default:""`
}

// TelegramConfig holds the optional job-summary notifier configuration.
// Notifications are disabled when the token is empty.
type TelegramConfig struct {
	Token  string `envconfig:"TELEGRAM_TOKEN" default:""`
	ChatID int64  `envconfig:"TELEGRAM_CHAT_ID" default:"0"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Archive); err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Extractor); err != nil {
		return nil, fmt.Errorf("failed to load extractor config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Job); err != nil {
		return nil, fmt.Errorf("failed to load job config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Telegram); err != nil {
		return nil, fmt.Errorf("failed to load telegram config: %w", err)
	}

	if cfg.Archive.MetadataDir == "" {
		cfg.Archive.MetadataDir = filepath.Join(cfg.Archive.DataDir, "Metadata")
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Archive.DataDir == "" {
		return fmt.Errorf("ARCHIVE_DATA_DIR must not be empty")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.Extractor.Bin == "" {
		return fmt.Errorf("EXTRACTOR_BIN must not be empty")
	}
	if c.Extractor.RateLimit <= 0 {
		return fmt.Errorf("EXTRACTOR_RATE_LIMIT must be positive")
	}
	if c.Job.Workers < 1 || c.Job.Workers > 16 {
		return fmt.Errorf("JOB_WORKERS must be between 1 and 16")
	}
	if c.Job.SleepRequests < 0 || c.Job.SleepRequests > 10 {
		return fmt.Errorf("JOB_SLEEP_REQUESTS must be between 0 and 10")
	}
	if c.Job.SleepInterval < 0 || c.Job.SleepInterval > 60 {
		return fmt.Errorf("JOB_SLEEP_INTERVAL must be between 0 and 60")
	}
	if c.Job.MaxSleepInterval < 0 || c.Job.MaxSleepInterval > 120 {
		return fmt.Errorf("JOB_MAX_SLEEP_INTERVAL must be between 0 and 120")
	}
	if c.Job.MaxSleepInterval < c.Job.SleepInterval {
		return fmt.Errorf("JOB_MAX_SLEEP_INTERVAL must not be below JOB_SLEEP_INTERVAL")
	}
	if c.Job.Retries < 0 || c.Job.Retries > 100 {
		return fmt.Errorf("JOB_RETRIES must be between 0 and 100")
	}
	if c.Job.FragmentRetries < 0 || c.Job.FragmentRetries > 100 {
		return fmt.Errorf("JOB_FRAGMENT_RETRIES must be between 0 and 100")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}
