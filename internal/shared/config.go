package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Library    LibraryConfig    `toml:"library"`
	Downloader DownloaderConfig `toml:"downloader"`
	Matching   MatchingConfig   `toml:"matching"`
	Log        LogConfig        `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LibraryConfig points at the directory downloaded media is written to.
type LibraryConfig struct {
	Path string `toml:"path"`
}

// DownloaderConfig controls how the external download tool is invoked.
type DownloaderConfig struct {
	Command           string   `toml:"command"`
	Args              []string `toml:"args"`
	AudioFormat       string   `toml:"audio_format"`
	RequestsPerMinute int      `toml:"requests_per_minute"`
}

// MatchingConfig holds the fuzzy search thresholds.
//
// MinScore drops weak candidates entirely; AutoAccept is the score a single candidate must reach for a query to resolve without asking.
type MatchingConfig struct {
	MinScore   float64 `toml:"min_score"`
	AutoAccept float64 `toml:"auto_accept"`
	Limit      int     `toml:"limit"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if c.Library.Path == "" {
		return fmt.Errorf("%w: library.path is empty", ErrInvalidConfig)
	}
	if c.Downloader.Command == "" {
		return fmt.Errorf("%w: downloader.command is empty", ErrInvalidConfig)
	}
	if c.Downloader.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: downloader.requests_per_minute must not be negative", ErrInvalidConfig)
	}
	if c.Matching.MinScore < 0 || c.Matching.MinScore > 1 {
		return fmt.Errorf("%w: matching.min_score must be within [0, 1]", ErrInvalidConfig)
	}
	if c.Matching.AutoAccept < c.Matching.MinScore || c.Matching.AutoAccept > 1 {
		return fmt.Errorf("%w: matching.auto_accept must be within [min_score, 1]", ErrInvalidConfig)
	}
	if c.Matching.Limit <= 0 {
		return fmt.Errorf("%w: matching.limit must be positive", ErrInvalidConfig)
	}
	return nil
}
