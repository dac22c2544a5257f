package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every configuration key read from the environment
	EnvPrefix = "ISSYOURS"

	// EnvGithubToken is the environment variable name for the GitHub API token
	EnvGithubToken = "ISSYOURS_GITHUB_TOKEN"

	// DefaultCacheSize bounds the number of issues and people a reader keeps in memory
	DefaultCacheSize = 50
)

// Config represents the application configuration
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Reader  ReaderConfig  `mapstructure:"reader"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// GitHubConfig configures access to the GitHub REST API
type GitHubConfig struct {
	// Token is never written to the archive
	Token             string        `mapstructure:"token"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// ArchiveConfig configures the optional SQLite catalog
type ArchiveConfig struct {
	Catalog string `mapstructure:"catalog"`
}

// ReaderConfig configures archive readers
type ReaderConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// LogConfig overrides logger settings taken from the environment
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures the Prometheus textfile written after a fetch
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// NewConfig returns a configuration with default values
func NewConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com/",
			Timeout: 30 * time.Second,
		},
		Reader: ReaderConfig{
			CacheSize: DefaultCacheSize,
		},
	}
}

// Load reads configuration from path (optional) and the environment.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", EnvGithubToken, "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token variable: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if dir, err := defaultConfigDir(); err == nil {
		v.SetConfigName("issyours")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := NewConfig()
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", defaults.GitHub.BaseURL)
	v.SetDefault("github.timeout", defaults.GitHub.Timeout)
	v.SetDefault("github.requests_per_second", defaults.GitHub.RequestsPerSecond)
	v.SetDefault("archive.catalog", "")
	v.SetDefault("reader.cache_size", defaults.Reader.CacheSize)
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
	v.SetDefault("metrics.file", "")
}

// DefaultPath is where Load looks for a configuration file when none is given
func DefaultPath() (string, error) {
	dir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "issyours.yaml"), nil
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "issyours"), nil
}

// Validate checks settings shared by every command
func (c *Config) Validate() error {
	if c.Reader.CacheSize <= 0 {
		return fmt.Errorf("reader.cache_size must be positive, got %d", c.Reader.CacheSize)
	}
	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second must not be negative, got %v", c.GitHub.RequestsPerSecond)
	}
	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("github.timeout must not be negative, got %s", c.GitHub.Timeout)
	}
	return nil
}

// ValidateForFetch additionally requires credentials for the GitHub API
func (c *Config) ValidateForFetch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.GitHub.Token == "" {
		return fmt.Errorf("GitHub token is required: use --oauth-token or set %s", EnvGithubToken)
	}
	if c.GitHub.BaseURL == "" {
		return fmt.Errorf("github.base_url must not be empty")
	}
	return nil
}

// SaveConfig writes the configuration to path. The format follows the file
// extension. The token is left out.
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.Set("github.base_url", config.GitHub.BaseURL)
	v.Set("github.timeout", config.GitHub.Timeout.String())
	v.Set("github.requests_per_second", config.GitHub.RequestsPerSecond)
	v.Set("archive.catalog", config.Archive.Catalog)
	v.Set("reader.cache_size", config.Reader.CacheSize)
	v.Set("log.level", config.Log.Level)
	v.Set("log.format", config.Log.Format)
	v.Set("metrics.file", config.Metrics.File)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig creates a default configuration file if it doesn't
// exist and reports whether it did
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil // File exists, don't overwrite
	}

	if err := SaveConfig(NewConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}
