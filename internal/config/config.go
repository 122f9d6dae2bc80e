package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Load     LoadConfig     `toml:"load"`
	Autosave AutosaveConfig `toml:"autosave"`
	Logging  LoggingConfig  `toml:"logging"`
	LastFm   LastFmConfig   `toml:"lastfm"`
}

// LibraryConfig contains music library configuration
type LibraryConfig struct {
	UserFolder       string   `toml:"user_folder"`
	MusicFolder      string   `toml:"music_folder"`
	SupportedFormats []string `toml:"supported_formats"`
	WatchForChanges  bool     `toml:"watch_for_changes"`
}

// LoadConfig contains startup load configuration
type LoadConfig struct {
	Workers       int `toml:"workers"`
	WaveformPeaks int `toml:"waveform_peaks"`
}

// AutosaveConfig contains periodic persistence configuration
type AutosaveConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LastFmConfig contains credentials for the external scrobbling service.
// The values are usually supplied through the environment rather than
// the config file.
type LastFmConfig struct {
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			UserFolder:       "./vibrato",
			MusicFolder:      "./music",
			SupportedFormats: []string{".flac", ".mp3", ".wav", ".m4a"},
			WatchForChanges:  true,
		},
		Load: LoadConfig{
			Workers:       4,
			WaveformPeaks: 520,
		},
		Autosave: AutosaveConfig{
			IntervalSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile loads configuration from a TOML file, creating the file
// with defaults on first run.
func LoadConfigFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Vibrato Music Library Configuration
# Edit the values below to customize where your library lives and how it loads.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Library.UserFolder == "" {
		return fmt.Errorf("library user folder cannot be empty")
	}
	if c.Library.MusicFolder == "" {
		return fmt.Errorf("music folder cannot be empty")
	}
	if len(c.Library.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}

	if c.Load.Workers < 1 {
		return fmt.Errorf("load workers must be at least 1")
	}
	if c.Load.WaveformPeaks < 1 {
		return fmt.Errorf("waveform peaks must be at least 1")
	}

	if c.Autosave.IntervalSeconds < 1 {
		return fmt.Errorf("autosave interval must be at least 1 second")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// DatabasePath returns the location of the library database inside the
// user folder.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Library.UserFolder, "library.db")
}

// WaveformsPath returns the folder holding persisted waveform files.
func (c *Config) WaveformsPath() string {
	return filepath.Join(c.Library.UserFolder, "waveforms")
}

// IsFormatSupported checks if an audio format is supported
func (c *Config) IsFormatSupported(format string) bool {
	for _, supported := range c.Library.SupportedFormats {
		if supported == format {
			return true
		}
	}
	return false
}
