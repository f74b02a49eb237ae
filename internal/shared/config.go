package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the service configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Muse     MuseConfig     `toml:"muse"`
	Analysis AnalysisConfig `toml:"analysis"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CatalogConfig contains music catalog search settings.
type CatalogConfig struct {
	BaseURL    string `toml:"base_url"`
	Country    string `toml:"country"`
	MaxRetries int    `toml:"max_retries"`
	BackoffMs  int    `toml:"backoff_ms"`
	ThrottleMs int    `toml:"throttle_ms"`
}

// MuseConfig contains settings for the image-understanding model endpoint.
type MuseConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// AnalysisConfig contains preview analysis worker settings.
type AnalysisConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with defaults loaded from the embedded
// example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}
