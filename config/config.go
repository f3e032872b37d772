// Package config provides configuration loading for the antenna status exporter.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/poller"
)

// Config holds the application configuration.
type Config struct {
	// Modem connection and polling
	Modem ModemConfig `yaml:"modem" toml:"modem"`

	// Metrics server configuration
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ModemConfig holds modem connection settings.
type ModemConfig struct {
	// Host is the address of the modem web UI, empty for the vendor default
	Host string `yaml:"host" toml:"host"`

	// Vendor is the modem vendor (netgear, huawei, or auto)
	Vendor string `yaml:"vendor" toml:"vendor"`

	// PollInterval is how long to wait after a fetch before the next one
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`

	// ConnectTimeout bounds establishing the TCP connection
	ConnectTimeout Duration `yaml:"connect_timeout" toml:"connect_timeout"`

	// Timeout for a whole modem request
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// InsecureSkipVerify skips TLS certificate verification
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`

	// AutoStart begins polling without waiting for a toggle
	AutoStart bool `yaml:"auto_start" toml:"auto_start"`
}

// MetricsConfig holds Prometheus metrics server settings.
type MetricsConfig struct {
	// Port to serve metrics on
	Port int `yaml:"port" toml:"port"`

	// Path for metrics endpoint
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `yaml:"level" toml:"level"`

	// Format is the log format (json, text)
	Format string `yaml:"format" toml:"format"`
}

// Duration is a time.Duration written as "2s" in config files.
type Duration time.Duration

// UnmarshalText parses a Go duration string. TOML decodes through this.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration like time.Duration.String.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Modem: ModemConfig{
			Vendor:             string(modem.VendorAuto),
			PollInterval:       Duration(poller.DefaultInterval),
			ConnectTimeout:     Duration(modem.ConnectTimeout),
			Timeout:            Duration(10 * time.Second),
			InsecureSkipVerify: true,
			AutoStart:          true,
		},
		Metrics: MetricsConfig{
			Port: 9110,
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Environment variables override values from the config file.
func LoadConfigFromEnv(cfg *Config) {
	if host := os.Getenv("ANTENNA_MODEM_HOST"); host != "" {
		cfg.Modem.Host = host
	}

	if vendor := os.Getenv("ANTENNA_MODEM_VENDOR"); vendor != "" {
		cfg.Modem.Vendor = vendor
	}

	if interval := os.Getenv("ANTENNA_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Modem.PollInterval = Duration(d)
		}
	}

	if port := os.Getenv("ANTENNA_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Metrics.Port = p
		}
	}

	if level := os.Getenv("ANTENNA_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if format := os.Getenv("ANTENNA_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// Validate checks the values that cannot be corrected at runtime.
func (c *Config) Validate() error {
	if _, err := modem.ParseVendor(c.Modem.Vendor); err != nil {
		return fmt.Errorf("invalid modem vendor: %w", err)
	}

	if !poller.IsPreset(time.Duration(c.Modem.PollInterval)) {
		return fmt.Errorf("poll interval %s is not one of the presets %v",
			time.Duration(c.Modem.PollInterval), poller.Intervals)
	}

	if c.Modem.ConnectTimeout <= 0 || c.Modem.Timeout <= 0 {
		return fmt.Errorf("modem timeouts must be positive")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics port %d out of range", c.Metrics.Port)
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}

	return nil
}

// ToModemConfig converts the config to a modem.ClientConfig.
func (c *Config) ToModemConfig() modem.ClientConfig {
	vendor, err := modem.ParseVendor(c.Modem.Vendor)
	if err != nil {
		vendor = modem.VendorAuto
	}

	return modem.ClientConfig{
		Host:               c.Modem.Host,
		Vendor:             vendor,
		ConnectTimeout:     time.Duration(c.Modem.ConnectTimeout),
		Timeout:            time.Duration(c.Modem.Timeout),
		InsecureSkipVerify: c.Modem.InsecureSkipVerify,
	}
}
