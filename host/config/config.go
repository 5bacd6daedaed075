// Package config loads the host tool configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gopad/core"
	"gopad/host/serial"
)

// Config is the host tool configuration file.
type Config struct {
	Serial serial.Config `yaml:"serial"`
	USB    USBConfig     `yaml:"usb"`
	Log    LogConfig     `yaml:"log"`
}

// USBConfig selects the device polled over the control pipe.
type USBConfig struct {
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
	Interface uint16 `yaml:"interface"`

	TimeoutMillis      int `yaml:"timeout_ms"`
	PollIntervalMillis int `yaml:"poll_interval_ms"`

	// IdleRate, if set, is written with SET_IDLE before polling.
	IdleRate *uint8 `yaml:"idle_rate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := serial.DefaultConfig("/dev/ttyUSB0")
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = def.Device
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = def.Baud
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = def.ReadTimeout
	}

	if cfg.USB.VendorID == 0 {
		cfg.USB.VendorID = core.USBVendorID
	}
	if cfg.USB.ProductID == 0 {
		cfg.USB.ProductID = core.USBProductID
	}
	if cfg.USB.TimeoutMillis == 0 {
		cfg.USB.TimeoutMillis = 1000
	}
	if cfg.USB.PollIntervalMillis == 0 {
		cfg.USB.PollIntervalMillis = 100
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative, got %d", cfg.Serial.ReadTimeout)
	}
	if cfg.USB.TimeoutMillis <= 0 {
		return fmt.Errorf("usb: timeout_ms must be positive, got %d", cfg.USB.TimeoutMillis)
	}
	if cfg.USB.PollIntervalMillis <= 0 {
		return fmt.Errorf("usb: poll_interval_ms must be positive, got %d", cfg.USB.PollIntervalMillis)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}
	return nil
}
