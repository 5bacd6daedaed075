package sim

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes a simulated board.
type Config struct {
	// Steps bounds a run; 0 runs until cancelled.
	Steps int `yaml:"steps"`
	// StepsPerMilli converts firmware millisecond timeouts to loop steps.
	StepsPerMilli int `yaml:"steps_per_ms"`

	Oscillator OscillatorConfig `yaml:"oscillator"`
	Converter  ConverterConfig  `yaml:"converter"`
	USB        USBConfig        `yaml:"usb"`
	EEPROM     EEPROMConfig     `yaml:"eeprom"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`
}

// OscillatorConfig models an RC oscillator whose trim register selects one
// of two overlapping ranges: 0..127 low, 128..255 high.
type OscillatorConfig struct {
	// Factory is the power-on trim value.
	Factory *uint8 `yaml:"factory"`

	LowBaseHz  int `yaml:"low_base_hz"`
	HighBaseHz int `yaml:"high_base_hz"`
	StepHz     int `yaml:"step_hz"`

	// Noise adds a uniform +/-Noise error to every frame measurement.
	Noise int   `yaml:"noise"`
	Seed  int64 `yaml:"seed"`
}

// SourceConfig drives one analog input.
type SourceConfig struct {
	Kind   string `yaml:"kind"` // constant or triangle
	Value  int    `yaml:"value"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
	Period int    `yaml:"period"` // steps per triangle cycle
}

type ConverterConfig struct {
	// Latency is the number of loop steps a conversion stays busy.
	Latency int          `yaml:"latency"`
	ADC2    SourceConfig `yaml:"adc2"`
	ADC3    SourceConfig `yaml:"adc3"`
}

type USBConfig struct {
	// ReadyEvery frees the interrupt endpoint every Nth poll.
	ReadyEvery int `yaml:"ready_every"`
	// BusReset issues one bus reset after every connect.
	BusReset *bool `yaml:"bus_reset"`
}

type EEPROMConfig struct {
	// Path persists the EEPROM image between runs. Empty keeps it in memory.
	Path string `yaml:"path"`
}

type TelemetryConfig struct {
	// Device receives encoded telemetry frames. Empty decodes and logs them.
	Device      string `yaml:"device"`
	Baud        int    `yaml:"baud"`
	ReportEvery uint16 `yaml:"report_every"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a board that calibrates to trim 154 and reads 250
// and 500 on its two channels.
func DefaultConfig() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads a YAML board description and fills in defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML board description and fills in defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.StepsPerMilli == 0 {
		cfg.StepsPerMilli = 10
	}

	osc := &cfg.Oscillator
	if osc.Factory == nil {
		v := uint8(0x80)
		osc.Factory = &v
	}
	if osc.LowBaseHz == 0 {
		osc.LowBaseHz = 3800000
	}
	if osc.HighBaseHz == 0 {
		osc.HighBaseHz = 7200000
	}
	if osc.StepHz == 0 {
		osc.StepHz = 40000
	}
	if osc.Seed == 0 {
		osc.Seed = 1
	}

	if cfg.Converter.Latency == 0 {
		cfg.Converter.Latency = 2
	}
	sourceDefaults(&cfg.Converter.ADC2, 100)
	sourceDefaults(&cfg.Converter.ADC3, 200)

	if cfg.USB.ReadyEvery == 0 {
		cfg.USB.ReadyEvery = 8
	}
	if cfg.USB.BusReset == nil {
		v := true
		cfg.USB.BusReset = &v
	}

	if cfg.Telemetry.Baud == 0 {
		cfg.Telemetry.Baud = 115200
	}
	if cfg.Telemetry.ReportEvery == 0 {
		cfg.Telemetry.ReportEvery = 50
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func sourceDefaults(src *SourceConfig, value int) {
	if src.Kind == "" {
		src.Kind = SourceConstant
		if src.Value == 0 {
			src.Value = value
		}
	}
	if src.Kind == SourceTriangle {
		if src.Max == 0 {
			src.Max = 1023
		}
		if src.Period == 0 {
			src.Period = 1000
		}
	}
}

// Validate checks the configuration. It does not modify it.
func Validate(cfg Config) error {
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", cfg.Steps)
	}
	if cfg.StepsPerMilli <= 0 {
		return fmt.Errorf("steps_per_ms must be positive, got %d", cfg.StepsPerMilli)
	}

	osc := cfg.Oscillator
	if osc.LowBaseHz <= 0 || osc.HighBaseHz <= 0 || osc.StepHz <= 0 {
		return fmt.Errorf("oscillator: base and step frequencies must be positive")
	}
	if osc.HighBaseHz <= osc.LowBaseHz {
		return fmt.Errorf("oscillator: high_base_hz %d must exceed low_base_hz %d", osc.HighBaseHz, osc.LowBaseHz)
	}
	if osc.Noise < 0 {
		return fmt.Errorf("oscillator: noise must not be negative, got %d", osc.Noise)
	}

	if cfg.Converter.Latency < 0 {
		return fmt.Errorf("converter: latency must not be negative, got %d", cfg.Converter.Latency)
	}
	if err := validateSource(cfg.Converter.ADC2); err != nil {
		return fmt.Errorf("converter adc2: %w", err)
	}
	if err := validateSource(cfg.Converter.ADC3); err != nil {
		return fmt.Errorf("converter adc3: %w", err)
	}

	if cfg.USB.ReadyEvery <= 0 {
		return fmt.Errorf("usb: ready_every must be positive, got %d", cfg.USB.ReadyEvery)
	}
	if cfg.Telemetry.Device != "" && cfg.Telemetry.Baud <= 0 {
		return fmt.Errorf("telemetry: baud must be positive, got %d", cfg.Telemetry.Baud)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

func validateSource(src SourceConfig) error {
	switch src.Kind {
	case SourceConstant:
		if src.Value < 0 || src.Value > 1023 {
			return fmt.Errorf("value %d outside 0..1023", src.Value)
		}
	case SourceTriangle:
		if src.Min < 0 || src.Max > 1023 || src.Min > src.Max {
			return fmt.Errorf("range %d..%d outside 0..1023", src.Min, src.Max)
		}
		if src.Period < 2 {
			return fmt.Errorf("period must be at least 2, got %d", src.Period)
		}
	default:
		return fmt.Errorf("unknown source kind %q", src.Kind)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log: unknown level %q", name)
}
