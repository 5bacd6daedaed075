package config

import (
	"os"
	"path/filepath"
	"testing"

	c "github.com/smartystreets/goconvey/convey"

	"gopad/core"
)

func TestDefaults(t *testing.T) {
	c.Convey("Given no configuration file", t, func() {
		cfg := Default()

		c.Convey("The device IDs should match the firmware", func() {
			c.So(cfg.USB.VendorID, c.ShouldEqual, core.USBVendorID)
			c.So(cfg.USB.ProductID, c.ShouldEqual, core.USBProductID)
		})
		c.Convey("The serial port should use the telemetry UART defaults", func() {
			c.So(cfg.Serial.Baud, c.ShouldEqual, 115200)
			c.So(cfg.Serial.ReadTimeout, c.ShouldEqual, 100)
		})
		c.Convey("No idle rate should be written", func() {
			c.So(cfg.USB.IdleRate, c.ShouldBeNil)
		})
		c.Convey("It should validate", func() {
			c.So(Validate(cfg), c.ShouldBeNil)
		})
	})
}

func TestParse(t *testing.T) {
	c.Convey("Given a configuration overriding the serial port and idle rate", t, func() {
		cfg, err := Parse([]byte(`
serial:
  device: /dev/ttyACM3
  baud: 57600
usb:
  idle_rate: 125
  poll_interval_ms: 20
log:
  level: debug
  format: json
`))
		c.So(err, c.ShouldBeNil)

		c.Convey("The overrides should be applied", func() {
			c.So(cfg.Serial.Device, c.ShouldEqual, "/dev/ttyACM3")
			c.So(cfg.Serial.Baud, c.ShouldEqual, 57600)
			c.So(*cfg.USB.IdleRate, c.ShouldEqual, 125)
			c.So(cfg.USB.PollIntervalMillis, c.ShouldEqual, 20)
			c.So(cfg.Log.Format, c.ShouldEqual, "json")
		})
		c.Convey("Unset values should take defaults", func() {
			c.So(cfg.Serial.ReadTimeout, c.ShouldEqual, 100)
			c.So(cfg.USB.TimeoutMillis, c.ShouldEqual, 1000)
		})
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	if err := os.WriteFile(path, []byte("usb:\n  vendor_id: 0x1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.USB.VendorID != 0x1234 {
		t.Errorf("Expected vendor 0x1234, got %#x", cfg.USB.VendorID)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero baud", func(c *Config) { c.Serial.Baud = 0 }},
		{"negative read timeout", func(c *Config) { c.Serial.ReadTimeout = -1 }},
		{"zero usb timeout", func(c *Config) { c.USB.TimeoutMillis = 0 }},
		{"zero poll interval", func(c *Config) { c.USB.PollIntervalMillis = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("Expected an error for a nil config")
	}
}
