// Command gopad-host inspects a gopad controller from the desktop.
//
// Usage:
//
//	gopad-host telemetry [-config file] [-device path] [-v]
//	gopad-host poll [-config file] [-count n] [-idle rate] [-v]
//
// telemetry decodes the firmware's UART telemetry stream. poll reads input
// reports over the USB control pipe with GET_REPORT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopad/host/config"
	"gopad/host/serial"
	"gopad/host/telemetry"
	"gopad/host/usbhid"
	"gopad/protocol"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "telemetry":
		err = runTelemetry(ctx, os.Args[2:])
	case "poll":
		err = runPoll(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gopad-host <telemetry|poll> [flags]")
	fmt.Fprintln(os.Stderr, "  telemetry  decode the telemetry UART")
	fmt.Fprintln(os.Stderr, "  poll       read input reports with GET_REPORT")
}

// commonFlags registers the flags shared by every subcommand.
type commonFlags struct {
	config  *string
	verbose *bool
}

func addCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config:  fs.String("config", "", "YAML configuration file"),
		verbose: fs.Bool("v", false, "enable debug logging"),
	}
}

func (c commonFlags) load() (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if *c.config != "" {
		var err error
		if cfg, err = config.Load(*c.config); err != nil {
			return nil, nil, err
		}
	}
	if *c.verbose {
		cfg.Log.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, newLogger(cfg.Log), nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runTelemetry(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("telemetry", flag.ExitOnError)
	common := addCommon(fs)
	device := fs.String("device", "", "serial device (overrides config)")
	fs.Parse(args)

	cfg, log, err := common.load()
	if err != nil {
		return err
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}

	port, err := serial.Open(&cfg.Serial)
	if err != nil {
		return err
	}
	defer port.Close()
	if err := port.Flush(); err != nil {
		log.Warn("flush failed", "err", err)
	}
	log.Info("listening", "device", cfg.Serial.Device, "baud", cfg.Serial.Baud)

	mon := telemetry.NewMonitor(port, log)
	err = mon.Run(ctx, func(msg protocol.Message) {
		log.Info(msg.Name(), "seq", msg.Sequence, "msg", msg.String())
		if msg.ID == protocol.MsgCalibrationResult {
			st := mon.State()
			log.Info("calibrated", "trim", st.Trim, "deviation", st.Deviation, "probes", st.Probes)
		}
	})

	st := mon.State()
	bad, dropped := mon.Stats()
	log.Info("done", "messages", st.Messages, "calibrations", st.Calibrations,
		"trim", st.Trim, "recording", st.Recording, "bad_frames", bad, "dropped_bytes", dropped)
	return err
}

func runPoll(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("poll", flag.ExitOnError)
	common := addCommon(fs)
	count := fs.Int("count", 0, "number of reports to read (0 = until interrupted)")
	idle := fs.Int("idle", -1, "idle rate to set before polling, in 4ms units")
	fs.Parse(args)

	cfg, log, err := common.load()
	if err != nil {
		return err
	}
	if *idle >= 0 {
		if *idle > 255 {
			return fmt.Errorf("idle rate %d out of range", *idle)
		}
		rate := uint8(*idle)
		cfg.USB.IdleRate = &rate
	}

	dev, err := usbhid.Open(cfg.USB.VendorID, cfg.USB.ProductID, cfg.USB.Interface, cfg.USB.TimeoutMillis)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn("close failed", "err", err)
		}
	}()
	log.Info("opened", "vid", fmt.Sprintf("%04x", cfg.USB.VendorID), "pid", fmt.Sprintf("%04x", cfg.USB.ProductID))

	if cfg.USB.IdleRate != nil {
		if err := dev.SetIdle(*cfg.USB.IdleRate); err != nil {
			return err
		}
	}
	rate, err := dev.GetIdle()
	if err != nil {
		return err
	}
	log.Info("idle rate", "units", rate, "ms", int(rate)*4)

	ticker := time.NewTicker(time.Duration(cfg.USB.PollIntervalMillis) * time.Millisecond)
	defer ticker.Stop()
	for n := 0; *count == 0 || n < *count; n++ {
		r, err := dev.GetReport()
		if err != nil {
			return err
		}
		fmt.Printf("a=%4d b=%4d raw=% x\n", r.A, r.B, r.Raw[:])

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
