//go:build !tinygo

// Command sim runs the controller firmware on a simulated board.
//
// Usage:
//
//	sim [-config board.yaml] [-steps n] [-v]
//
// Telemetry is written to the serial device named in the config, or
// decoded and logged when none is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopad/core"
	"gopad/host/serial"
	"gopad/sim"
)

func main() {
	configPath := flag.String("config", "", "YAML board description")
	steps := flag.Int("steps", -1, "loop steps to run (0 = until interrupted, overrides config)")
	verbose := flag.Bool("v", false, "enable debug logging and firmware debug output")
	flag.Parse()

	if err := run(*configPath, *steps, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "sim: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, steps int, verbose bool) error {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = sim.Load(configPath); err != nil {
			return err
		}
	}
	if steps >= 0 {
		cfg.Steps = steps
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := sim.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	level, _ := sim.ParseLevel(cfg.Log.Level)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	core.SetDebugWriter(func(s string) { log.Debug(s) })
	core.SetDebugEnabled(verbose)

	var wire io.Writer
	if cfg.Telemetry.Device != "" {
		scfg := serial.DefaultConfig(cfg.Telemetry.Device)
		scfg.Baud = cfg.Telemetry.Baud
		port, err := serial.Open(scfg)
		if err != nil {
			return err
		}
		defer port.Close()
		wire = port
		log.Info("telemetry", "device", scfg.Device, "baud", scfg.Baud)
	}

	board, err := sim.NewBoard(cfg, log, wire)
	if err != nil {
		return err
	}
	if err := board.Boot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := board.Run(ctx)

	fw := board.Firmware()
	a, b := fw.Acquisition().Samples()
	log.Info("stopped",
		"steps", board.Steps(),
		"trim", board.Osc.Get(),
		"core_hz", board.Osc.CoreHz(),
		"calibrations", fw.Calibrations(),
		"reports", board.USB.Sent(),
		"a", a, "b", b,
		"reboots", board.Reboots())
	if verbose {
		core.DumpTrace()
	}

	if err := board.Close(); err != nil {
		return err
	}
	return runErr
}
