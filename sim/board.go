// Package sim runs the firmware core against simulated peripherals on a
// desktop machine.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopad/core"
	"gopad/protocol"
)

// Board wires the simulated peripherals to a firmware instance.
type Board struct {
	cfg Config
	log *slog.Logger

	Osc      *Oscillator
	ADC      *Converter
	EEPROM   *EEPROM
	GPIO     *GPIO
	USB      *USB
	Watchdog *Watchdog

	fw *core.Firmware

	// telemetry receives raw frames; nil decodes them into the log.
	telemetry io.Writer
	dec       *protocol.Decoder

	steps   uint64
	reboots int
}

// NewBoard builds a board from cfg. Telemetry frames go to telemetry when
// it is non-nil.
func NewBoard(cfg Config, logger *slog.Logger, telemetry io.Writer) (*Board, error) {
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fwCfg := core.DefaultConfig()
	adc2, err := NewSource(cfg.Converter.ADC2)
	if err != nil {
		return nil, fmt.Errorf("adc2: %w", err)
	}
	adc3, err := NewSource(cfg.Converter.ADC3)
	if err != nil {
		return nil, fmt.Errorf("adc3: %w", err)
	}
	eeprom, err := OpenEEPROM(cfg.EEPROM.Path)
	if err != nil {
		return nil, err
	}

	b := &Board{
		cfg:       cfg,
		log:       logger,
		Osc:       NewOscillator(cfg.Oscillator),
		EEPROM:    eeprom,
		GPIO:      NewGPIO(),
		Watchdog:  NewWatchdog(cfg.StepsPerMilli),
		telemetry: telemetry,
		dec:       protocol.NewDecoder(),
	}
	b.ADC = NewConverter(cfg.Converter.Latency, map[core.ADCMux]Source{
		fwCfg.Acquisition.MuxA: adc2,
		fwCfg.Acquisition.MuxB: adc3,
	})
	b.USB = NewUSB(b.Osc, cfg.USB)
	b.GPIO.OnChange = func(pin core.GPIOPin, level bool) {
		b.log.Info("indicator", "pin", pin, "level", level)
	}

	if b.fw, err = core.New(b.firmwareConfig(fwCfg), b.drivers()); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) firmwareConfig(cfg core.Config) core.Config {
	cfg.TelemetryReportEvery = b.cfg.Telemetry.ReportEvery
	return cfg
}

func (b *Board) drivers() core.Drivers {
	return core.Drivers{
		ADC:      b.ADC,
		Trim:     b.Osc,
		EEPROM:   b.EEPROM,
		GPIO:     b.GPIO,
		USB:      b.USB,
		Watchdog: b.Watchdog,
		Sleep: func(ms uint32) {
			b.log.Debug("sleep", "ms", ms)
		},
		Telemetry: b.emit,
	}
}

// emit forwards one telemetry frame.
func (b *Board) emit(frame []byte) {
	if b.telemetry != nil {
		if _, err := b.telemetry.Write(frame); err != nil {
			b.log.Warn("telemetry write failed", "err", err)
		}
		return
	}
	b.dec.Feed(frame)
	for {
		msg, ok := b.dec.Next()
		if !ok {
			return
		}
		b.log.Info("telemetry", "seq", msg.Sequence, "msg", msg.String())
	}
}

// Boot runs the firmware startup sequence.
func (b *Board) Boot() error {
	b.log.Info("boot", "trim", b.Osc.Get(), "core_hz", b.Osc.CoreHz())
	if err := b.fw.Boot(); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	return nil
}

// Step advances the board by one main loop iteration.
func (b *Board) Step() error {
	b.steps++
	b.fw.Step()
	return b.tick()
}

// Stall advances the peripherals for n steps without running the firmware,
// as a hung main loop would.
func (b *Board) Stall(n int) error {
	for i := 0; i < n; i++ {
		b.steps++
		if err := b.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Board) tick() error {
	b.ADC.Tick()
	if b.Watchdog.Tick() {
		return b.reboot()
	}
	return nil
}

// reboot replaces the firmware after a watchdog reset. Peripherals keep
// their state, as the real registers would across a reset.
func (b *Board) reboot() error {
	b.reboots++
	b.log.Warn("watchdog reset", "step", b.steps, "reboots", b.reboots)

	fw, err := core.New(b.firmwareConfig(core.DefaultConfig()), b.drivers())
	if err != nil {
		return err
	}
	b.fw = fw
	return b.Boot()
}

// Run steps the board until ctx is cancelled or the configured step count
// is reached. Cancellation is not an error.
func (b *Board) Run(ctx context.Context) error {
	for b.cfg.Steps == 0 || b.steps < uint64(b.cfg.Steps) {
		if ctx.Err() != nil {
			return nil
		}
		if err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Close persists the EEPROM image.
func (b *Board) Close() error {
	return b.EEPROM.Flush()
}

// Firmware returns the running firmware instance.
func (b *Board) Firmware() *core.Firmware { return b.fw }

// Steps returns the number of loop steps simulated.
func (b *Board) Steps() uint64 { return b.steps }

// Reboots returns the number of watchdog resets.
func (b *Board) Reboots() int { return b.reboots }
