package sim

import (
	"errors"
	"fmt"

	"gopad/core"
)

var ErrBadPrescaler = errors.New("prescaler must be a power of two in 2..128")

// Source produces the converter code seen on one input at a given step.
type Source interface {
	Code(step uint64) core.ADCValue
}

const (
	SourceConstant = "constant"
	SourceTriangle = "triangle"
)

// NewSource builds the source described by cfg.
func NewSource(cfg SourceConfig) (Source, error) {
	if err := validateSource(cfg); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case SourceTriangle:
		return Triangle{Min: cfg.Min, Max: cfg.Max, Period: cfg.Period}, nil
	default:
		return Constant(cfg.Value), nil
	}
}

// Constant holds one code.
type Constant core.ADCValue

func (c Constant) Code(uint64) core.ADCValue { return core.ADCValue(c) }

// Triangle sweeps linearly from Min to Max and back once per Period steps.
type Triangle struct {
	Min, Max int
	Period   int
}

func (t Triangle) Code(step uint64) core.ADCValue {
	phase := int(step % uint64(t.Period))
	half := t.Period / 2
	span := t.Max - t.Min
	if phase < half {
		return core.ADCValue(t.Min + span*phase/half)
	}
	return core.ADCValue(t.Max - span*(phase-half)/(t.Period-half))
}

// Converter models a successive approximation converter that samples its
// selected input when a conversion starts and stays busy for a fixed number
// of steps.
type Converter struct {
	sources map[core.ADCMux]Source
	latency int

	cfg   core.ADCConfig
	inits int

	mux     core.ADCMux
	latched core.ADCValue
	busy    int
	step    uint64

	conversions int
}

// NewConverter routes each mux code to its source.
func NewConverter(latency int, sources map[core.ADCMux]Source) *Converter {
	return &Converter{sources: sources, latency: latency}
}

func (c *Converter) Init(cfg core.ADCConfig) error {
	if cfg.Reference > core.RefInternal2V56 {
		return fmt.Errorf("reference %d not supported", cfg.Reference)
	}
	switch cfg.Prescaler {
	case 2, 4, 8, 16, 32, 64, 128:
	default:
		return fmt.Errorf("prescaler %d: %w", cfg.Prescaler, ErrBadPrescaler)
	}
	c.cfg = cfg
	c.inits++
	return nil
}

func (c *Converter) Busy() bool { return c.busy > 0 }

func (c *Converter) Read() core.ADCValue { return c.latched }

func (c *Converter) Select(mux core.ADCMux) { c.mux = mux }

func (c *Converter) Start() {
	var v core.ADCValue
	if src, ok := c.sources[c.mux]; ok {
		v = src.Code(c.step)
	}
	if v > core.ADCMax {
		v = core.ADCMax
	}
	c.latched = v
	c.busy = c.latency
	c.conversions++
}

// Tick advances the converter by one loop step.
func (c *Converter) Tick() {
	c.step++
	if c.busy > 0 {
		c.busy--
	}
}

// Conversions returns the number of conversions started.
func (c *Converter) Conversions() int { return c.conversions }

// Config returns the configuration applied by the last Init.
func (c *Converter) Config() core.ADCConfig { return c.cfg }
