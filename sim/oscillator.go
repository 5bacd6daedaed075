package sim

import (
	"math/rand"

	"gopad/core"
)

// Oscillator is a trimmable RC oscillator feeding a 2x PLL, plus the
// frame meter that counts its cycles over one USB frame.
type Oscillator struct {
	cfg  OscillatorConfig
	trim uint8
	rng  *rand.Rand

	measurements int
}

func NewOscillator(cfg OscillatorConfig) *Oscillator {
	o := &Oscillator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	if cfg.Factory != nil {
		o.trim = *cfg.Factory
	}
	return o
}

func (o *Oscillator) Get() uint8 { return o.trim }

func (o *Oscillator) Set(v uint8) { o.trim = v }

// RCHz returns the oscillator frequency for the current trim value. Bit 7
// selects the range, so the curve is only monotonic within each half.
func (o *Oscillator) RCHz() int {
	if o.trim < 128 {
		return o.cfg.LowBaseHz + int(o.trim)*o.cfg.StepHz
	}
	return o.cfg.HighBaseHz + int(o.trim-128)*o.cfg.StepHz
}

// CoreHz returns the core clock.
func (o *Oscillator) CoreHz() int {
	return 2 * o.RCHz()
}

// MeasureFrameLength returns the meter reading for one frame at the current
// core clock.
func (o *Oscillator) MeasureFrameLength() int {
	o.measurements++
	x := core.TargetFrameLength(uint32(o.CoreHz()))
	if o.cfg.Noise > 0 {
		x += o.rng.Intn(2*o.cfg.Noise+1) - o.cfg.Noise
	}
	return x
}

// Measurements returns the number of frames measured so far.
func (o *Oscillator) Measurements() int {
	return o.measurements
}
