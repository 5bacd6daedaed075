package sim

import (
	"errors"

	"gopad/core"
)

var (
	ErrWatchdogTimeout      = errors.New("watchdog timeout must be positive")
	ErrWatchdogUnconfigured = errors.New("watchdog started before configure")
)

// GPIO records pin directions and levels.
type GPIO struct {
	outputs map[core.GPIOPin]bool
	levels  map[core.GPIOPin]bool

	// OnChange, if set, is called when an output changes level.
	OnChange func(pin core.GPIOPin, level bool)
}

func NewGPIO() *GPIO {
	return &GPIO{
		outputs: make(map[core.GPIOPin]bool),
		levels:  make(map[core.GPIOPin]bool),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.outputs[pin] = true
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	if !g.outputs[pin] {
		return errors.New("pin is not an output")
	}
	old, seen := g.levels[pin]
	g.levels[pin] = value
	if (!seen || old != value) && g.OnChange != nil {
		g.OnChange(pin, value)
	}
	return nil
}

// Level returns the last level driven on pin.
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.levels[pin]
}

// Watchdog counts loop steps since it was last fed.
type Watchdog struct {
	stepsPerMilli uint64
	timeout       uint64

	running  bool
	since    uint64
	expiries int
}

func NewWatchdog(stepsPerMilli int) *Watchdog {
	return &Watchdog{stepsPerMilli: uint64(stepsPerMilli)}
}

func (w *Watchdog) Configure(timeoutMillis uint32) error {
	if timeoutMillis == 0 {
		return ErrWatchdogTimeout
	}
	w.timeout = uint64(timeoutMillis) * w.stepsPerMilli
	return nil
}

func (w *Watchdog) Start() error {
	if w.timeout == 0 {
		return ErrWatchdogUnconfigured
	}
	w.running = true
	w.since = 0
	return nil
}

func (w *Watchdog) Update() {
	w.since = 0
}

// Tick advances one step and reports whether the watchdog fired. A fired
// watchdog stops until started again.
func (w *Watchdog) Tick() bool {
	if !w.running {
		return false
	}
	w.since++
	if w.since <= w.timeout {
		return false
	}
	w.running = false
	w.expiries++
	return true
}

// Expiries returns how many times the watchdog has fired.
func (w *Watchdog) Expiries() int { return w.expiries }
