package sim

import (
	"errors"

	"gopad/core"
)

// USB models the device side of a low-speed link: a host that frees the
// interrupt endpoint every few polls, resets the bus once after each
// connect and issues control requests on demand.
type USB struct {
	meter      core.FrameMeter
	readyEvery uint64
	busReset   bool

	setup      core.SetupHandler
	resetReady func()

	connected    bool
	resetPending bool
	polls        uint64

	last     core.Report
	sent     int
	connects int
	resets   int
}

func NewUSB(meter core.FrameMeter, cfg USBConfig) *USB {
	u := &USB{
		meter:      meter,
		readyEvery: uint64(cfg.ReadyEvery),
		busReset:   true,
	}
	if cfg.BusReset != nil {
		u.busReset = *cfg.BusReset
	}
	if u.readyEvery == 0 {
		u.readyEvery = 1
	}
	return u
}

func (u *USB) Init(setup core.SetupHandler, resetReady func()) error {
	if setup == nil || resetReady == nil {
		return errors.New("setup and reset handlers are required")
	}
	u.setup = setup
	u.resetReady = resetReady
	return nil
}

func (u *USB) Connect() {
	u.connected = true
	u.connects++
	u.resetPending = u.busReset
}

func (u *USB) Disconnect() {
	u.connected = false
	u.resetPending = false
}

// Poll delivers a pending bus reset once the driver is initialised.
func (u *USB) Poll() {
	u.polls++
	if u.connected && u.resetPending && u.resetReady != nil {
		u.resetPending = false
		u.resets++
		u.resetReady()
	}
}

func (u *USB) InterruptReady() bool {
	return u.connected && u.polls%u.readyEvery == 0
}

func (u *USB) SetInterrupt(data []byte) {
	copy(u.last[:], data)
	u.sent++
}

func (u *USB) MeasureFrameLength() int {
	return u.meter.MeasureFrameLength()
}

// Control issues a control request as the host would and returns the data
// stage. It returns nil before the driver is initialised.
func (u *USB) Control(pkt core.SetupPacket) []byte {
	if u.setup == nil {
		return nil
	}
	return u.setup(pkt)
}

// Connected reports whether the device is attached.
func (u *USB) Connected() bool { return u.connected }

// LastReport returns the most recent interrupt report.
func (u *USB) LastReport() core.Report { return u.last }

// Sent returns how many interrupt reports the host has received.
func (u *USB) Sent() int { return u.sent }

// BusResets returns how many bus resets were delivered.
func (u *USB) BusResets() int { return u.resets }

// Connects returns how many times the device attached.
func (u *USB) Connects() int { return u.connects }
