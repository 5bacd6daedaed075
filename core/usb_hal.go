package core

// USBDriver is the low-speed USB device engine. It owns enumeration,
// descriptor transfer and endpoint polling; the core only feeds it reports
// and answers class requests.
type USBDriver interface {
	FrameMeter

	// Init starts the engine. Class requests are passed to setup, and
	// resetReady is called exactly once per bus reset, after the reset has
	// ended and before the host expects timely answers.
	Init(setup SetupHandler, resetReady func()) error

	// Connect and Disconnect attach and detach the pull-up on D-.
	Connect()
	Disconnect()

	// Poll runs the engine's deferred processing. Call it at least every
	// 50ms.
	Poll()

	// InterruptReady reports whether the interrupt-IN endpoint can accept
	// a new report.
	InterruptReady() bool

	// SetInterrupt queues data as the next interrupt-IN transfer. The
	// driver copies data before returning.
	SetInterrupt(data []byte)
}

// SetupHandler answers a control request. A nil return means no data stage.
type SetupHandler func(pkt SetupPacket) []byte

// Watchdog is the liveness supervisor. It resets the MCU unless Update is
// called within the configured timeout.
type Watchdog interface {
	Configure(timeoutMillis uint32) error
	Start() error
	Update()
}
