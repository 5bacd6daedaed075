//go:build rp2040

package main

import (
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/ws2812"

	"gopad/core"
)

// Board wiring. The indicator is the WS2812 on GP16 of RP2040-Zero style
// boards; set useNeoPixel to false to drive a plain LED instead.
const (
	useNeoPixel  = true
	indicatorPin = core.GPIOPin(16)

	telemetryBaud = 115200
)

var indicatorColor = color.RGBA{R: 0x20, A: 0xFF}

// pinGPIO drives plain output pins.
type pinGPIO struct{}

func (pinGPIO) ConfigureOutput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (pinGPIO) SetPin(pin core.GPIOPin, value bool) error {
	machine.Pin(pin).Set(value)
	return nil
}

// neoPixel shows the indicator level on a single WS2812: lit when high.
type neoPixel struct {
	dev ws2812.Device
	buf [1]color.RGBA
}

func (n *neoPixel) ConfigureOutput(pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	n.dev = ws2812.New(p)
	return n.dev.WriteColors(n.buf[:])
}

func (n *neoPixel) SetPin(pin core.GPIOPin, value bool) error {
	n.buf[0] = color.RGBA{}
	if value {
		n.buf[0] = indicatorColor
	}
	return n.dev.WriteColors(n.buf[:])
}

// crystalTrim stands in for the oscillator trim register. The RP2040 runs
// from its crystal and has nothing to tune; the value is only remembered.
type crystalTrim struct{ v uint8 }

func (t *crystalTrim) Get() uint8  { return t.v }
func (t *crystalTrim) Set(v uint8) { t.v = v }

// flashEEPROM emulates byte cells in the first page of the flash region
// TinyGo reserves behind the program image.
type flashEEPROM struct {
	page   [256]byte
	loaded bool
}

func (e *flashEEPROM) load() {
	if e.loaded {
		return
	}
	if _, err := machine.Flash.ReadAt(e.page[:], 0); err != nil {
		for i := range e.page {
			e.page[i] = core.CalibrationErased
		}
	}
	e.loaded = true
}

func (e *flashEEPROM) ReadCell(addr uint16) uint8 {
	e.load()
	if int(addr) >= len(e.page) {
		return core.CalibrationErased
	}
	return e.page[addr]
}

// WriteCell rewrites the page only when the cell changes.
func (e *flashEEPROM) WriteCell(addr uint16, v uint8) {
	e.load()
	if int(addr) >= len(e.page) || e.page[addr] == v {
		return
	}
	e.page[addr] = v
	if err := machine.Flash.EraseBlocks(0, 1); err != nil {
		core.DebugPrintln("flash erase failed: " + err.Error())
		return
	}
	if _, err := machine.Flash.WriteAt(e.page[:], 0); err != nil {
		core.DebugPrintln("flash write failed: " + err.Error())
	}
}

// watchdog adapts machine.Watchdog.
type watchdog struct{}

func (watchdog) Configure(timeoutMillis uint32) error {
	return machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: timeoutMillis})
}

func (watchdog) Start() error { return machine.Watchdog.Start() }

func (watchdog) Update() { machine.Watchdog.Update() }

func sleepMillis(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// uartTelemetry writes frames to UART0 (GP0 TX).
func uartTelemetry() core.TelemetrySink {
	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: telemetryBaud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	if err != nil {
		return nil
	}
	return func(frame []byte) {
		uart.Write(frame)
	}
}

func indicatorDriver() core.GPIODriver {
	if useNeoPixel {
		return &neoPixel{}
	}
	return pinGPIO{}
}
