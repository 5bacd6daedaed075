//go:build rp2040

package main

import (
	"machine"

	"gopad/core"
)

// cpuHz is TinyGo's default RP2040 system clock.
const cpuHz = 125000000

func main() {
	// Clear any watchdog state left over from the previous run.
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	machine.Serial.Configure(machine.UARTConfig{})
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})

	cfg := core.DefaultConfig()
	cfg.CPUFrequency = cpuHz
	cfg.IndicatorPin = indicatorPin
	cfg.IndicatorActiveLow = false

	fw := core.MustNew(cfg, core.Drivers{
		ADC:       rpADC{},
		Trim:      &crystalTrim{},
		EEPROM:    &flashEEPROM{},
		GPIO:      indicatorDriver(),
		USB:       newUSBEngine(cpuHz),
		Watchdog:  watchdog{},
		Sleep:     sleepMillis,
		Telemetry: uartTelemetry(),
	})

	if err := fw.Boot(); err != nil {
		core.DebugPrintln("boot failed: " + err.Error())
		// Let the watchdog bring us back.
		machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
		machine.Watchdog.Start()
		for {
		}
	}
	fw.Run(nil)
}
