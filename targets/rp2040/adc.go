//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"

	"gopad/core"
)

var errUnknownMux = errors.New("no analog input for mux code")

// analogInputs maps the reference board's mux codes onto the RP2040 inputs
// the axes are wired to: ADC2 on GP26 (AIN0), ADC3 on GP27 (AIN1).
var analogInputs = map[core.ADCMux]struct {
	pin machine.Pin
	ain uint32
}{
	core.MuxADC2: {machine.ADC0, 0},
	core.MuxADC3: {machine.ADC1, 1},
}

// rpADC drives the converter registers directly. machine.ADC.Get blocks
// until the result is ready, which the acquisition loop cannot afford.
type rpADC struct{}

// Init powers the converter and puts the axis pins in analog mode. The
// reference is fixed at 3.3V and the clock at 48MHz on this part, so the
// configured reference and prescaler are ignored.
func (rpADC) Init(cfg core.ADCConfig) error {
	machine.InitADC()
	for _, in := range analogInputs {
		machine.ADC{Pin: in.pin}.Configure(machine.ADCConfig{})
	}
	return nil
}

func (rpADC) Busy() bool {
	return !rp.ADC.CS.HasBits(rp.ADC_CS_READY)
}

// Read scales the 12-bit result down to the 10-bit range the core expects.
func (rpADC) Read() core.ADCValue {
	return core.ADCValue(rp.ADC.RESULT.Get() >> 2)
}

func (rpADC) Select(mux core.ADCMux) {
	in, ok := analogInputs[mux]
	if !ok {
		core.DebugPrintln(errUnknownMux.Error())
		return
	}
	rp.ADC.CS.ReplaceBits(in.ain<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)
}

func (rpADC) Start() {
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
}
