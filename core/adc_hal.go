package core

// ADCMux is the channel-select code written into the converter's multiplexer bits.
type ADCMux uint8

// ATtiny25/45/85 single-ended mux codes.
const (
	MuxADC2 ADCMux = 0x02 // PB4
	MuxADC3 ADCMux = 0x03 // PB3
)

// ADCValue is the raw converter code (10 bits on the reference board).
type ADCValue uint16

// ADCMax is the largest code a 10-bit conversion produces.
const ADCMax = 1023

// ADCReference selects the converter voltage reference.
type ADCReference uint8

const (
	RefVCC ADCReference = iota
	RefExternal
	RefInternal1V1
	RefInternal2V56
)

// ADCConfig is the fixed converter configuration. It is applied once at
// initialization and never changed afterwards.
type ADCConfig struct {
	Reference ADCReference
	// Prescaler divides the core clock down to the converter clock.
	Prescaler uint8
}

// ADCDriver is the abstract converter interface that core code uses.
// Every method except Init must be non-blocking.
type ADCDriver interface {
	// Init powers up the converter and applies the reference and prescaler.
	Init(cfg ADCConfig) error

	// Busy reports whether a conversion is in flight.
	Busy() bool

	// Read returns the result of the last completed conversion.
	Read() ADCValue

	// Select programs the channel-select bits for the next conversion.
	Select(mux ADCMux)

	// Start begins a single conversion on the selected channel.
	Start()
}
