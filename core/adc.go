// Dual-channel analog acquisition
// Time-multiplexes one converter across the two axis inputs
package core

// Channel is the alternating selector bit. The values double as indexes
// into the mux table and the sample slots.
type Channel uint8

const (
	ChannelB Channel = 0
	ChannelA Channel = 1
)

// String returns "A" or "B".
func (c Channel) String() string {
	if c == ChannelA {
		return "A"
	}
	return "B"
}

// ChannelSample is a scaled conversion result, in millivolts with the
// 2.56V reference.
type ChannelSample uint16

// Scale converts a raw code to a channel sample: v*2.5 computed as
// v*2 + v/2, with the division truncating.
func Scale(v ADCValue) ChannelSample {
	return ChannelSample(v*2 + v/2)
}

// AcquisitionConfig is the hardware wiring of the two axis inputs.
type AcquisitionConfig struct {
	ADC  ADCConfig
	MuxA ADCMux // channel A input
	MuxB ADCMux // channel B input
}

// AnalogAcquisition owns the converter and alternates it between the two
// channels. It is driven by Poll from the main loop; nothing else may touch
// the converter.
type AnalogAcquisition struct {
	adc ADCDriver
	cfg ADCConfig

	// mux is keyed by selector: 0 routes channel B, 1 routes channel A.
	mux [2]ADCMux

	// selector is the channel currently converting (or about to).
	selector Channel
	pending  bool

	samples [2]ChannelSample
}

// NewAnalogAcquisition wires the converter to the two channel inputs.
// The first conversion started is on channel A.
func NewAnalogAcquisition(adc ADCDriver, cfg AcquisitionConfig) *AnalogAcquisition {
	return &AnalogAcquisition{
		adc:      adc,
		cfg:      cfg.ADC,
		mux:      [2]ADCMux{ChannelB: cfg.MuxB, ChannelA: cfg.MuxA},
		selector: ChannelA,
	}
}

// Init applies the fixed reference and prescaler configuration.
func (a *AnalogAcquisition) Init() error {
	return a.adc.Init(a.cfg)
}

// Poll advances the acquisition by at most one conversion. It is a no-op
// while the converter is busy. Otherwise it harvests the outstanding
// conversion, if any, into the slot of the channel just measured, flips the
// selector, and starts the next conversion.
func (a *AnalogAcquisition) Poll() {
	if a.adc.Busy() {
		return
	}

	if a.pending {
		a.samples[a.selector] = Scale(a.adc.Read())
		a.selector ^= 1
	}

	a.adc.Select(a.mux[a.selector])
	a.adc.Start()
	a.pending = true
}

// Sample returns the latest scaled value for a channel. Slots read zero
// until the channel completes its first conversion.
func (a *AnalogAcquisition) Sample(ch Channel) ChannelSample {
	return a.samples[ch&1]
}

// Samples returns channel A and channel B.
func (a *AnalogAcquisition) Samples() (ChannelSample, ChannelSample) {
	return a.samples[ChannelA], a.samples[ChannelB]
}

// Selector returns the channel whose conversion is in flight or next.
func (a *AnalogAcquisition) Selector() Channel {
	return a.selector
}

// Pending reports whether a conversion has been started and not yet harvested.
func (a *AnalogAcquisition) Pending() bool {
	return a.pending
}

// Report builds an input report from the current samples.
func (a *AnalogAcquisition) Report() Report {
	return BuildReport(a.Samples())
}
