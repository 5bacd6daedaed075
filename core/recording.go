package core

// Recording states
const (
	RecordingIdle   = 0
	RecordingActive = 1
)

// RecordingState holds the recording flag and mirrors it on the indicator
// output. It does not gate acquisition or report transmission.
type RecordingState struct {
	gpio      GPIODriver
	pin       GPIOPin
	activeLow bool

	state uint8

	telemetry *Telemetry
}

// NewRecordingState creates the state machine in RecordingIdle. The
// indicator pin is not touched until Init.
func NewRecordingState(gpio GPIODriver, pin GPIOPin, activeLow bool) *RecordingState {
	return &RecordingState{
		gpio:      gpio,
		pin:       pin,
		activeLow: activeLow,
		state:     RecordingIdle,
	}
}

// SetTelemetry routes state changes to t. A nil t disables them.
func (r *RecordingState) SetTelemetry(t *Telemetry) {
	r.telemetry = t
}

// Init configures the indicator pin as an output.
func (r *RecordingState) Init() error {
	return r.gpio.ConfigureOutput(r.pin)
}

// Set stores the recording flag and drives the indicator to match.
func (r *RecordingState) Set(recording bool) error {
	r.state = RecordingIdle
	if recording {
		r.state = RecordingActive
	}
	RecordTrace(EvtRecording, r.state, 0, 0)
	r.telemetry.Recording(recording)

	// Active-low indicators are lit by driving the pin low.
	return r.gpio.SetPin(r.pin, recording != r.activeLow)
}

// State returns RecordingIdle or RecordingActive.
func (r *RecordingState) State() uint8 {
	return r.state
}

// Recording reports whether the state is RecordingActive.
func (r *RecordingState) Recording() bool {
	return r.state == RecordingActive
}
