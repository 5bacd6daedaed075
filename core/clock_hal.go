package core

// TrimRegister is the 8-bit internal oscillator calibration register
// (OSCCAL on AVR). Writes take effect immediately.
type TrimRegister interface {
	Get() uint8
	Set(v uint8)
}

// FrameMeter measures the length of one USB frame in units proportional to
// the actual core clock: a larger value means a faster oscillator. It blocks
// until the next start-of-frame pair has been seen.
type FrameMeter interface {
	MeasureFrameLength() int
}
