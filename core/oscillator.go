// Internal RC oscillator calibration
// Locks the trim register to the USB frame rate after a bus reset
package core

import "math"

// Calibration search bounds: 8 binary-search probes plus a 3-wide
// neighbourhood search.
const (
	CalibrationCoarseSteps = 8
	CalibrationFineSteps   = 3
	CalibrationProbes      = CalibrationCoarseSteps + CalibrationFineSteps
)

// TargetFrameLength returns the frame meter reading expected when the core
// runs at cpuHz: 1499 bit times of a 1.5 Mbit/s frame counted in 7-cycle
// loop iterations, i.e. 1499*cpuHz/10.5e6 rounded to nearest.
func TargetFrameLength(cpuHz uint32) int {
	return int((2998*uint64(cpuHz) + 10500000) / 21000000)
}

// OscillatorCalibrator tunes the trim register until the frame meter reads
// the target value.
type OscillatorCalibrator struct {
	trim   TrimRegister
	meter  FrameMeter
	target int

	telemetry *Telemetry
}

// NewOscillatorCalibrator creates a calibrator for a nominal core clock.
func NewOscillatorCalibrator(trim TrimRegister, meter FrameMeter, cpuHz uint32) *OscillatorCalibrator {
	return &OscillatorCalibrator{
		trim:   trim,
		meter:  meter,
		target: TargetFrameLength(cpuHz),
	}
}

// SetTelemetry routes probe and result events to t. A nil t disables them.
func (c *OscillatorCalibrator) SetTelemetry(t *Telemetry) {
	c.telemetry = t
}

// Target returns the frame meter reading being searched for.
func (c *OscillatorCalibrator) Target() int {
	return c.target
}

// Calibrate runs the search, leaves the best value in the trim register and
// returns it. It blocks for exactly CalibrationProbes frame measurements.
//
// WARNING: the binary search probes trial+step without clamping, so values
// up to 255 are written while searching (192 is reached on the second
// probe whenever the first one reads low). On low-voltage parts that can
// briefly overclock the core. The unclamped search is what makes the
// binary search converge and must not be limited here; boards with a hard
// frequency ceiling need a different algorithm.
func (c *OscillatorCalibrator) Calibrate() uint8 {
	var (
		step  uint8 = 128
		trial uint8
		// Deviation of trial measured when it was last committed.
		trialDev = math.MaxInt
	)

	for step > 0 {
		probe := trial + step
		x := c.probe(probe)
		if x < c.target {
			// frequency still too low
			trial = probe
			trialDev = abs(x - c.target)
		}
		step >>= 1
	}

	// trial is within +/-1 of the optimum; refine over its neighbours.
	best, bestDev := trial, trialDev
	for _, candidate := range [CalibrationFineSteps]uint8{trial - 1, trial, trial + 1} {
		dev := abs(c.probe(candidate) - c.target)
		if dev < bestDev {
			best, bestDev = candidate, dev
		}
	}

	c.trim.Set(best)
	RecordTrace(EvtCalResult, best, uint32(c.target), uint32(bestDev))
	c.telemetry.CalibrationResult(best, bestDev)
	return best
}

// probe writes v to the trim register and measures one frame.
func (c *OscillatorCalibrator) probe(v uint8) int {
	c.trim.Set(v)
	x := c.meter.MeasureFrameLength()
	RecordTrace(EvtCalProbe, v, uint32(c.target), uint32(x))
	c.telemetry.CalibrationProbe(v, x)
	return x
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
