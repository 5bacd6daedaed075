package core

import "gopad/protocol"

// TelemetrySink receives encoded telemetry frames, typically a UART write.
// The frame must not be retained after the call returns.
type TelemetrySink func(frame []byte)

// Telemetry emits firmware events as protocol frames. All methods are safe
// on a nil receiver, which disables telemetry.
type Telemetry struct {
	enc  *protocol.Encoder
	sink TelemetrySink

	// reportEvery decimates report events; 0 disables them.
	reportEvery uint16
	reportCount uint16
}

// NewTelemetry creates an emitter writing to sink. Every reportEvery-th
// sent report is mirrored as a report event.
func NewTelemetry(sink TelemetrySink, reportEvery uint16) *Telemetry {
	return &Telemetry{
		enc:         protocol.NewEncoder(),
		sink:        sink,
		reportEvery: reportEvery,
	}
}

func (t *Telemetry) emit(id uint8, args ...int32) {
	if t == nil || t.sink == nil {
		return
	}
	t.sink(t.enc.EncodeMessage(id, args...))
}

// CalibrationProbe reports one trim/measurement pair of the search.
func (t *Telemetry) CalibrationProbe(trim uint8, measurement int) {
	t.emit(protocol.MsgCalibrationProbe, int32(trim), int32(measurement))
}

// CalibrationResult reports the committed trim and its deviation.
func (t *Telemetry) CalibrationResult(trim uint8, deviation int) {
	t.emit(protocol.MsgCalibrationResult, int32(trim), int32(deviation))
}

// CalibrationRestored reports a trim value loaded from storage.
func (t *Telemetry) CalibrationRestored(trim uint8) {
	t.emit(protocol.MsgCalibrationRestored, int32(trim))
}

// Recording reports a recording state change.
func (t *Telemetry) Recording(active bool) {
	var v int32
	if active {
		v = 1
	}
	t.emit(protocol.MsgRecording, v)
}

// Report mirrors a sent input report, decimated by reportEvery.
func (t *Telemetry) Report(a, b ChannelSample) {
	if t == nil || t.reportEvery == 0 {
		return
	}
	t.reportCount++
	if t.reportCount < t.reportEvery {
		return
	}
	t.reportCount = 0
	t.emit(protocol.MsgReport, int32(a), int32(b))
}
