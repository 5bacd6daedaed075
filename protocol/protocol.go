// Package protocol implements the gopad telemetry wire format.
//
// Frames use the Klipper block layout: a length byte, a sequence byte, a
// payload of VLQ-encoded integers, a CRC16 and a trailing sync byte. The
// firmware only ever transmits, so there is no ACK/NAK exchange.
package protocol

// Version represents the telemetry format version
const Version = "1"

// Frame layout constants
const (
	FrameHeaderSize  = 2 // length, sequence
	FrameTrailerSize = 3 // crc hi, crc lo, sync
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64

	FramePositionLen = 0
	FramePositionSeq = 1

	FrameSync    = 0x7E
	FrameSeqBase = 0x10
	FrameSeqMask = 0x0F
)

// Message IDs
const (
	MsgCalibrationProbe    uint8 = 1 // trim, measurement
	MsgCalibrationResult   uint8 = 2 // trim, deviation
	MsgCalibrationRestored uint8 = 3 // trim
	MsgRecording           uint8 = 4 // active
	MsgReport              uint8 = 5 // a, b
)

type messageInfo struct {
	name string
	args []string
}

var messages = map[uint8]messageInfo{
	MsgCalibrationProbe:    {"calibration_probe", []string{"trim", "measurement"}},
	MsgCalibrationResult:   {"calibration_result", []string{"trim", "deviation"}},
	MsgCalibrationRestored: {"calibration_restored", []string{"trim"}},
	MsgRecording:           {"recording", []string{"active"}},
	MsgReport:              {"report", []string{"a", "b"}},
}

// MessageName returns the name of a message ID, or "" if unknown.
func MessageName(id uint8) string {
	return messages[id].name
}

// MessageArgs returns the argument names of a message ID.
func MessageArgs(id uint8) []string {
	return messages[id].args
}
