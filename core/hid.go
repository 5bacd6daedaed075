// HID class request handling for the control endpoint
package core

import "encoding/binary"

// bmRequestType fields
const (
	RequestTypeMask     = 0x60
	RequestTypeStandard = 0x00
	RequestTypeClass    = 0x20
	RequestTypeVendor   = 0x40

	RequestDirIn = 0x80
)

// HID class requests
const (
	HIDGetReport   = 0x01
	HIDGetIdle     = 0x02
	HIDGetProtocol = 0x03
	HIDSetReport   = 0x09
	HIDSetIdle     = 0x0A
)

// SetupPacketSize is the length of a USB setup packet.
const SetupPacketSize = 8

// SetupPacket is a decoded USB control setup packet.
type SetupPacket struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// ParseSetupPacket decodes the 8 little-endian setup bytes.
func ParseSetupPacket(data []byte) (SetupPacket, error) {
	if len(data) != SetupPacketSize {
		return SetupPacket{}, ErrBadSetupPacket
	}
	return SetupPacket{
		RequestType: data[0],
		Request:     data[1],
		Value:       binary.LittleEndian.Uint16(data[2:4]),
		Index:       binary.LittleEndian.Uint16(data[4:6]),
		Length:      binary.LittleEndian.Uint16(data[6:8]),
	}, nil
}

// Bytes encodes the packet as sent on the wire.
func (p SetupPacket) Bytes() [SetupPacketSize]byte {
	var b [SetupPacketSize]byte
	b[0] = p.RequestType
	b[1] = p.Request
	binary.LittleEndian.PutUint16(b[2:4], p.Value)
	binary.LittleEndian.PutUint16(b[4:6], p.Index)
	binary.LittleEndian.PutUint16(b[6:8], p.Length)
	return b
}

// HIDClass answers the HID class requests of a single-report gamepad.
type HIDClass struct {
	report func() Report

	// idleRate is in 4ms units; 0 means report only on change.
	idleRate uint8

	reportBuf Report
	idleBuf   [1]byte
}

// NewHIDClass creates a class handler that builds GET_REPORT answers with
// report.
func NewHIDClass(report func() Report) *HIDClass {
	return &HIDClass{report: report}
}

// Setup answers a control request. Only class requests are handled; there
// is one report type so GET_REPORT ignores wValue. The returned slice
// aliases an internal buffer valid until the next call.
func (h *HIDClass) Setup(pkt SetupPacket) []byte {
	if pkt.RequestType&RequestTypeMask != RequestTypeClass {
		// no vendor specific requests implemented
		return nil
	}

	switch pkt.Request {
	case HIDGetReport:
		h.reportBuf = h.report()
		return h.reportBuf[:]
	case HIDGetIdle:
		h.idleBuf[0] = h.idleRate
		return h.idleBuf[:]
	case HIDSetIdle:
		h.idleRate = uint8(pkt.Value >> 8)
	}
	return nil
}

// IdleRate returns the idle rate last set by the host, in 4ms units.
func (h *HIDClass) IdleRate() uint8 {
	return h.idleRate
}
