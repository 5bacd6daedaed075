package core

import "encoding/binary"

// Input report layout: two big-endian 16-bit axis words and a trailer byte
// that fills the button bits of the descriptor.
const (
	ReportSize    = 5
	ReportTrailer = 0x01
)

// Report is one interrupt-IN input report.
type Report [ReportSize]byte

// BuildReport encodes channel A and channel B into a fresh report.
// Calling it twice with the same samples yields identical bytes.
func BuildReport(a, b ChannelSample) Report {
	var r Report
	binary.BigEndian.PutUint16(r[0:2], uint16(a))
	binary.BigEndian.PutUint16(r[2:4], uint16(b))
	r[4] = ReportTrailer
	return r
}

// ParseReport decodes a report received by a host.
func ParseReport(data []byte) (a, b ChannelSample, err error) {
	if len(data) != ReportSize || data[4] != ReportTrailer {
		return 0, 0, ErrBadReport
	}
	a = ChannelSample(binary.BigEndian.Uint16(data[0:2]))
	b = ChannelSample(binary.BigEndian.Uint16(data[2:4]))
	return a, b, nil
}
