// Package usbhid talks to the controller over its control pipe with the
// HID class requests the firmware answers: GET_REPORT, GET_IDLE and
// SET_IDLE.
package usbhid

import (
	"errors"
	"fmt"

	"gopad/core"
)

var ErrShortTransfer = errors.New("short control transfer")

// reportTypeInput is the high byte of wValue for GET_REPORT.
const reportTypeInput = 0x01

// ControlPipe performs class requests addressed to one interface.
type ControlPipe interface {
	// In runs a device-to-host request and returns the bytes received.
	In(request uint8, value, index uint16, data []byte) (int, error)
	// Out runs a host-to-device request.
	Out(request uint8, value, index uint16, data []byte) (int, error)
}

// Device is a controller reachable through a control pipe.
type Device struct {
	pipe  ControlPipe
	iface uint16
}

// NewDevice wraps an open control pipe.
func NewDevice(pipe ControlPipe, iface uint16) *Device {
	return &Device{pipe: pipe, iface: iface}
}

// Report holds one decoded input report.
type Report struct {
	A, B core.ChannelSample
	Raw  core.Report
}

// GetReport reads the current input report.
func (d *Device) GetReport() (Report, error) {
	var r Report
	n, err := d.pipe.In(core.HIDGetReport, reportTypeInput<<8, d.iface, r.Raw[:])
	if err != nil {
		return r, fmt.Errorf("GET_REPORT: %w", err)
	}
	if n != core.ReportSize {
		return r, fmt.Errorf("GET_REPORT: %d of %d bytes: %w", n, core.ReportSize, ErrShortTransfer)
	}
	r.A, r.B, err = core.ParseReport(r.Raw[:])
	if err != nil {
		return r, fmt.Errorf("GET_REPORT: %w", err)
	}
	return r, nil
}

// GetIdle returns the idle rate in 4ms units.
func (d *Device) GetIdle() (uint8, error) {
	var buf [1]byte
	n, err := d.pipe.In(core.HIDGetIdle, 0, d.iface, buf[:])
	if err != nil {
		return 0, fmt.Errorf("GET_IDLE: %w", err)
	}
	if n != 1 {
		return 0, fmt.Errorf("GET_IDLE: %w", ErrShortTransfer)
	}
	return buf[0], nil
}

// SetIdle sets the idle rate in 4ms units for all reports.
func (d *Device) SetIdle(rate uint8) error {
	if _, err := d.pipe.Out(core.HIDSetIdle, uint16(rate)<<8, d.iface, nil); err != nil {
		return fmt.Errorf("SET_IDLE: %w", err)
	}
	return nil
}
