package core

import "errors"

var (
	// ErrMissingDriver indicates a Drivers field required by Firmware is nil.
	ErrMissingDriver = errors.New("driver not configured")

	// ErrBadSetupPacket indicates a setup packet that is not 8 bytes long.
	ErrBadSetupPacket = errors.New("setup packet must be 8 bytes")

	// ErrBadReport indicates an input report with the wrong size or trailer.
	ErrBadReport = errors.New("malformed input report")
)
