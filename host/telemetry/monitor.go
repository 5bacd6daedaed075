// Package telemetry decodes the firmware's telemetry stream on the host.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopad/protocol"
)

// Handler receives each decoded message.
type Handler func(protocol.Message)

// Monitor reads telemetry frames from a byte stream, typically a serial
// port opened with a read timeout.
type Monitor struct {
	r   io.Reader
	dec *protocol.Decoder
	log *slog.Logger

	state State
}

// NewMonitor creates a monitor reading from r. A nil logger discards.
func NewMonitor(r io.Reader, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{
		r:   r,
		dec: protocol.NewDecoder(),
		log: logger,
	}
}

// Run decodes messages until ctx is cancelled or the stream ends. Each
// message updates State before handle is called. End of stream and
// cancellation are not errors.
func (m *Monitor) Run(ctx context.Context, handle Handler) error {
	buf := make([]byte, 256)
	var lastErrors, lastDropped int
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := m.r.Read(buf)
		if n > 0 {
			m.dec.Feed(buf[:n])
			for {
				msg, ok := m.dec.Next()
				if !ok {
					break
				}
				m.state.Apply(msg)
				if handle != nil {
					handle(msg)
				}
			}
			if m.dec.Errors != lastErrors || m.dec.Dropped != lastDropped {
				m.log.Warn("telemetry stream damaged", "bad_frames", m.dec.Errors, "dropped_bytes", m.dec.Dropped)
				lastErrors, lastDropped = m.dec.Errors, m.dec.Dropped
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read telemetry: %w", err)
		}
	}
}

// State returns the device state accumulated so far.
func (m *Monitor) State() State { return m.state }

// Stats returns the decoder's damage counters.
func (m *Monitor) Stats() (badFrames, droppedBytes int) {
	return m.dec.Errors, m.dec.Dropped
}

// State is the device state reconstructed from telemetry.
type State struct {
	Messages int

	// Probes holds the trim values probed by the latest calibration.
	Probes       []uint8
	probing      bool
	Calibrations int
	Trim         uint8
	Deviation    int32
	Restored     bool

	Recording bool

	A, B    int32
	Reports int
}

// Apply folds one message into the state.
func (s *State) Apply(msg protocol.Message) {
	s.Messages++
	switch msg.ID {
	case protocol.MsgCalibrationProbe:
		if !s.probing {
			s.Probes = nil
			s.probing = true
		}
		s.Probes = append(s.Probes, uint8(msg.Arg("trim")))
	case protocol.MsgCalibrationResult:
		s.probing = false
		s.Calibrations++
		s.Trim = uint8(msg.Arg("trim"))
		s.Deviation = msg.Arg("deviation")
	case protocol.MsgCalibrationRestored:
		s.Restored = true
		s.Trim = uint8(msg.Arg("trim"))
	case protocol.MsgRecording:
		s.Recording = msg.Arg("active") != 0
	case protocol.MsgReport:
		s.Reports++
		s.A, s.B = msg.Arg("a"), msg.Arg("b")
	}
}
