package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"gopad/protocol"
)

// chunkReader returns its data a few bytes at a time, then err.
type chunkReader struct {
	data  []byte
	chunk int
	err   error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := r.chunk
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func calibrationStream() []byte {
	enc := protocol.NewEncoder()
	var buf bytes.Buffer
	buf.Write(enc.EncodeMessage(protocol.MsgCalibrationRestored, 0x80))
	buf.Write(enc.EncodeMessage(protocol.MsgRecording, 1))
	for _, trim := range []int32{128, 192, 160, 144, 152, 156, 154, 155, 153, 154, 155} {
		buf.Write(enc.EncodeMessage(protocol.MsgCalibrationProbe, trim, 2300))
	}
	buf.Write(enc.EncodeMessage(protocol.MsgCalibrationResult, 154, 3))
	buf.Write(enc.EncodeMessage(protocol.MsgReport, 250, 500))
	return buf.Bytes()
}

func TestMonitorState(t *testing.T) {
	r := &chunkReader{data: calibrationStream(), chunk: 5, err: io.EOF}
	m := NewMonitor(r, nil)

	var names []string
	err := m.Run(context.Background(), func(msg protocol.Message) {
		names = append(names, msg.Name())
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(names) != 15 {
		t.Fatalf("Expected 15 messages, got %d: %v", len(names), names)
	}
	st := m.State()
	if !st.Restored || st.Calibrations != 1 || st.Trim != 154 || st.Deviation != 3 {
		t.Errorf("Expected restored then calibrated to 154 dev 3, got %+v", st)
	}
	if len(st.Probes) != 11 || st.Probes[0] != 128 || st.Probes[10] != 155 {
		t.Errorf("Expected the 11 probes, got %v", st.Probes)
	}
	if !st.Recording {
		t.Error("Expected recording")
	}
	if st.Reports != 1 || st.A != 250 || st.B != 500 {
		t.Errorf("Expected report a=250 b=500, got %+v", st)
	}
}

func TestMonitorSecondCalibrationReplacesProbes(t *testing.T) {
	var st State
	for i := 0; i < 2; i++ {
		for trim := int32(0); trim < 3; trim++ {
			st.Apply(protocol.Message{ID: protocol.MsgCalibrationProbe, Args: []int32{trim + 10*int32(i), 0}})
		}
		st.Apply(protocol.Message{ID: protocol.MsgCalibrationResult, Args: []int32{1, 0}})
	}
	if len(st.Probes) != 3 || st.Probes[0] != 10 {
		t.Errorf("Expected the second calibration's probes, got %v", st.Probes)
	}
	if st.Calibrations != 2 {
		t.Errorf("Expected 2 calibrations, got %d", st.Calibrations)
	}
}

func TestMonitorCountsDamage(t *testing.T) {
	stream := calibrationStream()
	stream[2] ^= 0xFF // corrupt the first frame's message id
	r := &chunkReader{data: stream, chunk: 64, err: io.EOF}
	m := NewMonitor(r, nil)

	if err := m.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	bad, dropped := m.Stats()
	if bad != 1 || dropped == 0 {
		t.Errorf("Expected one bad frame and dropped bytes, got %d and %d", bad, dropped)
	}
	if m.State().Restored {
		t.Error("Expected the corrupted restore frame to be discarded")
	}
	if m.State().Calibrations != 1 {
		t.Errorf("Expected the rest of the stream decoded, got %+v", m.State())
	}
}

func TestMonitorReadError(t *testing.T) {
	readErr := errors.New("device unplugged")
	m := NewMonitor(&chunkReader{err: readErr}, nil)
	if err := m.Run(context.Background(), nil); !errors.Is(err, readErr) {
		t.Errorf("Expected wrapped read error, got %v", err)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMonitor(&chunkReader{}, nil)
	if err := m.Run(ctx, nil); err != nil {
		t.Errorf("Expected nil on cancel, got %v", err)
	}
}
