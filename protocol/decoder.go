package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBadFrame = errors.New("malformed frame")
	ErrBadCRC   = errors.New("frame CRC mismatch")
)

// Message is a decoded telemetry message.
type Message struct {
	Sequence uint8
	ID       uint8
	Args     []int32
}

// Name returns the message name, or "msg<id>" for unknown IDs.
func (m Message) Name() string {
	if name := MessageName(m.ID); name != "" {
		return name
	}
	return "msg" + strconv.Itoa(int(m.ID))
}

// String formats the message as "name key=value ...".
func (m Message) String() string {
	var sb strings.Builder
	sb.WriteString(m.Name())
	names := MessageArgs(m.ID)
	for i, a := range m.Args {
		key := "arg" + strconv.Itoa(i)
		if i < len(names) {
			key = names[i]
		}
		fmt.Fprintf(&sb, " %s=%d", key, a)
	}
	return sb.String()
}

// Arg returns the named argument, or 0 if absent.
func (m Message) Arg(name string) int32 {
	for i, n := range MessageArgs(m.ID) {
		if n == name && i < len(m.Args) {
			return m.Args[i]
		}
	}
	return 0
}

// DecodeFrame validates one complete frame and decodes its message.
func DecodeFrame(frame []byte) (Message, error) {
	if len(frame) < FrameMin || len(frame) > FrameMax {
		return Message{}, ErrBadFrame
	}
	if int(frame[FramePositionLen]) != len(frame) || frame[len(frame)-1] != FrameSync {
		return Message{}, ErrBadFrame
	}
	seq := frame[FramePositionSeq]
	if seq&^FrameSeqMask != FrameSeqBase {
		return Message{}, ErrBadFrame
	}

	body := frame[:len(frame)-FrameTrailerSize]
	crc := uint16(frame[len(frame)-3])<<8 | uint16(frame[len(frame)-2])
	if crc != CRC16(body) {
		return Message{}, ErrBadCRC
	}

	payload := body[FrameHeaderSize:]
	id, err := DecodeVLQUint(&payload)
	if err != nil {
		return Message{}, fmt.Errorf("message id: %w", err)
	}
	msg := Message{Sequence: seq & FrameSeqMask, ID: uint8(id)}
	for len(payload) > 0 {
		v, err := DecodeVLQInt(&payload)
		if err != nil {
			return Message{}, fmt.Errorf("%s argument %d: %w", msg.Name(), len(msg.Args), err)
		}
		msg.Args = append(msg.Args, v)
	}
	return msg, nil
}

// Decoder extracts messages from a byte stream that may start mid-frame or
// contain corrupted frames.
type Decoder struct {
	buf []byte

	// Dropped counts bytes discarded while resynchronizing.
	Dropped int
	// Errors counts frames rejected for bad CRC or framing.
	Errors int
}

// NewDecoder creates an empty stream decoder.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 4*FrameMax)}
}

// Feed appends received bytes.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next returns the next complete message. ok is false when more input is
// needed.
func (d *Decoder) Next() (msg Message, ok bool) {
	for len(d.buf) > 0 {
		// Skip sync bytes between frames
		if d.buf[0] == FrameSync {
			d.consume(1)
			continue
		}

		msgLen := int(d.buf[FramePositionLen])
		if msgLen < FrameMin || msgLen > FrameMax {
			d.resync()
			continue
		}
		if len(d.buf) < msgLen {
			return Message{}, false
		}

		m, err := DecodeFrame(d.buf[:msgLen])
		if err != nil {
			d.Errors++
			d.resync()
			continue
		}
		d.consume(msgLen)
		return m, true
	}
	return Message{}, false
}

// resync discards input up to and including the next sync byte.
func (d *Decoder) resync() {
	for i, b := range d.buf {
		if b == FrameSync {
			d.drop(i + 1)
			return
		}
	}
	d.drop(len(d.buf))
}

func (d *Decoder) drop(n int) {
	d.Dropped += n
	d.consume(n)
}

func (d *Decoder) consume(n int) {
	d.buf = append(d.buf[:0], d.buf[n:]...)
}
