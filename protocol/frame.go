package protocol

// Encoder builds telemetry frames into a reusable scratch buffer.
type Encoder struct {
	seq uint8
	out ScratchOutput
}

// NewEncoder creates an encoder starting at sequence 0.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeFrame wraps the payload written by frameData in a header and
// trailer. The returned slice is valid until the next call.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) []byte {
	e.out.Reset()

	// Reserve header, length is patched after the payload is known
	e.out.Output([]byte{0, FrameSeqBase | (e.seq & FrameSeqMask)})
	frameData(&e.out)

	// Length includes the trailer
	msgLen := e.out.CurPosition() + FrameTrailerSize
	e.out.Update(FramePositionLen, uint8(msgLen))

	crc := CRC16(e.out.DataSince(0))
	e.out.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		FrameSync,
	})

	e.seq = (e.seq + 1) & FrameSeqMask
	return e.out.Result()
}

// EncodeMessage encodes one message with its integer arguments.
func (e *Encoder) EncodeMessage(id uint8, args ...int32) []byte {
	return e.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(id))
		for _, a := range args {
			EncodeVLQInt(output, a)
		}
	})
}
