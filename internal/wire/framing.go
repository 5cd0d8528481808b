package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds the length prefix accepted from the wire. A
// corrupted or hostile length prefix must not make us allocate an
// unbounded buffer.
const MaxFrameSize = 4 << 20 // 4 MiB, generous for a handful of varint fields.

// WriteFrame writes a 4-byte big-endian length prefix followed by the
// encoded WireMessage.
func WriteFrame(w io.Writer, m WireMessage) error {
	payload, err := Marshal(m)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("wire: frame too large: %d bytes", len(payload))
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame and decodes it. It returns
// io.EOF only when the stream ends cleanly between frames.
func ReadFrame(r io.Reader) (WireMessage, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return WireMessage{}, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		// Discard the oversized payload without buffering it, so the
		// stream stays aligned on the next frame's length prefix.
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return WireMessage{}, err
		}
		return WireMessage{}, fmt.Errorf("%w: frame length %d exceeds max %d", ErrDecode, length, MaxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return WireMessage{}, err
	}

	return Unmarshal(payload)
}
