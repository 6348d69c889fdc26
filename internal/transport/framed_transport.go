package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
)

// FramedTransport implements Transport over a 32-bit-little-endian
// length-prefixed byte stream, for deterministic replay against a test
// harness or simulator (spec: "each frame on input stdin is prefixed by
// a 32-bit little-endian length L followed by L bytes; output on stdout
// uses the same framing").
type FramedTransport struct {
	r io.ReadCloser
	w io.WriteCloser
	br *bufio.Reader
}

// NewFramedTransport wraps r and w with the length-prefix framing.
func NewFramedTransport(r io.ReadCloser, w io.WriteCloser) *FramedTransport {
	return &FramedTransport{r: r, w: w, br: bufio.NewReader(r)}
}

// Receive reads one length-prefixed frame. It returns io.EOF when the
// stream ends cleanly between frames. ctx is not observed: a blocked
// read returns only when the underlying reader returns.
func (t *FramedTransport) Receive(ctx context.Context) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(t.br, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])

	frame := make([]byte, length)
	if _, err := io.ReadFull(t.br, frame); err != nil {
		return nil, fmt.Errorf("transport: reading %d-byte frame: %w", length, err)
	}
	return frame, nil
}

// Send writes one length-prefixed frame.
func (t *FramedTransport) Send(frame []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := t.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := t.w.Write(frame)
	return err
}

// Close closes both the reader and writer, returning the first error.
func (t *FramedTransport) Close() error {
	rErr := t.r.Close()
	wErr := t.w.Close()
	if rErr != nil {
		return rErr
	}
	return wErr
}
