// Package transport provides the byte channel to a brick. Three
// variants exist behind one interface: serial/USB, Bluetooth
// (UART-style characteristic pair), and TCP with UDP beacon discovery.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Transport is a synchronous request/reply byte channel. At most one
// request may be outstanding at a time; Read blocks until one complete
// length-prefixed reply has arrived and returns the full buffer
// including the length prefix. The connection is exclusively owned and
// must be closed exactly once.
type Transport interface {
	Write(p []byte) error
	Read() ([]byte, error)
	Close() error
}

// readFrame reads exactly one length-prefixed reply from a stream: the
// 2-byte little-endian length, then that many bytes. Returns the whole
// frame including the prefix.
func readFrame(r io.Reader) ([]byte, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	n := binary.LittleEndian.Uint16(prefix[:])
	frame := make([]byte, 2+int(n))
	copy(frame, prefix[:])
	if _, err := io.ReadFull(r, frame[2:]); err != nil {
		return nil, fmt.Errorf("read reply body: %w", err)
	}
	return frame, nil
}
