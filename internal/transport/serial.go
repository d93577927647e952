package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// Serial talks to a brick over a serial device node. This covers both
// real serial/USB connections and classic Bluetooth bound to an RFCOMM
// device node by the OS.
type Serial struct {
	port serial.Port
}

// OpenSerial opens the given device node at 115200 8N1.
func OpenSerial(path string) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return &Serial{port: port}, nil
}

func (s *Serial) Write(p []byte) error {
	if _, err := s.port.Write(p); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *Serial) Read() ([]byte, error) {
	return readFrame(s.port)
}

func (s *Serial) Close() error {
	return s.port.Close()
}
