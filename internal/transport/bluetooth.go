package transport

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// UART-style service the brick's wireless bridge exposes: one write
// characteristic for requests, one notify characteristic for replies.
const (
	uartServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	uartWriteUUID   = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	uartNotifyUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

// writeMTU is the largest fragment written per characteristic write.
const writeMTU = 244

// interFragmentDelay gives the bridge time to drain between fragments.
const interFragmentDelay = 10 * time.Millisecond

// Bluetooth talks to a brick over a write/notify characteristic pair.
// Replies arrive as notification fragments and are reassembled using
// the protocol's own 2-byte length prefix.
type Bluetooth struct {
	device bluetooth.Device
	write  bluetooth.DeviceCharacteristic

	mu       sync.Mutex
	buf      bytes.Buffer
	expected int
	complete chan struct{}

	readTimeout time.Duration
}

// OpenBluetooth scans for a brick advertising the given name, connects,
// and wires up the reply notification handler.
func OpenBluetooth(name string, scanTimeout time.Duration) (*Bluetooth, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	var result bluetooth.ScanResult
	found := false
	timer := time.AfterFunc(scanTimeout, func() { adapter.StopScan() })
	err := adapter.Scan(func(adapter *bluetooth.Adapter, r bluetooth.ScanResult) {
		if strings.EqualFold(r.LocalName(), name) {
			result = r
			found = true
			adapter.StopScan()
		}
	})
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("bluetooth scan: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no brick named %q found within %s", name, scanTimeout)
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", name, err)
	}

	bt := &Bluetooth{
		device:      device,
		complete:    make(chan struct{}, 1),
		readTimeout: 10 * time.Second,
	}
	if err := bt.setup(); err != nil {
		device.Disconnect()
		return nil, err
	}
	return bt, nil
}

// setup discovers the UART service and enables reply notifications.
func (b *Bluetooth) setup() error {
	svcUUID, _ := bluetooth.ParseUUID(uartServiceUUID)
	services, err := b.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil || len(services) == 0 {
		return fmt.Errorf("discover uart service: %w", err)
	}

	chars, err := services[0].DiscoverCharacteristics(nil)
	if err != nil {
		return fmt.Errorf("discover characteristics: %w", err)
	}

	var notify bluetooth.DeviceCharacteristic
	haveWrite, haveNotify := false, false
	for i := range chars {
		switch strings.ToLower(chars[i].UUID().String()) {
		case uartWriteUUID:
			b.write = chars[i]
			haveWrite = true
		case uartNotifyUUID:
			notify = chars[i]
			haveNotify = true
		}
	}
	if !haveWrite || !haveNotify {
		return fmt.Errorf("uart characteristics not found")
	}

	err = notify.EnableNotifications(func(fragment []byte) {
		b.mu.Lock()
		defer b.mu.Unlock()

		// First fragment carries the length prefix; everything else
		// is a continuation of the same reply.
		if b.buf.Len() == 0 && len(fragment) >= 2 {
			b.expected = 2 + int(fragment[0]) + int(fragment[1])<<8
		}
		b.buf.Write(fragment)

		if b.expected > 0 && b.buf.Len() >= b.expected {
			select {
			case b.complete <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		return fmt.Errorf("enable notifications: %w", err)
	}
	return nil
}

func (b *Bluetooth) Write(p []byte) error {
	for off := 0; off < len(p); off += writeMTU {
		end := min(off+writeMTU, len(p))
		if _, err := b.write.WriteWithoutResponse(p[off:end]); err != nil {
			return fmt.Errorf("bluetooth write at offset %d: %w", off, err)
		}
		if end < len(p) {
			time.Sleep(interFragmentDelay)
		}
	}
	return nil
}

func (b *Bluetooth) Read() ([]byte, error) {
	select {
	case <-b.complete:
	case <-time.After(b.readTimeout):
		b.mu.Lock()
		got, expected := b.buf.Len(), b.expected
		b.mu.Unlock()
		return nil, fmt.Errorf("bluetooth read timeout (got %d/%d bytes)", got, expected)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	frame := make([]byte, b.buf.Len())
	copy(frame, b.buf.Bytes())
	b.buf.Reset()
	b.expected = 0
	return frame, nil
}

func (b *Bluetooth) Close() error {
	return b.device.Disconnect()
}
