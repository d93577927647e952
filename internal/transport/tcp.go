package transport

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// beaconPort is the UDP port the brick broadcasts its presence on.
const beaconPort = 3015

// TCP talks to a brick over a network socket. The brick announces
// itself with a UDP text beacon; connecting requires acking the beacon
// and then sending an unlock line on the fresh TCP connection before
// the raw length-prefixed protocol starts.
type TCP struct {
	conn net.Conn
}

// Beacon is one decoded UDP announcement from a brick.
type Beacon struct {
	SerialNumber string
	Port         int
	Name         string
	Addr         net.IP
}

// Discover listens for a brick beacon for at most the given duration
// and acknowledges the first one heard, which makes the brick accept a
// TCP connection from this host.
func Discover(timeout time.Duration) (*Beacon, error) {
	pc, err := net.ListenUDP("udp4", &net.UDPAddr{Port: beaconPort})
	if err != nil {
		return nil, fmt.Errorf("listen for beacon: %w", err)
	}
	defer pc.Close()

	if err := pc.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	buf := make([]byte, 256)
	n, sender, err := pc.ReadFromUDP(buf)
	if err != nil {
		return nil, fmt.Errorf("no beacon heard within %s: %w", timeout, err)
	}

	beacon, err := parseBeacon(string(buf[:n]))
	if err != nil {
		return nil, err
	}
	beacon.Addr = sender.IP

	// Any datagram back to the sender unlocks the TCP port.
	if _, err := pc.WriteToUDP([]byte{0x00}, sender); err != nil {
		return nil, fmt.Errorf("ack beacon: %w", err)
	}
	return beacon, nil
}

// parseBeacon decodes the beacon text, e.g.
//
//	Serial-Number: 0016533f0c1e
//	Port: 5555
//	Name: EV3
//	Protocol: EV3
func parseBeacon(text string) (*Beacon, error) {
	b := &Beacon{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ": ")
		if !ok {
			continue
		}
		switch key {
		case "Serial-Number":
			b.SerialNumber = value
		case "Port":
			if _, err := fmt.Sscanf(value, "%d", &b.Port); err != nil {
				return nil, fmt.Errorf("bad beacon port %q", value)
			}
		case "Name":
			b.Name = value
		}
	}
	if b.SerialNumber == "" || b.Port == 0 {
		return nil, fmt.Errorf("incomplete beacon: %q", text)
	}
	return b, nil
}

// DialTCP connects to a brick at addr (host:port) and performs the
// unlock handshake for the given serial number.
func DialTCP(addr, serialNumber string) (*TCP, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	unlock := fmt.Sprintf("GET /target?sn=%s VMTP1.0\nProtocol: EV3", serialNumber)
	if _, err := conn.Write([]byte(unlock)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send unlock: %w", err)
	}

	// The brick answers with a short "Accept:EV340\r\n\r\n" style line.
	buf := make([]byte, 64)
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		conn.Close()
		return nil, err
	}
	n, err := conn.Read(buf)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read unlock response: %w", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "Accept:") {
		conn.Close()
		return nil, fmt.Errorf("brick refused connection: %q", string(buf[:n]))
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, err
	}

	return &TCP{conn: conn}, nil
}

// DiscoverAndDial waits for a beacon and connects to its sender.
func DiscoverAndDial(timeout time.Duration) (*TCP, error) {
	beacon, err := Discover(timeout)
	if err != nil {
		return nil, err
	}
	addr := fmt.Sprintf("%s:%d", beacon.Addr, beacon.Port)
	return DialTCP(addr, beacon.SerialNumber)
}

func (t *TCP) Write(p []byte) error {
	if _, err := t.conn.Write(p); err != nil {
		return fmt.Errorf("tcp write: %w", err)
	}
	return nil
}

func (t *TCP) Read() ([]byte, error) {
	return readFrame(t.conn)
}

func (t *TCP) Close() error {
	return t.conn.Close()
}
