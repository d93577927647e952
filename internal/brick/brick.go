// Package brick provides a high-level session for one connected brick.
// Each verb method performs exactly one encode-send-receive-decode
// round trip through the protocol layer; the only cross-call state is
// the transport connection and the sequence counter.
package brick

import (
	"fmt"
	"sync/atomic"

	"github.com/vitaminmoo/ev3-tool/internal/logging"
	"github.com/vitaminmoo/ev3-tool/internal/protocol"
	"github.com/vitaminmoo/ev3-tool/internal/transport"
)

// Brick is a session over one exclusively-owned transport connection.
// It is not safe for concurrent use: the protocol allows at most one
// request in flight per connection.
type Brick struct {
	tr transport.Transport

	// Layer is the daisy-chain depth addressed by motor and sensor
	// commands; 0 is the directly connected brick.
	Layer uint8

	seq uint32
}

// New wraps an open transport connection in a session.
func New(tr transport.Transport) *Brick {
	return &Brick{tr: tr}
}

// Close releases the transport connection. A session is single-use:
// after Close (or after an abandoned read) open a fresh one rather
// than reusing this object.
func (b *Brick) Close() error {
	return b.tr.Close()
}

// nextSeq returns a fresh sequence id for request/reply correlation.
func (b *Brick) nextSeq() uint16 {
	return uint16(atomic.AddUint32(&b.seq, 1))
}

// send finalizes a message, writes it, and decodes the reply when one
// is expected. For no-reply messages it returns (nil, nil) after the
// write.
func (b *Brick) send(msg *protocol.Message) (*protocol.Reply, error) {
	data, err := msg.Finalize()
	if err != nil {
		return nil, err
	}

	logging.DumpWire("request", data)
	if err := b.tr.Write(data); err != nil {
		return nil, err
	}
	if !msg.ExpectsReply() {
		return nil, nil
	}

	raw, err := b.tr.Read()
	if err != nil {
		return nil, err
	}
	logging.DumpWire("reply", raw)

	return protocol.Decode(raw, msg.Sequence())
}

// sendSystem runs one system command round trip and unwraps the reply,
// treating any return code outside okCodes as a device failure.
func (b *Brick) sendSystem(msg *protocol.Message, sysCmd byte, okCodes ...byte) (data []byte, rc byte, err error) {
	reply, err := b.send(msg)
	if err != nil {
		return nil, 0, err
	}
	data, rc, err = reply.System(sysCmd)
	if err != nil {
		return nil, 0, err
	}
	for _, ok := range okCodes {
		if rc == ok {
			return data, rc, nil
		}
	}
	return nil, rc, &protocol.DeviceError{ReplyType: reply.Type, Code: rc}
}

// BatteryVoltage reads the battery voltage in volts.
func (b *Brick) BatteryVoltage() (float32, error) {
	msg := protocol.NewDirect(b.nextSeq(), 4, 0, true)
	msg.AddOpcode(protocol.OpUIRead, protocol.Const(protocol.UIReadGetVbatt), protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return 0, fmt.Errorf("read battery voltage: %w", err)
	}
	return reply.Float32At(0)
}

// BatteryLevel reads the battery charge as a percentage.
func (b *Brick) BatteryLevel() (uint8, error) {
	msg := protocol.NewDirect(b.nextSeq(), 1, 0, true)
	msg.AddOpcode(protocol.OpUIRead, protocol.Const(protocol.UIReadGetLbatt), protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return 0, fmt.Errorf("read battery level: %w", err)
	}
	return reply.Uint8At(0)
}

// Name reads the brick's advertised name.
func (b *Brick) Name() (string, error) {
	const maxLen = 32
	msg := protocol.NewDirect(b.nextSeq(), maxLen, 0, true)
	msg.AddOpcode(protocol.OpComGet,
		protocol.Const(protocol.ComGetBrickname),
		protocol.Const(maxLen),
		protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return "", fmt.Errorf("read brick name: %w", err)
	}
	return reply.StringAt(0)
}
