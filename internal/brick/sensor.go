package brick

import (
	"fmt"

	"github.com/vitaminmoo/ev3-tool/internal/protocol"
)

// Well-known sensor type and mode values. Type 0 asks the brick to use
// whatever is plugged into the port.
const (
	SensorTypeAny   = 0
	SensorModeFirst = 0
)

// SensorSI reads one SI-unit value from the sensor on the given input
// port (0-based). Type and mode select the conversion; pass
// SensorTypeAny to use the connected sensor's default.
func (b *Brick) SensorSI(port uint8, sensorType, mode int32) (float32, error) {
	msg := protocol.NewDirect(b.nextSeq(), 4, 0, true)
	msg.AddOpcode(protocol.OpInputDevice,
		protocol.Const(protocol.InputDeviceReadySI),
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(port)),
		protocol.Const(sensorType),
		protocol.Const(mode),
		protocol.Const(1), // one value
		protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return 0, fmt.Errorf("read sensor %d: %w", port, err)
	}
	return reply.Float32At(0)
}

// SensorPct reads the raw percentage value from the sensor on the
// given input port.
func (b *Brick) SensorPct(port uint8, sensorType, mode int32) (uint8, error) {
	msg := protocol.NewDirect(b.nextSeq(), 1, 0, true)
	msg.AddOpcode(protocol.OpInputRead,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(port)),
		protocol.Const(sensorType),
		protocol.Const(mode),
		protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return 0, fmt.Errorf("read sensor %d: %w", port, err)
	}
	return reply.Uint8At(0)
}

// SensorName reads the name of the device connected to the given input
// port, e.g. "EV3-Touch".
func (b *Brick) SensorName(port uint8) (string, error) {
	const maxLen = 32
	msg := protocol.NewDirect(b.nextSeq(), maxLen, 0, true)
	msg.AddOpcode(protocol.OpInputDevice,
		protocol.Const(protocol.InputDeviceGetName),
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(port)),
		protocol.Const(maxLen),
		protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return "", fmt.Errorf("read sensor %d name: %w", port, err)
	}
	return reply.StringAt(0)
}
