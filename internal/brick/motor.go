package brick

import (
	"fmt"

	"github.com/vitaminmoo/ev3-tool/internal/protocol"
)

// OutputPort is a bit field selecting one or more of the four motor
// outputs. Combine with bitwise or to drive several motors at once.
type OutputPort byte

const (
	OutA OutputPort = 1 << iota
	OutB
	OutC
	OutD
	OutAll OutputPort = 0x0F
)

// portIndex maps a single-output selection to its port number, as
// required by commands that address one output rather than a set.
func portIndex(port OutputPort) (int32, error) {
	switch port {
	case OutA:
		return 0, nil
	case OutB:
		return 1, nil
	case OutC:
		return 2, nil
	case OutD:
		return 3, nil
	default:
		return 0, fmt.Errorf("exactly one output port required, got %04b", byte(port))
	}
}

// SetMotorPower sets the unregulated power (-100..100) on the selected
// outputs. The motors must be started to begin turning.
func (b *Brick) SetMotorPower(ports OutputPort, power int8) error {
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpOutputPower,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(ports)),
		protocol.Int8(power))
	_, err := b.send(msg)
	return err
}

// SetMotorSpeed sets the regulated speed (-100..100) on the selected
// outputs.
func (b *Brick) SetMotorSpeed(ports OutputPort, speed int8) error {
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpOutputSpeed,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(ports)),
		protocol.Int8(speed))
	_, err := b.send(msg)
	return err
}

// StartMotor starts the selected outputs at their configured power or
// speed.
func (b *Brick) StartMotor(ports OutputPort) error {
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpOutputStart,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(ports)))
	_, err := b.send(msg)
	return err
}

// StopMotor stops the selected outputs, braking or coasting.
func (b *Brick) StopMotor(ports OutputPort, brake bool) error {
	brakeArg := int32(0)
	if brake {
		brakeArg = 1
	}
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpOutputStop,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(ports)),
		protocol.Const(brakeArg))
	_, err := b.send(msg)
	return err
}

// StepSpeed runs the selected outputs through a ramp-up/constant/
// ramp-down profile measured in tacho counts, then brakes or coasts.
func (b *Brick) StepSpeed(ports OutputPort, speed int8, rampUp, constant, rampDown int32, brake bool) error {
	brakeArg := int32(0)
	if brake {
		brakeArg = 1
	}
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpOutputStepSpeed,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(ports)),
		protocol.Int8(speed),
		protocol.Int32(rampUp),
		protocol.Int32(constant),
		protocol.Int32(rampDown),
		protocol.Const(brakeArg))
	_, err := b.send(msg)
	return err
}

// ClearTacho resets the tacho counter on the selected outputs.
func (b *Brick) ClearTacho(ports OutputPort) error {
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpOutputClrCount,
		protocol.Const(int32(b.Layer)),
		protocol.Const(int32(ports)))
	_, err := b.send(msg)
	return err
}

// Tacho reads the tacho counter of a single output, in degrees. The
// count goes negative when the motor runs in reverse.
func (b *Brick) Tacho(port OutputPort) (int32, error) {
	no, err := portIndex(port)
	if err != nil {
		return 0, err
	}

	msg := protocol.NewDirect(b.nextSeq(), 4, 0, true)
	msg.AddOpcode(protocol.OpOutputGetCount,
		protocol.Const(int32(b.Layer)),
		protocol.Const(no),
		protocol.GlobalVar(0))

	reply, err := b.send(msg)
	if err != nil {
		return 0, fmt.Errorf("read tacho: %w", err)
	}
	return reply.Int32At(0)
}
