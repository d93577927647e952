package brick

import (
	"github.com/vitaminmoo/ev3-tool/internal/protocol"
)

// PlayTone plays a tone at the given volume (0..100), frequency in Hz
// and duration in milliseconds. Returns as soon as the command is on
// the wire; playback continues on the brick.
func (b *Brick) PlayTone(volume uint8, frequency uint16, durationMs uint16) error {
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpSound,
		protocol.Const(protocol.SoundTone),
		protocol.Const(int32(volume)),
		protocol.Int16(int16(frequency)),
		protocol.Int16(int16(durationMs)))
	_, err := b.send(msg)
	return err
}

// StopSound interrupts any running playback.
func (b *Brick) StopSound() error {
	msg := protocol.NewDirect(b.nextSeq(), 0, 0, false)
	msg.AddOpcode(protocol.OpSound, protocol.Const(protocol.SoundBreak))
	_, err := b.send(msg)
	return err
}
