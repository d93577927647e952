package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Message is an outgoing request under construction. Build one with
// NewDirect or NewSystem, append the body with the Add* methods, then
// call Finalize to obtain the wire bytes.
//
// Request wire format:
//
//	Direct: [LEN_LO][LEN_HI][SEQ_LO][SEQ_HI][TYPE][GL_LO][GL_HI][opcodes...]
//	System: [LEN_LO][LEN_HI][SEQ_LO][SEQ_HI][TYPE][SYSCMD][args...]
//
// The length prefix is little-endian and counts everything after its
// own two bytes. The packed GL field carries the global scratch byte
// count in bits 0-9 and the local count in bits 10-15.
type Message struct {
	seq         uint16
	cmdType     byte
	sysCmd      byte
	globalBytes uint16
	localBytes  uint8
	body        []byte
}

// Operand serializes one tag-prefixed operand into a direct command
// body. Operands are appended in call order; each is self-describing so
// the brick-side VM can parse the stream without an external schema.
type Operand func(buf []byte) []byte

// NewDirect creates a direct command. globalBytes and localBytes
// reserve VM scratch space for the command's return values; a command
// expecting a reply reserves exactly the global bytes of its return
// width.
func NewDirect(seq uint16, globalBytes uint16, localBytes uint8, expectReply bool) *Message {
	cmdType := byte(DirectReply)
	if !expectReply {
		cmdType = DirectNoReply
	}
	return &Message{
		seq:         seq,
		cmdType:     cmdType,
		globalBytes: globalBytes,
		localBytes:  localBytes,
	}
}

// NewSystem creates a system command carrying the given sub-command.
func NewSystem(seq uint16, sysCmd byte, expectReply bool) *Message {
	cmdType := byte(SystemReply)
	if !expectReply {
		cmdType = SystemNoReply
	}
	return &Message{
		seq:     seq,
		cmdType: cmdType,
		sysCmd:  sysCmd,
	}
}

// Sequence returns the message's sequence id.
func (m *Message) Sequence() uint16 {
	return m.seq
}

// ExpectsReply reports whether the brick will answer this message.
// Callers must not wait for a reply when this is false.
func (m *Message) ExpectsReply() bool {
	return m.cmdType&0x80 == 0
}

// AddOpcode appends one opcode and its operands to a direct command
// body. Returns the message for chaining.
func (m *Message) AddOpcode(code byte, operands ...Operand) *Message {
	m.body = append(m.body, code)
	for _, op := range operands {
		m.body = op(m.body)
	}
	return m
}

// AddRaw appends raw bytes to the body. System command arguments are
// not tag-prefixed; they use fixed layouts per sub-command.
func (m *Message) AddRaw(b ...byte) *Message {
	m.body = append(m.body, b...)
	return m
}

// AddUint16 appends a little-endian u16 system argument.
func (m *Message) AddUint16(v uint16) *Message {
	m.body = binary.LittleEndian.AppendUint16(m.body, v)
	return m
}

// AddUint32 appends a little-endian u32 system argument.
func (m *Message) AddUint32(v uint32) *Message {
	m.body = binary.LittleEndian.AppendUint32(m.body, v)
	return m
}

// AddCString appends a null-terminated string system argument.
func (m *Message) AddCString(s string) *Message {
	m.body = append(m.body, s...)
	m.body = append(m.body, 0)
	return m
}

// Finalize encodes the message and prepends the computed length prefix.
// It does not consume the message: calling it twice yields byte-identical
// output. Fails with ErrEncodingOverflow when the length field would
// exceed MaxMessageLen, and rejects scratch space requests beyond the
// packed field's capacity.
func (m *Message) Finalize() ([]byte, error) {
	if m.globalBytes > MaxGlobalBytes || m.localBytes > MaxLocalBytes {
		return nil, &scratchRangeError{global: m.globalBytes, local: m.localBytes}
	}

	// SEQ(2) + TYPE(1) + per-kind header + body
	counted := 3 + len(m.body)
	if m.cmdType == DirectReply || m.cmdType == DirectNoReply {
		counted += 2 // packed GL field
	} else {
		counted += 1 // system sub-command
	}
	if counted > MaxMessageLen {
		return nil, ErrEncodingOverflow
	}

	out := make([]byte, 0, 2+counted)
	out = binary.LittleEndian.AppendUint16(out, uint16(counted))
	out = binary.LittleEndian.AppendUint16(out, m.seq)
	out = append(out, m.cmdType)
	if m.cmdType == DirectReply || m.cmdType == DirectNoReply {
		packed := m.globalBytes | uint16(m.localBytes)<<10
		out = binary.LittleEndian.AppendUint16(out, packed)
	} else {
		out = append(out, m.sysCmd)
	}
	out = append(out, m.body...)
	return out, nil
}

type scratchRangeError struct {
	global uint16
	local  uint8
}

func (e *scratchRangeError) Error() string {
	return fmt.Sprintf("scratch space out of range: global %d (max %d), local %d (max %d)",
		e.global, MaxGlobalBytes, e.local, MaxLocalBytes)
}

// Int8 encodes an immediate signed 8-bit operand.
func Int8(v int8) Operand {
	return func(buf []byte) []byte {
		return append(buf, TagInt8, byte(v))
	}
}

// Int16 encodes an immediate signed 16-bit operand, little-endian.
func Int16(v int16) Operand {
	return func(buf []byte) []byte {
		buf = append(buf, TagInt16)
		return binary.LittleEndian.AppendUint16(buf, uint16(v))
	}
}

// Int32 encodes an immediate signed 32-bit operand, little-endian.
func Int32(v int32) Operand {
	return func(buf []byte) []byte {
		buf = append(buf, TagInt32)
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	}
}

// Float32 encodes an immediate IEEE-754 float operand. The wire form is
// the 32-bit tag carrying the float's bit pattern, little-endian.
func Float32(v float32) Operand {
	return func(buf []byte) []byte {
		buf = append(buf, TagInt32)
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
}

// Const encodes an immediate integer in its smallest form: the
// single-byte short form for -32..31, otherwise the narrowest tagged
// width that holds the value.
func Const(v int32) Operand {
	switch {
	case v >= -32 && v <= 31:
		return func(buf []byte) []byte {
			return append(buf, byte(v)&0x3F)
		}
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return Int8(int8(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return Int16(int16(v))
	default:
		return Int32(v)
	}
}

// String encodes a literal null-terminated string operand.
func String(s string) Operand {
	return func(buf []byte) []byte {
		buf = append(buf, TagString)
		buf = append(buf, s...)
		return append(buf, 0)
	}
}

// GlobalVar encodes a global variable index operand. Return values of a
// direct command land at these offsets in the reply payload.
func GlobalVar(index uint16) Operand {
	switch {
	case index < 32:
		return func(buf []byte) []byte {
			return append(buf, globalVarShort|byte(index))
		}
	case index < 256:
		return func(buf []byte) []byte {
			return append(buf, TagGlobalVar1, byte(index))
		}
	default:
		return func(buf []byte) []byte {
			buf = append(buf, TagGlobalVar2)
			return binary.LittleEndian.AppendUint16(buf, index)
		}
	}
}
