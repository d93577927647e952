package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirectHeader(t *testing.T) {
	tests := []struct {
		name        string
		seq         uint16
		global      uint16
		local       uint8
		expectReply bool
		want        []byte
	}{
		{
			name:        "reply expected, 4 global bytes",
			seq:         0x1234,
			global:      4,
			local:       0,
			expectReply: true,
			want:        []byte{0x05, 0x00, 0x34, 0x12, 0x00, 0x04, 0x00},
		},
		{
			name:        "no reply",
			seq:         1,
			global:      0,
			local:       0,
			expectReply: false,
			want:        []byte{0x05, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00},
		},
		{
			name:        "global count spills into high byte",
			seq:         1,
			global:      0x0234, // 564
			local:       0,
			expectReply: true,
			want:        []byte{0x05, 0x00, 0x01, 0x00, 0x00, 0x34, 0x02},
		},
		{
			name:        "locals pack into bits 10-15",
			seq:         1,
			global:      4,
			local:       2,
			expectReply: true,
			// packed = 4 | 2<<10 = 0x0804
			want: []byte{0x05, 0x00, 0x01, 0x00, 0x00, 0x04, 0x08},
		},
		{
			name:        "max global and local",
			seq:         1,
			global:      1023,
			local:       63,
			expectReply: true,
			want:        []byte{0x05, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewDirect(tt.seq, tt.global, tt.local, tt.expectReply)
			frame, err := msg.Finalize()
			require.NoError(t, err)
			assert.Equal(t, tt.want, frame)
		})
	}
}

func TestNewSystemHeader(t *testing.T) {
	msg := NewSystem(0x0007, SysDeleteFile, true)
	msg.AddCString("a")
	frame, err := msg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0x00, 0x07, 0x00, 0x01, 0x9C, 'a', 0x00}, frame)

	noReply := NewSystem(2, SysCreateDir, false)
	frame, err = noReply.Finalize()
	require.NoError(t, err)
	assert.Equal(t, byte(SystemNoReply), frame[4])
	assert.False(t, noReply.ExpectsReply())
}

func TestOperandEncoding(t *testing.T) {
	tests := []struct {
		name string
		op   Operand
		want []byte
	}{
		{name: "int8", op: Int8(-1), want: []byte{0x81, 0xFF}},
		{name: "int16", op: Int16(0x1234), want: []byte{0x82, 0x34, 0x12}},
		{name: "int32", op: Int32(0x12345678), want: []byte{0x83, 0x78, 0x56, 0x34, 0x12}},
		{name: "float one", op: Float32(1.0), want: []byte{0x83, 0x00, 0x00, 0x80, 0x3F}},
		{name: "const short positive", op: Const(5), want: []byte{0x05}},
		{name: "const short max", op: Const(31), want: []byte{0x1F}},
		{name: "const short negative", op: Const(-2), want: []byte{0x3E}},
		{name: "const needs one byte", op: Const(100), want: []byte{0x81, 0x64}},
		{name: "const needs two bytes", op: Const(1000), want: []byte{0x82, 0xE8, 0x03}},
		{name: "const needs four bytes", op: Const(100000), want: []byte{0x83, 0xA0, 0x86, 0x01, 0x00}},
		{name: "string", op: String("ab"), want: []byte{0x84, 'a', 'b', 0x00}},
		{name: "global var short", op: GlobalVar(0), want: []byte{0x60}},
		{name: "global var short max", op: GlobalVar(31), want: []byte{0x7F}},
		{name: "global var one byte", op: GlobalVar(40), want: []byte{0xE1, 0x28}},
		{name: "global var two bytes", op: GlobalVar(300), want: []byte{0xE2, 0x2C, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op(nil))
		})
	}
}

func TestAddOpcodePreservesOrder(t *testing.T) {
	msg := NewDirect(1, 0, 0, false)
	msg.AddOpcode(0x94, Const(1), Int8(2), Int16(440), Int16(1000))
	frame, err := msg.Finalize()
	require.NoError(t, err)

	want := []byte{
		0x94,             // opcode
		0x01,             // short const 1
		0x81, 0x02,       // int8 2
		0x82, 0xB8, 0x01, // int16 440
		0x82, 0xE8, 0x03, // int16 1000
	}
	assert.Equal(t, want, frame[7:])
}

func TestFinalizeIdempotent(t *testing.T) {
	msg := NewDirect(42, 4, 0, true)
	msg.AddOpcode(0x81, Const(1), GlobalVar(0))

	first, err := msg.Finalize()
	require.NoError(t, err)
	second, err := msg.Finalize()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "Finalize must be idempotent")
}

func TestFinalizeOverflowBoundary(t *testing.T) {
	// Direct header contributes 5 counted bytes (seq+type+GL), so a
	// body of MaxMessageLen-5 bytes puts the length field at exactly
	// 0xFFFF.
	atLimit := NewDirect(1, 0, 0, false)
	atLimit.AddRaw(make([]byte, MaxMessageLen-5)...)
	frame, err := atLimit.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF}, frame[0:2])
	assert.Len(t, frame, MaxMessageLen+2)

	over := NewDirect(1, 0, 0, false)
	over.AddRaw(make([]byte, MaxMessageLen-4)...)
	_, err = over.Finalize()
	require.ErrorIs(t, err, ErrEncodingOverflow)
}

func TestFinalizeRejectsScratchOverflow(t *testing.T) {
	_, err := NewDirect(1, MaxGlobalBytes+1, 0, true).Finalize()
	require.Error(t, err)

	_, err = NewDirect(1, 0, MaxLocalBytes+1, true).Finalize()
	require.Error(t, err)
}

func TestSystemArgumentEncoding(t *testing.T) {
	msg := NewSystem(9, SysBeginDownload, true)
	msg.AddUint32(0x11223344)
	msg.AddCString("../prjs/x.rbf")
	frame, err := msg.Finalize()
	require.NoError(t, err)

	body := frame[6:]
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, body[0:4])
	assert.Equal(t, byte(0), body[len(body)-1], "path must be null-terminated")
	assert.Equal(t, "../prjs/x.rbf", string(body[4:len(body)-1]))
}
