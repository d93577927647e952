package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reply builds a synthetic reply frame around the given payload.
func reply(seq uint16, replyType byte, payload []byte) []byte {
	frame := []byte{0, 0, byte(seq), byte(seq >> 8), replyType}
	frame = append(frame, payload...)
	counted := len(frame) - 2
	frame[0] = byte(counted)
	frame[1] = byte(counted >> 8)
	return frame
}

func TestDecodeRecoversSequence(t *testing.T) {
	for _, seq := range []uint16{0, 1, 0x1234, 0xFFFF} {
		r, err := Decode(reply(seq, ReplyDirect, nil), seq)
		require.NoError(t, err)
		assert.Equal(t, seq, r.Seq)
	}
}

func TestDecodeSequenceMismatch(t *testing.T) {
	_, err := Decode(reply(7, ReplyDirect, []byte{0xAA}), 8)
	var mismatch *SequenceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint16(8), mismatch.Want)
	assert.Equal(t, uint16(7), mismatch.Got)
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "empty", buf: nil},
		{name: "short header", buf: []byte{0x01, 0x00, 0x01}},
		{name: "declared length exceeds buffer", buf: []byte{0x09, 0x00, 0x01, 0x00, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf, 1)
			var trunc *TruncatedError
			require.ErrorAs(t, err, &trunc)
		})
	}
}

func TestDecodeTrailingPaddingIgnored(t *testing.T) {
	// USB reads come back padded to the endpoint size; bytes past the
	// declared length must not leak into the payload.
	frame := reply(3, ReplyDirect, []byte{0x2A})
	frame = append(frame, make([]byte, 16)...)
	r, err := Decode(frame, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2A}, r.Payload)
}

func TestDecodeDeviceError(t *testing.T) {
	_, err := Decode(reply(1, ReplyDirectError, nil), 1)
	require.True(t, IsDeviceError(err))

	_, err = Decode(reply(1, ReplySystemError, []byte{SysBeginDownload, SysRCIllegalPath}), 1)
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, byte(SysRCIllegalPath), devErr.Code)
	assert.Contains(t, devErr.Error(), "illegal path")
}

func TestDecodeUnknownReplyType(t *testing.T) {
	_, err := Decode(reply(1, 0x42, nil), 1)
	require.Error(t, err)
	assert.False(t, IsDeviceError(err))
}

func TestFloat32Accessor(t *testing.T) {
	r, err := Decode(reply(5, ReplyDirect, []byte{0x00, 0x00, 0x80, 0x3F}), 5)
	require.NoError(t, err)

	v, err := r.Float32At(0)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), v)
}

func TestAccessorWidthChecks(t *testing.T) {
	r, err := Decode(reply(1, ReplyDirect, []byte{0x01, 0x02}), 1)
	require.NoError(t, err)

	var trunc *TruncatedError

	_, err = r.Float32At(0)
	assert.ErrorAs(t, err, &trunc)
	_, err = r.Uint32At(0)
	assert.ErrorAs(t, err, &trunc)
	_, err = r.Uint8At(2)
	assert.ErrorAs(t, err, &trunc)
	_, err = r.Uint8At(-1)
	assert.ErrorAs(t, err, &trunc)

	b, err := r.Uint8At(1)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), b)
}

func TestIntegerAccessors(t *testing.T) {
	r, err := Decode(reply(1, ReplyDirect, []byte{0xFF, 0xFF, 0xFF, 0xFF}), 1)
	require.NoError(t, err)

	u, err := r.Uint32At(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), u)

	i, err := r.Int32At(0)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i)
}

func TestStringAccessor(t *testing.T) {
	r, err := Decode(reply(1, ReplyDirect, []byte{'E', 'V', '3', ' ', ' ', 0x00, 0xAA}), 1)
	require.NoError(t, err)

	s, err := r.StringAt(0)
	require.NoError(t, err)
	assert.Equal(t, "EV3", s)
}

func TestSystemUnwrap(t *testing.T) {
	r, err := Decode(reply(1, ReplySystem, []byte{SysBeginDownload, SysRCSuccess, 0x05}), 1)
	require.NoError(t, err)

	data, rc, err := r.System(SysBeginDownload)
	require.NoError(t, err)
	assert.Equal(t, byte(SysRCSuccess), rc)
	assert.Equal(t, []byte{0x05}, data)

	_, _, err = r.System(SysBeginUpload)
	require.Error(t, err, "echoed command must match")

	short, err := Decode(reply(1, ReplySystem, []byte{SysBeginDownload}), 1)
	require.NoError(t, err)
	_, _, err = short.System(SysBeginDownload)
	var trunc *TruncatedError
	require.ErrorAs(t, err, &trunc)
}

func TestEncodeDecodeSequenceRoundTrip(t *testing.T) {
	// A request's sequence id must survive a synthetic echo reply.
	msg := NewDirect(0xBEEF, 4, 0, true)
	msg.AddOpcode(0x81, Const(1), GlobalVar(0))
	frame, err := msg.Finalize()
	require.NoError(t, err)

	echo := reply(uint16(frame[2])|uint16(frame[3])<<8, ReplyDirect, []byte{0, 0, 0, 0})
	r, err := Decode(echo, msg.Sequence())
	require.NoError(t, err)
	assert.Equal(t, msg.Sequence(), r.Seq)
}
