package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Reply is a decoded incoming buffer.
//
// Reply wire format:
//
//	[LEN_LO][LEN_HI][SEQ_LO][SEQ_HI][TYPE][payload...]
//
// Payload semantics are defined by the opcode that requested the reply;
// the decoder exposes the raw bytes plus width-checked accessors so each
// call site picks the accessor matching the opcode it issued.
type Reply struct {
	// Seq is the sequence id correlating this reply to its request
	Seq uint16

	// Type is the raw reply type byte (ReplyDirect or ReplySystem)
	Type byte

	// Payload is everything after the fixed header
	Payload []byte
}

// Decode parses a reply buffer and validates it against the sequence id
// of the in-flight request.
//
// Failure modes:
//   - TruncatedError: fewer bytes than the header or length prefix require
//   - SequenceMismatchError: reply correlates to a different request
//   - DeviceError: the brick reported status=Error for the exchange
func Decode(buf []byte, expectedSeq uint16) (*Reply, error) {
	if len(buf) < ReplyHeaderLen {
		return nil, &TruncatedError{Need: ReplyHeaderLen, Got: len(buf)}
	}

	declared := int(binary.LittleEndian.Uint16(buf[0:2]))
	if 2+declared > len(buf) {
		return nil, &TruncatedError{Need: 2 + declared, Got: len(buf)}
	}
	// Ignore trailing garbage past the declared length (USB reads pad
	// to the endpoint size).
	buf = buf[:2+declared]

	seq := binary.LittleEndian.Uint16(buf[2:4])
	if seq != expectedSeq {
		return nil, &SequenceMismatchError{Want: expectedSeq, Got: seq}
	}

	replyType := buf[4]
	payload := buf[ReplyHeaderLen:]

	switch replyType {
	case ReplyDirect, ReplySystem:
		return &Reply{Seq: seq, Type: replyType, Payload: payload}, nil
	case ReplyDirectError:
		return nil, &DeviceError{ReplyType: replyType}
	case ReplySystemError:
		devErr := &DeviceError{ReplyType: replyType}
		// System error payload: [SYSCMD][RC]
		if len(payload) >= 2 {
			devErr.Code = payload[1]
		}
		return nil, devErr
	default:
		return nil, fmt.Errorf("unknown reply type 0x%02X", replyType)
	}
}

// System unwraps a system reply payload: [SYSCMD][RC][data...]. It
// validates the echoed sub-command and returns the device return code
// alongside the remaining data. A non-success return code is the
// caller's to judge; SysRCEndOfFile in particular is the normal final
// state of a chunked upload.
func (r *Reply) System(wantCmd byte) (data []byte, rc byte, err error) {
	if len(r.Payload) < 2 {
		return nil, 0, &TruncatedError{Need: 2, Got: len(r.Payload)}
	}
	if r.Payload[0] != wantCmd {
		return nil, 0, fmt.Errorf("system reply echoes command 0x%02X, expected 0x%02X",
			r.Payload[0], wantCmd)
	}
	return r.Payload[2:], r.Payload[1], nil
}

// Float32At reinterprets 4 payload bytes at off as a little-endian
// IEEE-754 float. SI sensor readings and the battery voltage use this.
func (r *Reply) Float32At(off int) (float32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r.Payload[off : off+4])), nil
}

// Uint32At reinterprets 4 payload bytes at off as a little-endian u32.
func (r *Reply) Uint32At(off int) (uint32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.Payload[off : off+4]), nil
}

// Int32At reinterprets 4 payload bytes at off as a little-endian i32.
// Tachometer counts use this; they go negative in reverse.
func (r *Reply) Int32At(off int) (int32, error) {
	v, err := r.Uint32At(off)
	return int32(v), err
}

// Uint8At returns the payload byte at off. Percentage readings use this.
func (r *Reply) Uint8At(off int) (uint8, error) {
	if err := r.check(off, 1); err != nil {
		return 0, err
	}
	return r.Payload[off], nil
}

// StringAt returns the payload from off up to the first null byte, with
// trailing spaces trimmed. Device and brick names arrive padded.
func (r *Reply) StringAt(off int) (string, error) {
	if err := r.check(off, 1); err != nil {
		return "", err
	}
	s := r.Payload[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(string(s), " "), nil
}

// check rejects any access whose declared width runs past the payload.
// Decoding with the wrong width is an error, never a silent truncation.
func (r *Reply) check(off, width int) error {
	if off < 0 || off+width > len(r.Payload) {
		return &TruncatedError{Need: off + width, Got: len(r.Payload)}
	}
	return nil
}
