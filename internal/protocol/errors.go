package protocol

import (
	"errors"
	"fmt"
)

// ErrEncodingOverflow is returned by Finalize when the encoded message
// would not fit the 16-bit length field. This is a caller error and is
// never worth retrying.
var ErrEncodingOverflow = errors.New("encoded message exceeds 16-bit length field")

// TruncatedError indicates a reply buffer shorter than the header or the
// caller-declared payload width requires.
type TruncatedError struct {
	Need int
	Got  int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("reply truncated: need %d bytes, got %d", e.Need, e.Got)
}

// SequenceMismatchError indicates a reply that correlates to a different
// request than the one in flight. The call can be retried with a fresh
// sequence id.
type SequenceMismatchError struct {
	Want uint16
	Got  uint16
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("sequence mismatch: expected %d, reply carries %d", e.Want, e.Got)
}

// DeviceError indicates the brick reported a failure for an otherwise
// well-formed exchange. It is a normal failure result, not a protocol
// error, and is never retried automatically because the device-side
// cause is unknown.
type DeviceError struct {
	// ReplyType is the raw reply type byte (ReplyDirectError or ReplySystemError)
	ReplyType byte

	// Code is the system return code when the failing command was a
	// system command, zero otherwise.
	Code byte
}

func (e *DeviceError) Error() string {
	if e.ReplyType == ReplySystemError || e.Code != 0 {
		return fmt.Sprintf("brick reported error: %s (0x%02X)", sysReturnName(e.Code), e.Code)
	}
	return "brick reported error for direct command"
}

// IsDeviceError returns true if the error chain contains a DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// sysReturnName returns a human-readable name for a system return code.
func sysReturnName(code byte) string {
	switch code {
	case SysRCSuccess:
		return "success"
	case SysRCUnknownHandle:
		return "unknown handle"
	case SysRCHandleNotReady:
		return "handle not ready"
	case SysRCCorruptFile:
		return "corrupt file"
	case SysRCNoHandles:
		return "no handles available"
	case SysRCNoPermission:
		return "no permission"
	case SysRCIllegalPath:
		return "illegal path"
	case SysRCFileExists:
		return "file exists"
	case SysRCEndOfFile:
		return "end of file"
	case SysRCSizeError:
		return "size error"
	case SysRCUnknownError:
		return "unknown error"
	case SysRCIllegalFilename:
		return "illegal filename"
	case SysRCIllegalConnection:
		return "illegal connection"
	default:
		return fmt.Sprintf("unknown return code 0x%02X", code)
	}
}
