package protocol

// Command type byte, fifth byte of every request.
// Bit 7 set means the brick must not send a reply.
const (
	DirectReply   = 0x00
	DirectNoReply = 0x80
	SystemReply   = 0x01
	SystemNoReply = 0x81
)

// Reply type byte, fifth byte of every reply.
const (
	// ReplyDirect is a successful direct command reply
	ReplyDirect = 0x02

	// ReplySystem is a successful system command reply
	ReplySystem = 0x03

	// ReplyDirectError is a failed direct command reply
	ReplyDirectError = 0x04

	// ReplySystemError is a failed system command reply
	ReplySystemError = 0x05
)

// Operand tag bytes. Every operand in a direct command body is
// self-describing: a tag byte followed by the value in the tag's width.
// Values in -32..31 may instead use the single-byte short form (value
// masked to the low 6 bits, bit 7 clear).
const (
	// TagInt8 prefixes an immediate signed 8-bit value
	TagInt8 = 0x81

	// TagInt16 prefixes an immediate signed 16-bit value, little-endian
	TagInt16 = 0x82

	// TagInt32 prefixes an immediate 32-bit value, little-endian.
	// Also carries IEEE-754 float32 bit patterns; the VM interprets
	// the 4 bytes according to the parameter it is consuming.
	TagInt32 = 0x83

	// TagString prefixes a null-terminated byte string
	TagString = 0x84

	// TagGlobalVar1 prefixes a global variable index as one byte.
	// Indexes below 32 use the short form 0x60|index instead.
	TagGlobalVar1 = 0xE1

	// TagGlobalVar2 prefixes a global variable index as two bytes, little-endian
	TagGlobalVar2 = 0xE2

	// globalVarShort is the base of the single-byte global variable form
	globalVarShort = 0x60
)

// Direct command opcodes used by the verb layer.
const (
	OpUIRead          = 0x81
	OpSound           = 0x94
	OpInputDevice     = 0x99
	OpInputRead       = 0x9A
	OpOutputStop      = 0xA3
	OpOutputPower     = 0xA4
	OpOutputSpeed     = 0xA5
	OpOutputStart     = 0xA6
	OpOutputStepSpeed = 0xAE
	OpOutputClrCount  = 0xB2
	OpOutputGetCount  = 0xB3
	OpComGet          = 0xD3
)

// Sub-commands for the opcodes above.
const (
	UIReadGetVbatt = 0x01
	UIReadGetLbatt = 0x12

	SoundBreak = 0x00
	SoundTone  = 0x01

	InputDeviceGetName = 0x15
	InputDeviceReadySI = 0x1D

	ComGetBrickname = 0x0D
)

// System command bytes. These live in a separate opcode space from
// direct commands and are handled by the brick's file services.
const (
	// SysBeginDownload starts a host-to-brick file transfer
	SysBeginDownload = 0x92

	// SysContinueDownload sends file content for an open download handle
	SysContinueDownload = 0x93

	// SysBeginUpload starts a brick-to-host file transfer
	SysBeginUpload = 0x94

	// SysContinueUpload fetches the next chunk for an open upload handle
	SysContinueUpload = 0x95

	// SysListFiles requests a text listing of a directory
	SysListFiles = 0x99

	// SysCreateDir creates a directory on the brick
	SysCreateDir = 0x9B

	// SysDeleteFile deletes a file on the brick
	SysDeleteFile = 0x9C
)

// System reply return codes, second payload byte of a system reply.
const (
	SysRCSuccess           = 0x00
	SysRCUnknownHandle     = 0x01
	SysRCHandleNotReady    = 0x02
	SysRCCorruptFile       = 0x03
	SysRCNoHandles         = 0x04
	SysRCNoPermission      = 0x05
	SysRCIllegalPath       = 0x06
	SysRCFileExists        = 0x07
	SysRCEndOfFile         = 0x08
	SysRCSizeError         = 0x09
	SysRCUnknownError      = 0x0A
	SysRCIllegalFilename   = 0x0B
	SysRCIllegalConnection = 0x0C
)

// MaxMessageLen is the largest value the 16-bit length prefix can carry.
// The prefix counts everything after itself, never its own two bytes.
const MaxMessageLen = 0xFFFF

// ReplyHeaderLen is the fixed reply header size:
// LEN(2) + SEQ(2) + TYPE(1).
const ReplyHeaderLen = 5

// Variable scratch space limits for direct commands. The two counts are
// packed into one u16: globals in bits 0-9, locals in bits 10-15.
const (
	MaxGlobalBytes = 1023
	MaxLocalBytes  = 63
)
