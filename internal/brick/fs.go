package brick

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/vitaminmoo/ev3-tool/internal/protocol"
)

// handleSettleDelay is how long the brick needs to register a transfer
// handle after the begin reply before it will accept the continue
// request. Racing the two requests corrupts the transfer. This is a
// timing contract of the device, not a protocol field.
var handleSettleDelay = 250 * time.Millisecond

// DefaultChunkSize is the per-round payload budget requested from the
// brick for downloads and listings, leaving room for the reply header
// and handle fields within the 16-bit frame length.
const DefaultChunkSize = 65000

// Progress reports transfer progress to an optional callback.
type Progress struct {
	// Done is the number of payload bytes moved so far
	Done int

	// Total is the complete transfer size in bytes
	Total int
}

// ProgressFunc receives transfer progress. It must return quickly; it
// runs between protocol round trips.
type ProgressFunc func(Progress)

func report(fn ProgressFunc, done, total int) {
	if fn != nil {
		fn(Progress{Done: done, Total: total})
	}
}

// UploadFile writes data to remotePath on the brick, creating or
// replacing the file. The exchange is BEGIN_DOWNLOAD (declaring the
// exact total size and obtaining a handle) followed by
// CONTINUE_DOWNLOAD carrying the content under that handle. A declared
// size that does not match the bytes sent is undefined on the device
// and surfaces as a device error.
//
// A failure mid-sequence leaves no client-recoverable state; rerun the
// whole upload.
func (b *Brick) UploadFile(remotePath string, data []byte, onProgress ProgressFunc) error {
	report(onProgress, 0, len(data))

	begin := protocol.NewSystem(b.nextSeq(), protocol.SysBeginDownload, true)
	begin.AddUint32(uint32(len(data)))
	begin.AddCString(remotePath)

	payload, _, err := b.sendSystem(begin, protocol.SysBeginDownload, protocol.SysRCSuccess)
	if err != nil {
		return fmt.Errorf("begin upload of %s: %w", remotePath, err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("begin upload of %s: reply carries no handle", remotePath)
	}
	// The trailing payload byte is the continuation handle, valid for
	// this transfer only.
	handle := payload[len(payload)-1]

	time.Sleep(handleSettleDelay)

	cont := protocol.NewSystem(b.nextSeq(), protocol.SysContinueDownload, true)
	cont.AddRaw(handle)
	cont.AddRaw(data...)

	_, _, err = b.sendSystem(cont, protocol.SysContinueDownload,
		protocol.SysRCSuccess, protocol.SysRCEndOfFile)
	if err != nil {
		return fmt.Errorf("send content of %s: %w", remotePath, err)
	}

	report(onProgress, len(data), len(data))
	return nil
}

// DownloadFile reads remotePath from the brick. The BEGIN_UPLOAD reply
// carries the file size, the handle, and the first chunk; files larger
// than one chunk are fetched with CONTINUE_UPLOAD rounds threading the
// same handle.
//
// Multi-chunk continuation follows the same handle pattern as uploads
// but has not been verified against real hardware beyond the
// single-chunk path; keep chunk sizes at DefaultChunkSize unless
// testing that path deliberately.
func (b *Brick) DownloadFile(remotePath string, maxChunk uint16, onProgress ProgressFunc) ([]byte, error) {
	begin := protocol.NewSystem(b.nextSeq(), protocol.SysBeginUpload, true)
	begin.AddUint16(maxChunk)
	begin.AddCString(remotePath)

	payload, rc, err := b.sendSystem(begin, protocol.SysBeginUpload,
		protocol.SysRCSuccess, protocol.SysRCEndOfFile)
	if err != nil {
		return nil, fmt.Errorf("begin download of %s: %w", remotePath, err)
	}
	if len(payload) < 5 {
		return nil, fmt.Errorf("begin download of %s: reply too short for size and handle", remotePath)
	}

	total := binary.LittleEndian.Uint32(payload[0:4])
	handle := payload[4]
	content := append([]byte(nil), payload[5:]...)
	report(onProgress, len(content), int(total))

	for uint32(len(content)) < total && rc != protocol.SysRCEndOfFile {
		cont := protocol.NewSystem(b.nextSeq(), protocol.SysContinueUpload, true)
		cont.AddRaw(handle)
		cont.AddUint16(maxChunk)

		var chunk []byte
		chunk, rc, err = b.sendSystem(cont, protocol.SysContinueUpload,
			protocol.SysRCSuccess, protocol.SysRCEndOfFile)
		if err != nil {
			return nil, fmt.Errorf("continue download of %s at %d bytes: %w",
				remotePath, len(content), err)
		}
		if len(chunk) < 1 {
			return nil, fmt.Errorf("continue download of %s: reply carries no handle", remotePath)
		}
		// Continue replies echo the handle ahead of the data.
		content = append(content, chunk[1:]...)
		report(onProgress, len(content), int(total))
	}

	if uint32(len(content)) != total {
		return nil, fmt.Errorf("download of %s ended early: got %d of %d bytes",
			remotePath, len(content), total)
	}
	return content, nil
}

// ListFiles lists the directory at remotePath. Paths are relative to
// the brick's fixed root directory.
func (b *Brick) ListFiles(remotePath string) ([]protocol.Entry, error) {
	msg := protocol.NewSystem(b.nextSeq(), protocol.SysListFiles, true)
	msg.AddUint16(DefaultChunkSize)
	msg.AddCString(remotePath)

	payload, _, err := b.sendSystem(msg, protocol.SysListFiles,
		protocol.SysRCSuccess, protocol.SysRCEndOfFile)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", remotePath, err)
	}
	if len(payload) < 5 {
		return nil, fmt.Errorf("list %s: reply too short for size and handle", remotePath)
	}

	// Same size/handle framing as BEGIN_UPLOAD, then the listing text.
	size := binary.LittleEndian.Uint32(payload[0:4])
	text := payload[5:]
	if uint32(len(text)) > size {
		text = text[:size]
	}

	entries, err := protocol.ParseListing(string(text))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", remotePath, err)
	}
	return entries, nil
}

// CreateDir creates a directory on the brick.
func (b *Brick) CreateDir(remotePath string) error {
	msg := protocol.NewSystem(b.nextSeq(), protocol.SysCreateDir, true)
	msg.AddCString(remotePath)

	_, _, err := b.sendSystem(msg, protocol.SysCreateDir, protocol.SysRCSuccess)
	if err != nil {
		return fmt.Errorf("create dir %s: %w", remotePath, err)
	}
	return nil
}

// DeleteFile deletes a file on the brick.
func (b *Brick) DeleteFile(remotePath string) error {
	msg := protocol.NewSystem(b.nextSeq(), protocol.SysDeleteFile, true)
	msg.AddCString(remotePath)

	_, _, err := b.sendSystem(msg, protocol.SysDeleteFile, protocol.SysRCSuccess)
	if err != nil {
		return fmt.Errorf("delete %s: %w", remotePath, err)
	}
	return nil
}
