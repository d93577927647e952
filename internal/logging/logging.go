// Package logging configures the process-wide logger and provides the
// wire-traffic hex dump helper used at debug level.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the process logger. Commands write human output to stdout;
// diagnostics go here, to stderr.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	Level(zerolog.InfoLevel).
	With().Timestamp().Logger()

// Setup raises the level to debug when verbose is set.
func Setup(verbose bool) {
	if verbose {
		Log = Log.Level(zerolog.DebugLevel)
	}
}

// DumpWire logs a labeled hex dump of wire traffic at debug level.
func DumpWire(label string, data []byte) {
	if Log.GetLevel() > zerolog.DebugLevel {
		return
	}
	Log.Debug().Int("bytes", len(data)).Msg(label + "\n" + HexDump(data))
}

// HexDump renders data in the classic 16-bytes-per-line format with an
// ASCII column.
func HexDump(data []byte) string {
	var sb strings.Builder
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(&sb, "%04x  ", i)

		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Fprintf(&sb, "%02x ", data[i+j])
			} else {
				sb.WriteString("   ")
			}
			if j == 7 {
				sb.WriteByte(' ')
			}
		}

		sb.WriteString(" |")
		for j := 0; j < 16 && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
