package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one item of a brick directory listing.
type Entry struct {
	// Name is the file or directory name, without any trailing slash
	Name string

	// Size is the file size in bytes; zero for directories
	Size uint32

	// Hash is the 32-hex-character MD5 of the file content; empty for
	// directories
	Hash string

	// Dir marks a directory entry
	Dir bool
}

// ParseListing parses the newline-delimited text a LIST_FILES reply
// carries. Each file line is
//
//	<32-hex content hash><space><8-hex size><space><name>
//
// and each directory line is <name>/.
func ParseListing(text string) ([]Entry, error) {
	var entries []Entry
	for i, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, "/") {
			entries = append(entries, Entry{
				Name: strings.TrimSuffix(line, "/"),
				Dir:  true,
			})
			continue
		}

		// 32 hash + 1 space + 8 size + 1 space + at least 1 name byte
		if len(line) < 43 || line[32] != ' ' || line[41] != ' ' {
			return nil, fmt.Errorf("malformed listing line %d: %q", i+1, line)
		}
		size, err := strconv.ParseUint(line[33:41], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed size on listing line %d: %q", i+1, line)
		}
		entries = append(entries, Entry{
			Name: line[42:],
			Size: uint32(size),
			Hash: strings.ToLower(line[:32]),
		})
	}
	return entries, nil
}
