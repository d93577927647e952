// Package protocol implements the brick's binary command/reply wire
// format: length-prefixed request framing, tag-prefixed operand
// encoding for direct commands, system command argument layouts, reply
// decoding with caller-directed numeric reinterpretation, and the
// directory listing text format.
//
// The package is pure byte manipulation with no transport knowledge, so
// it can be exercised against synthetic fixtures and reused for static
// byte-code emission as well as live command dispatch.
package protocol
