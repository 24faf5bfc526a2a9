package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Frame lengths in bytes that identify the role of a frame.
const (
	TimestampFrameLen  = 12
	PowerFrameLen      = 16
	PowerFrameLongLen  = 20
	BatteryFrameLen    = 2
	FrameRoleTimestamp = "timestamp"
	FrameRolePower     = "power"
	FrameRoleBattery   = "battery"
)

// Frame is one line of the gateway dump: an ordered sequence of bytes,
// each transmitted as a hex token.
type Frame struct {
	// Bytes holds the decoded byte tokens in line order.
	Bytes []byte

	// Malformed is set when the line held a token that is not a hex byte.
	// A malformed frame never matches a triple.
	Malformed bool
}

// Len returns the number of byte tokens in the frame.
// Malformed frames report -1 so they fail every length check.
func (f Frame) Len() int {
	if f.Malformed {
		return -1
	}
	return len(f.Bytes)
}

// String renders the frame the way the gateway prints it.
func (f Frame) String() string {
	if f.Malformed {
		return "<malformed>"
	}
	parts := make([]string, len(f.Bytes))
	for i, b := range f.Bytes {
		parts[i] = fmt.Sprintf("%X", b)
	}
	return strings.Join(parts, " ")
}

// ParseToken decodes a single hex byte token. The gateway prints bytes
// without zero padding, so one-digit tokens are accepted.
func ParseToken(tok string) (byte, error) {
	switch len(tok) {
	case 1:
		tok = "0" + tok
	case 2:
	default:
		return 0, fmt.Errorf("%w: %q", ErrFraming, tok)
	}
	var b [1]byte
	if _, err := hex.Decode(b[:], []byte(tok)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrFraming, tok)
	}
	return b[0], nil
}

// ParseTokens decodes a list of hex byte tokens.
func ParseTokens(tokens []string) ([]byte, error) {
	out := make([]byte, len(tokens))
	for i, tok := range tokens {
		b, err := ParseToken(tok)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// ParseFrame splits a line into whitespace-separated tokens and decodes them.
// On error the returned frame is marked malformed.
func ParseFrame(line string) (Frame, error) {
	b, err := ParseTokens(strings.Fields(line))
	if err != nil {
		return Frame{Malformed: true}, err
	}
	return Frame{Bytes: b}, nil
}
