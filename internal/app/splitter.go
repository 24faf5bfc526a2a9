package app

import (
	"bytes"
	"strings"
)

// eotMarker is appended by the gateway after the last record.
const eotMarker = "EOT"

// keepAlive is the filler byte the gateway interleaves with data.
const keepAlive = 0x05

// LineSplitter turns a sequence of chunks into complete lines.
// Text after the last newline is kept until the next chunk or Flush.
type LineSplitter struct {
	buf []byte
}

// Write appends a chunk and returns the lines it completed, in order.
// Blank lines and the EOT marker are dropped.
func (s *LineSplitter) Write(chunk []byte) []string {
	s.buf = append(s.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			break
		}
		if line, ok := cleanLine(s.buf[:i]); ok {
			lines = append(lines, line)
		}
		s.buf = s.buf[i+1:]
	}
	return lines
}

// Flush returns the unterminated remainder, if any, and clears the buffer.
func (s *LineSplitter) Flush() (string, bool) {
	rest := s.buf
	s.buf = nil
	return cleanLine(rest)
}

func cleanLine(b []byte) (string, bool) {
	line := strings.Map(func(r rune) rune {
		if r == '\r' || r == keepAlive {
			return -1
		}
		return r
	}, string(b))
	line = strings.TrimSpace(line)
	if line == "" || line == eotMarker {
		return "", false
	}
	return line, true
}
