package domain

import "fmt"

// Field locates one tag-length-value field inside a frame.
// Length counts the tag byte itself.
type Field struct {
	Offset int
	Length int
}

// Value returns the value bytes of the field (everything after the tag byte).
// It fails with ErrFieldShortfall when the declared length runs past the frame.
func (f Field) Value(frame []byte) ([]byte, error) {
	start := f.Offset + 1
	end := f.Offset + f.Length
	if end < start {
		// zero-length tags carry no value
		end = start
	}
	if f.Offset < 0 || end > len(frame) {
		return nil, fmt.Errorf("%w: field at %d declares %d bytes, frame has %d",
			ErrFieldShortfall, f.Offset, f.Length, len(frame))
	}
	return frame[start:end], nil
}
