package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the smlship domain.
// They are returned wrapped and can be checked with errors.Is.
var (
	// ErrFraming is returned when a byte token is not a valid hex byte.
	ErrFraming = errors.New("smlship: malformed byte token")

	// ErrStructuralMismatch marks a window whose frame lengths do not form a triple.
	// It is informational: no reading is produced for that cycle.
	ErrStructuralMismatch = errors.New("smlship: window is not a reading triple")

	// ErrFieldShortfall is returned when a frame holds fewer fields or value
	// bytes than a decoder requires.
	ErrFieldShortfall = errors.New("smlship: not enough fields in frame")

	// ErrTransportTimeout marks a fetch session that ended because the
	// gateway stopped sending. It is a normal terminal state.
	ErrTransportTimeout = errors.New("smlship: transport idle timeout")

	// ErrTransportIO is returned for any other transport failure.
	ErrTransportIO = errors.New("smlship: transport failure")

	// ErrNoData is returned when a run required data but received none.
	ErrNoData = errors.New("smlship: no data received")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("smlship: invalid configuration")
)

// DecodeError describes a failed semantic decode of one frame of a triple.
type DecodeError struct {
	// Role is the frame role that failed (timestamp, power, battery).
	Role string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Role, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
