package domain

import "time"

// Reading is one aligned meter sample built from a timestamp, power and battery frame.
// Readings are immutable once built.
type Reading struct {
	Timestamp time.Time
	EnergyWh  float64
	BatteryV  float64
}

// EndReason tells why a chunk stream terminated.
type EndReason int

const (
	// EndNone means the stream has not terminated.
	EndNone EndReason = iota
	// EndEOT means the gateway sent its end-of-transmission marker.
	EndEOT
	// EndTimeout means no data arrived within the idle timeout.
	EndTimeout
	// EndEOF means a finite source (file) was fully read.
	EndEOF
	// EndError means the transport failed.
	EndError
)

// String returns a human-readable representation of the end reason.
func (r EndReason) String() string {
	switch r {
	case EndNone:
		return "none"
	case EndEOT:
		return "eot"
	case EndTimeout:
		return "timeout"
	case EndEOF:
		return "eof"
	case EndError:
		return "error"
	default:
		return "unknown"
	}
}

// Summary counts what happened during one decode run.
type Summary struct {
	Bytes          int
	Chunks         int
	Frames         int
	FramingErrors  int
	Triples        int
	Emitted        int
	Skipped        int
	DecodeFailures int
	End            EndReason
}
