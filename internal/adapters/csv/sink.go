// Package csv writes decoded readings as comma-separated lines.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// TimeLayout is the timestamp format of the first column.
const TimeLayout = "2006-01-02T15:04:05"

// Sink implements ports.ReadingSink writing one record per reading:
// timestamp, energy in Wh, battery voltage.
type Sink struct {
	w      *csv.Writer
	closer io.Closer
	header bool
	wrote  bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithHeader writes a header row before the first reading.
func WithHeader() Option {
	return func(s *Sink) { s.header = true }
}

// WithCloser makes Close also close c, for sinks that own their file.
func WithCloser(c io.Closer) Option {
	return func(s *Sink) { s.closer = c }
}

// NewSink creates a CSV sink writing to w.
func NewSink(w io.Writer, opts ...Option) *Sink {
	s := &Sink{w: csv.NewWriter(w)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit writes one reading.
func (s *Sink) Emit(ctx context.Context, r domain.Reading) error {
	if s.header && !s.wrote {
		if err := s.w.Write([]string{"timestamp", "energy_wh", "battery_v"}); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	s.wrote = true

	record := []string{
		r.Timestamp.Format(TimeLayout),
		formatFloat(r.EnergyWh),
		formatFloat(r.BatteryV),
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	return nil
}

// formatFloat renders v in the shortest form that round-trips, always with
// a decimal point so whole values read as 56000.0.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// Close flushes buffered records.
func (s *Sink) Close(ctx context.Context) error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ ports.ReadingSink = (*Sink)(nil)
