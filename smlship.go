// Package smlship decodes the SML hex dump kept by the meter gateway into
// energy and battery readings.
//
// Example usage:
//
//	f, _ := os.Open("dump.hex")
//	sink := &smlship.SliceSink{}
//	summary, err := smlship.DecodeReader(context.Background(), f, sink)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary.Emitted, "readings")
package smlship

import (
	"context"
	"io"

	"github.com/bft-labs/smlship/internal/adapters/fs"
	logAdapter "github.com/bft-labs/smlship/internal/adapters/log"
	"github.com/bft-labs/smlship/internal/adapters/udp"
	"github.com/bft-labs/smlship/internal/app"
	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// Reading is one decoded meter sample.
type Reading = domain.Reading

// Summary counts what happened during a decode run.
type Summary = domain.Summary

// ReadingSink receives decoded readings. It is closed when the run ends.
type ReadingSink = ports.ReadingSink

// Logger is the structured logger used by the decoder.
type Logger = ports.Logger

// FetchConfig configures a gateway fetch. Zero fields take the gateway defaults.
type FetchConfig = udp.Config

// ErrNoData is returned by Fetch when RequireData is set and nothing arrived.
var ErrNoData = domain.ErrNoData

// Option configures a decode run.
type Option func(*options)

type options struct {
	logger      Logger
	requireData bool
}

// WithLogger sets the logger. The default discards all messages.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRequireData makes a run that received no bytes fail with ErrNoData.
func WithRequireData() Option {
	return func(o *options) { o.requireData = true }
}

func buildOptions(opts []Option) options {
	o := options{logger: logAdapter.NewNoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DecodeReader decodes a hex dump read from r into sink.
func DecodeReader(ctx context.Context, r io.Reader, sink ReadingSink, opts ...Option) (Summary, error) {
	o := buildOptions(opts)
	source := fs.NewReaderSource(io.NopCloser(r))
	p := app.NewPipeline(app.PipelineConfig{RequireData: o.requireData}, source, sink, nil, nil, o.logger)
	return p.Run(ctx)
}

// Fetch pulls the dump from the gateway and decodes it into sink.
// The session ends on the EOT marker or after the idle timeout.
func Fetch(ctx context.Context, cfg FetchConfig, sink ReadingSink, opts ...Option) (Summary, error) {
	o := buildOptions(opts)
	source := udp.NewFetcher(cfg, nil, o.logger)
	p := app.NewPipeline(app.PipelineConfig{RequireData: o.requireData}, source, sink, nil, nil, o.logger)
	return p.Run(ctx)
}

// SliceSink collects readings in memory.
type SliceSink struct {
	Readings []Reading
}

// Emit appends r.
func (s *SliceSink) Emit(ctx context.Context, r Reading) error {
	s.Readings = append(s.Readings, r)
	return nil
}

// Close does nothing.
func (s *SliceSink) Close(ctx context.Context) error {
	return nil
}
