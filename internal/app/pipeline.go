package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// PipelineConfig contains configuration for one decode run.
type PipelineConfig struct {
	// RequireData turns a run that received zero bytes into ErrNoData.
	RequireData bool

	// Incremental skips readings at or before the stored watermark and
	// advances it after the run. Requires a StateRepository.
	Incremental bool
}

// Pipeline pulls chunks from a source, splits them into frames, aligns
// frames into readings and hands readings to a sink.
// A Pipeline owns its source, sink and dump writer and closes them when Run returns.
type Pipeline struct {
	config    PipelineConfig
	source    ports.ChunkSource
	sink      ports.ReadingSink
	dump      ports.DumpWriter
	stateRepo ports.StateRepository
	logger    ports.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline. dump and stateRepo may be nil.
func NewPipeline(
	config PipelineConfig,
	source ports.ChunkSource,
	sink ports.ReadingSink,
	dump ports.DumpWriter,
	stateRepo ports.StateRepository,
	logger ports.Logger,
) *Pipeline {
	return &Pipeline{
		config:    config,
		source:    source,
		sink:      sink,
		dump:      dump,
		stateRepo: stateRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// run holds the mutable state of one Run call.
type run struct {
	summary  domain.Summary
	splitter LineSplitter
	aligner  *Aligner
	state    domain.State
	newest   time.Time
}

// Run executes the decode loop until the source terminates.
// Decode failures never abort the run; transport and sink failures do.
func (p *Pipeline) Run(ctx context.Context) (summary domain.Summary, err error) {
	r := &run{aligner: NewAligner()}
	closed := false
	defer func() {
		if !closed {
			err = errors.Join(err, p.close(ctx, false))
		}
	}()

	incremental := p.config.Incremental && p.stateRepo != nil
	if incremental {
		st, lerr := p.stateRepo.Load(ctx)
		if lerr != nil {
			p.logger.Error("failed to load state", ports.Err(lerr))
			// Continue with empty state
		}
		r.state = st
	}

	for {
		if err := ctx.Err(); err != nil {
			r.summary.End = domain.EndError
			return r.summary, err
		}

		chunk, err := p.source.Next(ctx)
		if err != nil {
			r.summary.End = domain.EndError
			return r.summary, err
		}

		if len(chunk.Data) > 0 {
			r.summary.Bytes += len(chunk.Data)
			r.summary.Chunks++
			if p.dump != nil {
				if _, err := p.dump.Write(chunk.Data); err != nil {
					return r.summary, fmt.Errorf("write dump: %w", err)
				}
			}
			for _, line := range r.splitter.Write(chunk.Data) {
				if err := p.handleLine(ctx, r, line); err != nil {
					return r.summary, err
				}
			}
		}

		if chunk.End != domain.EndNone {
			r.summary.End = chunk.End
			break
		}
	}

	if line, ok := r.splitter.Flush(); ok {
		if err := p.handleLine(ctx, r, line); err != nil {
			return r.summary, err
		}
	}

	p.logger.Info("run complete",
		ports.String("end", r.summary.End.String()),
		ports.Int("bytes", r.summary.Bytes),
		ports.Int("frames", r.summary.Frames),
		ports.Int("framing_errors", r.summary.FramingErrors),
		ports.Int("triples", r.summary.Triples),
		ports.Int("decode_failures", r.summary.DecodeFailures),
		ports.Int("skipped", r.summary.Skipped),
		ports.Int("emitted", r.summary.Emitted),
	)

	// Sinks are flushed before the watermark moves. An empty required run
	// keeps the previous dump.
	noData := p.config.RequireData && r.summary.Bytes == 0
	closed = true
	if err := p.close(ctx, !noData); err != nil {
		return r.summary, err
	}
	if noData {
		return r.summary, domain.ErrNoData
	}

	if incremental && r.summary.Emitted > 0 {
		r.state.UpdateAfterRun(r.newest, r.summary.Emitted, p.now())
		if err := p.stateRepo.Save(ctx, r.state); err != nil {
			p.logger.Error("failed to save state", ports.Err(err))
		}
	}

	return r.summary, nil
}

// handleLine decodes one line and feeds it through the aligner.
// Only sink failures are returned.
func (p *Pipeline) handleLine(ctx context.Context, r *run, line string) error {
	r.summary.Frames++
	frame, err := domain.ParseFrame(line)
	if err != nil {
		r.summary.FramingErrors++
		p.logger.Debug("discarding frame", ports.Err(err), ports.Int("frame", r.summary.Frames))
	}

	reading, err := r.aligner.Push(frame)
	switch {
	case errors.Is(err, domain.ErrStructuralMismatch):
		return nil
	case err != nil:
		r.summary.Triples++
		r.summary.DecodeFailures++
		p.logger.Debug("dropping triple", ports.Err(err), ports.Int("frame", r.summary.Frames))
		return nil
	}
	r.summary.Triples++

	if p.config.Incremental && r.state.Seen(reading.Timestamp) {
		r.summary.Skipped++
		return nil
	}

	if err := p.sink.Emit(ctx, reading); err != nil {
		return fmt.Errorf("emit reading: %w", err)
	}
	r.summary.Emitted++
	if reading.Timestamp.After(r.newest) {
		r.newest = reading.Timestamp
	}
	return nil
}

// close releases the source, flushes the sink and either commits or
// aborts the dump.
func (p *Pipeline) close(ctx context.Context, commitDump bool) error {
	var errs []error
	if err := p.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}
	if err := p.sink.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close sink: %w", err))
	}
	if p.dump != nil {
		if commitDump {
			if err := p.dump.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close dump: %w", err))
			}
		} else if err := p.dump.Abort(); err != nil {
			errs = append(errs, fmt.Errorf("abort dump: %w", err))
		}
	}
	return errors.Join(errs...)
}
