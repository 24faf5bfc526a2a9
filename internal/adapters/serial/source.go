// Package serial reads the hex dump from the gateway's serial console.
package serial

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// DefaultIdleTimeout ends a capture when the line has been quiet this long.
const DefaultIdleTimeout = 10 * time.Second

// Port is the subset of serial.Port the source needs.
type Port interface {
	Read(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Open opens a real serial port.
func Open(path string, opts PortOptions) (Port, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrTransportIO, path, err)
	}
	return port, nil
}

// Source implements ports.ChunkSource on top of a serial port.
type Source struct {
	port        Port
	idleTimeout time.Duration
	logger      ports.Logger

	buf        []byte
	end        domain.EndReason
	timeoutSet bool
	received   int

	closeOnce sync.Once
	closeErr  error
}

// NewSource wraps an open port.
func NewSource(port Port, idleTimeout time.Duration, logger ports.Logger) *Source {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Source{
		port:        port,
		idleTimeout: idleTimeout,
		logger:      logger,
		buf:         make([]byte, 1024),
	}
}

// Next reads the next chunk. A read that returns no bytes within the idle
// timeout ends the capture with domain.EndTimeout.
func (s *Source) Next(ctx context.Context) (ports.Chunk, error) {
	if s.end != domain.EndNone {
		return ports.Chunk{End: s.end}, nil
	}
	if err := ctx.Err(); err != nil {
		s.end = domain.EndError
		return ports.Chunk{End: s.end}, err
	}

	if !s.timeoutSet {
		if err := s.port.SetReadTimeout(s.idleTimeout); err != nil {
			s.end = domain.EndError
			return ports.Chunk{End: s.end}, fmt.Errorf("%w: set read timeout: %v", domain.ErrTransportIO, err)
		}
		s.timeoutSet = true
	}

	// Read returns only at the idle timeout. Closing the port unblocks it on cancel.
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	n, err := s.port.Read(s.buf)
	stop()

	if cerr := ctx.Err(); cerr != nil {
		s.end = domain.EndError
		return ports.Chunk{End: s.end}, cerr
	}
	if err != nil {
		s.end = domain.EndError
		return ports.Chunk{End: s.end}, fmt.Errorf("%w: serial read: %v", domain.ErrTransportIO, err)
	}
	if n == 0 {
		s.end = domain.EndTimeout
		s.logger.Info("serial line idle, capture finished",
			ports.Duration("idle_timeout", s.idleTimeout),
			ports.Int("bytes", s.received),
		)
		return ports.Chunk{End: s.end}, nil
	}
	s.received += n

	data := domain.CleanChunk(s.buf[:n])
	if domain.HasEOT(data) {
		s.end = domain.EndEOT
	}
	return ports.Chunk{Data: data, End: s.end}, nil
}

// Close closes the port. It is safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}

var _ ports.ChunkSource = (*Source)(nil)
