package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// DefaultChunkSize mirrors the gateway receive buffer.
const DefaultChunkSize = 1024

// FileSource replays a hex dump as a chunk stream.
type FileSource struct {
	r    io.ReadCloser
	buf  []byte
	done bool
}

// OpenFileSource opens path for replay.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	return NewReaderSource(f), nil
}

// NewReaderSource wraps an already open reader, e.g. stdin.
func NewReaderSource(r io.ReadCloser) *FileSource {
	return &FileSource{r: r, buf: make([]byte, DefaultChunkSize)}
}

// Next returns the next cleaned chunk; the last one carries domain.EndEOF.
func (s *FileSource) Next(ctx context.Context) (ports.Chunk, error) {
	if s.done {
		return ports.Chunk{End: domain.EndEOF}, nil
	}
	if err := ctx.Err(); err != nil {
		return ports.Chunk{End: domain.EndError}, err
	}

	n, err := io.ReadFull(s.r, s.buf)
	data := domain.CleanChunk(s.buf[:n])
	switch {
	case err == nil:
		return ports.Chunk{Data: data}, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		return ports.Chunk{Data: data, End: domain.EndEOF}, nil
	default:
		return ports.Chunk{End: domain.EndError}, fmt.Errorf("%w: read dump: %v", domain.ErrTransportIO, err)
	}
}

// Close closes the underlying reader.
func (s *FileSource) Close() error {
	return s.r.Close()
}

var _ ports.ChunkSource = (*FileSource)(nil)
