package ports

import (
	"context"

	"github.com/bft-labs/smlship/internal/domain"
)

// Chunk is one piece of the cleaned hex stream.
// End is domain.EndNone while the stream continues; the chunk carrying a
// terminal reason may still hold data (e.g. the one ending in EOT).
type Chunk struct {
	Data []byte
	End  domain.EndReason
}

// ChunkSource is a pull-based stream of hex text.
// Sources strip CR and the 0x05 keep-alive filler before returning data.
type ChunkSource interface {
	// Next returns the next chunk. Once a chunk with End != EndNone has been
	// returned, further calls return an empty chunk with the same reason.
	// A non-nil error means the transport failed; it wraps domain.ErrTransportIO.
	Next(ctx context.Context) (Chunk, error)

	// Close releases the underlying transport.
	Close() error
}
