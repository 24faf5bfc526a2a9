package ports

import (
	"context"

	"github.com/bft-labs/smlship/internal/domain"
)

// ReadingSink consumes decoded readings.
// Sinks are created by the caller and scoped to one run.
type ReadingSink interface {
	// Emit hands over one reading. Sinks may buffer.
	Emit(ctx context.Context, r domain.Reading) error

	// Close flushes buffered readings and releases resources.
	Close(ctx context.Context) error
}
