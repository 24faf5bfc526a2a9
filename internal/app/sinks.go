package app

import (
	"context"
	"errors"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// MultiSink fans readings out to several sinks in order.
type MultiSink []ports.ReadingSink

// Emit hands r to every sink, stopping at the first failure.
func (m MultiSink) Emit(ctx context.Context, r domain.Reading) error {
	for _, s := range m {
		if err := s.Emit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
