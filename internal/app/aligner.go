package app

import (
	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/sml"
)

// Aligner groups consecutive frames into readings.
// The window is never reset: after a reading it keeps sliding one frame at a time.
type Aligner struct {
	window Window
}

// NewAligner creates an aligner with an empty window.
func NewAligner() *Aligner {
	return &Aligner{}
}

// Push adds a frame and evaluates the resulting window.
// It returns domain.ErrStructuralMismatch when the window is not a triple,
// a *domain.DecodeError when the triple could not be decoded, or the reading.
func (a *Aligner) Push(f domain.Frame) (domain.Reading, error) {
	a.window.Push(f)
	if !a.window.IsTriple() {
		return domain.Reading{}, domain.ErrStructuralMismatch
	}
	return sml.DecodeTriple(a.window.At(0), a.window.At(1), a.window.At(2))
}
