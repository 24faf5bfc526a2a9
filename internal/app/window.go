package app

import "github.com/bft-labs/smlship/internal/domain"

// windowSize is the number of frames that make up one reading.
const windowSize = 3

// Window is a fixed ring of the three most recent frames.
// Position 0 is the oldest frame. It starts filled with empty frames.
// A Window is not safe for concurrent use.
type Window struct {
	frames [windowSize]domain.Frame
	head   int // index of the oldest frame
}

// Push stores f as the newest frame, evicting the oldest one.
func (w *Window) Push(f domain.Frame) {
	w.frames[w.head] = f
	w.head = (w.head + 1) % windowSize
}

// At returns the frame at position i, 0 being the oldest.
func (w *Window) At(i int) domain.Frame {
	return w.frames[(w.head+i)%windowSize]
}

// IsTriple reports whether the window holds a timestamp, power and battery
// frame in that order, judged by frame length alone.
func (w *Window) IsTriple() bool {
	p := w.At(1).Len()
	return w.At(0).Len() == domain.TimestampFrameLen &&
		(p == domain.PowerFrameLen || p == domain.PowerFrameLongLen) &&
		w.At(2).Len() == domain.BatteryFrameLen
}
