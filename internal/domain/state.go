package domain

import "time"

// State is persisted between runs so incremental runs only emit new readings.
type State struct {
	// LastReadingAt is the timestamp of the newest reading emitted so far.
	LastReadingAt time.Time `json:"last_reading_at"`

	// LastRunAt is when the last run finished.
	LastRunAt time.Time `json:"last_run_at"`

	// LastEmitted is the number of readings emitted by the last run.
	LastEmitted int `json:"last_emitted"`

	// TotalEmitted accumulates readings emitted across runs.
	TotalEmitted int `json:"total_emitted"`
}

// Seen reports whether a reading at ts was already emitted by a previous run.
func (s State) Seen(ts time.Time) bool {
	return !s.LastReadingAt.IsZero() && !ts.After(s.LastReadingAt)
}

// UpdateAfterRun advances the watermark after a successful run.
func (s *State) UpdateAfterRun(newest time.Time, emitted int, at time.Time) {
	if newest.After(s.LastReadingAt) {
		s.LastReadingAt = newest
	}
	s.LastRunAt = at
	s.LastEmitted = emitted
	s.TotalEmitted += emitted
}
