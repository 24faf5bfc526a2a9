// Package sqlite stores decoded readings in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// schema.sql creates the readings table keyed by unix timestamp.
//
//go:embed schema.sql
var schemaSQL string

const upsertReading = `
	INSERT INTO readings (ts, energy_wh, battery_v)
	VALUES (?, ?, ?)
	ON CONFLICT(ts) DO UPDATE SET
		energy_wh = excluded.energy_wh,
		battery_v = excluded.battery_v,
		write_timestamp = UNIXEPOCH('subsec')
`

// Store implements ports.ReadingSink. Readings emitted during one run are
// written in a single transaction committed on Close.
type Store struct {
	db *sql.DB
	tx *sql.Tx
	n  int
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Emit upserts one reading.
func (s *Store) Emit(ctx context.Context, r domain.Reading) error {
	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		s.tx = tx
	}
	if _, err := s.tx.ExecContext(ctx, upsertReading, r.Timestamp.Unix(), r.EnergyWh, r.BatteryV); err != nil {
		return fmt.Errorf("failed to upsert reading: %w", err)
	}
	s.n++
	return nil
}

// Close commits pending readings and closes the database.
func (s *Store) Close(ctx context.Context) error {
	var err error
	if s.tx != nil {
		err = s.tx.Commit()
		s.tx = nil
	}
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// Readings returns stored readings at or after since, oldest first.
func (s *Store) Readings(ctx context.Context, since time.Time) ([]domain.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, energy_wh, battery_v FROM readings WHERE ts >= ? ORDER BY ts`,
		since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reading
	for rows.Next() {
		var (
			ts int64
			r  domain.Reading
		)
		if err := rows.Scan(&ts, &r.EnergyWh, &r.BatteryV); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of readings emitted through this store.
func (s *Store) Count() int {
	return s.n
}

var _ ports.ReadingSink = (*Store)(nil)
