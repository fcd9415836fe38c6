package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"patternlab/internal/genome"
	"patternlab/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records as versioned JSON payloads. Insertion order
// is tracked by rowid, which upserts preserve.
type SQLiteStore struct {
	path      string
	retention Retention

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database file at path
func NewSQLiteStore(path string, r Retention) *SQLiteStore {
	return &SQLiteStore{path: path, retention: r.withDefaults()}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// a single connection keeps in-memory databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, session model.Session) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := Encode(session)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, payload) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, session.ID, payload); err != nil {
		return err
	}
	return trim(ctx, db, "sessions", s.retention.Sessions)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (model.Session, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Session{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, err
	}

	session, err := Decode[model.Session](payload)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, true, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]model.Session, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return listAll[model.Session](ctx, db, "sessions")
}

func (s *SQLiteStore) SaveSpecimens(ctx context.Context, specimens []*genome.Genome) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, g := range specimens {
		if g == nil {
			continue
		}
		payload, err := Encode(g)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO specimens (id, payload) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
		`, g.ID, payload); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return trim(ctx, db, "specimens", s.retention.Specimens)
}

func (s *SQLiteStore) GetSpecimen(ctx context.Context, id string) (*genome.Genome, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM specimens WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	g, err := Decode[*genome.Genome](payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode specimen %s: %w", id, err)
	}
	return g, true, nil
}

func (s *SQLiteStore) CountSpecimens(ctx context.Context) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	return count(ctx, db, "specimens")
}

func (s *SQLiteStore) SaveBreedingEvent(ctx context.Context, event model.BreedingEvent) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := Encode(event)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO breeding_events (id, payload) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, event.ID, payload); err != nil {
		return err
	}
	return trim(ctx, db, "breeding_events", s.retention.BreedingEvents)
}

func (s *SQLiteStore) ListBreedingEvents(ctx context.Context) ([]model.BreedingEvent, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return listAll[model.BreedingEvent](ctx, db, "breeding_events")
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		DELETE FROM sessions;
		DELETE FROM specimens;
		DELETE FROM breeding_events;
	`)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// table names below are package constants, never caller input

func listAll[T any](ctx context.Context, db *sql.DB, table string) ([]T, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM `+table+` ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		v, err := Decode[T](payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", table, id, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func count(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n, err
}

func trim(ctx context.Context, db *sql.DB, table string, max int) error {
	n, err := count(ctx, db, table)
	if err != nil {
		return err
	}
	keep := keepCount(n, max)
	if keep >= n {
		return nil
	}
	_, err = db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE rowid IN (SELECT rowid FROM `+table+` ORDER BY rowid ASC LIMIT ?)`,
		n-keep)
	return err
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS specimens (
			id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS breeding_events (
			id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
