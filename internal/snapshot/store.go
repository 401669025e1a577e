// Package snapshot persists the topology produced by each build run and
// computes changes between successive runs. Change detection lives here, as
// a stage over stored snapshots, and never inside the aggregator itself.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/HerbHall/fortimap/pkg/models"
)

// ErrNotFound is returned when a snapshot ID does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Summary is the listing view of a stored snapshot.
type Summary struct {
	ID              string    `json:"id"`
	TakenAt         time.Time `json:"taken_at"`
	DeviceCount     int       `json:"device_count"`
	ConnectionCount int       `json:"connection_count"`
}

// Snapshot is a stored topology with its summary row.
type Snapshot struct {
	Summary
	Topology *models.Topology `json:"topology"`
}

// Store keeps topology snapshots in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the snapshot database at path and applies the
// recommended pragmas for WAL mode and a single writer.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// modernc.org/sqlite requires pragmas as SQL statements, not DSN params.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithClock overrides the store's clock and returns the store. Used by
// tests that need deterministic taken_at ordering.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id               TEXT PRIMARY KEY,
			taken_at         DATETIME NOT NULL,
			device_count     INTEGER NOT NULL,
			connection_count INTEGER NOT NULL,
			topology         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);
	`)
	if err != nil {
		return fmt.Errorf("create snapshots schema: %w", err)
	}
	return nil
}

// Save stores a topology and returns its summary row.
func (s *Store) Save(ctx context.Context, t *models.Topology) (*Summary, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal topology: %w", err)
	}

	sum := &Summary{
		ID:              uuid.New().String(),
		TakenAt:         s.now().UTC(),
		DeviceCount:     len(t.Devices),
		ConnectionCount: len(t.Connections),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, taken_at, device_count, connection_count, topology)
		VALUES (?, ?, ?, ?, ?)`,
		sum.ID, sum.TakenAt, sum.DeviceCount, sum.ConnectionCount, string(body),
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return sum, nil
}

// Get returns a stored snapshot by ID.
func (s *Store) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, taken_at, device_count, connection_count, topology
		FROM snapshots WHERE id = ?`, id)

	snap, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %q: %w", id, err)
	}
	return snap, nil
}

// List returns up to limit snapshot summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, taken_at, device_count, connection_count
		FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.TakenAt, &sum.DeviceCount, &sum.ConnectionCount); err != nil {
			return nil, fmt.Errorf("scan snapshot summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return summaries, nil
}

// LatestTwo returns the two most recent snapshots, newest last. prev is nil
// when only one snapshot exists; both are nil when the store is empty.
func (s *Store) LatestTwo(ctx context.Context) (prev, latest *Snapshot, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, taken_at, device_count, connection_count, topology
		FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 2`)
	if err != nil {
		return nil, nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	var got []*Snapshot
	for rows.Next() {
		snap, scanErr := scanSnapshot(rows.Scan)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("scan snapshot: %w", scanErr)
		}
		got = append(got, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	switch len(got) {
	case 0:
		return nil, nil, nil
	case 1:
		return nil, got[0], nil
	default:
		return got[1], got[0], nil
	}
}

// Prune deletes all but the newest keep snapshots and returns how many rows
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanSnapshot(scan func(dest ...any) error) (*Snapshot, error) {
	var snap Snapshot
	var body string
	if err := scan(&snap.ID, &snap.TakenAt, &snap.DeviceCount, &snap.ConnectionCount, &body); err != nil {
		return nil, err
	}
	var t models.Topology
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("unmarshal topology: %w", err)
	}
	snap.Topology = &t
	return &snap, nil
}
