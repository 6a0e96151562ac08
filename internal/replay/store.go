// Package replay persists the last successful response per dataset so the
// service can answer without upstream access. In "garmin" mode every
// successful fetch overwrites its dataset's snapshot; in "local" mode the
// data endpoints serve straight from here.
package replay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apedley/SparkyFitness/internal/model"
)

// Dataset names for the two data endpoints.
const (
	DatasetWellness   = "health_and_wellness"
	DatasetActivities = "activities_and_workouts"
)

const schema = `CREATE TABLE IF NOT EXISTS Snapshots (
	Dataset TEXT PRIMARY KEY,
	Payload BLOB NOT NULL,
	SavedAt TIMESTAMP NOT NULL
)`

// Store is a snapshot store over a single SQLite file, one row per dataset.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path, enabling WAL mode
// for concurrent readers. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save overwrites the dataset's snapshot with payload.
func (s *Store) Save(ctx context.Context, dataset string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO Snapshots (Dataset, Payload, SavedAt) VALUES (?,?,?)
		 ON CONFLICT(Dataset) DO UPDATE SET Payload = excluded.Payload, SavedAt = excluded.SavedAt`,
		dataset, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", dataset, err)
	}
	return nil
}

// Load returns the dataset's last saved snapshot, or model.ErrNotFound when
// none has been saved yet.
func (s *Store) Load(ctx context.Context, dataset string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT Payload FROM Snapshots WHERE Dataset = ?`, dataset).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %q snapshot", model.ErrNotFound, dataset)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", dataset, err)
	}
	return payload, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
