package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/treeatlas/treeatlas/pkg/tiles"
)

// SQLiteStore keeps all tiles in one database file, mirroring the
// mbtiles layout of one row per (zoom_level, tile_row).
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS tiles (
    zoom_level INTEGER NOT NULL,
    tile_row   INTEGER NOT NULL,
    data       BLOB NOT NULL,
    PRIMARY KEY (zoom_level, tile_row)
);

CREATE TABLE IF NOT EXISTS metadata (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// OpenSQLite creates or opens a tile archive at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening tile archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging tile archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteMemory creates an in-memory archive, useful for testing.
func OpenSQLiteMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put inserts or replaces one tile.
func (s *SQLiteStore) Put(ctx context.Context, tile tiles.Tile) error {
	data, err := json.Marshal(tile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (zoom_level, tile_row, data) VALUES (?, ?, ?)`,
		tile.Zoom, tile.Row, data)
	return err
}

// Get reads one tile.
func (s *SQLiteStore) Get(ctx context.Context, zoom, row int) (*tiles.Tile, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM tiles WHERE zoom_level = ? AND tile_row = ?`,
		zoom, row).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t tiles.Tile
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding tile %d/%d: %w", zoom, row, err)
	}
	return &t, nil
}

// SetMetadata stores a metadata key, for example the source dataset
// name or the build timestamp.
func (s *SQLiteStore) SetMetadata(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)`, name, value)
	return err
}

// Metadata reads a metadata key; missing keys return an empty string.
func (s *SQLiteStore) Metadata(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
