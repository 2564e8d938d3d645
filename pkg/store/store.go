// Package store persists built tiles. Two backends are provided: a
// plain file tree (one JSON file per tile, convenient for static
// hosting) and a single-file SQLite archive for serving.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/treeatlas/treeatlas/pkg/tiles"
)

// ErrNotFound reports a missing tile.
var ErrNotFound = errors.New("tile not found")

// TileStore reads and writes tiles addressed by (zoom, row).
type TileStore interface {
	Put(ctx context.Context, tile tiles.Tile) error
	Get(ctx context.Context, zoom, row int) (*tiles.Tile, error)
	Close() error
}

// WriteAll stores every tile in the slice.
func WriteAll(ctx context.Context, s TileStore, ts []tiles.Tile) error {
	for _, t := range ts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Put(ctx, t); err != nil {
			return fmt.Errorf("storing tile %d/%d: %w", t.Zoom, t.Row, err)
		}
	}
	return nil
}

// FileStore lays tiles out as <root>/z<zoom>/<row>.json.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating tile directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(zoom, row int) string {
	return filepath.Join(s.root, "z"+strconv.Itoa(zoom), strconv.Itoa(row)+".json")
}

// Put writes one tile, creating the zoom directory on first use.
func (s *FileStore) Put(_ context.Context, tile tiles.Tile) error {
	p := s.path(tile.Zoom, tile.Row)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(tile)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads one tile.
func (s *FileStore) Get(_ context.Context, zoom, row int) (*tiles.Tile, error) {
	data, err := os.ReadFile(s.path(zoom, row))
	if os.IsNotExist(err) {
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

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
