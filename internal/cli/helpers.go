package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/treeatlas/treeatlas/pkg/atlas"
	"github.com/treeatlas/treeatlas/pkg/cache"
	"github.com/treeatlas/treeatlas/pkg/config"
	"github.com/treeatlas/treeatlas/pkg/coverage"
	"github.com/treeatlas/treeatlas/pkg/errors"
	"github.com/treeatlas/treeatlas/pkg/pipeline"
	"github.com/treeatlas/treeatlas/pkg/source/fetch"
	"github.com/treeatlas/treeatlas/pkg/source/tsv"
	"github.com/treeatlas/treeatlas/pkg/store"
	"github.com/treeatlas/treeatlas/pkg/tree"
)

// cacheDir returns the default stage-output cache directory.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "treeatlas"), nil
}

// openCache creates the configured cache backend. noCache forces the
// null backend regardless of configuration.
func openCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// openInput opens a local file or downloads a remote one. Remote
// downloads are cached under the user cache directory for a day.
func openInput(ctx context.Context, logger *log.Logger, path string) (io.ReadCloser, error) {
	if !errors.IsRemote(path) {
		return os.Open(path)
	}
	dir, err := cacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	dlCache, err := fetch.NewCache(filepath.Join(dir, "downloads"), 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("open download cache: %w", err)
	}
	logger.Debug("fetching remote input", "url", path)
	body, err := fetch.NewClient(dlCache).Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// loadInputs reads the edge list and optional coverage flags, warning
// about skipped rows. Either input may be a local path or an http(s)
// URL.
func loadInputs(ctx context.Context, logger *log.Logger, edgesPath, flagsPath string) ([]tree.Edge, map[string]coverage.Flags, error) {
	er, err := openInput(ctx, logger, edgesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open edges %s: %w", edgesPath, err)
	}
	edges, err := tsv.ReadEdges(er)
	er.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("read edges %s: %w", edgesPath, err)
	}
	if edges.Skipped > 0 {
		printWarning("Skipped %d malformed edge rows", edges.Skipped)
	}
	logger.Debug("edges loaded", "count", len(edges.Edges), "skipped", edges.Skipped)

	var flags map[string]coverage.Flags
	if flagsPath != "" {
		fr2, err := openInput(ctx, logger, flagsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open coverage flags %s: %w", flagsPath, err)
		}
		fr, err := tsv.ReadFlags(fr2)
		fr2.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read coverage flags %s: %w", flagsPath, err)
		}
		if fr.Skipped > 0 {
			printWarning("Skipped %d malformed flag rows", fr.Skipped)
		}
		logger.Debug("coverage flags loaded", "count", len(fr.Flags), "skipped", fr.Skipped)
		flags = fr.Flags
	}
	return edges.Edges, flags, nil
}

// defaultNodesOut derives the node set output path from the input
// argument. Remote inputs write into the working directory.
func defaultNodesOut(edgesPath string) string {
	if errors.IsRemote(edgesPath) {
		base := "atlas"
		if u, err := url.Parse(edgesPath); err == nil {
			if b := path.Base(u.Path); b != "" && b != "." && b != "/" {
				base = b
			}
		}
		edgesPath = base
	}
	return strings.TrimSuffix(edgesPath, filepath.Ext(edgesPath)) + ".nodes.json"
}

// pipelineOptions assembles runner options from config plus inputs.
func pipelineOptions(cfg config.Config, edges []tree.Edge, flags map[string]coverage.Flags, rootID string, refresh bool, logger *log.Logger) pipeline.Options {
	return pipeline.Options{
		Edges:   edges,
		Flags:   flags,
		RootID:  rootID,
		Layout:  cfg.LayoutConfig(),
		Tiles:   cfg.TileBuilder(),
		Refresh: refresh,
		Logger:  logger,
	}
}

// openStore opens a tile store: paths ending in .db or .sqlite open the
// SQLite archive, anything else is a file tree.
func openStore(path string) (store.TileStore, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".mbtiles":
		return store.OpenSQLite(path)
	default:
		return store.NewFileStore(path)
	}
}

// readNodeSet loads a node set JSON file written by the layout or
// build commands.
func readNodeSet(path string) (*atlas.NodeSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node set %s: %w", path, err)
	}
	defer f.Close()
	set, err := atlas.ReadNodeSet(f)
	if err != nil {
		return nil, fmt.Errorf("decode node set %s: %w", path, err)
	}
	return set, nil
}

// writeNodeSet writes a node set JSON file.
func writeNodeSet(set *atlas.NodeSet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := set.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
