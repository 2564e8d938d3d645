// Package pipeline provides the core tiling pipeline for TreeAtlas.
//
// This package implements the complete topology → coverage → layout →
// tiling pipeline that can be used by the CLI, the tile server, and
// batch jobs. Centralizing the stage logic keeps behavior consistent
// across entry points.
//
// # Architecture
//
// The pipeline consists of four strictly ordered stages:
//
//  1. Topology: build the rooted tree from the edge list
//  2. Coverage: classify leaves and propagate states upward
//  3. Layout: compute radial and dendrogram positions for every node
//  4. Tiles: partition the laid-out nodes into bounded zoom/row tiles
//
// Each stage requires the full output of the previous one; there is no
// overlap. The layout node set and the tile set are cacheable: repeated
// runs over the same inputs skip straight to the cached outputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Edges:  edges,
//	    Flags:  flags,
//	    RootID: "2759",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, tile := range result.Tiles { ... }
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/treeatlas/treeatlas/pkg/cache"
	"github.com/treeatlas/treeatlas/pkg/coverage"
	"github.com/treeatlas/treeatlas/pkg/layout"
	"github.com/treeatlas/treeatlas/pkg/tiles"
	"github.com/treeatlas/treeatlas/pkg/tree"
)

// Options contains all configuration for a pipeline run.
type Options struct {
	// Inputs.
	Edges  []tree.Edge
	Flags  map[string]coverage.Flags
	RootID string // empty means auto-detect

	// Layout constants; the zero value means DefaultConfig.
	Layout layout.Config

	// Tile builder; nil means NewBuilder defaults.
	Tiles *tiles.Builder

	// Refresh bypasses the cache for this run.
	Refresh bool

	// Logger for stage progress; nil discards.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// The method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Edges) == 0 {
		return fmt.Errorf("edge list is required")
	}
	if o.Layout.ZoomConst == 0 {
		o.Layout = layout.DefaultConfig()
	}
	if o.Tiles == nil {
		o.Tiles = tiles.NewBuilder()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns the cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		RootID:       o.RootID,
		RootX:        o.Layout.RootX,
		RootY:        o.Layout.RootY,
		RootAlpha:    o.Layout.RootAlpha,
		RootRay:      o.Layout.RootRay,
		ZoomConst:    o.Layout.ZoomConst,
		PolySamples:  o.Layout.PolySamples,
		MinWedgeDesc: o.Layout.MinWedgeDesc,
	}
}

// TileKeyOpts returns the cache key options for the tile stage.
func (o *Options) TileKeyOpts() cache.TileKeyOpts {
	return cache.TileKeyOpts{
		Budget:   o.Tiles.Budget,
		FastPath: o.Tiles.FastPath,
		YMin:     o.Tiles.Norm.YMin,
		YMax:     o.Tiles.Norm.YMax,
	}
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount int
	LeafCount int
	TileCount int

	TopologyTime time.Duration
	CoverageTime time.Duration
	LayoutTime   time.Duration
	TileTime     time.Duration
}

// CacheInfo tracks which stages were served from cache.
type CacheInfo struct {
	LayoutHit bool
	TilesHit  bool
}
