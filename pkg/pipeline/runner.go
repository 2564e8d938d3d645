package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/treeatlas/treeatlas/pkg/atlas"
	"github.com/treeatlas/treeatlas/pkg/cache"
	"github.com/treeatlas/treeatlas/pkg/coverage"
	"github.com/treeatlas/treeatlas/pkg/layout"
	"github.com/treeatlas/treeatlas/pkg/observability"
	"github.com/treeatlas/treeatlas/pkg/tiles"
	"github.com/treeatlas/treeatlas/pkg/tree"
)

// Runner executes the pipeline with caching of the layout and tile
// stages. A Runner is safe for concurrent use.
type Runner struct {
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewRunner creates a pipeline runner. A nil cache disables caching, a
// nil keyer uses the default keyer, and a nil logger discards output.
func NewRunner(c cache.Cache, k cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{cache: c, keyer: k, logger: logger}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Nodes is the full laid-out node set.
	Nodes *atlas.NodeSet

	// Tiles are the per-zoom row tiles, ordered by (zoom, row).
	Tiles []tiles.Tile

	Stats     Stats
	CacheInfo CacheInfo
}

// Execute runs the full pipeline: topology, coverage, layout, tiling.
// Cached layout and tile outputs are reused unless opts.Refresh is set.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", res.RunID)
	logger.Debug("pipeline starting", "edges", len(opts.Edges), "flags", len(opts.Flags))

	inputHash, err := hashInputs(opts)
	if err != nil {
		return nil, fmt.Errorf("hashing inputs: %w", err)
	}
	layoutKey := r.keyer.LayoutKey(inputHash, opts.LayoutKeyOpts())

	var setData []byte
	if !opts.Refresh {
		data, ok, err := r.cache.Get(ctx, layoutKey)
		if err != nil {
			logger.Warn("layout cache read failed", "error", err)
		} else if ok {
			set, err := atlas.UnmarshalNodeSet(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				logger.Debug("layout cache hit", "nodes", len(set.Nodes))
				res.Nodes = set
				res.CacheInfo.LayoutHit = true
				setData = data
			} else {
				logger.Warn("discarding corrupt layout cache entry", "error", err)
			}
		}
	}

	if res.Nodes == nil {
		observability.Cache().OnCacheMiss(ctx, "layout")
		set, err := r.buildNodes(ctx, opts, logger, &res.Stats)
		if err != nil {
			return nil, err
		}
		res.Nodes = set

		setData, err = set.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshaling node set: %w", err)
		}
		if err := r.cache.Set(ctx, layoutKey, setData, cache.TTLLayout); err != nil {
			logger.Warn("layout cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(setData))
		}
	}

	res.Stats.NodeCount = len(res.Nodes.Nodes)
	for i := range res.Nodes.Nodes {
		if res.Nodes.Nodes[i].IsLeaf {
			res.Stats.LeafCount++
		}
	}

	tileKey := r.keyer.TileKey(cache.Hash(setData), opts.TileKeyOpts())
	if !opts.Refresh {
		data, ok, err := r.cache.Get(ctx, tileKey)
		if err != nil {
			logger.Warn("tile cache read failed", "error", err)
		} else if ok {
			var cached []tiles.Tile
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "tiles")
				logger.Debug("tile cache hit", "tiles", len(cached))
				res.Tiles = cached
				res.CacheInfo.TilesHit = true
			} else {
				logger.Warn("discarding corrupt tile cache entry", "error", err)
			}
		}
	}

	if res.Tiles == nil {
		observability.Cache().OnCacheMiss(ctx, "tiles")
		built, err := r.buildTiles(ctx, opts.Tiles, res.Nodes, logger, &res.Stats)
		if err != nil {
			return nil, err
		}
		res.Tiles = built

		if data, err := json.Marshal(built); err == nil {
			if err := r.cache.Set(ctx, tileKey, data, cache.TTLTiles); err != nil {
				logger.Warn("tile cache write failed", "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "tiles", len(data))
			}
		}
	}
	res.Stats.TileCount = len(res.Tiles)

	logger.Info("pipeline complete",
		"nodes", res.Stats.NodeCount,
		"leaves", res.Stats.LeafCount,
		"tiles", res.Stats.TileCount,
		"layout_cached", res.CacheInfo.LayoutHit,
		"tiles_cached", res.CacheInfo.TilesHit)
	return res, nil
}

// BuildNodes runs the topology, coverage and layout stages without
// touching the cache. It backs the layout subcommand.
func (r *Runner) BuildNodes(ctx context.Context, opts Options) (*atlas.NodeSet, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	var stats Stats
	return r.buildNodes(ctx, opts, r.logger, &stats)
}

// BuildTiles runs the tiling stage over an existing node set without
// touching the cache. A nil builder uses the defaults. It backs the
// tiles subcommand, which starts from a node set file rather than an
// edge list.
func (r *Runner) BuildTiles(ctx context.Context, b *tiles.Builder, set *atlas.NodeSet) ([]tiles.Tile, error) {
	if b == nil {
		b = tiles.NewBuilder()
	}
	var stats Stats
	return r.buildTiles(ctx, b, set, r.logger, &stats)
}

func (r *Runner) buildNodes(ctx context.Context, opts Options, logger *log.Logger, stats *Stats) (*atlas.NodeSet, error) {
	hooks := observability.Pipeline()

	hooks.OnStageStart(ctx, observability.StageTopology, len(opts.Edges))
	start := time.Now()
	t, err := tree.Build(opts.Edges, tree.Options{RootID: opts.RootID})
	stats.TopologyTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageTopology, len(opts.Edges), stats.TopologyTime, err)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	logger.Debug("topology built", "nodes", t.Len(), "root", t.RootID(), "duration", stats.TopologyTime)

	hooks.OnStageStart(ctx, observability.StageCoverage, len(opts.Flags))
	start = time.Now()
	states := coverage.Propagate(t, opts.Flags)
	stats.CoverageTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageCoverage, len(opts.Flags), stats.CoverageTime, nil)
	logger.Debug("coverage propagated", "flagged", len(opts.Flags), "duration", stats.CoverageTime)

	hooks.OnStageStart(ctx, observability.StageLayout, t.Len())
	start = time.Now()
	radial := layout.Radial(t, opts.Layout)
	dendro := layout.Dendrogram(t)
	stats.LayoutTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageLayout, t.Len(), stats.LayoutTime, nil)
	logger.Debug("layout computed", "nodes", t.Len(), "duration", stats.LayoutTime)

	return assemble(t, states, radial, dendro), nil
}

func (r *Runner) buildTiles(ctx context.Context, b *tiles.Builder, set *atlas.NodeSet, logger *log.Logger, stats *Stats) ([]tiles.Tile, error) {
	hooks := observability.Pipeline()

	input := TileInput(set)
	hooks.OnStageStart(ctx, observability.StageTiles, len(input))
	start := time.Now()
	built, err := b.Build(ctx, input)
	stats.TileTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageTiles, len(input), stats.TileTime, err)
	if err != nil {
		return nil, fmt.Errorf("tiles: %w", err)
	}
	logger.Debug("tiles built", "tiles", len(built), "duration", stats.TileTime)
	return built, nil
}

// assemble joins the stage outputs into the serializable node set.
func assemble(t *tree.Tree, states map[string]coverage.State, radial []layout.Placement, dendro []layout.DendroPoint) *atlas.NodeSet {
	set := &atlas.NodeSet{
		RootID: t.RootID(),
		Nodes:  make([]atlas.Node, t.Len()),
	}
	for i := 0; i < t.Len(); i++ {
		n := t.At(i)
		p := radial[i]
		d := dendro[i]
		rec := atlas.Node{
			ID:       n.ID,
			ParentID: t.ParentID(i),
			Name:     n.Name,
			Rank:     n.Rank,
			X:        p.X,
			Y:        p.Y,
			Alpha:    p.Alpha,
			Ray:      p.Ray,
			Zoom:     p.Zoom,
			DendroX:  d.X,
			DendroY:  d.Y,
			Depth:    n.Depth,
			Desc:     n.Desc,
			Coverage: states[n.ID],
			IsLeaf:   n.IsLeaf(),
		}
		if p.Wedge != nil {
			rec.Polygon = make([][2]float64, len(p.Wedge.Outline))
			for j, pt := range p.Wedge.Outline {
				rec.Polygon[j] = [2]float64{pt.X, pt.Y}
			}
			rec.CladeCenter = &[2]float64{p.Wedge.Center.X, p.Wedge.Center.Y}
		}
		set.Nodes[i] = rec
	}
	return set
}

// TileInput projects the node set onto the reduced tile records. The
// dendrogram y coordinate drives row assignment.
func TileInput(set *atlas.NodeSet) []tiles.Node {
	out := make([]tiles.Node, len(set.Nodes))
	for i, n := range set.Nodes {
		out[i] = tiles.Node{
			ID:       n.ID,
			ParentID: n.ParentID,
			X:        n.DendroX,
			Y:        n.DendroY,
			Depth:    n.Depth,
			Coverage: n.Coverage,
			Name:     n.Name,
			Rank:     n.Rank,
		}
	}
	return out
}

// hashInputs content-hashes the run inputs. Map keys marshal in sorted
// order, so the hash is stable across runs.
func hashInputs(opts Options) (string, error) {
	payload := struct {
		Edges []tree.Edge               `json:"edges"`
		Flags map[string]coverage.Flags `json:"flags"`
	}{opts.Edges, opts.Flags}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
