// Package tiles partitions a laid-out taxonomy into bounded-size tiles
// indexed by zoom level and row.
//
// Tiling walks zoom levels 0 through [MaxZoom]. At zoom z the normalized
// y axis is cut into 2^z rows, and each row's node set is reduced until
// it fits the per-tile budget. Reduction runs in two passes: chain
// collapsing first (drop strictly pass-through degree-1 nodes while
// keeping every leaf, branch and chain head), then stratified
// aggregation (keep shallow structural nodes, stride-sample the deep
// remainder, preferring nodes that carry data).
//
// Each tile is reduced independently from the same read-only node slice,
// so zoom levels are computed in parallel.
package tiles

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/treeatlas/treeatlas/pkg/coverage"
)

const (
	// MaxZoom is the deepest zoom level; rows per level are 2^z.
	MaxZoom = 7

	// DefaultBudget is the target maximum node count per tile.
	DefaultBudget = 20_000

	// DefaultFastPath is the bucket size above which chain collapsing
	// is skipped in favor of direct aggregation. Buckets past this
	// threshold lose the structural preservation guarantee; that is a
	// deliberate precision cliff, not an oversight.
	DefaultFastPath = 100_000

	// StructuralDepth is the depth cutoff separating structural nodes
	// (always kept first) from the sampled remainder.
	StructuralDepth = 8
)

// Node is the reduced per-node record carried by tiles.
type Node struct {
	ID       string         `json:"id"`
	ParentID string         `json:"parent_id"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Depth    int            `json:"depth"`
	Coverage coverage.State `json:"coverage_state"`
	Name     string         `json:"name"`
	Rank     string         `json:"rank"`
}

// Tile is one (zoom, row) partition of the laid-out tree.
type Tile struct {
	Zoom  int    `json:"zoom"`
	Row   int    `json:"row"`
	Nodes []Node `json:"nodes"`
}

// Normalize rescales raw y values to [0,1] before row assignment.
// Equal bounds mean the input is already normalized.
type Normalize struct {
	YMin float64
	YMax float64
}

func (n Normalize) apply(y float64) float64 {
	if n.YMax == n.YMin {
		return y
	}
	return (y - n.YMin) / (n.YMax - n.YMin)
}

// Builder buckets nodes into tiles and applies level-of-detail
// reduction. The zero value is not usable; use NewBuilder.
type Builder struct {
	Budget   int
	FastPath int
	Workers  int
	Norm     Normalize
}

// NewBuilder returns a Builder with the default budget, fast-path
// threshold, and one worker per zoom level.
func NewBuilder() *Builder {
	return &Builder{
		Budget:   DefaultBudget,
		FastPath: DefaultFastPath,
		Workers:  4,
	}
}

// Build partitions the node slice into tiles for every zoom level.
// Zoom levels are distributed over a bounded worker pool; the input is
// only ever read. Tiles are returned ordered by (zoom, row).
func (b *Builder) Build(ctx context.Context, nodes []Node) ([]Tile, error) {
	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	perZoom := make([][]Tile, MaxZoom+1)
	zoomCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for z := range zoomCh {
				perZoom[z] = b.buildZoom(z, nodes)
			}
		}()
	}

	var err error
	for z := 0; z <= MaxZoom; z++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case zoomCh <- z:
			continue
		}
		break
	}
	close(zoomCh)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	var tiles []Tile
	for _, zt := range perZoom {
		tiles = append(tiles, zt...)
	}
	return tiles, nil
}

// buildZoom buckets nodes into the 2^z rows of one zoom level and
// reduces each bucket.
func (b *Builder) buildZoom(z int, nodes []Node) []Tile {
	rows := 1 << z
	buckets := make([][]Node, rows)
	for _, n := range nodes {
		r := int(math.Floor(b.Norm.apply(n.Y) * float64(rows)))
		if r < 0 {
			r = 0
		}
		if r >= rows {
			r = rows - 1
		}
		buckets[r] = append(buckets[r], n)
	}

	tiles := make([]Tile, rows)
	for r := range buckets {
		tiles[r] = Tile{Zoom: z, Row: r, Nodes: b.reduce(buckets[r])}
	}
	return tiles
}

// reduce applies level-of-detail reduction to one bucket: chain collapse
// followed by stratified aggregation, or aggregation alone for buckets
// past the fast-path threshold.
func (b *Builder) reduce(bucket []Node) []Node {
	if len(bucket) <= b.Budget {
		return bucket
	}
	if len(bucket) > b.FastPath {
		return b.aggregate(bucket)
	}
	return b.aggregate(collapseChains(bucket))
}

// collapseChains drops strictly single-child interior nodes from the
// bucket. Adjacency is recomputed restricted to the bucket: a node is
// kept when it is a leaf (no in-bucket children), a branch (two or
// more), or a chain head (its sole child is itself a branch or leaf).
// Mid-chain nodes, whose sole child continues the chain, are removed.
func collapseChains(bucket []Node) []Node {
	present := make(map[string]struct{}, len(bucket))
	for _, n := range bucket {
		present[n.ID] = struct{}{}
	}
	children := make(map[string][]string, len(bucket))
	for _, n := range bucket {
		if n.ParentID == "" {
			continue
		}
		if _, ok := present[n.ParentID]; ok {
			children[n.ParentID] = append(children[n.ParentID], n.ID)
		}
	}

	kept := bucket[:0:0]
	for _, n := range bucket {
		kids := children[n.ID]
		switch {
		case len(kids) == 0, len(kids) >= 2:
			kept = append(kept, n)
		case len(children[kids[0]]) != 1:
			kept = append(kept, n) // chain head: next node ends the chain
		}
	}
	return kept
}

// aggregate reduces a bucket to the budget via stratified sampling.
// Structural nodes (depth <= StructuralDepth) come first, ordered by
// depth then y. The remainder is split by data coverage and each subset
// is sampled with a fixed stride to approximate even spatial coverage,
// spending the leftover budget on data-bearing nodes first.
func (b *Builder) aggregate(bucket []Node) []Node {
	if len(bucket) <= b.Budget {
		return bucket
	}

	sorted := make([]Node, len(bucket))
	copy(sorted, bucket)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Depth != sorted[j].Depth {
			return sorted[i].Depth < sorted[j].Depth
		}
		return sorted[i].Y < sorted[j].Y
	})

	var structural, withData, withoutData []Node
	for _, n := range sorted {
		switch {
		case n.Depth <= StructuralDepth:
			structural = append(structural, n)
		case n.Coverage > coverage.NoData:
			withData = append(withData, n)
		default:
			withoutData = append(withoutData, n)
		}
	}

	if len(structural) >= b.Budget {
		return structural[:b.Budget]
	}

	takeWith := min(len(withData), b.Budget-len(structural))
	takeWithout := max(0, b.Budget-len(structural)-takeWith)

	result := structural
	result = append(result, strideSample(withData, takeWith)...)
	result = append(result, strideSample(withoutData, takeWithout)...)
	if len(result) > b.Budget {
		result = result[:b.Budget]
	}
	return result
}

// strideSample takes up to quota elements from subset at a fixed stride.
func strideSample(subset []Node, quota int) []Node {
	if quota <= 0 {
		return nil
	}
	if len(subset) <= quota {
		return subset
	}
	stride := max(1, len(subset)/quota)
	out := make([]Node, 0, quota)
	for i := 0; i < len(subset) && len(out) < quota; i += stride {
		out = append(out, subset[i])
	}
	return out
}
