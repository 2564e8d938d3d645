package pipeline

import (
	"context"
	"testing"

	"github.com/treeatlas/treeatlas/pkg/cache"
	"github.com/treeatlas/treeatlas/pkg/coverage"
	"github.com/treeatlas/treeatlas/pkg/tree"
)

// testEdges is a small taxonomy: root 1 with two clades, one of which
// is a three-node chain.
func testEdges() []tree.Edge {
	return []tree.Edge{
		{ParentID: "", ChildID: "1", Name: "root", Rank: "no rank"},
		{ParentID: "1", ChildID: "2", Name: "left", Rank: "kingdom"},
		{ParentID: "1", ChildID: "3", Name: "right", Rank: "kingdom"},
		{ParentID: "2", ChildID: "4", Name: "leaf-a", Rank: "species"},
		{ParentID: "2", ChildID: "5", Name: "leaf-b", Rank: "species"},
		{ParentID: "3", ChildID: "6", Name: "mid", Rank: "phylum"},
		{ParentID: "6", ChildID: "7", Name: "leaf-c", Rank: "species"},
	}
}

func testFlags() map[string]coverage.Flags {
	return map[string]coverage.Flags{
		"4": {HasAssembly: true, HasAnnotation: true, HasReads: true},
		"7": {HasAssembly: true},
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Edges: testEdges()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Layout.ZoomConst == 0 {
		t.Error("expected default layout config")
	}
	if opts.Tiles == nil {
		t.Error("expected default tile builder")
	}
	if opts.Logger == nil {
		t.Error("expected default logger")
	}

	// Idempotent.
	saved := opts.Layout
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validation failed: %v", err)
	}
	if opts.Layout != saved {
		t.Error("second validation changed the layout config")
	}
}

func TestOptionsValidateRequiresEdges(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Fatal("expected error for missing edges")
	}
}

func TestRunnerExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), Options{
		Edges: testEdges(),
		Flags: testFlags(),
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("expected a run ID")
	}
	if res.Nodes.RootID != "1" {
		t.Errorf("root = %q, want 1", res.Nodes.RootID)
	}
	if res.Stats.NodeCount != 7 {
		t.Errorf("nodes = %d, want 7", res.Stats.NodeCount)
	}
	if res.Stats.LeafCount != 3 {
		t.Errorf("leaves = %d, want 3", res.Stats.LeafCount)
	}
	if res.Stats.TileCount == 0 {
		t.Error("expected at least one tile")
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.TilesHit {
		t.Error("null cache must never hit")
	}

	// The record slice follows the arena ordering: root first.
	if res.Nodes.Nodes[0].ID != "1" {
		t.Errorf("first record = %q, want the root", res.Nodes.Nodes[0].ID)
	}

	// Full coverage on leaf 4 propagates to its ancestors.
	byID := make(map[string]coverage.State, len(res.Nodes.Nodes))
	for _, n := range res.Nodes.Nodes {
		byID[n.ID] = n.Coverage
	}
	for _, id := range []string{"4", "2", "1"} {
		if byID[id] != coverage.Full {
			t.Errorf("coverage[%s] = %v, want Full", id, byID[id])
		}
	}
	if byID["5"] != coverage.NoData {
		t.Errorf("coverage[5] = %v, want NoData", byID["5"])
	}
	if byID["3"] != coverage.GenomeOnly {
		t.Errorf("coverage[3] = %v, want GenomeOnly", byID["3"])
	}
}

func TestRunnerExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("creating cache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	opts := Options{Edges: testEdges(), Flags: testFlags()}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.TilesHit {
		t.Fatal("first run must miss")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit the layout cache")
	}
	if !second.CacheInfo.TilesHit {
		t.Error("second run should hit the tile cache")
	}
	if second.Stats.NodeCount != first.Stats.NodeCount {
		t.Errorf("cached node count = %d, want %d", second.Stats.NodeCount, first.Stats.NodeCount)
	}
	if second.Stats.TileCount != first.Stats.TileCount {
		t.Errorf("cached tile count = %d, want %d", second.Stats.TileCount, first.Stats.TileCount)
	}

	// Refresh bypasses both caches.
	refreshOpts := Options{Edges: testEdges(), Flags: testFlags(), Refresh: true}
	third, err := runner.Execute(context.Background(), refreshOpts)
	if err != nil {
		t.Fatalf("refresh run failed: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.TilesHit {
		t.Error("refresh run must not read the cache")
	}
}

func TestRunnerExecuteDeterministic(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	a, err := runner.Execute(context.Background(), Options{Edges: testEdges(), Flags: testFlags()})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := runner.Execute(context.Background(), Options{Edges: testEdges(), Flags: testFlags()})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(a.Nodes.Nodes) != len(b.Nodes.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(a.Nodes.Nodes), len(b.Nodes.Nodes))
	}
	for i := range a.Nodes.Nodes {
		if a.Nodes.Nodes[i].X != b.Nodes.Nodes[i].X || a.Nodes.Nodes[i].Y != b.Nodes.Nodes[i].Y {
			t.Fatalf("node %s placed differently across runs", a.Nodes.Nodes[i].ID)
		}
	}
}

func TestBuildNodesAndTiles(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	opts := Options{Edges: testEdges(), Flags: testFlags()}

	set, err := runner.BuildNodes(context.Background(), opts)
	if err != nil {
		t.Fatalf("building nodes: %v", err)
	}
	if len(set.Nodes) != 7 {
		t.Fatalf("nodes = %d, want 7", len(set.Nodes))
	}

	tiled, err := runner.BuildTiles(context.Background(), nil, set)
	if err != nil {
		t.Fatalf("building tiles: %v", err)
	}
	if len(tiled) == 0 {
		t.Fatal("expected tiles")
	}
	for _, tl := range tiled {
		if tl.Zoom == 0 && tl.Row == 0 && len(tl.Nodes) != 7 {
			t.Errorf("zoom 0 tile has %d nodes, want all 7", len(tl.Nodes))
		}
	}
}

func TestHashInputsStable(t *testing.T) {
	a, err := hashInputs(Options{Edges: testEdges(), Flags: testFlags()})
	if err != nil {
		t.Fatal(err)
	}
	b, err := hashInputs(Options{Edges: testEdges(), Flags: testFlags()})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical inputs hashed differently")
	}

	changed := testFlags()
	changed["5"] = coverage.Flags{HasReads: true}
	c, err := hashInputs(Options{Edges: testEdges(), Flags: changed})
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Error("different flags produced the same hash")
	}
}
