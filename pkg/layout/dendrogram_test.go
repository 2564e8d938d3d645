package layout

import (
	"math"
	"testing"

	"github.com/treeatlas/treeatlas/pkg/tree"
)

func TestDendrogramLeafSpacing(t *testing.T) {
	tr := fanTree(t)
	out := Dendrogram(tr)

	// Leaves in DFS order: B, D, E at y = 0, 0.5, 1.
	want := map[string]float64{"B": 0, "D": 0.5, "E": 1}
	for id, y := range want {
		if got := out[tr.Lookup(id)].Y; math.Abs(got-y) > 1e-12 {
			t.Errorf("y[%s] = %g, want %g", id, got, y)
		}
	}
}

func TestDendrogramInternalMidpoint(t *testing.T) {
	tr := fanTree(t)
	out := Dendrogram(tr)

	// C spans leaves D and E, so it sits between them.
	c := out[tr.Lookup("C")]
	if math.Abs(c.Y-0.75) > 1e-12 {
		t.Errorf("y[C] = %g, want 0.75", c.Y)
	}
	// The root midpoints its children's indices (B at 0, C at 1.5),
	// not the full leaf range.
	if math.Abs(out[0].Y-0.375) > 1e-12 {
		t.Errorf("y[root] = %g, want 0.375", out[0].Y)
	}
}

func TestDendrogramXNormalized(t *testing.T) {
	tr := fanTree(t)
	out := Dendrogram(tr)

	if out[0].X != 0 {
		t.Errorf("x[root] = %g, want 0", out[0].X)
	}
	// D is at the maximum depth.
	if got := out[tr.Lookup("D")].X; got != 1 {
		t.Errorf("x[D] = %g, want 1", got)
	}
	// B is halfway down.
	if got := out[tr.Lookup("B")].X; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("x[B] = %g, want 0.5", got)
	}
}

func TestDendrogramBounds(t *testing.T) {
	tr := fanTree(t)
	for i, p := range Dendrogram(tr) {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Errorf("point %d out of unit square: (%g, %g)", i, p.X, p.Y)
		}
	}
}

func TestDendrogramSingleLeaf(t *testing.T) {
	tr := build(t, []tree.Edge{{ParentID: "", ChildID: "only"}})
	out := Dendrogram(tr)
	if out[0].Y != 0.5 {
		t.Errorf("single leaf y = %g, want 0.5", out[0].Y)
	}
	if out[0].X != 0 {
		t.Errorf("single leaf x = %g, want 0", out[0].X)
	}
}

func TestDendrogramDeepChain(t *testing.T) {
	edges := []tree.Edge{{ParentID: "", ChildID: nodeID(0)}}
	const depth = 50_000
	for i := 1; i < depth; i++ {
		edges = append(edges, tree.Edge{ParentID: nodeID(i - 1), ChildID: nodeID(i)})
	}
	tr := build(t, edges)
	out := Dendrogram(tr)

	// One leaf: every node shares its y.
	for i := range out {
		if out[i].Y != 0.5 {
			t.Fatalf("node %d y = %g, want 0.5", i, out[i].Y)
		}
	}
	if out[depth-1].X != 1 {
		t.Errorf("deepest x = %g, want 1", out[depth-1].X)
	}
}
