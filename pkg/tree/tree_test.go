package tree

import (
	"errors"
	"testing"
)

func edges() []Edge {
	return []Edge{
		{ParentID: "", ChildID: "1", Name: "root", Rank: "no rank"},
		{ParentID: "1", ChildID: "3", Name: "beta", Rank: "kingdom"},
		{ParentID: "1", ChildID: "2", Name: "alpha", Rank: "kingdom"},
		{ParentID: "2", ChildID: "4", Name: "leaf-a", Rank: "species"},
		{ParentID: "2", ChildID: "5", Name: "leaf-b", Rank: "species"},
		{ParentID: "3", ChildID: "6", Name: "gamma", Rank: "phylum"},
	}
}

func TestBuild(t *testing.T) {
	tr, err := Build(edges(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if tr.Len() != 6 {
		t.Fatalf("len = %d, want 6", tr.Len())
	}
	if tr.RootID() != "1" {
		t.Errorf("root = %q, want 1", tr.RootID())
	}
	if tr.LeafCount() != 3 {
		t.Errorf("leaves = %d, want 3", tr.LeafCount())
	}
	if tr.MaxDepth() != 2 {
		t.Errorf("max depth = %d, want 2", tr.MaxDepth())
	}
}

func TestBuildChildOrdering(t *testing.T) {
	tr, err := Build(edges(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	root := tr.Root()
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	// Children sort by ID: "2" before "3".
	if got := tr.At(root.Children[0]).ID; got != "2" {
		t.Errorf("first child = %q, want 2", got)
	}
	if got := tr.At(root.Children[1]).ID; got != "3" {
		t.Errorf("second child = %q, want 3", got)
	}
}

func TestBuildArenaOrdering(t *testing.T) {
	tr, err := Build(edges(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	// Every child's arena index is greater than its parent's. The
	// descendant and coverage sweeps rely on this.
	for i := 1; i < tr.Len(); i++ {
		if tr.At(i).Parent >= i {
			t.Fatalf("node %d has parent index %d", i, tr.At(i).Parent)
		}
	}
}

func TestDescendantCounts(t *testing.T) {
	tr, err := Build(edges(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := map[string]int{"1": 6, "2": 3, "3": 2, "4": 1, "5": 1, "6": 1}
	for id, desc := range want {
		i := tr.Lookup(id)
		if i < 0 {
			t.Fatalf("node %s missing", id)
		}
		if got := tr.At(i).Desc; got != desc {
			t.Errorf("desc[%s] = %d, want %d", id, got, desc)
		}
	}
}

func TestDepths(t *testing.T) {
	tr, err := Build(edges(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := map[string]int{"1": 0, "2": 1, "3": 1, "4": 2, "5": 2, "6": 2}
	for id, depth := range want {
		if got := tr.At(tr.Lookup(id)).Depth; got != depth {
			t.Errorf("depth[%s] = %d, want %d", id, got, depth)
		}
	}
}

func TestExplicitRoot(t *testing.T) {
	tr, err := Build(edges(), Options{RootID: "2"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if tr.RootID() != "2" {
		t.Errorf("root = %q, want 2", tr.RootID())
	}
	if tr.Len() != 3 {
		t.Errorf("len = %d, want subtree of 3", tr.Len())
	}
	if tr.Lookup("6") != -1 {
		t.Error("node outside the subtree should be absent")
	}
}

func TestExplicitRootMissing(t *testing.T) {
	_, err := Build(edges(), Options{RootID: "99"})
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("err = %v, want ErrRootNotFound", err)
	}
}

func TestEmptyEdgeList(t *testing.T) {
	_, err := Build(nil, Options{})
	if !errors.Is(err, ErrNoNodes) {
		t.Fatalf("err = %v, want ErrNoNodes", err)
	}
}

func TestZeroParentSentinel(t *testing.T) {
	tr, err := Build([]Edge{
		{ParentID: "0", ChildID: "9", Name: "root"},
		{ParentID: "9", ChildID: "10", Name: "kid"},
	}, Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if tr.RootID() != "9" {
		t.Errorf("root = %q, want 9", tr.RootID())
	}
}

func TestRootFallbackNeverAChild(t *testing.T) {
	// No sentinel parents: the root is the node that never appears as
	// a child.
	tr, err := Build([]Edge{
		{ParentID: "a", ChildID: "b"},
		{ParentID: "b", ChildID: "c"},
	}, Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if tr.RootID() != "a" {
		t.Errorf("root = %q, want a", tr.RootID())
	}
}

func TestPureCycleHasNoRoot(t *testing.T) {
	_, err := Build([]Edge{
		{ParentID: "a", ChildID: "b"},
		{ParentID: "b", ChildID: "a"},
	}, Options{})
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("err = %v, want ErrRootNotFound", err)
	}
}

func TestMissingNameAndRankDefaults(t *testing.T) {
	tr, err := Build([]Edge{
		{ParentID: "", ChildID: "7"},
	}, Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	root := tr.Root()
	if root.Name != "7" {
		t.Errorf("name = %q, want the ID", root.Name)
	}
	if root.Rank != "no rank" {
		t.Errorf("rank = %q, want %q", root.Rank, "no rank")
	}
}

func TestDeepChain(t *testing.T) {
	// A chain deep enough to blow the call stack if traversal recursed.
	const depth = 200_000
	chain := make([]Edge, 0, depth)
	chain = append(chain, Edge{ParentID: "", ChildID: "n0"})
	for i := 1; i < depth; i++ {
		chain = append(chain, Edge{
			ParentID: "n" + itoa(i-1),
			ChildID:  "n" + itoa(i),
		})
	}
	tr, err := Build(chain, Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if tr.Len() != depth {
		t.Fatalf("len = %d, want %d", tr.Len(), depth)
	}
	if tr.MaxDepth() != depth-1 {
		t.Errorf("max depth = %d, want %d", tr.MaxDepth(), depth-1)
	}
	if tr.Root().Desc != depth {
		t.Errorf("root desc = %d, want %d", tr.Root().Desc, depth)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
