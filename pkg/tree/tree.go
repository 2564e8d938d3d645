// Package tree builds rooted taxonomy trees from flat parent/child edge
// lists.
//
// Trees are stored as an arena of nodes addressed by index rather than as
// pointer chains. Taxonomies routinely reach depths in the thousands, so
// every traversal in this package is iterative with an explicit work
// stack; nothing here recurses on tree depth.
//
// Child ordering is deterministic (sorted by child ID), which makes every
// downstream computation (descendant counts, layout, tiling) reproducible
// for a given edge list.
package tree

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrRootNotFound is returned by [Build] when an explicitly requested
	// root ID does not appear in the edge-derived node set.
	ErrRootNotFound = errors.New("root not found")

	// ErrNoNodes is returned by [Build] when the edge list yields no nodes.
	ErrNoNodes = errors.New("edge list contains no nodes")

	// ErrMalformedEdge is returned by edge readers for rows missing
	// required fields. Malformed edges are skipped, not fatal.
	ErrMalformedEdge = errors.New("malformed edge")
)

// Edge is one parent/child relation from the input hierarchy.
// IDs are opaque tokens; the child carries its display name and rank.
type Edge struct {
	ParentID string
	ChildID  string
	Name     string
	Rank     string
}

// Node is a single taxon in the arena. Parent and Children hold arena
// indices, not IDs. Parent is -1 for the root.
type Node struct {
	ID       string
	Name     string
	Rank     string
	Parent   int
	Children []int
	Depth    int

	// Desc is the descendant count: the node itself plus all nodes below
	// it. Computed once during Build and frozen afterwards.
	Desc int
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Tree is an immutable rooted tree over an arena of nodes.
// Index 0 is always the root.
type Tree struct {
	nodes []Node
	index map[string]int
}

// Options configures tree construction.
type Options struct {
	// RootID restricts the tree to the subtree rooted at this ID.
	// Empty means auto-detect the root from the edge list.
	RootID string
}

// Build constructs a rooted tree from an edge list.
//
// Root detection: a node is a root candidate if its parent ID is the
// empty/zero sentinel or never appears as a child in the edge list. With
// multiple candidates the lexicographically smallest ID wins. When
// opts.RootID is set the result is the subtree rooted there;
// ErrRootNotFound is returned if that ID is absent.
//
// Children are ordered by ID. Depth and descendant counts are computed
// during construction and never recomputed.
func Build(edges []Edge, opts Options) (*Tree, error) {
	info := make(map[string]Edge, len(edges))
	children := make(map[string][]string)
	allIDs := make(map[string]struct{}, len(edges))
	isChild := make(map[string]struct{}, len(edges))

	for _, e := range edges {
		if e.ChildID == "" {
			continue
		}
		info[e.ChildID] = e
		allIDs[e.ChildID] = struct{}{}
		isChild[e.ChildID] = struct{}{}
		if e.ParentID != "" && e.ParentID != "0" {
			allIDs[e.ParentID] = struct{}{}
			children[e.ParentID] = append(children[e.ParentID], e.ChildID)
		}
	}
	if len(allIDs) == 0 {
		return nil, ErrNoNodes
	}

	rootID := opts.RootID
	if rootID != "" {
		if _, ok := allIDs[rootID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrRootNotFound, rootID)
		}
	} else {
		rootID = detectRoot(edges, allIDs, isChild)
		if rootID == "" {
			return nil, fmt.Errorf("%w: no candidate in edge list", ErrRootNotFound)
		}
	}

	for _, kids := range children {
		slices.Sort(kids)
	}

	t := &Tree{index: make(map[string]int)}
	t.grow(rootID, children, info)
	t.countDescendants()
	return t, nil
}

// detectRoot picks the root from edge-level candidates, falling back to
// nodes that never appear as a child. Ties break to the smallest ID.
// Returns "" when every node is somebody's child (a pure cycle).
func detectRoot(edges []Edge, allIDs, isChild map[string]struct{}) string {
	var candidates []string
	for _, e := range edges {
		if e.ChildID == "" {
			continue
		}
		if e.ParentID == "" || e.ParentID == "0" {
			candidates = append(candidates, e.ChildID)
			continue
		}
		if _, seen := allIDs[e.ParentID]; !seen {
			candidates = append(candidates, e.ChildID)
		}
	}
	if len(candidates) == 0 {
		for id := range allIDs {
			if _, ok := isChild[id]; !ok {
				candidates = append(candidates, id)
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	slices.Sort(candidates)
	return candidates[0]
}

// grow fills the arena with the subtree under rootID in DFS order,
// assigning depths as it goes.
func (t *Tree) grow(rootID string, children map[string][]string, info map[string]Edge) {
	type frame struct {
		id     string
		parent int
		depth  int
	}
	stack := []frame{{id: rootID, parent: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := t.index[f.id]; dup {
			continue
		}

		e := info[f.id]
		name, rank := e.Name, e.Rank
		if name == "" {
			name = f.id
		}
		if rank == "" {
			rank = "no rank"
		}
		idx := len(t.nodes)
		t.nodes = append(t.nodes, Node{
			ID:     f.id,
			Name:   name,
			Rank:   rank,
			Parent: f.parent,
			Depth:  f.depth,
		})
		t.index[f.id] = idx
		if f.parent >= 0 {
			t.nodes[f.parent].Children = append(t.nodes[f.parent].Children, idx)
		}

		// Push children reversed so DFS visits them in sorted ID order.
		kids := children[f.id]
		for i := len(kids) - 1; i >= 0; i-- {
			if _, dup := t.index[kids[i]]; !dup {
				stack = append(stack, frame{id: kids[i], parent: idx, depth: f.depth + 1})
			}
		}
	}
}

// countDescendants runs one iterative post-order pass. Children are
// appended to the arena after their parent, so a reverse arena sweep is
// a valid post-order for this accumulation.
func (t *Tree) countDescendants() {
	for i := range t.nodes {
		t.nodes[i].Desc = 1
	}
	for i := len(t.nodes) - 1; i > 0; i-- {
		t.nodes[t.nodes[i].Parent].Desc += t.nodes[i].Desc
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.nodes[0] }

// RootID returns the root node's ID.
func (t *Tree) RootID() string { return t.nodes[0].ID }

// At returns the node at arena index i.
func (t *Tree) At(i int) *Node { return &t.nodes[i] }

// Lookup returns the arena index for an ID, or -1 if absent.
func (t *Tree) Lookup(id string) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// ParentID returns the parent's ID for arena index i, or "" for the root.
func (t *Tree) ParentID(i int) string {
	p := t.nodes[i].Parent
	if p < 0 {
		return ""
	}
	return t.nodes[p].ID
}

// MaxDepth returns the deepest level in the tree (root is 0).
func (t *Tree) MaxDepth() int {
	max := 0
	for i := range t.nodes {
		if t.nodes[i].Depth > max {
			max = t.nodes[i].Depth
		}
	}
	return max
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	n := 0
	for i := range t.nodes {
		if len(t.nodes[i].Children) == 0 {
			n++
		}
	}
	return n
}
