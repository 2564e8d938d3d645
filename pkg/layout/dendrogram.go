package layout

import "github.com/treeatlas/treeatlas/pkg/tree"

// DendroPoint is the dendrogram layout result for one node. X and Y are
// normalized to [0,1]; Y is the coordinate consumed by tile row
// bucketing.
type DendroPoint struct {
	X     float64
	Y     float64
	Depth int
}

// Dendrogram computes the rectangular dendrogram layout: x is the node's
// depth scaled by the tree's maximum depth, y is its leaf-order index
// scaled across all leaves. Leaves are numbered in DFS order (children
// sorted by ID); an internal node sits at the midpoint of its children's
// index range.
//
// The returned slice is aligned with the tree's arena indices.
func Dendrogram(t *tree.Tree) []DendroPoint {
	leafIndex := make([]float64, t.Len())
	nextLeaf := 0

	// Post-order with an explicit visited flag in the frame: a node's
	// midpoint needs its children's indices first.
	type frame struct {
		idx     int
		visited bool
	}
	stack := []frame{{idx: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.At(f.idx)
		if f.visited {
			lo := leafIndex[n.Children[0]]
			hi := lo
			for _, c := range n.Children[1:] {
				if leafIndex[c] < lo {
					lo = leafIndex[c]
				}
				if leafIndex[c] > hi {
					hi = leafIndex[c]
				}
			}
			leafIndex[f.idx] = (lo + hi) / 2.0
			continue
		}
		if len(n.Children) == 0 {
			leafIndex[f.idx] = float64(nextLeaf)
			nextLeaf++
			continue
		}
		stack = append(stack, frame{idx: f.idx, visited: true})
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: n.Children[i]})
		}
	}

	maxDepth := t.MaxDepth()
	out := make([]DendroPoint, t.Len())
	for i := range out {
		n := t.At(i)
		x := 0.0
		if maxDepth > 0 {
			x = float64(n.Depth) / float64(maxDepth)
		}
		y := 0.5
		if nextLeaf > 1 {
			y = leafIndex[i] / float64(nextLeaf-1)
		}
		out[i] = DendroPoint{X: x, Y: y, Depth: n.Depth}
	}
	return out
}
