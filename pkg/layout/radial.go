package layout

import (
	"math"

	"github.com/treeatlas/treeatlas/pkg/tree"
)

// Radial computes the radial layout for every node in the tree. The
// returned slice is aligned with the tree's arena indices.
//
// Each node lays out its own children before they are descended into:
// angular spans are allocated proportionally to the square root of each
// child's descendant count, rays shrink toward the leaves, and the
// children fan out across the parent's 180-degree forward span.
func Radial(t *tree.Tree, cfg Config) []Placement {
	out := make([]Placement, t.Len())
	out[0] = Placement{
		X:     cfg.RootX,
		Y:     cfg.RootY,
		Alpha: cfg.RootAlpha,
		Ray:   cfg.RootRay,
		Zoom:  zoomAt(cfg.RootRay, cfg.ZoomConst),
	}

	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.At(idx)
		if len(n.Children) == 0 {
			continue
		}
		placeChildren(t, idx, out, cfg)
		for _, c := range n.Children {
			stack = append(stack, c)
		}
	}

	for i := range out {
		n := t.At(i)
		if len(n.Children) > 0 {
			out[i].Wedge = makeWedge(out[i], n.Desc, cfg)
		}
	}
	return out
}

// placeChildren assigns ray, angle, position and zoom to every child of
// the node at parent index p.
func placeChildren(t *tree.Tree, p int, out []Placement, cfg Config) {
	n := t.At(p)
	parent := out[p]
	kids := n.Children

	// Angle allocation: half-angles proportional to sqrt(desc).
	// A non-positive total cannot occur with descendant counts >= 1,
	// but is substituted rather than raised.
	total := 0.0
	for _, c := range kids {
		total += math.Sqrt(float64(t.At(c).Desc))
	}
	if total <= 0 {
		total = 1.0
	}
	for _, c := range kids {
		out[c].Ang = 180.0 * math.Sqrt(float64(t.At(c).Desc)) / total / 2.0
	}

	// Ray for each child. A sole child keeps most of the parent's
	// budget (20% shrink for a subtree, 50% for a bare leaf); siblings
	// split it with the tangent formula.
	for _, c := range kids {
		switch {
		case len(kids) == 1 && t.At(c).Desc > 1:
			out[c].Ray = parent.Ray - parent.Ray*0.20
		case len(kids) == 1:
			out[c].Ray = parent.Ray - parent.Ray*0.50
		default:
			tan := math.Tan(radians(out[c].Ang))
			out[c].Ray = parent.Ray * tan / (1.0 + tan)
		}
	}

	// Angular placement: double each half-angle, take the running sum,
	// and keep every second value. Slot i ends at 2*ang(0..i-1)+ang(i),
	// centering each child inside its own slot. The whole fan is then
	// aligned with the parent's absolute angle.
	cum := 0.0
	for i, c := range kids {
		if i == 0 {
			cum = out[c].Ang
		} else {
			cum += out[kids[i-1]].Ang + out[c].Ang
		}
		out[c].Alpha = cum - (90.0 - parent.Alpha)

		dist := parent.Ray - out[c].Ray
		out[c].X = parent.X + dist*math.Cos(radians(out[c].Alpha))
		out[c].Y = parent.Y + dist*math.Sin(radians(out[c].Alpha))
		out[c].Zoom = zoomAt(out[c].Ray, cfg.ZoomConst)
	}
}
