// Package layout assigns 2-D positions to every node of a taxonomy tree.
//
// Two layouts are provided. The radial layout places the tree as a fan of
// nested wedges: each node owns an angular span and a shrinking radius
// budget (its "ray"), and sufficiently large clades additionally get a
// wedge outline polygon. The dendrogram layout is a rectangular
// projection (x = depth, y = leaf order) whose normalized y coordinate
// drives tile row assignment.
//
// Both layouts are deterministic and purely functional over the tree:
// constants are threaded through an explicit [Config] value, and all
// traversals use explicit work stacks so trees thousands of levels deep
// lay out without touching the call stack.
package layout

import "math"

// Config holds the radial layout constants. The zero value is not
// usable; start from [DefaultConfig].
type Config struct {
	// Root frame: position, absolute angle (degrees) and radius budget.
	RootX     float64
	RootY     float64
	RootAlpha float64
	RootRay   float64

	// ZoomConst calibrates the ray → minimum-zoom conversion.
	ZoomConst float64

	// PolySamples is the point count per arc of a clade wedge outline.
	PolySamples int

	// MinWedgeDesc is the minimum descendant count for a clade to
	// receive a wedge polygon.
	MinWedgeDesc int
}

// DefaultConfig returns the standard layout constants.
func DefaultConfig() Config {
	return Config{
		RootX:        -6.0,
		RootY:        -0.339746,
		RootAlpha:    150.0,
		RootRay:      10.0,
		ZoomConst:    30.0,
		PolySamples:  10,
		MinWedgeDesc: 3,
	}
}

// Point is a position in the layout plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Wedge is the renderable outline of a large clade: a half-circle arc
// joined to an ellipse arc, plus the outline centroid.
type Wedge struct {
	Outline []Point `json:"outline"`
	Center  Point   `json:"center"`
}

// Placement is the radial layout result for one node, indexed by the
// node's arena position.
type Placement struct {
	X     float64
	Y     float64
	Alpha float64 // absolute angle, degrees
	Ang   float64 // half-angle of the node's slot, degrees
	Ray   float64 // remaining radius budget
	Zoom  int     // minimum zoom level at which the node renders
	Wedge *Wedge  // nil unless the clade passes the wedge gate
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }

// zoomAt converts a ray to the minimum zoom threshold. A zero ray is a
// legitimate terminal state, not an error.
func zoomAt(ray, zoomConst float64) int {
	if ray <= 0 {
		return 0
	}
	z := int(math.Ceil(math.Log2(zoomConst / ray)))
	if z < 0 {
		return 0
	}
	return z
}
