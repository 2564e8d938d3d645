package layout

import "math"

// makeWedge builds the clade wedge outline for an internal node, or nil
// when the node fails the gate (zero ray or too few descendants).
//
// The outline is a half-circle arc from alpha+90° to alpha-90° at the
// node's ray, followed by an ellipse arc with semi-axes (ray, ray/6)
// rotated by alpha. The two arcs are concatenated without closing the
// ring; the centroid is the arithmetic mean of all outline points.
func makeWedge(p Placement, desc int, cfg Config) *Wedge {
	if p.Ray <= 0 || desc < cfg.MinWedgeDesc {
		return nil
	}

	a := radians(p.Alpha)
	outline := make([]Point, 0, 2*cfg.PolySamples)
	outline = append(outline, arc(p.X, p.Y, p.Ray, a+math.Pi/2, a-math.Pi/2, cfg.PolySamples)...)
	outline = append(outline, ellipseArc(p.X, p.Y, p.Ray, a, cfg.PolySamples)...)

	var cx, cy float64
	for _, pt := range outline {
		cx += pt.X
		cy += pt.Y
	}
	k := float64(len(outline))
	return &Wedge{
		Outline: outline,
		Center:  Point{X: cx / k, Y: cy / k},
	}
}

// arc samples n points of a circle of radius r around (x, y), sweeping
// the parameter from start to end (radians, endpoints included).
func arc(x, y, r, start, end float64, n int) []Point {
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		t := start
		if n > 1 {
			t = start + (end-start)*float64(i)/float64(n-1)
		}
		pts[i] = Point{X: x + r*math.Cos(t), Y: y + r*math.Sin(t)}
	}
	return pts
}

// ellipseArc samples n points of the upper half of an ellipse with
// semi-axes (r, r/6), rotated by alpha and centered at (x, y).
func ellipseArc(x, y, r, alpha float64, n int) []Point {
	a, b := r, r/6.0
	ca, sa := math.Cos(alpha), math.Sin(alpha)
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = math.Pi * float64(i) / float64(n-1)
		}
		ct, st := math.Cos(t), math.Sin(t)
		pts[i] = Point{
			X: x + a*ct*ca - b*st*sa,
			Y: y + a*ct*sa + b*st*ca,
		}
	}
	return pts
}
