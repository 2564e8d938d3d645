// Package geojson exports a laid-out taxonomy as GeoJSON feature
// collections. Three layers are produced: one point per node, one line
// segment per parent-child edge, and one polygon per clade wedge. The
// layers are plain GeoJSON; map-tile byte encoding is out of scope.
package geojson

import (
	"encoding/json"
	"io"

	"github.com/treeatlas/treeatlas/pkg/atlas"
)

// Geometry is a GeoJSON geometry. Coordinates take whatever nesting
// the geometry type requires.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Write streams the collection as JSON to w.
func (c *FeatureCollection) Write(w io.Writer) error {
	return json.NewEncoder(w).Encode(c)
}

func newCollection(n int) *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, n)}
}

func nodeProperties(n *atlas.Node) map[string]any {
	return map[string]any{
		"taxid":    n.ID,
		"name":     n.Name,
		"rank":     n.Rank,
		"zoomview": n.Zoom,
		"coverage": n.Coverage.String(),
		"leaf":     n.IsLeaf,
		"nbdesc":   n.Desc,
	}
}

// Points builds the per-node point layer.
func Points(set *atlas.NodeSet) *FeatureCollection {
	c := newCollection(len(set.Nodes))
	for i := range set.Nodes {
		n := &set.Nodes[i]
		c.Features = append(c.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{n.X, n.Y}},
			Properties: nodeProperties(n),
		})
	}
	return c
}

// Lines builds the branch layer: one segment from each node to its
// parent. The root has no parent and contributes no segment.
func Lines(set *atlas.NodeSet) *FeatureCollection {
	pos := make(map[string][2]float64, len(set.Nodes))
	for i := range set.Nodes {
		pos[set.Nodes[i].ID] = [2]float64{set.Nodes[i].X, set.Nodes[i].Y}
	}
	c := newCollection(len(set.Nodes))
	for i := range set.Nodes {
		n := &set.Nodes[i]
		if n.ParentID == "" {
			continue
		}
		parent, ok := pos[n.ParentID]
		if !ok {
			continue
		}
		c.Features = append(c.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "LineString",
				Coordinates: [][2]float64{parent, {n.X, n.Y}},
			},
			Properties: map[string]any{
				"taxid":    n.ID,
				"parent":   n.ParentID,
				"zoomview": n.Zoom,
			},
		})
	}
	return c
}

// Polygons builds the clade wedge layer. Rings are closed by repeating
// the first vertex, and each feature carries the clade centroid so
// label placement does not have to recompute it.
func Polygons(set *atlas.NodeSet) *FeatureCollection {
	c := newCollection(len(set.Nodes) / 4)
	for i := range set.Nodes {
		n := &set.Nodes[i]
		if len(n.Polygon) == 0 {
			continue
		}
		ring := make([][2]float64, 0, len(n.Polygon)+1)
		ring = append(ring, n.Polygon...)
		ring = append(ring, n.Polygon[0])
		props := nodeProperties(n)
		if n.CladeCenter != nil {
			props["center"] = *n.CladeCenter
		}
		c.Features = append(c.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Polygon", Coordinates: [][][2]float64{ring}},
			Properties: props,
		})
	}
	return c
}
