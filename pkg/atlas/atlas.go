// Package atlas defines the serializable per-node records produced by
// the pipeline and consumed by exporters (GeoJSON, search index, rank
// statistics) and the tile builder.
//
// The types here are the stable output contract: they marshal to JSON
// and are what gets cached between pipeline stages.
package atlas

import (
	"encoding/json"
	"io"

	"github.com/treeatlas/treeatlas/pkg/coverage"
)

// Node is the full laid-out record for one taxon.
type Node struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Rank     string `json:"rank"`

	// Radial layout.
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Alpha float64 `json:"alpha"`
	Ray   float64 `json:"ray"`
	Zoom  int     `json:"zoomview"`

	// Dendrogram layout, normalized to [0,1]; DendroY drives tiling.
	DendroX float64 `json:"dendro_x"`
	DendroY float64 `json:"dendro_y"`
	Depth   int     `json:"depth"`

	Desc     int            `json:"descendant_count"`
	Coverage coverage.State `json:"coverage_state"`
	IsLeaf   bool           `json:"is_leaf"`

	// Wedge geometry, present only for sufficiently large clades.
	Polygon     [][2]float64 `json:"polygon,omitempty"`
	CladeCenter *[2]float64  `json:"clade_center,omitempty"`
}

// NodeSet is the pipeline's layout-stage output: all node records plus
// the root they hang from.
type NodeSet struct {
	RootID string `json:"root_id"`
	Nodes  []Node `json:"nodes"`
}

// Marshal serializes a node set to compact JSON.
func (s *NodeSet) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Write streams the node set as JSON to w.
func (s *NodeSet) Write(w io.Writer) error {
	return json.NewEncoder(w).Encode(s)
}

// ReadNodeSet decodes a node set from r.
func ReadNodeSet(r io.Reader) (*NodeSet, error) {
	var s NodeSet
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UnmarshalNodeSet decodes a node set from JSON bytes.
func UnmarshalNodeSet(data []byte) (*NodeSet, error) {
	var s NodeSet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
