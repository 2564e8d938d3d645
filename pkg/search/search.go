// Package search builds the name-lookup index over a laid-out
// taxonomy. Documents are compact JSON arrays rather than objects so a
// multi-million node index stays small enough to ship to a browser.
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/treeatlas/treeatlas/pkg/atlas"
)

// Doc is one search document. It marshals as the array
// [id, name, text, x, y, zoomview, rank], where text is the lowercased
// match target.
type Doc struct {
	ID   string
	Name string
	Text string
	X    float64
	Y    float64
	Zoom int
	Rank string
}

// MarshalJSON emits the compact array form.
func (d Doc) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.ID, d.Name, d.Text, d.X, d.Y, d.Zoom, d.Rank})
}

// UnmarshalJSON parses the compact array form.
func (d *Doc) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 7 {
		return fmt.Errorf("search document has %d fields, want 7", len(raw))
	}
	fields := []any{&d.ID, &d.Name, &d.Text, &d.X, &d.Y, &d.Zoom, &d.Rank}
	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f); err != nil {
			return fmt.Errorf("search document field %d: %w", i, err)
		}
	}
	return nil
}

// Index is an in-memory search index over all node names.
type Index struct {
	docs []Doc
}

// Build creates the index. Documents keep the node-set ordering, so
// shallow taxa sort ahead of deep ones in ties.
func Build(set *atlas.NodeSet) *Index {
	docs := make([]Doc, len(set.Nodes))
	for i := range set.Nodes {
		n := &set.Nodes[i]
		docs[i] = Doc{
			ID:   n.ID,
			Name: n.Name,
			Text: strings.ToLower(n.Name),
			X:    n.X,
			Y:    n.Y,
			Zoom: n.Zoom,
			Rank: n.Rank,
		}
	}
	return &Index{docs: docs}
}

// Len reports the document count.
func (ix *Index) Len() int { return len(ix.docs) }

// Docs exposes the underlying documents.
func (ix *Index) Docs() []Doc { return ix.docs }

// Write streams the index as a single JSON array.
func (ix *Index) Write(w io.Writer) error {
	return json.NewEncoder(w).Encode(ix.docs)
}

// Read loads an index written by Write.
func Read(r io.Reader) (*Index, error) {
	var docs []Doc
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, err
	}
	return &Index{docs: docs}, nil
}

// Query returns up to limit documents matching q, case-insensitively.
// Prefix matches rank ahead of substring matches.
func (ix *Index) Query(q string, limit int) []Doc {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" || limit <= 0 {
		return nil
	}
	var prefix, substr []Doc
	for _, d := range ix.docs {
		switch {
		case strings.HasPrefix(d.Text, q):
			prefix = append(prefix, d)
		case strings.Contains(d.Text, q):
			substr = append(substr, d)
		}
		if len(prefix) >= limit {
			return prefix[:limit]
		}
	}
	out := prefix
	for _, d := range substr {
		if len(out) >= limit {
			break
		}
		out = append(out, d)
	}
	return out
}
