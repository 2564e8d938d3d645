// Package coverage classifies taxa by available experimental data and
// propagates the resulting states up the tree.
//
// Each leaf (species) is scored from three booleans into a six-level
// ordinal state, and every internal node takes the maximum state found
// anywhere in its subtree. Higher is always better: a clade containing a
// single fully covered species is itself FULL.
package coverage

import "github.com/treeatlas/treeatlas/pkg/tree"

// State is the six-level data coverage ordinal. Higher values indicate
// more complete data.
type State int8

const (
	NoData                  State = 0
	ReadsOnly               State = 1
	GenomeOnly              State = 2
	GenomeReadsNoAnnotation State = 3
	GenomeAnnotationOnly    State = 4
	Full                    State = 5
)

var stateNames = [...]string{
	"NO_DATA",
	"READS_ONLY",
	"GENOME_ONLY",
	"GENOME_READS_NO_ANNOTATION",
	"GENOME_ANNOTATION_ONLY",
	"FULL",
}

// String returns the canonical state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Flags are the per-species data availability booleans.
type Flags struct {
	HasAssembly   bool
	HasAnnotation bool
	HasReads      bool
}

// Classify maps availability flags to a coverage state. The decision
// table is ordered by priority; the first matching rule wins.
func Classify(f Flags) State {
	switch {
	case f.HasAnnotation && f.HasReads:
		return Full
	case f.HasAnnotation:
		return GenomeAnnotationOnly
	case f.HasAssembly && f.HasReads:
		return GenomeReadsNoAnnotation
	case f.HasAssembly:
		return GenomeOnly
	case f.HasReads:
		return ReadsOnly
	default:
		return NoData
	}
}

// Propagate computes the coverage state for every node.
//
// Leaves present in flags get their classification; everything else
// starts at NoData. Internal nodes are processed leaves-first and take
// max(own state, children's states). The returned map is total over the
// union of tree nodes and flag entries: IDs in flags that are not part
// of the tree keep their leaf classification untouched. That is
// intentional scoping, not an error, since tiling only consumes the
// rooted subtree.
func Propagate(t *tree.Tree, flags map[string]Flags) map[string]State {
	states := make(map[string]State, t.Len()+len(flags))
	for id, f := range flags {
		states[id] = Classify(f)
	}

	// The arena is in DFS order with every child after its parent, so a
	// reverse sweep visits leaves before their ancestors.
	byIndex := make([]State, t.Len())
	for i := 0; i < t.Len(); i++ {
		byIndex[i] = states[t.At(i).ID]
	}
	for i := t.Len() - 1; i > 0; i-- {
		p := t.At(i).Parent
		if byIndex[i] > byIndex[p] {
			byIndex[p] = byIndex[i]
		}
	}
	for i := 0; i < t.Len(); i++ {
		states[t.At(i).ID] = byIndex[i]
	}
	return states
}
