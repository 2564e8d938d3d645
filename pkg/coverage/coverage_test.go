package coverage

import (
	"testing"

	"github.com/treeatlas/treeatlas/pkg/tree"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  State
	}{
		{"nothing", Flags{}, NoData},
		{"reads only", Flags{HasReads: true}, ReadsOnly},
		{"assembly only", Flags{HasAssembly: true}, GenomeOnly},
		{"assembly and reads", Flags{HasAssembly: true, HasReads: true}, GenomeReadsNoAnnotation},
		{"annotation only", Flags{HasAnnotation: true}, GenomeAnnotationOnly},
		{"annotation and assembly", Flags{HasAssembly: true, HasAnnotation: true}, GenomeAnnotationOnly},
		{"annotation and reads", Flags{HasAnnotation: true, HasReads: true}, Full},
		{"everything", Flags{HasAssembly: true, HasAnnotation: true, HasReads: true}, Full},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.flags); got != tc.want {
				t.Errorf("Classify(%+v) = %v, want %v", tc.flags, got, tc.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if Full.String() != "FULL" {
		t.Errorf("Full = %q", Full.String())
	}
	if NoData.String() != "NO_DATA" {
		t.Errorf("NoData = %q", NoData.String())
	}
	if State(42).String() != "UNKNOWN" {
		t.Errorf("out of range = %q", State(42).String())
	}
}

func TestStateOrdering(t *testing.T) {
	// Propagation takes the max, so the ordinal order is load-bearing.
	order := []State{NoData, ReadsOnly, GenomeOnly, GenomeReadsNoAnnotation, GenomeAnnotationOnly, Full}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("%v is not below %v", order[i-1], order[i])
		}
	}
}

func buildTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.Build([]tree.Edge{
		{ParentID: "", ChildID: "1"},
		{ParentID: "1", ChildID: "2"},
		{ParentID: "1", ChildID: "3"},
		{ParentID: "2", ChildID: "4"},
		{ParentID: "2", ChildID: "5"},
		{ParentID: "3", ChildID: "6"},
	}, tree.Options{})
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}
	return tr
}

func TestPropagate(t *testing.T) {
	tr := buildTree(t)
	states := Propagate(tr, map[string]Flags{
		"4": {HasAnnotation: true, HasReads: true}, // FULL
		"5": {HasReads: true},                      // READS_ONLY
		"6": {HasAssembly: true},                   // GENOME_ONLY
	})

	want := map[string]State{
		"1": Full, // max over the whole tree
		"2": Full,
		"3": GenomeOnly,
		"4": Full,
		"5": ReadsOnly,
		"6": GenomeOnly,
	}
	for id, s := range want {
		if states[id] != s {
			t.Errorf("state[%s] = %v, want %v", id, states[id], s)
		}
	}
}

func TestPropagateNoFlags(t *testing.T) {
	tr := buildTree(t)
	states := Propagate(tr, nil)
	for id := range map[string]bool{"1": true, "2": true, "6": true} {
		if states[id] != NoData {
			t.Errorf("state[%s] = %v, want NoData", id, states[id])
		}
	}
}

func TestPropagateFlagOutsideTree(t *testing.T) {
	tr := buildTree(t)
	states := Propagate(tr, map[string]Flags{
		"999": {HasAnnotation: true, HasReads: true}, // not in the tree
	})
	// The orphan keeps its classification but never reaches the root.
	if states["999"] != Full {
		t.Errorf("orphan state = %v, want Full", states["999"])
	}
	if states["1"] != NoData {
		t.Errorf("root state = %v, want NoData", states["1"])
	}
}

func TestPropagateInternalFlag(t *testing.T) {
	// Flags on an internal node count like any other: they seed the max.
	tr := buildTree(t)
	states := Propagate(tr, map[string]Flags{
		"2": {HasAnnotation: true},
	})
	if states["2"] != GenomeAnnotationOnly {
		t.Errorf("state[2] = %v", states["2"])
	}
	if states["1"] != GenomeAnnotationOnly {
		t.Errorf("state[1] = %v, want the propagated state", states["1"])
	}
	if states["4"] != NoData {
		t.Errorf("state[4] = %v, propagation must not flow downward", states["4"])
	}
}
