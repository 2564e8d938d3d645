// Package stats summarizes a laid-out taxonomy per rank: node and leaf
// counts plus the coverage-state distribution. The output backs both
// the stats subcommand's table and a JSON report.
package stats

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/treeatlas/treeatlas/pkg/atlas"
	"github.com/treeatlas/treeatlas/pkg/coverage"
)

// RankStat aggregates all nodes sharing one rank.
type RankStat struct {
	Rank   string `json:"rank"`
	Count  int    `json:"count"`
	Leaves int    `json:"leaves"`

	// Coverage counts nodes per state, indexed by coverage.State.
	Coverage [6]int `json:"coverage"`
}

// WithData reports how many nodes of this rank carry any coverage.
func (s *RankStat) WithData() int {
	return s.Count - s.Coverage[coverage.NoData]
}

// Report is the full per-rank summary.
type Report struct {
	Total  int        `json:"total"`
	Leaves int        `json:"leaves"`
	Ranks  []RankStat `json:"ranks"`
}

// Compute builds the report. Unranked nodes are grouped under
// "no rank". Ranks sort by descending count, ties by name.
func Compute(set *atlas.NodeSet) *Report {
	byRank := make(map[string]*RankStat)
	rep := &Report{}
	for i := range set.Nodes {
		n := &set.Nodes[i]
		rank := n.Rank
		if rank == "" {
			rank = "no rank"
		}
		s := byRank[rank]
		if s == nil {
			s = &RankStat{Rank: rank}
			byRank[rank] = s
		}
		s.Count++
		s.Coverage[n.Coverage]++
		rep.Total++
		if n.IsLeaf {
			s.Leaves++
			rep.Leaves++
		}
	}

	rep.Ranks = make([]RankStat, 0, len(byRank))
	for _, s := range byRank {
		rep.Ranks = append(rep.Ranks, *s)
	}
	sort.Slice(rep.Ranks, func(i, j int) bool {
		if rep.Ranks[i].Count != rep.Ranks[j].Count {
			return rep.Ranks[i].Count > rep.Ranks[j].Count
		}
		return rep.Ranks[i].Rank < rep.Ranks[j].Rank
	})
	return rep
}

// Write streams the report as JSON.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
