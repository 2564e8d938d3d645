package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/pkg/stats"
)

// newStatsCmd creates the stats command.
func newStatsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats [nodes.json]",
		Short: "Print per-rank statistics for a laid-out node set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")

	return cmd
}

func runStats(ctx context.Context, nodesPath string, jsonOut bool) error {
	set, err := readNodeSet(nodesPath)
	if err != nil {
		return err
	}
	rep := stats.Compute(set)

	if jsonOut {
		return rep.Write(os.Stdout)
	}

	fmt.Println(StyleTitle.Render("Rank statistics"))
	fmt.Println(styleTableHeader.Render(fmt.Sprintf("  %-20s %10s %10s %10s", "rank", "nodes", "leaves", "with data")))
	for _, r := range rep.Ranks {
		fmt.Printf("  %-20s %10d %10d %10d\n", r.Rank, r.Count, r.Leaves, r.WithData())
	}
	printNewline()
	printDetail("%d nodes, %d leaves, %d ranks", rep.Total, rep.Leaves, len(rep.Ranks))
	return nil
}
