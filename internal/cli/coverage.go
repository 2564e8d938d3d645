package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/pkg/config"
	"github.com/treeatlas/treeatlas/pkg/coverage"
	"github.com/treeatlas/treeatlas/pkg/tree"
)

// newCoverageCmd creates the coverage command, which reports how
// sequencing coverage distributes over the tree after propagation.
func newCoverageCmd(configPath *string) *cobra.Command {
	var (
		flagsPath string
		rootID    string
	)

	cmd := &cobra.Command{
		Use:   "coverage [edges.tsv]",
		Short: "Report the sequencing-coverage distribution",
		Long: `Report the sequencing-coverage distribution.

The coverage command classifies every flagged taxon into one of six
states, propagates the best state up each lineage, and prints how many
nodes end up in each state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoverage(cmd.Context(), *configPath, args[0], flagsPath, rootID)
		},
	}

	cmd.Flags().StringVar(&flagsPath, "coverage", "", "TSV file with per-taxon coverage flags (required)")
	cmd.Flags().StringVar(&rootID, "root", "", "taxon ID to root the tree at (default: auto-detect)")
	cmd.MarkFlagRequired("coverage")

	return cmd
}

func runCoverage(ctx context.Context, configPath, edgesPath, flagsPath, rootID string) error {
	logger := loggerFromContext(ctx)

	if _, err := config.Load(configPath); err != nil {
		return err
	}
	edges, flags, err := loadInputs(ctx, logger, edgesPath, flagsPath)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	t, err := tree.Build(edges, tree.Options{RootID: rootID})
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	states := coverage.Propagate(t, flags)
	prog.done(fmt.Sprintf("Propagated coverage over %d nodes", t.Len()))

	var counts [6]int
	for i := 0; i < t.Len(); i++ {
		counts[states[t.At(i).ID]]++
	}

	printSuccess("Coverage distribution")
	for s := coverage.Full; s >= coverage.NoData; s-- {
		printDetail("%-28s %d", s.String(), counts[s])
	}
	withData := t.Len() - counts[coverage.NoData]
	printNewline()
	printDetail("%d of %d nodes carry data (%.1f%%)", withData, t.Len(), 100*float64(withData)/float64(t.Len()))

	return nil
}
