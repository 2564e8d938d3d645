package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/pkg/config"
	"github.com/treeatlas/treeatlas/pkg/pipeline"
)

// newLayoutCmd creates the layout command, which stops after the
// layout stage and writes the node set.
func newLayoutCmd(configPath *string) *cobra.Command {
	var (
		flagsPath string
		rootID    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "layout [edges.tsv]",
		Short: "Compute the laid-out node set from a TSV edge list",
		Long: `Compute the laid-out node set from a TSV edge list.

The layout command builds the tree, propagates coverage, and computes
both the radial and dendrogram layouts, writing the node set as JSON.
The output feeds the tiles, export, and stats commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd.Context(), *configPath, args[0], flagsPath, rootID, output)
		},
	}

	cmd.Flags().StringVar(&flagsPath, "coverage", "", "TSV file with per-taxon coverage flags")
	cmd.Flags().StringVar(&rootID, "root", "", "taxon ID to root the tree at (default: auto-detect)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.nodes.json)")

	return cmd
}

func runLayout(ctx context.Context, configPath, edgesPath, flagsPath, rootID, output string) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	edges, flags, err := loadInputs(ctx, logger, edgesPath, flagsPath)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, logger)
	opts := pipelineOptions(cfg, edges, flags, rootID, false, logger)

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	set, err := runner.BuildNodes(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = defaultNodesOut(edgesPath)
	}
	if err := writeNodeSet(set, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(set.Nodes), 0, false)
	printNewline()
	printNextStep("Tile", "treeatlas tiles "+output)

	return nil
}
