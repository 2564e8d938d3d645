package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/pkg/config"
	"github.com/treeatlas/treeatlas/pkg/pipeline"
	"github.com/treeatlas/treeatlas/pkg/store"
)

// newTilesCmd creates the tiles command, which tiles an existing node
// set.
func newTilesCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tiles [nodes.json]",
		Short: "Cut a laid-out node set into zoom/row tiles",
		Long: `Cut a laid-out node set into zoom/row tiles.

The tiles command takes a node set file (produced by 'layout' or
'build') and writes level-of-detail tiles to a tile store: a directory
of JSON files, or a SQLite archive when the path ends in .db/.sqlite.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTiles(cmd.Context(), *configPath, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "tiles", "tile store: a directory, or a .db/.sqlite archive")

	return cmd
}

func runTiles(ctx context.Context, configPath, nodesPath, output string) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	set, err := readNodeSet(nodesPath)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, logger)

	spinner := newSpinnerWithContext(ctx, "Building tiles...")
	spinner.Start()
	tiled, err := runner.BuildTiles(ctx, cfg.TileBuilder(), set)
	if err != nil {
		spinner.StopWithError("Tiling failed")
		return fmt.Errorf("build tiles: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	st, err := openStore(output)
	if err != nil {
		return fmt.Errorf("open tile store %s: %w", output, err)
	}
	defer st.Close()
	if err := store.WriteAll(ctx, st, tiled); err != nil {
		return err
	}

	printSuccess("Tiling complete")
	printFile(output)
	printStats(len(set.Nodes), len(tiled), false)
	printNewline()
	printNextStep("Serve", "treeatlas serve "+output+" --index "+nodesPath)

	return nil
}
