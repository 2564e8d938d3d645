package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/pkg/config"
	"github.com/treeatlas/treeatlas/pkg/pipeline"
	"github.com/treeatlas/treeatlas/pkg/store"
)

// newBuildCmd creates the build command, which runs the full pipeline.
func newBuildCmd(configPath *string) *cobra.Command {
	var (
		flagsPath string
		rootID    string
		nodesOut  string
		tilesOut  string
		refresh   bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "build [edges.tsv]",
		Short: "Run the full pipeline and write tiles to a store",
		Long: `Run the full pipeline over a taxonomy edge list.

The build command reads a TSV edge list (parent_id, id, name, rank),
optionally joins sequencing-coverage flags, lays the tree out, and cuts
it into zoom/row tiles. Tiles go to a tile store (a directory of JSON
files, or a SQLite archive when the path ends in .db/.sqlite); the full
laid-out node set goes to a JSON file for the export commands.

Layout and tile outputs are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), *configPath, args[0], flagsPath, rootID, nodesOut, tilesOut, refresh, noCache)
		},
	}

	cmd.Flags().StringVar(&flagsPath, "coverage", "", "TSV file with per-taxon coverage flags")
	cmd.Flags().StringVar(&rootID, "root", "", "taxon ID to root the tree at (default: auto-detect)")
	cmd.Flags().StringVarP(&nodesOut, "nodes", "n", "", "node set output file (default: <input>.nodes.json)")
	cmd.Flags().StringVarP(&tilesOut, "out", "o", "tiles", "tile store: a directory, or a .db/.sqlite archive")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached results exist")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func runBuild(ctx context.Context, configPath, edgesPath, flagsPath, rootID, nodesOut, tilesOut string, refresh, noCache bool) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	edges, flags, err := loadInputs(ctx, logger, edgesPath, flagsPath)
	if err != nil {
		return err
	}

	c, err := openCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer c.Close()

	runner := pipeline.NewRunner(c, nil, logger)
	opts := pipelineOptions(cfg, edges, flags, rootID, refresh, logger)

	spinner := newSpinnerWithContext(ctx, "Building atlas...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return fmt.Errorf("run pipeline: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if nodesOut == "" {
		nodesOut = defaultNodesOut(edgesPath)
	}
	if err := writeNodeSet(res.Nodes, nodesOut); err != nil {
		return fmt.Errorf("write node set %s: %w", nodesOut, err)
	}

	st, err := openStore(tilesOut)
	if err != nil {
		return fmt.Errorf("open tile store %s: %w", tilesOut, err)
	}
	defer st.Close()
	if err := store.WriteAll(ctx, st, res.Tiles); err != nil {
		return err
	}

	printSuccess("Build complete")
	printFile(nodesOut)
	printFile(tilesOut)
	printStats(res.Stats.NodeCount, res.Stats.TileCount, res.CacheInfo.LayoutHit && res.CacheInfo.TilesHit)
	printNewline()
	printNextStep("Serve", "treeatlas serve "+tilesOut+" --index "+nodesOut)

	return nil
}
