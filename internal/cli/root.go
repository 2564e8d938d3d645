package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// Called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the treeatlas CLI and returns an error if any command
// fails. The passed context carries cancellation from the process
// signal handler.
//
// The function sets up the root command with all subcommands,
// configures logging based on the --verbose flag, and executes the
// command tree. The logger is attached to the context and accessible to
// all commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "treeatlas",
		Short:        "TreeAtlas builds explorable map tiles from taxonomy dumps",
		Long:         `TreeAtlas turns a taxonomy edge list into a zoomable map: it lays the tree out radially, propagates sequencing coverage up the clades, and cuts the result into bounded-size tiles a map client can stream.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("treeatlas %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	root.AddCommand(newBuildCmd(&configPath))
	root.AddCommand(newLayoutCmd(&configPath))
	root.AddCommand(newCoverageCmd(&configPath))
	root.AddCommand(newTilesCmd(&configPath))
	root.AddCommand(newExportCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCacheCmd(&configPath))

	return root.ExecuteContext(ctx)
}
