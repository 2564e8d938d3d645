package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/pkg/atlas"
	"github.com/treeatlas/treeatlas/pkg/geojson"
	"github.com/treeatlas/treeatlas/pkg/search"
	"github.com/treeatlas/treeatlas/pkg/stats"
)

// newExportCmd creates the export command for the frontend artifacts.
func newExportCmd() *cobra.Command {
	var (
		outDir string
		layers []string
	)

	cmd := &cobra.Command{
		Use:   "export [nodes.json]",
		Short: "Write GeoJSON layers, the search index, and rank stats",
		Long: `Write the frontend artifacts for a laid-out node set.

Layers:
  points    GeoJSON point per node
  lines     GeoJSON branch segments
  polygons  GeoJSON clade wedges
  search    compact search index
  stats     per-rank statistics report

By default every layer is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0], outDir, layers)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "export", "output directory")
	cmd.Flags().StringSliceVar(&layers, "layers", []string{"points", "lines", "polygons", "search", "stats"}, "layers to write")

	return cmd
}

func runExport(ctx context.Context, nodesPath, outDir string, layers []string) error {
	logger := loggerFromContext(ctx)

	set, err := readNodeSet(nodesPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	prog := newProgress(logger)
	written := 0
	for _, layer := range layers {
		path := filepath.Join(outDir, layer+".json")
		if layer == "points" || layer == "lines" || layer == "polygons" {
			path = filepath.Join(outDir, layer+".geojson")
		}
		if err := writeLayer(set, layer, path); err != nil {
			return fmt.Errorf("export %s: %w", layer, err)
		}
		printFile(path)
		written++
	}
	prog.done(fmt.Sprintf("Exported %d layers", written))

	printSuccess("Export complete")
	return nil
}

func writeLayer(set *atlas.NodeSet, layer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch layer {
	case "points":
		return geojson.Points(set).Write(f)
	case "lines":
		return geojson.Lines(set).Write(f)
	case "polygons":
		return geojson.Polygons(set).Write(f)
	case "search":
		return search.Build(set).Write(f)
	case "stats":
		return stats.Compute(set).Write(f)
	default:
		return fmt.Errorf("unknown layer %q", layer)
	}
}
