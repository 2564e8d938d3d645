package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeatlas/treeatlas/internal/server"
	"github.com/treeatlas/treeatlas/pkg/config"
	"github.com/treeatlas/treeatlas/pkg/search"
)

// newServeCmd creates the serve command.
func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr      string
		indexPath string
		allowAll  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [tile-store]",
		Short: "Serve tiles and search over HTTP",
		Long: `Serve built tiles and the search index over HTTP.

The serve command opens a tile store (a directory of JSON files, or a
SQLite archive) and exposes GET /tiles/{zoom}/{row}, GET /search and
GET /healthz. With --index pointing at a node set file, the search
endpoint answers name lookups; without it, search is disabled.

The server is read-only and never rebuilds tiles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, args[0], addr, indexPath, allowAll)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&indexPath, "index", "", "node set file backing the search endpoint")
	cmd.Flags().BoolVar(&allowAll, "allow-all-origins", false, "open CORS to any origin")

	return cmd
}

func runServe(ctx context.Context, configPath, storePath, addr, indexPath string, allowAll bool) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := openStore(storePath)
	if err != nil {
		return fmt.Errorf("open tile store %s: %w", storePath, err)
	}
	defer st.Close()

	var index *search.Index
	if indexPath != "" {
		set, err := readNodeSet(indexPath)
		if err != nil {
			return err
		}
		index = search.Build(set)
		logger.Debug("search index built", "documents", index.Len())
	}

	printInfo("Serving %s on %s", storePath, addr)
	if index == nil {
		printDetail("search disabled; pass --index nodes.json to enable")
	}

	srv := server.New(server.Config{
		Addr:            addr,
		AllowAllOrigins: allowAll,
	}, st, index, logger)
	return srv.Start(ctx)
}
