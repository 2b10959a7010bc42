package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/internal/server"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/storage"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		backend string
		path    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the family tree HTTP API",
		Long: `Run the family tree HTTP API.

Trees are kept in the storage backend from the [storage] section of the
config file (memory by default). Flags override the config. Prometheus
metrics are served on /metrics. The server shuts down gracefully on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if backend != "" {
				cfg.Storage.Backend = backend
			}
			if path != "" {
				cfg.Storage.Path = path
			}
			return c.runServe(cmd.Context(), cfg.Server.Addr, cfg.Storage)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&backend, "storage", "", "storage backend: memory, file, sqlite, redis, mongo")
	cmd.Flags().StringVar(&path, "storage-path", "", "directory (file) or database file (sqlite)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, storeCfg storage.Config) error {
	logger := loggerFromContext(ctx)

	metrics := server.NewMetrics(appName)
	metrics.Install()

	store, err := storage.Open(ctx, storeCfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", storeCfg.Backend, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close storage", "err", err)
		}
	}()

	srv := server.New(store,
		server.WithLogger(logger),
		server.WithLayout(c.layoutOptions()),
		server.WithPersona(c.cfg.Persona),
		server.WithMetrics(metrics),
	)

	printInfo("Serving on http://%s", addr)
	backendName := storeCfg.Backend
	if backendName == "" {
		backendName = storage.BackendMemory
	}
	printKeyValue("storage", backendName)
	return srv.ListenAndServe(ctx, addr)
}
