package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/observability"
	"github.com/matzehuels/gitdag/pkg/server"
)

// renderCacheSize bounds the number of rendered diagrams the server keeps.
const renderCacheSize = 64

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	fetch   bool
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ancestry graph over HTTP",
		Long: `Build the graph of the configured refs and serve it over HTTP. Clients can
add refs with POST /commits and query relationships; Prometheus metrics are
exported on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.fetch, "fetch", false, "fetch the configured remote before building")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the query cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetGraphHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	repo, err := c.openRepository(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer repo.Close()

	if opts.fetch {
		if err := c.fetch(ctx, repo); err != nil {
			return err
		}
	}
	b, err := c.build(ctx, repo, qualifyRefs(cfg.Refs, cfg.Repository.Remote), cfg.Output.Caption)
	if err != nil {
		return err
	}

	renders, err := cache.NewMemoryCache(renderCacheSize)
	if err != nil {
		return err
	}
	defer renders.Close()

	srv := server.New(b,
		server.WithLogger(loggerFromContext(ctx)),
		server.WithMetrics(reg),
		server.WithRenderCache(renders, cache.NewDefaultKeyer()),
	)
	printInfo("Serving %d commits on %s", b.Graph().Len(), StyleHighlight.Render(addr))
	return srv.ListenAndServe(ctx, addr)
}
