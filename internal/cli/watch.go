package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitdag/pkg/config"
	"github.com/matzehuels/gitdag/pkg/schedule"
	"github.com/matzehuels/gitdag/pkg/store"
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	once    bool
	noFetch bool
}

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the graph on a schedule and keep snapshots",
		Long: `Rebuild the graph of the configured refs at the start times listed under
[schedule], saving each result to the snapshot store and writing the
configured outputs. A rebuild also runs immediately on start.

When a remote is configured it is fetched before every rebuild.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.once, "once", false, "rebuild once and exit")
	cmd.Flags().BoolVar(&opts.noFetch, "no-fetch", false, "do not fetch before rebuilding")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts watchOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Refs) == 0 {
		return fmt.Errorf("no refs configured; add [[refs]] to %s", config.FileName)
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	repo, err := c.openRepository(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer repo.Close()

	rebuild := func(ctx context.Context) error {
		if cfg.Repository.Remote != "" && !opts.noFetch {
			if err := repo.Fetch(ctx); err != nil {
				return err
			}
		}
		b, err := c.build(ctx, repo, qualifyRefs(cfg.Refs, cfg.Repository.Remote), cfg.Output.Caption)
		if err != nil {
			return err
		}
		r, err := b.Report(ctx)
		if err != nil {
			return err
		}
		if err := st.Save(ctx, r); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if fs, ok := st.(*store.FileStore); ok && cfg.Store.Keep > 0 {
			if n, err := fs.Prune(ctx, cfg.Store.Keep); err != nil {
				logger.Warn("pruning snapshots failed", "err", err)
			} else if n > 0 {
				logger.Debug("pruned snapshots", "removed", n)
			}
		}
		if _, err := writeOutputs(ctx, r, cfg.Output); err != nil {
			return err
		}
		printSuccess("Saved snapshot %s (%s)", r.ID, plural(len(r.Nodes), "commit"))
		return nil
	}

	if err := rebuild(ctx); err != nil {
		if opts.once {
			return err
		}
		logger.Error("initial rebuild failed", "err", err)
	}
	if opts.once {
		return nil
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return err
	}
	sched, err := schedule.Parse(cfg.Schedule.Times, cfg.Schedule.WeekdaysOnly, loc, schedule.WithLogger(logger))
	if err != nil {
		return err
	}
	printInfo("Next rebuild at %s", StyleHighlight.Render(sched.Next(time.Now()).Format("Mon 15:04")))

	err = sched.Run(ctx, rebuild)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// openStore opens MongoDB when a URI is configured, else a snapshot
// directory.
func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	if cfg.MongoURI != "" {
		return store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.MongoURI, Database: cfg.Database})
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := dataDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(d, "snapshots")
	}
	return store.NewFileStore(dir)
}

// dataDir returns the data directory using XDG standard (~/.local/share/gitdag/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
