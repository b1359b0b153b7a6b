// Package cli implements the gitdag command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/config"
	"github.com/matzehuels/gitdag/pkg/report"
	"github.com/matzehuels/gitdag/pkg/vcs"
	"github.com/matzehuels/gitdag/pkg/vcs/gitexec"
	"github.com/matzehuels/gitdag/pkg/vcs/gogit"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gitdag"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig loads --config, or gitdag.toml if one is found, or defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.Find()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path, "config", cfg)
	}
	return cfg, nil
}

// =============================================================================
// Backend Factory
// =============================================================================

// fetcher is implemented by backends that can update remote-tracking refs.
type fetcher interface {
	Fetch(ctx context.Context) error
}

// repository is an opened, cached backend.
type repository struct {
	vcs.Backend
	fetcher fetcher // nil when the backend cannot fetch
}

// openRepository opens the configured backend and wraps it in the
// configured cache.
func (c *CLI) openRepository(ctx context.Context, cfg *config.Config, noCache bool) (*repository, error) {
	path := cfg.Repository.Path
	var (
		inner vcs.Backend
		fetch fetcher
	)
	switch vcs.Kind(cfg.Repository.Backend) {
	case vcs.KindGoGit:
		b, err := gogit.Open(path)
		if err != nil {
			return nil, err
		}
		inner = b
	default:
		b, err := gitexec.Open(ctx, path,
			gitexec.WithGit(cfg.Repository.Git),
			gitexec.WithRemote(cfg.Repository.Remote),
			gitexec.WithLogger(c.Logger))
		if err != nil {
			return nil, err
		}
		inner, fetch = b, b
	}

	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		inner.Close()
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, repoScope(path))
	c.Logger.Debug("opened repository", "path", path, "backend", cfg.Repository.Backend, "cache", cfg.Cache.Kind)

	return &repository{
		Backend: vcs.NewCached(inner, ch, vcs.WithKeyer(keyer), vcs.WithCacheLogger(c.Logger)),
		fetcher: fetch,
	}, nil
}

func (r *repository) Fetch(ctx context.Context) error {
	if r.fetcher == nil {
		return fmt.Errorf("this backend cannot fetch; use backend = %q", vcs.KindExec)
	}
	return r.fetcher.Fetch(ctx)
}

// repoScope namespaces cache keys per repository.
func repoScope(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "repo:" + cache.Hash([]byte(path))[:12] + ":"
}

func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Kind {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.MemorySize)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cfg.CacheDir(dir))
	}
}

// qualifyRefs prefixes bare branch refs with the configured remote, so that
// "master" tracks "origin/master". Names keep the unqualified form.
func qualifyRefs(specs []report.RefSpec, remote string) []report.RefSpec {
	if remote == "" {
		return specs
	}
	out := make([]report.RefSpec, len(specs))
	for i, spec := range specs {
		out[i] = spec
		if spec.Kind != "" && spec.Kind != report.KindBranch {
			continue
		}
		if strings.Contains(spec.Ref, "/") {
			continue
		}
		if out[i].Name == "" {
			out[i].Name = spec.Ref
		}
		out[i].Ref = vcs.Branch{Name: spec.Ref, Remote: remote}.Ref()
	}
	return out
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gitdag/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
