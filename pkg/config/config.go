// Package config loads gitdag.toml.
//
// A configuration names the repository to inspect, the references to track,
// and how the CLI caches, renders, stores, schedules and serves the result.
// Every section is optional; [Load] fills in defaults and rejects values the
// rest of gitdag could not act on.
//
//	cfg, err := config.Load("gitdag.toml")
//	if err != nil {
//	    return err // errors.Is(err, errors.ErrCodeInvalidConfig)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/errors"
	"github.com/matzehuels/gitdag/pkg/report"
	"github.com/matzehuels/gitdag/pkg/schedule"
	"github.com/matzehuels/gitdag/pkg/vcs"
)

// FileName is the configuration file looked up by [Find].
const FileName = "gitdag.toml"

// Cache kinds.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// CacheKinds lists the accepted [Cache.Kind] values.
var CacheKinds = []string{CacheNone, CacheMemory, CacheFile, CacheRedis}

// Config is the decoded configuration file.
type Config struct {
	Repository Repository       `toml:"repository"`
	Refs       []report.RefSpec `toml:"refs"`
	Cache      Cache            `toml:"cache"`
	Output     Output           `toml:"output"`
	Schedule   Schedule         `toml:"schedule"`
	Store      Store            `toml:"store"`
	Server     Server           `toml:"server"`
}

// Repository selects the repository and the backend used to query it.
type Repository struct {
	Path    string `toml:"path"`
	Backend string `toml:"backend"`
	Git     string `toml:"git"`
	Remote  string `toml:"remote"`
}

// Cache configures memoization of merge-base and distance queries.
type Cache struct {
	Kind       string `toml:"kind"`
	Dir        string `toml:"dir"` // empty means the user cache directory
	RedisAddr  string `toml:"redis_addr"`
	MemorySize int    `toml:"memory_size"`
}

// Output names the files written by a build. Empty paths are skipped.
type Output struct {
	JSON     string `toml:"json"`
	DOT      string `toml:"dot"`
	SVG      string `toml:"svg"`
	Caption  string `toml:"caption"`
	Detailed bool   `toml:"detailed"`
}

// Schedule lists daily start times for the watch command.
type Schedule struct {
	Times        []string `toml:"times"`
	WeekdaysOnly bool     `toml:"weekdays_only"`
	Timezone     string   `toml:"timezone"` // IANA name; empty means local time
}

// Store configures where watch saves snapshots. A Mongo URI wins over Dir.
type Store struct {
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
	Keep     int    `toml:"keep"` // file store retention; 0 keeps everything
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Repository: Repository{
			Path:    ".",
			Backend: string(vcs.KindExec),
			Git:     "git",
		},
		Cache: Cache{
			Kind:       CacheFile,
			RedisAddr:  "localhost:6379",
			MemorySize: cache.DefaultMemorySize,
		},
		Output: Output{
			Caption: "Branches",
		},
		Schedule: Schedule{
			Times:        []string{"07:00", "09:30"},
			WeekdaysOnly: true,
		},
		Store: Store{
			Database: "gitdag",
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads and validates the configuration at path. An empty path
// returns [Default].
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if cfg.Repository.Path != "" && !filepath.IsAbs(cfg.Repository.Path) {
		cfg.Repository.Path = filepath.Join(filepath.Dir(path), cfg.Repository.Path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first gitdag.toml in the working directory or the user
// config directory, or "" if there is none.
func Find() string {
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "gitdag", FileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Validate checks every section.
func (c *Config) Validate() error {
	if !slices.Contains(vcs.Kinds(), vcs.Kind(c.Repository.Backend)) {
		return invalid("repository.backend %q is not one of %v", c.Repository.Backend, vcs.Kinds())
	}
	if c.Repository.Path == "" {
		return invalid("repository.path is empty")
	}

	for i, spec := range c.Refs {
		if err := errors.ValidateRef(spec.Ref); err != nil {
			return invalid("refs[%d]: %s", i, errors.UserMessage(err))
		}
		switch spec.Kind {
		case "", report.KindBranch, report.KindTag, report.KindCommit:
		default:
			return invalid("refs[%d].kind %q is not one of branch, tag, commit", i, spec.Kind)
		}
		if spec.URL != "" {
			if err := errors.ValidateURL(spec.URL); err != nil {
				return invalid("refs[%d].url: %s", i, errors.UserMessage(err))
			}
		}
	}

	if !slices.Contains(CacheKinds, c.Cache.Kind) {
		return invalid("cache.kind %q is not one of %v", c.Cache.Kind, CacheKinds)
	}
	if c.Cache.Kind == CacheMemory && c.Cache.MemorySize <= 0 {
		return invalid("cache.memory_size must be positive")
	}
	if c.Cache.Kind == CacheRedis && c.Cache.RedisAddr == "" {
		return invalid("cache.redis_addr is empty")
	}

	if _, err := c.Schedule.Location(); err != nil {
		return invalid("schedule.timezone: %v", err)
	}
	if len(c.Schedule.Times) > 0 {
		if _, err := schedule.Parse(c.Schedule.Times, c.Schedule.WeekdaysOnly, time.UTC); err != nil {
			return invalid("schedule: %v", err)
		}
	}

	if c.Store.Keep < 0 {
		return invalid("store.keep must not be negative")
	}
	return nil
}

// Location returns the schedule's time zone.
func (s Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// CacheDir returns the cache directory, falling back to def.
func (c Cache) CacheDir(def string) string {
	if c.Dir != "" {
		return c.Dir
	}
	return def
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

func (c *Config) String() string {
	return fmt.Sprintf("repository=%s backend=%s refs=%d cache=%s",
		c.Repository.Path, c.Repository.Backend, len(c.Refs), c.Cache.Kind)
}
