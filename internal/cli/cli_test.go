package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/config"
	"github.com/matzehuels/gitdag/pkg/errors"
	"github.com/matzehuels/gitdag/pkg/report"
	"github.com/matzehuels/gitdag/pkg/store"
)

func TestQualifyRefs(t *testing.T) {
	specs := []report.RefSpec{
		{Ref: "master"},
		{Ref: "release", Name: "Release"},
		{Ref: "v1.0", Kind: report.KindTag},
		{Ref: "upstream/main"},
	}

	got := qualifyRefs(specs, "origin")
	want := []report.RefSpec{
		{Ref: "origin/master", Name: "master"},
		{Ref: "origin/release", Name: "Release"},
		{Ref: "v1.0", Kind: report.KindTag},
		{Ref: "upstream/main"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("qualifyRefs[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if specs[0].Ref != "master" {
		t.Error("qualifyRefs modified its input")
	}

	if got := qualifyRefs(specs, ""); got[0].Ref != "master" {
		t.Errorf("no remote: Ref = %q, want master", got[0].Ref)
	}
}

func TestBuildSpecs(t *testing.T) {
	cfg := config.Default()
	cfg.Refs = []report.RefSpec{{Ref: "master"}}

	specs, err := buildSpecs(cfg, []string{"v1.0"})
	if err != nil {
		t.Fatalf("buildSpecs: %v", err)
	}
	if len(specs) != 2 || specs[0].Ref != "master" || specs[1].Ref != "v1.0" {
		t.Errorf("specs = %+v", specs)
	}

	if _, err := buildSpecs(cfg, []string{"--upload-pack=x"}); !errors.Is(err, errors.ErrCodeInvalidRef) {
		t.Errorf("option-like ref error = %v, want INVALID_REF", err)
	}

	cfg.Refs = nil
	if _, err := buildSpecs(cfg, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("no refs error = %v, want INVALID_INPUT", err)
	}
}

func TestRepoScope(t *testing.T) {
	dir := t.TempDir()
	a := repoScope(dir)
	if !strings.HasPrefix(a, "repo:") || !strings.HasSuffix(a, ":") || len(a) != len("repo:")+12+1 {
		t.Errorf("repoScope = %q", a)
	}
	if b := repoScope(filepath.Join(dir, "other")); a == b {
		t.Error("different repositories share a scope")
	}
	if b := repoScope(dir + string(filepath.Separator) + "."); a != b {
		t.Errorf("equivalent paths differ: %q vs %q", a, b)
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.Cache
		noCache bool
		check   func(cache.Cache) bool
	}{
		{"disabled by flag", config.Cache{Kind: config.CacheMemory, MemorySize: 8}, true,
			func(c cache.Cache) bool { _, ok := c.(*cache.NullCache); return ok }},
		{"none", config.Cache{Kind: config.CacheNone}, false,
			func(c cache.Cache) bool { _, ok := c.(*cache.NullCache); return ok }},
		{"memory", config.Cache{Kind: config.CacheMemory, MemorySize: 8}, false,
			func(c cache.Cache) bool { _, ok := c.(*cache.MemoryCache); return ok }},
		{"file", config.Cache{Kind: config.CacheFile, Dir: t.TempDir()}, false,
			func(c cache.Cache) bool { _, ok := c.(*cache.FileCache); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCache(ctx, tt.cfg, tt.noCache)
			if err != nil {
				t.Fatalf("newCache: %v", err)
			}
			defer c.Close()
			if !tt.check(c) {
				t.Errorf("newCache returned %T", c)
			}
		})
	}
}

func TestOpenStoreFile(t *testing.T) {
	dir := t.TempDir()
	st, err := openStore(context.Background(), config.Store{Dir: dir})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close()

	fs, ok := st.(*store.FileStore)
	if !ok {
		t.Fatalf("openStore returned %T, want *store.FileStore", st)
	}
	if fs.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", fs.Dir(), dir)
	}
}

func TestRootCommand(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	want := []string{"build", "query", "render", "serve", "watch", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestRootCommandVersion(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "gitdag version ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestCacheSubcommands(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	cmd := c.cacheCommand()
	for _, name := range []string{"clear", "path"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("cache %s not registered", name)
		}
	}
}
