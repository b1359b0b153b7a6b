package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// MergeBaseKey ignores argument order
	if k.MergeBaseKey("abc", "def") != k.MergeBaseKey("def", "abc") {
		t.Error("MergeBaseKey should not depend on argument order")
	}
	if got := k.MergeBaseKey("def", "abc"); got != "mergebase:abc:def" {
		t.Errorf("MergeBaseKey unexpected: %s", got)
	}

	// DistanceKey is directional
	if k.DistanceKey("abc", "def") == k.DistanceKey("def", "abc") {
		t.Error("DistanceKey should depend on direction")
	}

	// RenderKey depends on source and format
	rk1 := k.RenderKey("digraph G {}", "svg")
	rk2 := k.RenderKey("digraph G {}", "png")
	rk3 := k.RenderKey("digraph H {}", "svg")
	if rk1 == rk2 || rk1 == rk3 {
		t.Error("Different sources or formats should produce different keys")
	}
	if !strings.HasPrefix(rk1, "render:") {
		t.Errorf("RenderKey unexpected: %s", rk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "repo:123:")

	// All keys should be prefixed
	key := scoped.MergeBaseKey("b", "a")
	if key != "repo:123:mergebase:a:b" {
		t.Errorf("ScopedKeyer MergeBaseKey unexpected: %s", key)
	}

	renderKey := scoped.RenderKey("digraph G {}", "svg")
	if !strings.HasPrefix(renderKey, "repo:123:render:") {
		t.Errorf("ScopedKeyer RenderKey should be prefixed: %s", renderKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.DistanceKey("a", "b")
	if key != "prefix:distance:a:b" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

// exerciseCache runs the behaviour every Cache implementation shares.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "mergebase:a:b", []byte("c"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "mergebase:a:b")
	if err != nil || !hit {
		t.Fatalf("Get after Set = hit %v, err %v", hit, err)
	}
	if string(data) != "c" {
		t.Errorf("Get = %q, want %q", data, "c")
	}

	if err := c.Delete(ctx, "mergebase:a:b"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "mergebase:a:b"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of a missing key should succeed: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)

	ctx := context.Background()
	fc := c.(*FileCache)
	if fc.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", fc.Dir(), dir)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}

	// Corrupt entries are misses
	_ = c.Set(ctx, "corrupt", []byte("x"), 0)
	if err := os.WriteFile(fc.path("corrupt"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "corrupt"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v err %v, want miss", hit, err)
	}

	// Clear empties the directory but keeps it
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := fc.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestFileCacheSharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, _ := NewFileCache(filepath.Join(dir, "nested"))
	if err := first.Set(ctx, "distance:a:b", []byte("3"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	second, _ := NewFileCache(filepath.Join(dir, "nested"))
	data, hit, err := second.Get(ctx, "distance:a:b")
	if err != nil || !hit || string(data) != "3" {
		t.Errorf("second instance Get = %q hit %v err %v", data, hit, err)
	}
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(0)
	if err != nil {
		t.Fatalf("NewMemoryCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestMemoryCacheEvicts(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatalf("NewMemoryCache error: %v", err)
	}

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = c.Get(ctx, "a") // a is now more recent than b
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("least recently used entry should be evicted")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("recently used entry should survive")
	}
	if n := c.(*MemoryCache).Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
}

func TestMemoryCacheCopiesData(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(8)

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	data, _, _ := c.Get(ctx, "k")
	if string(data) != "abc" {
		t.Errorf("Get = %q, want %q", data, "abc")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(8)

	_ = c.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GITDAG_TEST_REDIS")
	if addr == "" {
		t.Skip("GITDAG_TEST_REDIS not set")
	}
	c, err := NewRedisCache(context.Background(), addr)
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Port 1 on loopback refuses connections
	if _, err := NewRedisCache(ctx, "127.0.0.1:1"); err == nil {
		t.Error("NewRedisCache should fail for an unreachable server")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrTransient)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrTransient.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrTransient)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrTransient)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
