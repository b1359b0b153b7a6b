package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/gitdag/pkg/report"
)

func snapshot(id string, created time.Time, names ...string) *report.Report {
	r := &report.Report{ID: id, Caption: "Branches", CreatedAt: created}
	r.Nodes = append(r.Nodes, report.Node{ID: "1a2b3c4d5e", Kind: report.KindMergeBase})
	for i, name := range names {
		n := report.Node{ID: "9fceb02d0a", Kind: report.KindBranch, Names: []string{name}, Refs: []string{name}}
		if i > 0 {
			n.ID = "77aa00bb11"
		}
		r.Nodes = append(r.Nodes, n)
		r.Edges = append(r.Edges, report.Edge{From: "1a2b3c4d5e", To: n.ID, Distance: i + 1})
	}
	return r
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest(empty) error = %v, want ErrNotFound", err)
	}

	for i, id := range []string{"first", "third", "second"} {
		created := base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
		if err := s.Save(ctx, snapshot(id, created, "master")); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "third" {
		t.Errorf("Latest().ID = %q, want third", latest.ID)
	}
	if !latest.CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Latest().CreatedAt = %v", latest.CreatedAt)
	}
	if len(latest.Nodes) != 2 || len(latest.Edges) != 1 {
		t.Errorf("Latest() = %d nodes %d edges, want 2 and 1", len(latest.Nodes), len(latest.Edges))
	}

	got, err := s.Get(ctx, "second")
	if err != nil {
		t.Fatalf("Get(second): %v", err)
	}
	if got.ID != "second" {
		t.Errorf("Get(second).ID = %q", got.ID)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	// Saving an existing id replaces it.
	if err := s.Save(ctx, snapshot("second", base.Add(3*time.Hour), "master", "v1.0")); err != nil {
		t.Fatalf("Save(second again): %v", err)
	}
	latest, err = s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "second" || len(latest.Nodes) != 3 {
		t.Errorf("Latest() after replace = %s with %d nodes, want second with 3", latest.ID, len(latest.Nodes))
	}

	if err := s.Save(ctx, &report.Report{}); err == nil {
		t.Error("Save(no id) = nil error")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	ids, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"first", "third", "second"}
	if len(ids) != len(want) {
		t.Fatalf("List() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestFileStorePrune(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		if err := s.Save(ctx, snapshot(id, base.Add(time.Duration(i)*time.Minute), "master")); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	removed, err := s.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	ids, _ := s.List(ctx)
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "d" {
		t.Errorf("List() after prune = %v, want [c d]", ids)
	}
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/notes.json", []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Save(context.Background(), snapshot("../escape", time.Now(), "master")); err == nil {
		t.Error("Save(../escape) = nil error")
	}
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore(\"\") = nil error")
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("GITDAG_TEST_MONGO")
	if uri == "" {
		t.Skip("GITDAG_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "gitdag_test", Collection: "reports_" + time.Now().Format("150405")})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		s.coll.Drop(context.Background())
		s.Close()
	})
	exerciseStore(t, s)
}

func TestNewMongoStoreRequiresURI(t *testing.T) {
	if _, err := NewMongoStore(context.Background(), MongoConfig{}); err == nil {
		t.Error("NewMongoStore(no uri) = nil error")
	}
}
