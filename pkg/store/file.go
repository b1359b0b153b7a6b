package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	pkgio "github.com/matzehuels/gitdag/pkg/io"
	"github.com/matzehuels/gitdag/pkg/report"
)

// nameLayout sorts lexicographically in time order.
const nameLayout = "20060102T150405.000000000Z"

// FileStore is a directory of JSON snapshots named <created>-<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-based store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) snapshotPath(r *report.Report) string {
	return filepath.Join(s.dir, r.CreatedAt.UTC().Format(nameLayout)+"-"+r.ID+".json")
}

func (s *FileStore) Save(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		return errors.New("report has no id")
	}
	if strings.ContainsAny(r.ID, `/\`) {
		return fmt.Errorf("invalid report id %q", r.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, err := s.find(r.ID); err == nil {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replace snapshot: %w", err)
		}
	}

	path := s.snapshotPath(r)
	tmp := path + ".tmp"
	if err := pkgio.ExportJSON(r, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return pkgio.ImportJSON(path)
}

func (s *FileStore) Latest(ctx context.Context) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.snapshots()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNotFound
	}
	return pkgio.ImportJSON(filepath.Join(s.dir, names[len(names)-1]))
}

// List returns the ids of all snapshots, oldest first.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.snapshots()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = idFromName(name)
	}
	return ids, nil
}

// Prune removes all but the newest keep snapshots.
func (s *FileStore) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.snapshots()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := 0; i < len(names)-max(keep, 0); i++ {
		if err := os.Remove(filepath.Join(s.dir, names[i])); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove snapshot: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *FileStore) Close() error { return nil }

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || idFromName(e.Name()) == "" {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) find(id string) (string, error) {
	names, err := s.snapshots()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if idFromName(name) == id {
			return filepath.Join(s.dir, name), nil
		}
	}
	return "", ErrNotFound
}

func idFromName(name string) string {
	base := strings.TrimSuffix(name, ".json")
	if len(base) <= len(nameLayout)+1 || base[len(nameLayout)] != '-' {
		return ""
	}
	return base[len(nameLayout)+1:]
}

var _ Store = (*FileStore)(nil)
