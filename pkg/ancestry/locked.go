package ancestry

import (
	"context"
	"sync"
)

// Locked serializes access to a [Graph]. A single mutex is held for the whole
// of each Add, recursive merge-base insertions included, so classification
// and pruning never interleave with another insertion.
type Locked struct {
	mu sync.Mutex
	g  *Graph
}

// NewLocked wraps g. The caller must not use g directly afterwards.
func NewLocked(g *Graph) *Locked {
	return &Locked{g: g}
}

// Add calls [Graph.Add] under the lock.
func (l *Locked) Add(ctx context.Context, ref string) (CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Add(ctx, ref)
}

// Has calls [Graph.Has] under the lock.
func (l *Locked) Has(id CommitID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Has(id)
}

// Len calls [Graph.Len] under the lock.
func (l *Locked) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Len()
}

// IDs calls [Graph.IDs] under the lock.
func (l *Locked) IDs() []CommitID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.IDs()
}

// Edges calls [Graph.Edges] under the lock.
func (l *Locked) Edges() []Edge {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Edges()
}

// DirectPredecessors calls [Graph.DirectPredecessors] under the lock.
func (l *Locked) DirectPredecessors(id CommitID) ([]CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.DirectPredecessors(id)
}

// DirectSuccessors calls [Graph.DirectSuccessors] under the lock.
func (l *Locked) DirectSuccessors(id CommitID) ([]CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.DirectSuccessors(id)
}

// AllPredecessors calls [Graph.AllPredecessors] under the lock.
func (l *Locked) AllPredecessors(id CommitID) ([]CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.AllPredecessors(id)
}

// AllSuccessors calls [Graph.AllSuccessors] under the lock.
func (l *Locked) AllSuccessors(id CommitID) ([]CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.AllSuccessors(id)
}

// View runs fn with exclusive access to the underlying graph. fn must not
// retain g after returning.
func (l *Locked) View(fn func(g *Graph) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.g)
}
