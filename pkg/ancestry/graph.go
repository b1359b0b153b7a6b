package ancestry

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// CommitID is the canonical identifier of a commit as returned by
// [Backend.Resolve]. It is the sole node identity in a [Graph].
type CommitID string

// Short returns the first seven characters of the id, or the whole id if it
// is shorter.
func (id CommitID) Short() string {
	if len(id) > 7 {
		return string(id[:7])
	}
	return string(id)
}

// Backend answers the two questions a [Graph] needs about a repository.
//
// Resolve maps any reference (branch, tag, abbreviated hash, symbolic ref) to
// one canonical CommitID and fails with a [*ReferenceError] for references
// that do not exist. Resolving a canonical id returns that id.
//
// CommonAncestor returns the nearest common ancestor of a and b. If a is an
// ancestor of b the result is a, and symmetrically for b. When several
// nearest common ancestors exist the backend may return any one of them.
type Backend interface {
	Resolve(ctx context.Context, ref string) (CommitID, error)
	CommonAncestor(ctx context.Context, a, b CommitID) (CommitID, error)
}

// Edge is a direct ancestry edge: From is a direct predecessor of To.
type Edge struct {
	From CommitID
	To   CommitID
}

// Graph is a transitively reduced DAG of commits.
//
// The zero value is not usable; create graphs with [New]. Graph is not safe
// for concurrent use; see [Locked].
type Graph struct {
	backend Backend
	logger  *log.Logger

	nodes        set
	predecessors map[CommitID]set
	successors   map[CommitID]set

	// pending holds commits whose insertion is in progress further up the
	// recursion. A backend naming one of them as a new merge base is lying.
	pending set
}

// Option configures a [Graph].
type Option func(*Graph)

// WithLogger sets the logger used for debug output during insertion.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an empty graph that queries backend during [Graph.Add].
func New(backend Backend, opts ...Option) *Graph {
	g := &Graph{
		backend:      backend,
		logger:       log.Default(),
		nodes:        set{},
		predecessors: make(map[CommitID]set),
		successors:   make(map[CommitID]set),
		pending:      set{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add resolves ref, inserts the commit and returns its canonical id.
//
// Merge bases shared by the new commit and existing nodes are inserted first
// when they are not yet nodes. Add fails with a [*DuplicateNodeError] if the
// commit is already present, passes through a [*ReferenceError] from the
// backend, and fails with an [*InconsistencyError] if the backend's answers
// contradict each other. On any error the graph is restored to its state
// before the call.
func (g *Graph) Add(ctx context.Context, ref string) (CommitID, error) {
	snap := g.snapshot()
	id, err := g.insert(ctx, ref)
	if err != nil {
		g.restore(snap)
		return "", err
	}
	return id, nil
}

func (g *Graph) insert(ctx context.Context, ref string) (CommitID, error) {
	a, err := g.backend.Resolve(ctx, ref)
	if err != nil {
		var refErr *ReferenceError
		if errors.As(err, &refErr) {
			return "", err
		}
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}
	if g.Has(a) {
		return "", &DuplicateNodeError{Ref: ref, ID: a}
	}
	if g.pending.has(a) {
		return "", &InconsistencyError{ID: a, Conflicting: []CommitID{a}}
	}
	g.pending.add(a)
	defer delete(g.pending, a)

	successors, predecessors, err := g.classify(ctx, a)
	if err != nil {
		return "", err
	}
	if common := successors.intersection(predecessors); len(common) > 0 {
		return "", &InconsistencyError{ID: a, Conflicting: common.sorted()}
	}

	g.predecessors[a] = set{}
	g.successors[a] = set{}
	g.link(a, successors, predecessors)
	g.nodes.add(a)

	g.logger.Debug("added commit", "id", a.Short(), "ref", ref,
		"predecessors", len(g.predecessors[a]), "successors", len(g.successors[a]))
	return a, nil
}

// classify splits the existing nodes into successors and predecessors of a,
// inserting unknown merge bases on the way. The returned sets are closed
// under the graph's edges so that ancestors inserted by nested discoveries
// are classified too.
func (g *Graph) classify(ctx context.Context, a CommitID) (successors, predecessors set, err error) {
	successors, predecessors = set{}, set{}
	for _, b := range g.IDs() {
		c, err := g.backend.CommonAncestor(ctx, a, b)
		if err != nil {
			return nil, nil, fmt.Errorf("common ancestor of %s and %s: %w", a.Short(), b.Short(), err)
		}
		switch c {
		case a:
			successors.add(b)
		case b:
			predecessors.add(b)
		default:
			if !g.Has(c) {
				g.logger.Debug("discovered merge base", "id", c.Short(), "of", a.Short(), "and", b.Short())
				if _, err := g.insert(ctx, string(c)); err != nil {
					return nil, nil, err
				}
			}
			predecessors.add(c)
		}
	}

	for _, s := range successors.sorted() {
		successors.union(g.descendants(s))
	}
	for _, p := range predecessors.sorted() {
		predecessors.union(g.ancestors(p))
	}
	return successors, predecessors, nil
}

// link connects a to its nearest successors and predecessors and prunes the
// edges that now run around it. It scans the node set as it stands after any
// recursive insertions made while classifying a.
func (g *Graph) link(a CommitID, successors, predecessors set) {
	for _, b := range g.IDs() {
		switch {
		case successors.has(b):
			// a -> p -> b already exists for some p
			if g.predecessors[b].intersects(successors) {
				continue
			}
			g.addEdge(a, b)
			for p := range g.predecessors[b].intersection(predecessors) {
				g.removeEdge(p, b)
				g.logger.Debug("pruned edge", "from", p.Short(), "to", b.Short(), "via", a.Short())
			}
		case predecessors.has(b):
			// b -> s -> a already exists for some s
			if g.successors[b].intersects(predecessors) {
				continue
			}
			g.addEdge(b, a)
			for s := range g.successors[b].intersection(successors) {
				g.removeEdge(b, s)
				g.logger.Debug("pruned edge", "from", b.Short(), "to", s.Short(), "via", a.Short())
			}
		}
	}
}

func (g *Graph) addEdge(from, to CommitID) {
	g.successors[from].add(to)
	g.predecessors[to].add(from)
}

func (g *Graph) removeEdge(from, to CommitID) {
	delete(g.successors[from], to)
	delete(g.predecessors[to], from)
}

type snapshot struct {
	nodes        set
	predecessors map[CommitID]set
	successors   map[CommitID]set
}

func (g *Graph) snapshot() snapshot {
	s := snapshot{
		nodes:        g.nodes.clone(),
		predecessors: make(map[CommitID]set, len(g.predecessors)),
		successors:   make(map[CommitID]set, len(g.successors)),
	}
	for id, p := range g.predecessors {
		s.predecessors[id] = p.clone()
	}
	for id, c := range g.successors {
		s.successors[id] = c.clone()
	}
	return s
}

func (g *Graph) restore(s snapshot) {
	g.nodes = s.nodes
	g.predecessors = s.predecessors
	g.successors = s.successors
	g.pending = set{}
}
