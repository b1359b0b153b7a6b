package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/observability"
	"github.com/matzehuels/gitdag/pkg/vcs"
)

// Builder adds references to a graph and remembers how each node was named.
// It is safe for concurrent use.
type Builder struct {
	backend vcs.Backend
	graph   *ancestry.Locked
	logger  *log.Logger
	caption string
	now     func() time.Time

	mu     sync.Mutex
	labels map[ancestry.CommitID]*Node
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for the builder and its graph.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithCaption sets the caption of produced reports.
func WithCaption(caption string) Option {
	return func(b *Builder) { b.caption = caption }
}

// WithClock overrides the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder creates a builder over an empty graph queried through backend.
func NewBuilder(backend vcs.Backend, opts ...Option) *Builder {
	b := &Builder{
		backend: backend,
		logger:  log.Default(),
		now:     time.Now,
		labels:  make(map[ancestry.CommitID]*Node),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.graph = ancestry.NewLocked(ancestry.New(backend, ancestry.WithLogger(b.logger)))
	return b
}

// Graph returns the underlying graph for queries.
func (b *Builder) Graph() *ancestry.Locked { return b.graph }

// Add inserts the commit spec.Ref resolves to and labels it.
//
// When the commit is already a node the label is still recorded, and the
// [*ancestry.DuplicateNodeError] is returned so that callers can tell an
// alias from a new node. Any other error leaves the builder unchanged.
func (b *Builder) Add(ctx context.Context, spec RefSpec) (ancestry.CommitID, error) {
	hooks := observability.Graph()
	hooks.OnAddStart(ctx, spec.Ref)
	start := time.Now()

	id, err := b.graph.Add(ctx, spec.Ref)
	var dup *ancestry.DuplicateNodeError
	if errors.As(err, &dup) {
		id = dup.ID
	}
	hooks.OnAddComplete(ctx, spec.Ref, b.graph.Len(), time.Since(start), err)
	if id == "" {
		return "", err
	}

	b.label(id, spec)
	if dup != nil {
		b.logger.Debug("reference names an existing commit", "ref", spec.Ref, "id", id.Short())
	} else {
		b.logger.Debug("added reference", "ref", spec.Ref, "id", id.Short())
	}
	return id, err
}

// AddAll adds every spec in order. Duplicates become aliases; the first
// other error stops the build.
func (b *Builder) AddAll(ctx context.Context, specs []RefSpec) error {
	for _, spec := range specs {
		if _, err := b.Add(ctx, spec); err != nil && !errors.Is(err, ancestry.ErrDuplicateNode) {
			return fmt.Errorf("add %s: %w", spec.Ref, err)
		}
	}
	return nil
}

func (b *Builder) label(id ancestry.CommitID, spec RefSpec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.labels[id]
	if !ok {
		n = &Node{ID: id, Kind: spec.kind()}
		b.labels[id] = n
	}
	if !slices.Contains(n.Names, spec.name()) {
		n.Names = append(n.Names, spec.name())
	}
	if !slices.Contains(n.Refs, spec.Ref) {
		n.Refs = append(n.Refs, spec.Ref)
	}
	if n.URL == "" && spec.URL != "" {
		n.URL = spec.URL + string(id)
	}
}

// Node returns the labels recorded for id. Nodes only known as merge bases
// have kind [KindMergeBase] and no names. ok is false if id is not a node.
func (b *Builder) Node(id ancestry.CommitID) (n Node, ok bool) {
	if !b.graph.Has(id) {
		return Node{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.labels[id]; ok {
		n = *l
		n.Names = slices.Clone(l.Names)
		n.Refs = slices.Clone(l.Refs)
		return n, true
	}
	return Node{ID: id, Kind: KindMergeBase}, true
}

// Report snapshots the graph, labelling nodes and measuring every direct edge
// with the backend's Distance.
func (b *Builder) Report(ctx context.Context) (*Report, error) {
	var (
		ids   []ancestry.CommitID
		edges []ancestry.Edge
	)
	_ = b.graph.View(func(g *ancestry.Graph) error {
		ids = g.IDs()
		edges = g.Edges()
		return nil
	})

	r := &Report{
		ID:        uuid.NewString(),
		Caption:   b.caption,
		CreatedAt: b.now(),
		Nodes:     make([]Node, 0, len(ids)),
		Edges:     make([]Edge, 0, len(edges)),
	}

	b.mu.Lock()
	for _, id := range ids {
		if n, ok := b.labels[id]; ok {
			c := *n
			c.Names = slices.Clone(n.Names)
			c.Refs = slices.Clone(n.Refs)
			r.Nodes = append(r.Nodes, c)
			continue
		}
		r.Nodes = append(r.Nodes, Node{ID: id, Kind: KindMergeBase})
	}
	b.mu.Unlock()

	for _, e := range edges {
		d, err := b.backend.Distance(ctx, e.From, e.To)
		if err != nil {
			return nil, fmt.Errorf("distance %s..%s: %w", e.From.Short(), e.To.Short(), err)
		}
		r.Edges = append(r.Edges, Edge{From: e.From, To: e.To, Distance: d})
	}
	return r, nil
}

// Build adds specs to a fresh builder and returns its report.
func Build(ctx context.Context, backend vcs.Backend, specs []RefSpec, opts ...Option) (*Report, error) {
	b := NewBuilder(backend, opts...)
	if err := b.AddAll(ctx, specs); err != nil {
		return nil, err
	}
	return b.Report(ctx)
}
