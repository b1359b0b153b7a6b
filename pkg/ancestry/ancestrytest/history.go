// Package ancestrytest provides an in-memory commit history that answers
// backend queries for tests.
package ancestrytest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/gitdag/pkg/ancestry"
)

// History is a declared commit DAG. It implements [ancestry.Backend] and the
// distance query used by report builders, deriving every answer from the
// parent lists given to [History.Commit].
//
// When a pair has several nearest common ancestors, the greatest id wins so
// answers are deterministic.
type History struct {
	mu      sync.Mutex
	parents map[ancestry.CommitID][]ancestry.CommitID
	refs    map[string]ancestry.CommitID
	calls   int

	// Override, when set, is consulted before the real answer to
	// CommonAncestor. Returning ok=true replaces the answer.
	Override func(a, b ancestry.CommitID) (ancestry.CommitID, bool)

	// FailOn, when set, makes CommonAncestor return its error for a pair.
	FailOn func(a, b ancestry.CommitID) error
}

// New returns an empty history.
func New() *History {
	return &History{
		parents: make(map[ancestry.CommitID][]ancestry.CommitID),
		refs:    make(map[string]ancestry.CommitID),
	}
}

// Linear returns a history where each id is the only parent of the next.
func Linear(ids ...string) *History {
	h := New()
	for i, id := range ids {
		if i == 0 {
			h.Commit(id)
			continue
		}
		h.Commit(id, ids[i-1])
	}
	return h
}

// Commit declares id with the given parents. Parents must already exist.
func (h *History) Commit(id string, parents ...string) *History {
	h.mu.Lock()
	defer h.mu.Unlock()
	ps := make([]ancestry.CommitID, len(parents))
	for i, p := range parents {
		if _, ok := h.parents[ancestry.CommitID(p)]; !ok {
			panic(fmt.Sprintf("ancestrytest: parent %s of %s not declared", p, id))
		}
		ps[i] = ancestry.CommitID(p)
	}
	h.parents[ancestry.CommitID(id)] = ps
	return h
}

// Ref names a commit, like a branch or tag.
func (h *History) Ref(name, id string) *History {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs[name] = ancestry.CommitID(id)
	return h
}

// IDs returns every declared commit in ascending order.
func (h *History) IDs() []ancestry.CommitID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]ancestry.CommitID, 0, len(h.parents))
	for id := range h.parents {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Calls returns how many CommonAncestor queries were answered.
func (h *History) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// Resolve maps a declared ref or commit id to its id.
func (h *History) Resolve(_ context.Context, ref string) (ancestry.CommitID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.refs[ref]; ok {
		return id, nil
	}
	if _, ok := h.parents[ancestry.CommitID(ref)]; ok {
		return ancestry.CommitID(ref), nil
	}
	return "", &ancestry.ReferenceError{Ref: ref}
}

// CommonAncestor returns the nearest common ancestor of a and b.
func (h *History) CommonAncestor(_ context.Context, a, b ancestry.CommitID) (ancestry.CommitID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.FailOn != nil {
		if err := h.FailOn(a, b); err != nil {
			return "", err
		}
	}
	if h.Override != nil {
		if c, ok := h.Override(a, b); ok {
			return c, nil
		}
	}

	ancA, ancB := h.ancestors(a), h.ancestors(b)
	var common []ancestry.CommitID
	for c := range ancA {
		if _, ok := ancB[c]; ok {
			common = append(common, c)
		}
	}
	var nearest []ancestry.CommitID
	for _, c := range common {
		if !slices.ContainsFunc(common, func(d ancestry.CommitID) bool { return d != c && h.isAncestor(c, d) }) {
			nearest = append(nearest, c)
		}
	}
	if len(nearest) == 0 {
		return "", fmt.Errorf("ancestrytest: no common ancestor of %s and %s", a, b)
	}
	return slices.Max(nearest), nil
}

// Distance counts the commits reachable from to but not from from.
func (h *History) Distance(_ context.Context, from, to ancestry.CommitID) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ancFrom, ancTo := h.ancestors(from), h.ancestors(to)
	n := 0
	for c := range ancTo {
		if _, ok := ancFrom[c]; !ok {
			n++
		}
	}
	return n, nil
}

// Close does nothing.
func (h *History) Close() error { return nil }

// IsAncestor reports whether a is a proper ancestor of b.
func (h *History) IsAncestor(a, b ancestry.CommitID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return a != b && h.isAncestor(a, b)
}

func (h *History) isAncestor(a, b ancestry.CommitID) bool {
	_, ok := h.ancestors(b)[a]
	return ok
}

// ancestors returns id and everything reachable through parent links.
func (h *History) ancestors(id ancestry.CommitID) map[ancestry.CommitID]struct{} {
	out := map[ancestry.CommitID]struct{}{}
	work := []ancestry.CommitID{id}
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]
		if _, ok := out[next]; ok {
			continue
		}
		out[next] = struct{}{}
		work = append(work, h.parents[next]...)
	}
	return out
}
