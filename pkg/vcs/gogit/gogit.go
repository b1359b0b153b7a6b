// Package gogit implements a repository backend on go-git, reading the
// object database in-process without spawning git.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/vcs"
)

// Backend answers ancestry queries from an opened repository.
type Backend struct {
	mu   sync.Mutex
	repo *git.Repository
}

// Open opens the repository containing dir.
func Open(dir string) (*Backend, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	return &Backend{repo: repo}, nil
}

// Resolve implements [ancestry.Backend]. Annotated tags are peeled to the
// commit they point at.
func (b *Backend) Resolve(ctx context.Context, ref string) (ancestry.CommitID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	h, err := b.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", &ancestry.ReferenceError{Ref: ref, Cause: err}
	}
	c, err := b.peel(*h)
	if err != nil {
		return "", &ancestry.ReferenceError{Ref: ref, Cause: err}
	}
	return ancestry.CommitID(c.Hash.String()), nil
}

func (b *Backend) peel(h plumbing.Hash) (*object.Commit, error) {
	c, err := b.repo.CommitObject(h)
	if err == nil {
		return c, nil
	}
	tag, tagErr := b.repo.TagObject(h)
	if tagErr != nil {
		return nil, err
	}
	return tag.Commit()
}

// CommonAncestor implements [ancestry.Backend]. When several merge bases
// exist the smallest id is returned.
func (b *Backend) CommonAncestor(ctx context.Context, x, y ancestry.CommitID) (ancestry.CommitID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if x == y {
		return x, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cx, err := b.commit(x)
	if err != nil {
		return "", err
	}
	cy, err := b.commit(y)
	if err != nil {
		return "", err
	}
	bases, err := cx.MergeBase(cy)
	if err != nil {
		return "", fmt.Errorf("merge base of %s and %s: %w", x.Short(), y.Short(), err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("%s and %s have no common ancestor", x.Short(), y.Short())
	}
	ids := make([]ancestry.CommitID, len(bases))
	for i, c := range bases {
		ids[i] = ancestry.CommitID(c.Hash.String())
	}
	return slices.Min(ids), nil
}

// Distance implements [vcs.Backend].
func (b *Backend) Distance(ctx context.Context, from, to ancestry.CommitID) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[plumbing.Hash]struct{})
	if err := b.walk(ctx, from, func(c *object.Commit) bool {
		seen[c.Hash] = struct{}{}
		return true
	}); err != nil {
		return 0, err
	}

	n := 0
	err := b.walk(ctx, to, func(c *object.Commit) bool {
		if _, ok := seen[c.Hash]; !ok {
			n++
		}
		return true
	})
	return n, err
}

// walk visits every commit reachable from id once.
func (b *Backend) walk(ctx context.Context, id ancestry.CommitID, fn func(*object.Commit) bool) error {
	iter, err := b.repo.Log(&git.LogOptions{From: plumbing.NewHash(string(id))})
	if err != nil {
		return fmt.Errorf("log %s: %w", id.Short(), err)
	}
	defer iter.Close()
	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(c) {
			return storer.ErrStop
		}
		return nil
	})
}

func (b *Backend) commit(id ancestry.CommitID) (*object.Commit, error) {
	c, err := b.repo.CommitObject(plumbing.NewHash(string(id)))
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("commit %s not in repository: %w", id.Short(), err)
	}
	return c, err
}

// Close releases nothing; go-git repositories hold no open handles between
// calls.
func (b *Backend) Close() error { return nil }

// Ensure Backend implements vcs.Backend.
var _ vcs.Backend = (*Backend)(nil)
