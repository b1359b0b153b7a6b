// Package vcs connects the ancestry graph to real repositories.
//
// A [Backend] answers the questions an [ancestry.Graph] asks plus the commit
// distance used to label edges in reports. Two implementations exist:
// [github.com/matzehuels/gitdag/pkg/vcs/gitexec] runs the git binary and
// [github.com/matzehuels/gitdag/pkg/vcs/gogit] reads the object database
// in-process. [Cached] memoizes the answers that never change.
package vcs

import (
	"context"
	"io"

	"github.com/matzehuels/gitdag/pkg/ancestry"
)

// Backend is an [ancestry.Backend] that can also count commits between two
// ids and holds resources that must be released.
type Backend interface {
	ancestry.Backend
	io.Closer

	// Distance returns the number of commits reachable from to but not from
	// from, as in "git rev-list --count from..to". For a direct edge in the
	// graph this is how far apart the two commits are.
	Distance(ctx context.Context, from, to ancestry.CommitID) (int, error)
}

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindExec  Kind = "exec"
	KindGoGit Kind = "gogit"
)

// Kinds lists the known backend kinds.
func Kinds() []Kind { return []Kind{KindExec, KindGoGit} }

// Branch names a branch, optionally on a remote. Long-lived branches in a
// shared repository are usually tracked through their remote-tracking ref.
type Branch struct {
	Name   string
	Remote string
}

// Ref returns the revision that names the branch tip.
func (b Branch) Ref() string {
	if b.Remote == "" {
		return b.Name
	}
	return b.Remote + "/" + b.Name
}

func (b Branch) String() string { return b.Ref() }
