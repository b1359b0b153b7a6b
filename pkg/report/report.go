// Package report turns a set of named references into a labelled ancestry
// graph: which branches and tags point where, which merge bases connect
// them, and how many commits separate each pair of directly related nodes.
//
// A [Builder] owns an [ancestry.Locked] graph and the labels attached to its
// nodes. [Builder.Report] takes a snapshot suitable for export, rendering and
// storage.
package report

import (
	"time"

	"github.com/matzehuels/gitdag/pkg/ancestry"
)

// Node kinds. Kinds of labelled nodes come from their [RefSpec]; nodes only
// known as merge bases get [KindMergeBase].
const (
	KindBranch    = "branch"
	KindTag       = "tag"
	KindCommit    = "commit"
	KindMergeBase = "merge-base"
)

// RefSpec names a reference to track.
type RefSpec struct {
	// Ref is anything the backend can resolve.
	Ref string `toml:"ref" json:"ref"`

	// Name is the display label. Defaults to Ref.
	Name string `toml:"name" json:"name,omitempty"`

	// Kind classifies the node. Defaults to KindBranch.
	Kind string `toml:"kind" json:"kind,omitempty"`

	// URL is a commit link prefix; the commit id is appended.
	URL string `toml:"url" json:"url,omitempty"`
}

func (s RefSpec) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Ref
}

func (s RefSpec) kind() string {
	if s.Kind != "" {
		return s.Kind
	}
	return KindBranch
}

// Node is one commit in a report.
type Node struct {
	ID    ancestry.CommitID
	Names []string // display labels, in the order they were added
	Refs  []string // references that resolved to ID
	Kind  string
	URL   string
}

// Short returns the abbreviated commit id.
func (n Node) Short() string { return n.ID.Short() }

// Edge is a direct ancestry edge labelled with the number of commits in
// From..To.
type Edge struct {
	From     ancestry.CommitID
	To       ancestry.CommitID
	Distance int
}

// Report is a snapshot of a built graph.
type Report struct {
	ID        string
	Caption   string
	CreatedAt time.Time
	Nodes     []Node
	Edges     []Edge

	// Extra carries additional top-level fields into exported JSON.
	Extra map[string]any
}

// Node returns the node with the given id.
func (r *Report) Node(id ancestry.CommitID) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Labelled returns the nodes that at least one reference resolved to.
func (r *Report) Labelled() []Node {
	var out []Node
	for _, n := range r.Nodes {
		if len(n.Refs) > 0 {
			out = append(out, n)
		}
	}
	return out
}
