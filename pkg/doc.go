// Package pkg provides the libraries behind gitdag, a tool that maps how the
// branches and tags of a Git repository relate to each other.
//
// # Overview
//
// gitdag turns a set of references into a directed acyclic graph: each
// reference becomes a node, merge bases that connect them are discovered and
// added, and only direct ancestry edges are kept. The packages are organized
// as follows:
//
//  1. [ancestry] - The incremental, transitively reduced ancestry graph
//  2. [vcs] - Backends answering merge-base and distance queries
//  3. [report] - Labelled snapshots of a graph
//  4. [io] and [render] - JSON exchange and DOT/SVG/PDF/PNG rendering
//  5. [cache], [store] and [schedule] - Query caching, snapshot storage and
//     periodic rebuilds
//  6. [server] - HTTP API over a live graph
//
// # Architecture
//
// The typical data flow through gitdag:
//
//	Git repository
//	      ↓
//	 [vcs] package (resolve refs, merge bases, distances; cached)
//	      ↓
//	 [ancestry] package (classify, discover merge bases, reduce)
//	      ↓
//	 [report] package (names, kinds and URLs per commit)
//	      ↓
//	 JSON / DOT / SVG / PDF / PNG output, snapshot store, HTTP
//
// # Quick Start
//
// Build a report for a few references:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gitdag/pkg/report"
//	    "github.com/matzehuels/gitdag/pkg/vcs/gitexec"
//	)
//
//	repo, _ := gitexec.Open(ctx, ".")
//	r, _ := report.Build(ctx, repo, []report.RefSpec{
//	    {Ref: "master"},
//	    {Ref: "release/1.0", Name: "Release 1.0"},
//	})
//
// [ancestry]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/ancestry
// [vcs]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/vcs
// [report]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/report
// [io]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/store
// [schedule]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/schedule
// [server]: https://pkg.go.dev/github.com/matzehuels/gitdag/pkg/server
package pkg
