// Package ancestry builds a transitively reduced DAG of commit ancestry.
//
// # Overview
//
// A [Graph] grows one commit at a time. Each insertion resolves a reference
// to a canonical [CommitID] and asks a [Backend] for the nearest common
// ancestor of the new commit and every commit already in the graph. The
// answer falls into one of three cases:
//
//   - the new commit itself: the existing commit is a successor
//   - the existing commit: it is a predecessor
//   - a third commit: an undiscovered merge base, inserted recursively first
//
// The new node is then linked to its nearest predecessors and successors, and
// any edge that now runs around it is pruned. After every successful
// [Graph.Add] the graph holds only direct edges, contains no cycle and has no
// edge implied by a longer path.
//
// # Basic Usage
//
//	g := ancestry.New(backend)
//	if _, err := g.Add(ctx, "master"); err != nil {
//	    return err
//	}
//	if _, err := g.Add(ctx, "origin/feature"); err != nil {
//	    return err
//	}
//	preds, _ := g.DirectPredecessors(id)
//
// Transitive relationships are computed on demand with [Graph.AllPredecessors]
// and [Graph.AllSuccessors]; the graph never stores its closure.
//
// # Errors
//
// Every failure is typed: [ReferenceError], [DuplicateNodeError],
// [UnknownNodeError] and [InconsistencyError]. Each also matches its sentinel
// with errors.Is. A failed Add rolls the graph back to its state before the
// call, including any merge bases inserted along the way.
//
// # Concurrency
//
// Graph is not safe for concurrent use. [Locked] serializes a graph behind a
// single mutex held for the whole of each Add, recursive insertions included.
package ancestry
