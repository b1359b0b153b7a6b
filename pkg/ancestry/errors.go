package ancestry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownReference matches every [ReferenceError].
	ErrUnknownReference = errors.New("unknown reference")

	// ErrDuplicateNode matches every [DuplicateNodeError].
	ErrDuplicateNode = errors.New("commit already in graph")

	// ErrUnknownNode matches every [UnknownNodeError].
	ErrUnknownNode = errors.New("commit not in graph")

	// ErrInconsistentGraph matches every [InconsistencyError].
	ErrInconsistentGraph = errors.New("inconsistent ancestry")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a directed cycle exists.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrAsymmetricEdge is returned by [Graph.Validate] when an edge is recorded
	// on one side only (B in predecessors of A without A in successors of B).
	ErrAsymmetricEdge = errors.New("asymmetric edge")

	// ErrRedundantEdge is returned by [Graph.Validate] when an edge is implied
	// by a longer path through other nodes.
	ErrRedundantEdge = errors.New("redundant edge")
)

// ReferenceError reports a reference the backend could not resolve.
// Backends return it from Resolve; Add passes it through unchanged.
type ReferenceError struct {
	Ref   string
	Cause error
}

func (e *ReferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unknown reference %q: %v", e.Ref, e.Cause)
	}
	return fmt.Sprintf("unknown reference %q", e.Ref)
}

func (e *ReferenceError) Unwrap() error        { return e.Cause }
func (e *ReferenceError) Is(target error) bool { return target == ErrUnknownReference }

// DuplicateNodeError reports an Add whose reference resolves to a commit that
// is already a node. Re-adding is a caller error, never a no-op.
type DuplicateNodeError struct {
	Ref string
	ID  CommitID
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("reference %q already added as %s", e.Ref, e.ID)
}

func (e *DuplicateNodeError) Is(target error) bool { return target == ErrDuplicateNode }

// UnknownNodeError reports a query for a commit that was never added.
type UnknownNodeError struct {
	ID CommitID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("commit %s not added", e.ID)
}

func (e *UnknownNodeError) Is(target error) bool { return target == ErrUnknownNode }

// InconsistencyError reports backend answers that would make Conflicting
// commits both predecessors and successors of ID.
type InconsistencyError struct {
	ID          CommitID
	Conflicting []CommitID
}

func (e *InconsistencyError) Error() string {
	ids := make([]string, len(e.Conflicting))
	for i, c := range e.Conflicting {
		ids[i] = string(c)
	}
	return fmt.Sprintf("successors and predecessors of %s are not disjoint: %s", e.ID, strings.Join(ids, ", "))
}

func (e *InconsistencyError) Is(target error) bool { return target == ErrInconsistentGraph }
