package ancestry

import "fmt"

// Validate checks the structural invariants of the graph and returns nil if
// they hold:
//
//  1. Every edge is recorded on both sides
//  2. There is no directed cycle
//  3. No edge A->B is implied by a path A->C->...->B through other nodes
//
// Add maintains these after every successful call; Validate exists for tests
// and for callers that want to assert it on large real histories.
func (g *Graph) Validate() error {
	for _, a := range g.IDs() {
		for b := range g.predecessors[a] {
			if !g.successors[b].has(a) {
				return fmt.Errorf("%w: %s in predecessors of %s only", ErrAsymmetricEdge, b.Short(), a.Short())
			}
		}
		for b := range g.successors[a] {
			if !g.predecessors[b].has(a) {
				return fmt.Errorf("%w: %s in successors of %s only", ErrAsymmetricEdge, b.Short(), a.Short())
			}
		}
	}

	for _, id := range g.IDs() {
		if g.descendants(id).has(id) {
			return fmt.Errorf("%w: through %s", ErrGraphHasCycle, id.Short())
		}
	}

	for _, e := range g.Edges() {
		for c := range g.successors[e.From] {
			if c != e.To && g.descendants(c).has(e.To) {
				return fmt.Errorf("%w: %s -> %s also reached through %s",
					ErrRedundantEdge, e.From.Short(), e.To.Short(), c.Short())
			}
		}
	}
	return nil
}
