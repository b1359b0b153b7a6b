package ancestry

import "slices"

// Has reports whether id is a node.
func (g *Graph) Has(id CommitID) bool { return g.nodes.has(id) }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// IDs returns every node id in ascending order. The slice is a copy.
func (g *Graph) IDs() []CommitID { return g.nodes.sorted() }

// DirectPredecessors returns the direct ancestors of id in ascending order.
func (g *Graph) DirectPredecessors(id CommitID) ([]CommitID, error) {
	if !g.Has(id) {
		return nil, &UnknownNodeError{ID: id}
	}
	return g.predecessors[id].sorted(), nil
}

// DirectSuccessors returns the direct descendants of id in ascending order.
func (g *Graph) DirectSuccessors(id CommitID) ([]CommitID, error) {
	if !g.Has(id) {
		return nil, &UnknownNodeError{ID: id}
	}
	return g.successors[id].sorted(), nil
}

// AllPredecessors returns every node reachable backwards from id, excluding
// id itself, in ascending order.
func (g *Graph) AllPredecessors(id CommitID) ([]CommitID, error) {
	if !g.Has(id) {
		return nil, &UnknownNodeError{ID: id}
	}
	return g.ancestors(id).sorted(), nil
}

// AllSuccessors returns every node reachable forwards from id, excluding id
// itself, in ascending order.
func (g *Graph) AllSuccessors(id CommitID) ([]CommitID, error) {
	if !g.Has(id) {
		return nil, &UnknownNodeError{ID: id}
	}
	return g.descendants(id).sorted(), nil
}

func (g *Graph) ancestors(id CommitID) set { return closure(g.predecessors, id) }

func (g *Graph) descendants(id CommitID) set { return closure(g.successors, id) }

// closure unions the direct sets reachable from id until nothing new appears.
// Each node is expanded once, so shared ancestry does not multiply the work.
func closure(direct map[CommitID]set, id CommitID) set {
	out := set{}
	work := direct[id].sorted()
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]
		if out.has(next) {
			continue
		}
		out.add(next)
		for n := range direct[next] {
			if !out.has(n) {
				work = append(work, n)
			}
		}
	}
	return out
}

// Edges returns every direct edge ordered by From, then To.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.IDs() {
		for _, to := range g.successors[from].sorted() {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Roots returns the nodes without predecessors in ascending order.
func (g *Graph) Roots() []CommitID {
	return slices.DeleteFunc(g.IDs(), func(id CommitID) bool { return len(g.predecessors[id]) > 0 })
}

// Heads returns the nodes without successors in ascending order.
func (g *Graph) Heads() []CommitID {
	return slices.DeleteFunc(g.IDs(), func(id CommitID) bool { return len(g.successors[id]) > 0 })
}
