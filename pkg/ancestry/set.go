package ancestry

import "slices"

type set map[CommitID]struct{}

func newSet(ids ...CommitID) set {
	s := make(set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s set) add(id CommitID) { s[id] = struct{}{} }

func (s set) has(id CommitID) bool {
	_, ok := s[id]
	return ok
}

func (s set) union(other set) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// intersects reports whether s and other share at least one id.
func (s set) intersects(other set) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if large.has(id) {
			return true
		}
	}
	return false
}

func (s set) intersection(other set) set {
	out := set{}
	for id := range s {
		if other.has(id) {
			out.add(id)
		}
	}
	return out
}

func (s set) clone() set {
	out := make(set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// sorted returns the members in ascending order.
func (s set) sorted() []CommitID {
	ids := make([]CommitID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
