package report

import "sort"

// ExclusionSet holds the projects hidden from the comparison view. Entries
// for projects missing from the current order are kept and simply ignored.
type ExclusionSet map[ProjectID]struct{}

// NewExclusionSet builds a set from ids.
func NewExclusionSet(ids ...ProjectID) ExclusionSet {
	s := make(ExclusionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is excluded.
func (s ExclusionSet) Has(id ProjectID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in key order.
func (s ExclusionSet) Sorted() []ProjectID {
	out := make([]ProjectID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (s ExclusionSet) Clone() ExclusionSet {
	out := make(ExclusionSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
