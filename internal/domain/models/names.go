package models

import (
	"iter"
	"slices"
)

// NameList is an immutable, ordered set of package names.
// Iteration follows insertion order so fuzzy matching stays reproducible.
type NameList struct {
	order []string
	index map[string]struct{}
}

// NewNameList builds a NameList, dropping duplicates after their first occurrence
func NewNameList(names ...string) NameList {
	l := NameList{
		order: make([]string, 0, len(names)),
		index: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		if _, dup := l.index[n]; dup {
			continue
		}
		l.index[n] = struct{}{}
		l.order = append(l.order, n)
	}
	return l
}

// Has reports whether name is a member
func (l NameList) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Len returns the number of names
func (l NameList) Len() int {
	return len(l.order)
}

// All iterates names in insertion order
func (l NameList) All() iter.Seq[string] {
	return slices.Values(l.order)
}

// Slice returns a copy of the names; mutating it does not affect the list
func (l NameList) Slice() []string {
	return slices.Clone(l.order)
}
