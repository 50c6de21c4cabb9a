// Package setutil provides set utilities for the name-based diffing the
// sync engine performs between local and upstream snapshots.
package setutil

// StringSet is a set of string values.
// It uses map[string]struct{} internally for memory efficiency.
type StringSet struct {
	items map[string]struct{}
}

// NewStringSet creates a new empty StringSet.
func NewStringSet() *StringSet {
	return &StringSet{
		items: make(map[string]struct{}),
	}
}

// NewStringSetWithCap creates a new StringSet with initial capacity.
func NewStringSetWithCap(cap int) *StringSet {
	return &StringSet{
		items: make(map[string]struct{}, cap),
	}
}

// FromKeys builds a set from the keys of a map.
func FromKeys[V any](m map[string]V) *StringSet {
	s := NewStringSetWithCap(len(m))
	for k := range m {
		s.items[k] = struct{}{}
	}
	return s
}

// FromSlice builds a set from a slice of values.
func FromSlice(values []string) *StringSet {
	s := NewStringSetWithCap(len(values))
	for _, v := range values {
		s.items[v] = struct{}{}
	}
	return s
}

// Add adds a value to the set.
func (s *StringSet) Add(v string) {
	s.items[v] = struct{}{}
}

// Has returns true if the value exists in the set.
func (s *StringSet) Has(v string) bool {
	_, ok := s.items[v]
	return ok
}

// Len returns the number of elements in the set.
func (s *StringSet) Len() int {
	return len(s.items)
}

// Diff returns the elements of s that are not in other.
func (s *StringSet) Diff(other *StringSet) *StringSet {
	result := NewStringSet()
	for v := range s.items {
		if !other.Has(v) {
			result.items[v] = struct{}{}
		}
	}
	return result
}

// Intersect returns the elements present in both s and other.
func (s *StringSet) Intersect(other *StringSet) *StringSet {
	result := NewStringSet()
	for v := range s.items {
		if other.Has(v) {
			result.items[v] = struct{}{}
		}
	}
	return result
}

// ToSlice returns all values as a slice.
// The order is not guaranteed.
func (s *StringSet) ToSlice() []string {
	result := make([]string, 0, len(s.items))
	for v := range s.items {
		result = append(result, v)
	}
	return result
}
