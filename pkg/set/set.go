package set

import (
	"iter"
)

// Set is an unordered set. Ranging over it directly yields its members.
type Set[T comparable] map[T]struct{}

func New[T comparable](items ...T) Set[T] {
	s := make(Set[T])
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(items ...T) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

func (s Set[T]) Remove(item T) {
	delete(s, item)
}

func (s Set[T]) Contains(item T) bool {
	_, exists := s[item]
	return exists
}

// Ordered is a set that remembers insertion order.
type Ordered[T comparable] struct {
	items   []T
	members map[T]struct{}
}

func NewOrdered[T comparable](items ...T) *Ordered[T] {
	s := &Ordered[T]{members: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add appends item unless it is already present and reports whether it was added.
func (s *Ordered[T]) Add(item T) bool {
	if s.members == nil {
		s.members = map[T]struct{}{}
	}
	if _, ok := s.members[item]; ok {
		return false
	}
	s.members[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Remove deletes item and reports whether it was present.
func (s *Ordered[T]) Remove(item T) bool {
	if _, ok := s.members[item]; !ok {
		return false
	}
	delete(s.members, item)
	for i, current := range s.items {
		if current == item {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *Ordered[T]) Contains(item T) bool {
	_, ok := s.members[item]
	return ok
}

func (s *Ordered[T]) Len() int {
	return len(s.items)
}

func (s *Ordered[T]) Clear() {
	s.items = nil
	clear(s.members)
}

// Slice returns a copy of the items in insertion order.
func (s *Ordered[T]) Slice() []T {
	return append([]T(nil), s.items...)
}

// Items iterates over a snapshot of the set, so the set may be modified
// while iterating.
func (s *Ordered[T]) Items() iter.Seq[T] {
	snapshot := s.Slice()
	return func(yield func(T) bool) {
		for _, item := range snapshot {
			if !yield(item) {
				return
			}
		}
	}
}
