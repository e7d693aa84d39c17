// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package setutil adapts the teacher repo's generic Set into the narrower
// surface the resolution core needs for its internal bookkeeping: visited
// sets for iterative graph walks, and common/union/intersection
// computations over event ids. Trimmed to what resolve actually calls;
// the teacher's JSON (de)serialization and String methods have no use
// here, since a Set never crosses this module's boundary.
package setutil

import "golang.org/x/exp/maps"

const minSetSize = 16

// Set is a set of comparable elements.
type Set[T comparable] map[T]struct{}

// New returns an empty set sized for size elements.
func New[T comparable](size int) Set[T] {
	if size < 0 {
		size = 0
	}
	if size < minSetSize {
		size = minSetSize
	}
	return make(Set[T], size)
}

// Of returns a Set initialized with elts.
func Of[T comparable](elts ...T) Set[T] {
	s := New[T](len(elts))
	s.Add(elts...)
	return s
}

// Add inserts elts into s.
func (s Set[T]) Add(elts ...T) {
	for _, e := range elts {
		s[e] = struct{}{}
	}
}

// Contains reports whether elt is in s.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Len returns the number of elements in s.
func (s Set[T]) Len() int {
	return len(s)
}

// List returns s's elements in no particular order.
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// Intersect returns the elements common to every set in sets. Returns an
// empty set if sets is empty.
func Intersect[T comparable](sets ...Set[T]) Set[T] {
	out := New[T](0)
	if len(sets) == 0 {
		return out
	}
	for elt := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if !s.Contains(elt) {
				inAll = false
				break
			}
		}
		if inAll {
			out.Add(elt)
		}
	}
	return out
}

// Union returns the elements present in any set in sets.
func Union[T comparable](sets ...Set[T]) Set[T] {
	out := New[T](0)
	for _, s := range sets {
		for elt := range s {
			out.Add(elt)
		}
	}
	return out
}

// Difference returns the elements of a not present in b.
func Difference[T comparable](a, b Set[T]) Set[T] {
	out := New[T](a.Len())
	for elt := range a {
		if !b.Contains(elt) {
			out.Add(elt)
		}
	}
	return out
}
