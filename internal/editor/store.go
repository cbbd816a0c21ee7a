// Package editor holds the list state behind the slide and question editors:
// per-item dirty tracking, baseline reconciliation and change-triggered saves.
package editor

import (
	"errors"
	"fmt"
)

var (
	ErrLastItem = errors.New("editor: cannot remove the last item")
	ErrIndex    = errors.New("editor: index out of range")
)

type Entry[T any] struct {
	Value T
	Dirty bool
}

// Store is an ordered list of editable items. Every item has a stable identity
// used to tell a re-sent baseline from a genuinely new one.
type Store[T any] struct {
	identity func(T) string
	renumber func(*T, int)
	entries  []Entry[T]
	active   int
}

// NewStore builds a store over initial. renumber may be nil when items carry no
// positional field.
func NewStore[T any](identity func(T) string, renumber func(*T, int), initial []T) *Store[T] {
	s := &Store[T]{identity: identity, renumber: renumber}
	s.Reset(initial)
	return s
}

func (s *Store[T]) Len() int    { return len(s.entries) }
func (s *Store[T]) Active() int { return s.active }

// Items returns a copy of the current values in order.
func (s *Store[T]) Items() []T {
	out := make([]T, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Value
	}
	return out
}

func (s *Store[T]) Entries() []Entry[T] {
	return append([]Entry[T](nil), s.entries...)
}

func (s *Store[T]) Get(i int) (T, error) {
	if i < 0 || i >= len(s.entries) {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrIndex, i)
	}
	return s.entries[i].Value, nil
}

func (s *Store[T]) Current() (T, bool) {
	v, err := s.Get(s.active)
	return v, err == nil
}

func (s *Store[T]) SetActive(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	s.active = i
	return nil
}

// Next and Prev move the active index, stopping at either end.
func (s *Store[T]) Next() bool {
	if s.active >= len(s.entries)-1 {
		return false
	}
	s.active++
	return true
}

func (s *Store[T]) Prev() bool {
	if s.active == 0 {
		return false
	}
	s.active--
	return true
}

// Edit mutates item i and marks only that item dirty.
func (s *Store[T]) Edit(i int, fn func(*T)) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	fn(&s.entries[i].Value)
	s.entries[i].Dirty = true
	return nil
}

// Append adds v at the end and makes it active.
func (s *Store[T]) Append(v T) {
	if s.renumber != nil {
		s.renumber(&v, len(s.entries))
	}
	s.entries = append(s.entries, Entry[T]{Value: v, Dirty: true})
	s.active = len(s.entries) - 1
}

// Remove deletes item i and renumbers the items after it. The last remaining
// item cannot be removed.
func (s *Store[T]) Remove(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	if len(s.entries) == 1 {
		return ErrLastItem
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	if s.renumber != nil {
		for j := i; j < len(s.entries); j++ {
			s.renumber(&s.entries[j].Value, j)
			s.entries[j].Dirty = true
		}
	}
	if s.active > i || s.active >= len(s.entries) {
		s.active--
	}
	if s.active < 0 {
		s.active = 0
	}
	return nil
}

// Dirty lists the indices edited since the last MarkClean.
func (s *Store[T]) Dirty() []int {
	var out []int
	for i, e := range s.entries {
		if e.Dirty {
			out = append(out, i)
		}
	}
	return out
}

func (s *Store[T]) MarkClean() {
	for i := range s.entries {
		s.entries[i].Dirty = false
	}
}

// Reset replaces the list unconditionally, clears dirty flags and rewinds the
// active index.
func (s *Store[T]) Reset(items []T) {
	s.entries = make([]Entry[T], len(items))
	for i, v := range items {
		s.entries[i] = Entry[T]{Value: v}
	}
	s.active = 0
}

// ReplaceBaseline applies a host-supplied initial list. A list that is
// structurally the same as the current one is ignored so in-progress edits
// survive; the return value reports whether local state was replaced.
func (s *Store[T]) ReplaceBaseline(incoming []T) bool {
	r := Reconcile(s.Items(), incoming, s.identity)
	if !r.Replace {
		return false
	}
	s.Reset(r.Items)
	return true
}
