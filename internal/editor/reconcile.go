package editor

import (
	"bytes"
	"context"
	"encoding/json"
)

type Reconciliation[T any] struct {
	Replace bool
	Items   []T
}

// Reconcile decides whether incoming is genuinely different from current: a
// different length, or a different identity at any position. An empty incoming
// list never replaces, since a store always holds at least one item.
func Reconcile[T any](current, incoming []T, identity func(T) string) Reconciliation[T] {
	if len(incoming) == 0 {
		return Reconciliation[T]{Items: current}
	}
	if len(incoming) != len(current) {
		return Reconciliation[T]{Replace: true, Items: incoming}
	}
	for i := range incoming {
		if identity(incoming[i]) != identity(current[i]) {
			return Reconciliation[T]{Replace: true, Items: incoming}
		}
	}
	return Reconciliation[T]{Items: current}
}

type PersistFunc[T any] func(ctx context.Context, items []T) error

// Autosaver persists the whole list whenever its serialized form differs from
// the form captured at the end of the previous cycle. Identical content is a
// no-op, so a host that merely re-renders cannot cause a save loop.
type Autosaver[T any] struct {
	store   *Store[T]
	persist PersistFunc[T]
	last    []byte
}

func NewAutosaver[T any](store *Store[T], persist PersistFunc[T]) *Autosaver[T] {
	return &Autosaver[T]{store: store, persist: persist}
}

// Tick checks the store's current items.
func (a *Autosaver[T]) Tick(ctx context.Context) (bool, error) {
	saved, err := a.Observe(ctx, a.store.Items())
	if saved {
		a.store.MarkClean()
	}
	return saved, err
}

// Observe compares items with the last captured form and persists on change.
// On a failed save the previous form is restored so the next tick retries.
func (a *Autosaver[T]) Observe(ctx context.Context, items []T) (bool, error) {
	cur, err := json.Marshal(items)
	if err != nil {
		return false, err
	}
	if a.last != nil && bytes.Equal(cur, a.last) {
		return false, nil
	}
	prev := a.last
	a.last = cur
	if err := a.persist(ctx, items); err != nil {
		a.last = prev
		return false, err
	}
	return true, nil
}

// Prime captures the store's current form without persisting, e.g. right after
// loading a new baseline that already matches what is stored.
func (a *Autosaver[T]) Prime() error {
	cur, err := json.Marshal(a.store.Items())
	if err != nil {
		return err
	}
	a.last = cur
	return nil
}
