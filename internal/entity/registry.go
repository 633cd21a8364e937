package entity

import (
	"slices"
)

// Registry tracks, per kind, the set of full ids currently announced.
//
// All operations are idempotent and perform no I/O. A Registry is owned by a
// single goroutine (the scheduler loop) and is not safe for concurrent use.
type Registry struct {
	ids map[Kind]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[Kind]map[string]struct{})}
}

// Contains reports whether id is registered for kind.
func (r *Registry) Contains(kind Kind, id string) bool {
	_, ok := r.ids[kind][id]
	return ok
}

// Add registers id for kind. It returns true if id was not already present.
func (r *Registry) Add(kind Kind, id string) bool {
	set, ok := r.ids[kind]
	if !ok {
		set = make(map[string]struct{})
		r.ids[kind] = set
	}
	if _, exists := set[id]; exists {
		return false
	}
	set[id] = struct{}{}
	return true
}

// Remove unregisters id for kind. It returns true if id was present.
func (r *Registry) Remove(kind Kind, id string) bool {
	set := r.ids[kind]
	if _, exists := set[id]; !exists {
		return false
	}
	delete(set, id)
	return true
}

// Snapshot returns the registered ids for kind in ascending order.
// The slice is a copy.
func (r *Registry) Snapshot(kind Kind) []string {
	set := r.ids[kind]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of registered ids for kind.
func (r *Registry) Len(kind Kind) int {
	return len(r.ids[kind])
}

// Sizes returns the registered count for every known kind.
func (r *Registry) Sizes() map[Kind]int {
	out := make(map[Kind]int, len(ReconcileOrder))
	for _, k := range ReconcileOrder {
		out[k] = len(r.ids[k])
	}
	return out
}
