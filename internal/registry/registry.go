// Package registry implements the process-wide tool registry described in
// spec.md §4.C: a keyed tool_id -> descriptor mapping with concurrent
// readers/writers, a reverse source-path index, change notifications, and
// a monotonic revision counter.
//
// Adapted from the teacher's internal/mcp.Registry (Register/Get/List over
// a sync.RWMutex-guarded map), generalized with Update/Remove/
// RemoveBySource mutation ops, a revision counter, and the reverse index
// spec.md's watcher needs for per-file diffing.
package registry

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/justmcp/justmcp/internal/errs"
)

// ParamSpec is one recipe parameter as published to the registry: enough
// information for a dispatcher to fill in a missing optional argument's
// default rather than silently shifting every later parameter's position.
type ParamSpec struct {
	Name       string
	HasDefault bool
	Default    string
	Variadic   bool
}

// Descriptor is the registry's published unit, per spec.md §3.
type Descriptor struct {
	ToolID      string
	Name        string
	Description string
	InputSchema json.RawMessage
	SourcePath  string
	RecipeName  string
	SourceHash  uint64
	// Parameters lists the recipe's parameters in declaration order, so a
	// tool invocation can map named arguments back onto the positional
	// form `just <recipe> <arg1> <arg2> ...`, substituting each omitted
	// optional parameter's default so later parameters keep their slot.
	Parameters []ParamSpec
	// RequiresConfirmation mirrors task.Task.RequiresConfirmation: when
	// true, InputSchema requires a boolean "confirm" property that the
	// caller must set to true before the recipe is invoked.
	RequiresConfirmation bool
}

// Registry holds all published tool descriptors.
type Registry struct {
	mu        sync.RWMutex
	byID      map[string]Descriptor
	order     []string
	bySource  map[string]map[string]struct{} // source path -> set<tool_id>
	revision  uint64
	changed   *changeStream
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID:     make(map[string]Descriptor),
		bySource: make(map[string]map[string]struct{}),
		changed:  newChangeStream(),
	}
}

// Add inserts a new descriptor. Returns DuplicateId if tool_id already exists.
func (r *Registry) Add(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ToolID]; exists {
		return &errs.RegistryError{Kind: errs.DuplicateID, ID: d.ToolID}
	}

	r.byID[d.ToolID] = d
	r.order = append(r.order, d.ToolID)
	r.indexSource(d)
	r.bumpAndSignal()
	return nil
}

// Update replaces an existing descriptor in place. Bumps revision only if
// the descriptor's SourceHash differs from the stored one.
func (r *Registry) Update(id string, d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.byID[id]
	if !exists {
		return &errs.RegistryError{Kind: errs.NotFound, ID: id}
	}

	d.ToolID = id
	r.unindexSource(existing)
	r.byID[id] = d
	r.indexSource(d)

	if existing.SourceHash != d.SourceHash {
		r.bumpAndSignal()
	}
	return nil
}

// Remove deletes a descriptor by tool_id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.byID[id]
	if !exists {
		return &errs.RegistryError{Kind: errs.NotFound, ID: id}
	}

	delete(r.byID, id)
	r.removeFromOrder(id)
	r.unindexSource(d)
	r.bumpAndSignal()
	return nil
}

// RemoveBySource deletes every descriptor whose SourcePath equals path,
// returning the count removed. Bumps revision iff count > 0.
func (r *Registry) RemoveBySource(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.bySource[path]
	if len(ids) == 0 {
		return 0
	}

	count := 0
	for id := range ids {
		delete(r.byID, id)
		r.removeFromOrder(id)
		count++
	}
	delete(r.bySource, path)

	if count > 0 {
		r.bumpAndSignal()
	}
	return count
}

// List returns a snapshot of all descriptors in insertion order, safe to
// range over after the lock is released.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Get returns a descriptor by tool_id, or NotFound.
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.byID[id]
	if !exists {
		return Descriptor{}, &errs.RegistryError{Kind: errs.NotFound, ID: id}
	}
	return d, nil
}

// ToolIDsForSource returns the tool_ids currently published for path, in
// no particular order.
func (r *Registry) ToolIDsForSource(path string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySource[path]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Revision returns the current monotonic mutation counter.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

// Subscribe returns a channel that is closed the next time any mutation
// bumps the revision. The change stream is edge-triggered and coalesced:
// callers should re-List() after waking and re-Subscribe() to keep
// watching, per spec.md §4.C.
func (r *Registry) Subscribe() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changed.current()
}

func (r *Registry) bumpAndSignal() {
	r.revision++
	r.changed.broadcast()
}

func (r *Registry) indexSource(d Descriptor) {
	set, ok := r.bySource[d.SourcePath]
	if !ok {
		set = make(map[string]struct{})
		r.bySource[d.SourcePath] = set
	}
	set[d.ToolID] = struct{}{}
}

func (r *Registry) unindexSource(d Descriptor) {
	set, ok := r.bySource[d.SourcePath]
	if !ok {
		return
	}
	delete(set, d.ToolID)
	if len(set) == 0 {
		delete(r.bySource, d.SourcePath)
	}
}

func (r *Registry) removeFromOrder(id string) {
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
