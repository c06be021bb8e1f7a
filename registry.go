package msgskema

import (
	"errors"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	ErrNilType     = errors.New("msgskema: template type is nil")
	ErrNilTemplate = errors.New("msgskema: template is nil")
)

// Registry maps runtime types to Templates. The zero value is an empty
// registry ready for use.
//
// Lookups read an immutable snapshot and never block; Register copies the
// snapshot under a mutex and publishes the new one atomically, so a
// concurrent Lookup sees either the old or the new entry.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[map[reflect.Type]Template]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	m := map[reflect.Type]Template{}
	r.snap.Store(&m)
	return r
}

// Register binds tpl to t, replacing any previous binding.
func (r *Registry) Register(t reflect.Type, tpl Template) error {
	if t == nil {
		return ErrNilType
	}
	if tpl == nil {
		return ErrNilTemplate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.entries()
	next := make(map[reflect.Type]Template, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[t] = tpl
	r.snap.Store(&next)
	return nil
}

// Lookup returns the template bound to t.
func (r *Registry) Lookup(t reflect.Type) (Template, bool) {
	tpl, ok := r.entries()[t]
	return tpl, ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.entries()) }

// Types returns the registered types ordered by name.
func (r *Registry) Types() []reflect.Type {
	m := r.entries()
	out := make([]reflect.Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Clone returns an independent registry with the same bindings.
func (r *Registry) Clone() *Registry {
	c := &Registry{}
	if m := r.snap.Load(); m != nil {
		c.snap.Store(m)
	}
	return c
}

// entries returns the current snapshot, nil before the first Register.
func (r *Registry) entries() map[reflect.Type]Template {
	if m := r.snap.Load(); m != nil {
		return *m
	}
	return nil
}

var defaultRegistry = newBuiltinRegistry()

// DefaultRegistry returns the registry pre-populated with the built-in
// templates. It is shared by the package-level helpers and by codec.Default.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterTemplate binds tpl to t in the default registry.
func RegisterTemplate(t reflect.Type, tpl Template) error { return defaultRegistry.Register(t, tpl) }

// LookupTemplate looks t up in the default registry.
func LookupTemplate(t reflect.Type) (Template, bool) { return defaultRegistry.Lookup(t) }

// NewBuiltinRegistry returns a fresh registry holding only the built-in
// templates.
func NewBuiltinRegistry() *Registry { return newBuiltinRegistry() }
