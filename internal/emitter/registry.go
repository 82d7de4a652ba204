package emitter

import (
	"iter"
	"strings"

	"github.com/teranos/pinvokegen/errors"
)

// Registry owns the emitters of one generation run, keyed by name
type Registry struct {
	byName map[string]*Emitter
	order  []*Emitter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Emitter)}
}

// Create registers a new emitter. Empty names fail with ErrInvalidArgument
// and repeated names with ErrDuplicateKey.
func (r *Registry) Create(name string, isTest bool) (*Emitter, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewInvalidArgumentError("emitter name cannot be empty")
	}
	if _, ok := r.byName[name]; ok {
		return nil, errors.NewDuplicateKeyError("emitter %q already exists", name)
	}

	e := New(name, isTest)
	r.byName[name] = e
	r.order = append(r.order, e)
	return e, nil
}

// Get returns the named emitter or ErrKeyNotFound
func (r *Registry) Get(name string) (*Emitter, error) {
	if e, ok := r.byName[name]; ok {
		return e, nil
	}
	return nil, errors.NewKeyNotFoundError("emitter %q", name)
}

// TryGet returns the named emitter if present
func (r *Registry) TryGet(name string) (*Emitter, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// All yields emitters in creation order
func (r *Registry) All() iter.Seq[*Emitter] {
	return func(yield func(*Emitter) bool) {
		for _, e := range r.order {
			if !yield(e) {
				return
			}
		}
	}
}

// Len returns the number of registered emitters
func (r *Registry) Len() int { return len(r.order) }

// Clear drops every emitter. Only call between runs.
func (r *Registry) Clear() {
	clear(r.byName)
	r.order = nil
}
