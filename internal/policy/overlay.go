package policy

import "github.com/teranos/pinvokegen/internal/ast"

// Overlay shadows a Remapper with local entries. Lookups consult the local
// table first. The underlying Remapper is never modified.
type Overlay struct {
	base  Remapper
	local map[string]string
}

// NewOverlay creates an empty overlay over base
func NewOverlay(base Remapper) *Overlay {
	return &Overlay{base: base, local: make(map[string]string)}
}

// Set shadows native with name
func (o *Overlay) Set(native, name string) {
	o.local[native] = name
}

// RemappedName implements Remapper
func (o *Overlay) RemappedName(native string, context *ast.Node) string {
	if name, ok := o.local[native]; ok {
		return name
	}
	return o.base.RemappedName(native, context)
}
