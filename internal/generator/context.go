package generator

import (
	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/internal/ast"
)

// visitContext is the explicit ancestor stack. The top entry is the node
// being visited.
type visitContext struct {
	stack []*ast.Node
}

// push enters n and returns the matching pop. Use as
//
//	defer r.ctx.push(n)()
func (c *visitContext) push(n *ast.Node) func() {
	c.stack = append(c.stack, n)
	depth := len(c.stack)
	return func() {
		if len(c.stack) != depth || c.stack[depth-1] != n {
			panic(errors.Invariantf("ancestor stack mismatch leaving %s: depth %d, want %d", n.Kind, len(c.stack), depth))
		}
		c.stack = c.stack[:depth-1]
	}
}

// current returns the node being visited
func (c *visitContext) current() *ast.Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// parent returns the node below the current one
func (c *visitContext) parent() *ast.Node {
	return c.ancestor(1)
}

// ancestor returns the node n levels below the current one
func (c *visitContext) ancestor(n int) *ast.Node {
	i := len(c.stack) - 1 - n
	if i < 0 || i >= len(c.stack) {
		return nil
	}
	return c.stack[i]
}

// nearest returns the closest ancestor (excluding the current node) of one of kinds
func (c *visitContext) nearest(kinds ...ast.Kind) *ast.Node {
	for i := len(c.stack) - 2; i >= 0; i-- {
		if c.stack[i].Is(kinds...) {
			return c.stack[i]
		}
	}
	return nil
}

// parentIs reports whether the direct parent has one of kinds
func (c *visitContext) parentIs(kinds ...ast.Kind) bool {
	return c.parent().Is(kinds...)
}

func (c *visitContext) depth() int { return len(c.stack) }
