package ast

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teranos/pinvokegen/errors"
)

// Parse decodes a translation unit from JSON or YAML and links it
func Parse(data []byte) (*Node, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to decode translation unit")
	}
	if root.Kind == "" {
		return nil, errors.WithHint(
			errors.New("translation unit has no kind"),
			"the root node must be a TranslationUnitDecl",
		)
	}
	Link(&root)
	return &root, nil
}

// Load reads and parses a translation unit
func Load(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read translation unit")
	}
	return Parse(data)
}

// LoadFile reads and parses the translation unit at path
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return root, nil
}

// Link sets parent pointers, resolves declaration references and derives
// missing record layouts. References are matched by id first, then by
// declaration name. It returns the references that matched nothing.
func Link(root *Node) []string {
	byID := make(map[string]*Node)
	byName := make(map[string]*Node)

	var index func(n, parent *Node)
	index = func(n, parent *Node) {
		if n == nil {
			return
		}
		n.Parent = parent
		if n.ID != "" {
			byID[n.ID] = n
		}
		if n.IsDecl() && n.Name != "" {
			// Prefer the definition over forward declarations
			if prev, ok := byName[n.Name]; !ok || (!prev.IsComplete() && n.IsComplete()) {
				byName[n.Name] = n
			}
		}
		for _, c := range n.Inner {
			index(c, n)
		}
	}
	index(root, nil)

	var unresolved []string
	lookup := func(ref string) *Node {
		if ref == "" {
			return nil
		}
		if n, ok := byID[ref]; ok {
			return n
		}
		if n, ok := byName[ref]; ok {
			return n
		}
		unresolved = append(unresolved, ref)
		return nil
	}

	var linkType func(t *Type)
	linkType = func(t *Type) {
		if t == nil {
			return
		}
		if t.Decl == nil {
			t.Decl = lookup(t.DeclRef)
		}
		linkType(t.Pointee)
		linkType(t.Element)
		linkType(t.Underlying)
		linkType(t.Result)
		for _, p := range t.Params {
			linkType(p)
		}
	}

	Walk(root, func(n *Node) bool {
		if n.RefNode == nil {
			n.RefNode = lookup(n.Ref)
		}
		linkType(n.Type)
		linkType(n.IntegerType)
		linkType(n.UnderlyingType)
		linkType(n.ArgType)
		for _, b := range n.Bases {
			linkType(b.Type)
		}
		return true
	})

	deriveLayouts(root)
	return unresolved
}
