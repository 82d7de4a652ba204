package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
)

// objectMembers are the System.Object members a generated member would hide
var objectMembers = map[string]int{
	"Equals":          1,
	"GetHashCode":     0,
	"GetType":         0,
	"MemberwiseClone": 0,
	"ReferenceEquals": 2,
	"ToString":        0,
	"Finalize":        0,
}

// needsNewKeyword reports whether a member named name must be declared with
// the `new` modifier. paramCount is -1 for fields and properties.
func needsNewKeyword(name string, paramCount int) bool {
	want, ok := objectMembers[name]
	if !ok {
		return false
	}
	return paramCount < 0 || paramCount == want
}

// accessModifier maps a C++ access specifier onto C#
func accessModifier(n *ast.Node) string {
	switch n.Access {
	case "private":
		return "private"
	case "protected":
		return "internal"
	default:
		return "public"
	}
}

// anonymousIndex returns the 1-based position of rec among the anonymous
// members of its parent, or 0 when it is the only one.
func anonymousIndex(rec *ast.Node) int {
	parent := rec.Parent
	if parent == nil {
		return 0
	}
	count, pos := 0, 0
	for _, c := range parent.Inner {
		if c.IsRecord() && c.Name == "" && memberField(c) == nil {
			count++
			if c == rec {
				pos = count
			}
		}
	}
	if count <= 1 {
		return 0
	}
	return pos
}

// memberField returns the named field of the parent record whose type is rec
func memberField(rec *ast.Node) *ast.Node {
	if rec.Parent == nil || !rec.Parent.IsRecord() {
		return nil
	}
	for _, f := range rec.Parent.Fields() {
		if f.Name != "" && declOf(f.Type) == rec {
			return f
		}
	}
	return nil
}

// fieldRecord returns the anonymous record a field is typed with, or nil
func fieldRecord(f *ast.Node) *ast.Node {
	d := declOf(f.Type)
	if d.IsAnonymousRecord() {
		return d
	}
	return nil
}

// declOf returns the declaration behind a record, enum or typedef type
func declOf(t *ast.Type) *ast.Node {
	c := t.Canonical()
	if c == nil {
		return nil
	}
	return c.Decl
}

// typedefNameFor returns the name of a typedef that names an unnamed record
// or enum in the same scope
func typedefNameFor(n *ast.Node) string {
	if n.Parent == nil {
		return ""
	}
	for _, c := range n.Parent.Inner {
		if c.Is(ast.TypedefDecl, ast.TypeAliasDecl) && declOf(c.UnderlyingType) == n {
			return c.Name
		}
	}
	return ""
}

func tagKind(n *ast.Node) string {
	if n.IsUnion() {
		return "Union"
	}
	return "Struct"
}

// anonymousRecordName names an unnamed record after its field, or after its
// position among the anonymous members of the parent.
func anonymousRecordName(rec *ast.Node) string {
	if f := memberField(rec); f != nil {
		return fmt.Sprintf("_%s_e__%s", f.Name, tagKind(rec))
	}
	return fmt.Sprintf("_%s_e__%s", anonymousFieldName(rec), tagKind(rec))
}

// anonymousFieldName is the member name given to an anonymous struct or
// union member
func anonymousFieldName(rec *ast.Node) string {
	if i := anonymousIndex(rec); i > 0 {
		return fmt.Sprintf("Anonymous%d", i)
	}
	return "Anonymous"
}

// anonymousEnumName names an unnamed enum after its source position
func anonymousEnumName(n *ast.Node) string {
	stem := strings.TrimSuffix(filepath.Base(n.Loc.File), filepath.Ext(n.Loc.File))
	if stem == "" || stem == "." {
		stem = "unknown"
	}
	return fmt.Sprintf("__AnonymousEnum_%s_L%d_C%d", stem, n.Loc.Line, n.Loc.Col)
}

// cursorName is the native name of a declaration, with names synthesized
// for anonymous records and enums.
func (r *run) cursorName(n *ast.Node) string {
	switch {
	case n.IsRecord() && n.Name == "":
		if name := typedefNameFor(n); name != "" {
			return name
		}
		return anonymousRecordName(n)
	case n.Is(ast.EnumDecl) && n.Name == "":
		if name := typedefNameFor(n); name != "" {
			return name
		}
		return anonymousEnumName(n)
	case n.Is(ast.FieldDecl) && n.Name == "":
		if rec := fieldRecord(n); rec != nil {
			return anonymousFieldName(rec)
		}
	case n.Is(ast.VarDecl):
		return strings.TrimPrefix(n.Name, macroVarPrefix)
	}
	return n.Name
}

// remappedName applies the policy's remapping and, for free functions, the
// configured prefix strip.
func (r *run) remappedName(n *ast.Node) string {
	name := r.policy.RemappedName(r.cursorName(n), n)
	if n.Is(ast.FunctionDecl) && r.opts.MethodPrefixToStrip != "" {
		if stripped := strings.TrimPrefix(name, r.opts.MethodPrefixToStrip); stripped != "" {
			name = stripped
		}
	}
	return name
}

// escapedName is the remapped name made safe as a C# identifier
func (r *run) escapedName(n *ast.Node) string {
	return r.policy.EscapedName(r.remappedName(n))
}

// paramName substitutes param<i> for missing or placeholder names
func (r *run) paramName(p *ast.Node, index int) string {
	if p.Name == "" || p.Name == "param" {
		return fmt.Sprintf("param%d", index)
	}
	return r.escapedName(p)
}

// paramIndex returns the position of p among its parent's parameters
func paramIndex(p *ast.Node) int {
	if p.Parent == nil {
		return 0
	}
	for i, q := range p.Parent.Params() {
		if q == p {
			return i
		}
	}
	return 0
}

// accessFor maps an access specifier spelling onto C#
func accessFor(access string) string {
	return accessModifier(&ast.Node{Access: access})
}
