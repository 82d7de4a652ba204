// Package ast models the declaration tree handed over by the C/C++
// front-end. Nodes follow clang's JSON dump (kind names, inner children,
// camelCase payload keys) with a structured type model in place of
// qualType strings.
package ast

import (
	"fmt"
	"strings"
)

// Loc is a source location
type Loc struct {
	File string `yaml:"file,omitempty"`
	Line int    `yaml:"line,omitempty"`
	Col  int    `yaml:"col,omitempty"`
}

// IsZero reports a missing location
func (l Loc) IsZero() bool { return l.File == "" && l.Line == 0 }

func (l Loc) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s (%d, %d)", l.File, l.Line, l.Col)
}

// Base is a base-class specifier of a record
type Base struct {
	Type      *Type  `yaml:"type"`
	Access    string `yaml:"access,omitempty"`
	IsVirtual bool   `yaml:"isVirtual,omitempty"`
}

// Record returns the base's record declaration, if resolved
func (b Base) Record() *Node {
	if c := b.Type.Canonical(); c != nil {
		return c.Decl
	}
	return nil
}

// Token is one preprocessor token of a macro body
type Token struct {
	Kind     string `yaml:"kind"` // identifier, keyword, literal, punctuation
	Spelling string `yaml:"spelling"`
}

// Comment is the documentation attached to a declaration
type Comment struct {
	Paragraphs []string       `yaml:"paragraphs,omitempty"`
	Params     []ParamComment `yaml:"params,omitempty"`
	Returns    string         `yaml:"returns,omitempty"`
}

// ParamComment documents one parameter
type ParamComment struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Node is one declaration, statement, expression or preprocessing entity.
// Positional children of statements follow clang's order; absent optional
// children are nodes with an empty Kind.
type Node struct {
	ID          string   `yaml:"id,omitempty"`
	Kind        Kind     `yaml:"kind,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	MangledName string   `yaml:"mangledName,omitempty"`
	Loc         Loc      `yaml:"loc,omitempty"`
	Type        *Type    `yaml:"type,omitempty"`
	Inner       []*Node  `yaml:"inner,omitempty"`
	Comment     *Comment `yaml:"comment,omitempty"`

	// Declarations
	Access            string `yaml:"access,omitempty"`
	TagUsed           string `yaml:"tagUsed,omitempty"`
	IsAnonymous       bool   `yaml:"isAnonymous,omitempty"`
	Bases             []Base `yaml:"bases,omitempty"`
	UUID              string `yaml:"uuid,omitempty"`
	IsBitField        bool   `yaml:"isBitfield,omitempty"`
	BitWidth          int    `yaml:"bitWidth,omitempty"`
	OffsetBits        int64  `yaml:"offset,omitempty"`
	IntegerType       *Type  `yaml:"integerType,omitempty"`
	UnderlyingType    *Type  `yaml:"underlyingType,omitempty"`
	IsVirtual         bool   `yaml:"isVirtual,omitempty"`
	IsPure            bool   `yaml:"isPure,omitempty"`
	IsStatic          bool   `yaml:"isStatic,omitempty"`
	IsImplicit        bool   `yaml:"isImplicit,omitempty"`
	IsCopyConstructor bool   `yaml:"isCopyConstructor,omitempty"`
	IsMoveConstructor bool   `yaml:"isMoveConstructor,omitempty"`
	IsDefinition      bool   `yaml:"isDefinition,omitempty"`
	StorageClass      string `yaml:"storageClass,omitempty"`

	// Statements and expressions
	Value     string `yaml:"value,omitempty"`
	OpCode    string `yaml:"opcode,omitempty"`
	IsPostfix bool   `yaml:"isPostfix,omitempty"`
	CastKind  string `yaml:"castKind,omitempty"`
	CharKind  string `yaml:"charKind,omitempty"`
	IsArrow   bool   `yaml:"isArrow,omitempty"`
	Trait     string `yaml:"trait,omitempty"`
	ArgType   *Type  `yaml:"argType,omitempty"`

	// InitField names the member a union init list initializes, by id or
	// name
	InitField string `yaml:"field,omitempty"`

	// Ref names the referenced declaration (DeclRefExpr, MemberExpr,
	// CXXConstructExpr, CXXCtorInitializer, GotoStmt) by id or name
	Ref     string `yaml:"ref,omitempty"`
	RefNode *Node  `yaml:"-"`

	// Preprocessing entities
	IsFunctionLike bool    `yaml:"isFunctionLike,omitempty"`
	Tokens         []Token `yaml:"tokens,omitempty"`

	Parent *Node `yaml:"-"`
}

// Category classifies the node by kind
func (n *Node) Category() Category {
	if n == nil || n.Kind == "" {
		return CategoryOther
	}
	return n.Kind.Category()
}

// IsDecl reports a declaration node
func (n *Node) IsDecl() bool { return n.Category() == CategoryDecl }

// IsStmt reports a statement node; expressions are statements too
func (n *Node) IsStmt() bool {
	c := n.Category()
	return c == CategoryStmt || c == CategoryExpr
}

// IsExpr reports an expression node
func (n *Node) IsExpr() bool { return n.Category() == CategoryExpr }

// IsAbsent reports a nil node or an empty placeholder child
func (n *Node) IsAbsent() bool { return n == nil || n.Kind == "" }

// Child returns the i-th inner node or nil
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Inner) || n.Inner[i].IsAbsent() {
		return nil
	}
	return n.Inner[i]
}

// ChildrenOf returns inner nodes of the given kinds, in order
func (n *Node) ChildrenOf(kinds ...Kind) []*Node {
	var out []*Node
	for _, c := range n.Inner {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Location renders the source location for diagnostics
func (n *Node) Location() string {
	if n == nil {
		return ""
	}
	return n.Loc.String()
}

// Is reports whether the node has one of the given kinds
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// IsRecord reports struct, union and class declarations
func (n *Node) IsRecord() bool {
	return n.Is(RecordDecl, CXXRecordDecl, ClassTemplateSpecializationDecl)
}

// IsUnion reports a union record
func (n *Node) IsUnion() bool { return n.IsRecord() && n.TagUsed == "union" }

// IsFunction reports free functions and all method kinds
func (n *Node) IsFunction() bool {
	return n.Is(FunctionDecl, CXXMethodDecl, CXXConstructorDecl, CXXDestructorDecl, CXXConversionDecl)
}

// IsMethod reports member functions
func (n *Node) IsMethod() bool {
	return n.Is(CXXMethodDecl, CXXConstructorDecl, CXXDestructorDecl, CXXConversionDecl)
}

// Fields returns the field declarations of a record
func (n *Node) Fields() []*Node { return n.ChildrenOf(FieldDecl) }

// Methods returns the member functions of a record
func (n *Node) Methods() []*Node {
	return n.ChildrenOf(CXXMethodDecl, CXXConstructorDecl, CXXDestructorDecl, CXXConversionDecl)
}

// Params returns the parameters of a function or function typedef
func (n *Node) Params() []*Node { return n.ChildrenOf(ParmVarDecl) }

// CtorInitializers returns the member initializers of a constructor
func (n *Node) CtorInitializers() []*Node { return n.ChildrenOf(CXXCtorInitializer) }

// Body returns the compound body of a function, or nil
func (n *Node) Body() *Node {
	if !n.IsFunction() {
		return nil
	}
	for i := len(n.Inner) - 1; i >= 0; i-- {
		if n.Inner[i].Kind == CompoundStmt {
			return n.Inner[i]
		}
	}
	return nil
}

// HasBody reports a function definition
func (n *Node) HasBody() bool { return n.Body() != nil }

// Init returns the initializer of a variable or parameter, or the value
// expression of an enum constant or member initializer
func (n *Node) Init() *Node {
	for _, c := range n.Inner {
		if c.IsExpr() {
			return c
		}
	}
	return nil
}

// IsComplete reports whether a record or enum has its definition in this tree
func (n *Node) IsComplete() bool {
	return n.IsDefinition || len(n.Inner) > 0
}

// HasVtbl reports whether a record has virtual methods itself or through a
// non-virtual base
func (n *Node) HasVtbl() bool {
	if n == nil {
		return false
	}
	for _, m := range n.Methods() {
		if m.IsVirtual {
			return true
		}
	}
	for _, b := range n.Bases {
		if !b.IsVirtual && b.Record().HasVtbl() {
			return true
		}
	}
	return false
}

// IsAnonymousRecord reports a record without a name of its own
func (n *Node) IsAnonymousRecord() bool {
	return n.IsRecord() && (n.IsAnonymous || n.Name == "")
}

// IsImplicitThis reports the implicit object of a member access
func (n *Node) IsImplicitThis() bool {
	return n.Is(CXXThisExpr) && n.IsImplicit
}

// Ancestor returns the nearest ancestor of one of the given kinds
func (n *Node) Ancestor(kinds ...Kind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// QualifiedName joins the names of enclosing named declarations with "::"
func (n *Node) QualifiedName() string {
	var parts []string
	for p := n; p != nil; p = p.Parent {
		if p.Kind == TranslationUnitDecl || p.Kind == LinkageSpecDecl {
			continue
		}
		if p.IsDecl() && p.Name != "" {
			parts = append(parts, p.Name)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}

// IsInStdNamespace reports declarations nested in namespace std
func (n *Node) IsInStdNamespace() bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == NamespaceDecl && p.Name == "std" {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Inner {
		Walk(c, fn)
	}
}
