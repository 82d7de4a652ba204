package ast

// TypeKind is the clang type class
type TypeKind string

const (
	BuiltinType         TypeKind = "Builtin"
	PointerType         TypeKind = "Pointer"
	LValueReferenceType TypeKind = "LValueReference"
	RValueReferenceType TypeKind = "RValueReference"
	RecordType          TypeKind = "Record"
	EnumType            TypeKind = "Enum"
	TypedefType         TypeKind = "Typedef"
	ElaboratedType      TypeKind = "Elaborated"
	AttributedType      TypeKind = "Attributed"
	ParenType           TypeKind = "Paren"
	ConstantArrayType   TypeKind = "ConstantArray"
	IncompleteArrayType TypeKind = "IncompleteArray"
	FunctionProtoType   TypeKind = "FunctionProto"
	FunctionNoProtoType TypeKind = "FunctionNoProto"
	TemplateTypeParm    TypeKind = "TemplateTypeParm"
)

// BuiltinKind is the clang builtin type kind
type BuiltinKind string

const (
	Void       BuiltinKind = "Void"
	Bool       BuiltinKind = "Bool"
	Char_U     BuiltinKind = "Char_U"
	UChar      BuiltinKind = "UChar"
	Char16     BuiltinKind = "Char16"
	Char32     BuiltinKind = "Char32"
	UShort     BuiltinKind = "UShort"
	UInt       BuiltinKind = "UInt"
	ULong      BuiltinKind = "ULong"
	ULongLong  BuiltinKind = "ULongLong"
	Char_S     BuiltinKind = "Char_S"
	SChar      BuiltinKind = "SChar"
	WChar      BuiltinKind = "WChar"
	Short      BuiltinKind = "Short"
	Int        BuiltinKind = "Int"
	Long       BuiltinKind = "Long"
	LongLong   BuiltinKind = "LongLong"
	Float      BuiltinKind = "Float"
	Double     BuiltinKind = "Double"
	LongDouble BuiltinKind = "LongDouble"
	NullPtr    BuiltinKind = "NullPtr"
)

// Type is the structured type attached to nodes. Layout values come from the
// front-end; zero means "not provided" and is derived where possible.
type Type struct {
	Kind     TypeKind    `yaml:"kind"`
	Spelling string      `yaml:"spelling,omitempty"`
	Builtin  BuiltinKind `yaml:"builtin,omitempty"`
	IsConst  bool        `yaml:"isConst,omitempty"`

	Pointee    *Type `yaml:"pointee,omitempty"`
	Element    *Type `yaml:"element,omitempty"`
	ArraySize  int64 `yaml:"size,omitempty"`
	Underlying *Type `yaml:"underlying,omitempty"`

	// DeclRef names the declaration of record, enum and typedef types by id
	// or by name; Decl is resolved by the loader.
	DeclRef string `yaml:"decl,omitempty"`
	Decl    *Node  `yaml:"-"`

	Result     *Type   `yaml:"result,omitempty"`
	Params     []*Type `yaml:"params,omitempty"`
	IsVariadic bool    `yaml:"isVariadic,omitempty"`
	CallConv   string  `yaml:"callConv,omitempty"`

	Size32  int64 `yaml:"size32,omitempty"`
	Size64  int64 `yaml:"size64,omitempty"`
	Align32 int64 `yaml:"align32,omitempty"`
	Align64 int64 `yaml:"align64,omitempty"`
}

// Desugar strips one level of sugar (typedef, elaborated, attributed, paren)
func (t *Type) Desugar() *Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypedefType:
		if t.Underlying != nil {
			return t.Underlying
		}
		if t.Decl != nil && t.Decl.UnderlyingType != nil {
			return t.Decl.UnderlyingType
		}
	case ElaboratedType, AttributedType, ParenType:
		if t.Underlying != nil {
			return t.Underlying
		}
	}
	return t
}

// Canonical strips all sugar
func (t *Type) Canonical() *Type {
	for {
		next := t.Desugar()
		if next == t {
			return t
		}
		t = next
	}
}

// IsBuiltin reports whether the canonical type is the given builtin
func (t *Type) IsBuiltin(kinds ...BuiltinKind) bool {
	c := t.Canonical()
	if c == nil || c.Kind != BuiltinType {
		return false
	}
	for _, k := range kinds {
		if c.Builtin == k {
			return true
		}
	}
	return false
}

// IsPointerLike reports pointers and references after desugaring
func (t *Type) IsPointerLike() bool {
	c := t.Canonical()
	return c != nil && (c.Kind == PointerType || c.Kind == LValueReferenceType || c.Kind == RValueReferenceType)
}

// IsFunction reports function prototypes after desugaring
func (t *Type) IsFunction() bool {
	c := t.Canonical()
	return c != nil && (c.Kind == FunctionProtoType || c.Kind == FunctionNoProtoType)
}

// IsFunctionPointer reports a pointer to a function
func (t *Type) IsFunctionPointer() bool {
	c := t.Canonical()
	return c != nil && c.Kind == PointerType && c.Pointee.IsFunction()
}

// EnumIntegerType returns the backing type of an enum type, or nil
func (t *Type) EnumIntegerType() *Type {
	c := t.Canonical()
	if c == nil || c.Kind != EnumType {
		return nil
	}
	if c.Underlying != nil {
		return c.Underlying
	}
	if c.Decl != nil && c.Decl.IntegerType != nil {
		return c.Decl.IntegerType
	}
	return &Type{Kind: BuiltinType, Builtin: Int, Spelling: "int"}
}

var builtinSizes = map[BuiltinKind][2]int64{
	Void:       {1, 1},
	Bool:       {1, 1},
	Char_U:     {1, 1},
	UChar:      {1, 1},
	Char_S:     {1, 1},
	SChar:      {1, 1},
	Char16:     {2, 2},
	WChar:      {2, 2},
	Short:      {2, 2},
	UShort:     {2, 2},
	Char32:     {4, 4},
	Int:        {4, 4},
	UInt:       {4, 4},
	Long:       {4, 4},
	ULong:      {4, 4},
	Float:      {4, 4},
	LongLong:   {8, 8},
	ULongLong:  {8, 8},
	Double:     {8, 8},
	LongDouble: {8, 8},
	NullPtr:    {4, 8},
}

func bitness(is64 bool) int {
	if is64 {
		return 1
	}
	return 0
}

// SizeOf returns the size in bytes for a 32-bit or 64-bit target. Values
// provided by the front-end win; otherwise the size is derived.
func (t *Type) SizeOf(is64 bool) int64 {
	if t == nil {
		return 0
	}
	if is64 && t.Size64 != 0 {
		return t.Size64
	}
	if !is64 && t.Size32 != 0 {
		return t.Size32
	}

	switch t.Kind {
	case BuiltinType:
		return builtinSizes[t.Builtin][bitness(is64)]
	case PointerType, LValueReferenceType, RValueReferenceType:
		if is64 {
			return 8
		}
		return 4
	case ConstantArrayType:
		return t.Element.SizeOf(is64) * t.ArraySize
	case EnumType:
		return t.EnumIntegerType().SizeOf(is64)
	case RecordType:
		if t.Decl != nil && t.Decl.Type != nil && t.Decl.Type != t {
			return t.Decl.Type.SizeOf(is64)
		}
		return 0
	}

	if next := t.Desugar(); next != t {
		return next.SizeOf(is64)
	}
	return 0
}

// AlignOf returns the alignment in bytes for a 32-bit or 64-bit target
func (t *Type) AlignOf(is64 bool) int64 {
	if t == nil {
		return 0
	}
	if is64 && t.Align64 != 0 {
		return t.Align64
	}
	if !is64 && t.Align32 != 0 {
		return t.Align32
	}

	switch t.Kind {
	case BuiltinType, PointerType, LValueReferenceType, RValueReferenceType:
		return t.SizeOf(is64)
	case ConstantArrayType, IncompleteArrayType:
		return t.Element.AlignOf(is64)
	case EnumType:
		return t.EnumIntegerType().AlignOf(is64)
	case RecordType:
		if t.Decl != nil && t.Decl.Type != nil && t.Decl.Type != t {
			return t.Decl.Type.AlignOf(is64)
		}
		return 0
	}

	if next := t.Desugar(); next != t {
		return next.AlignOf(is64)
	}
	return 0
}

// Size returns the size used for emitted layout (64-bit)
func (t *Type) Size() int64 { return t.SizeOf(true) }

// HasStableSize reports whether the 32-bit and 64-bit sizes agree
func (t *Type) HasStableSize() bool { return t.SizeOf(false) == t.SizeOf(true) }
