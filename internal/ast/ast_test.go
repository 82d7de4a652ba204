package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
kind: TranslationUnitDecl
inner:
  - id: "0x1"
    kind: CXXRecordDecl
    name: Base
    tagUsed: struct
    type: {kind: Record, decl: "0x1", size32: 4, size64: 8, align32: 4, align64: 8}
    inner:
      - kind: CXXMethodDecl
        name: Run
        isVirtual: true
        type: {kind: FunctionProto, result: {kind: Builtin, builtin: Void, spelling: void}}
  - kind: CXXRecordDecl
    name: Derived
    tagUsed: struct
    bases:
      - type: {kind: Record, decl: Base}
    inner:
      - kind: FieldDecl
        name: x
        type: {kind: Builtin, builtin: Int, spelling: int}
  - kind: FunctionDecl
    name: f
    loc: {file: a.h, line: 3, col: 5}
    inner:
      - kind: CompoundStmt
        inner:
          - kind: ReturnStmt
            inner:
              - kind: DeclRefExpr
                ref: "0x1"
`

func TestParseYAML(t *testing.T) {
	root, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, root.Inner, 3)

	base, derived, fn := root.Inner[0], root.Inner[1], root.Inner[2]
	assert.Same(t, root, base.Parent)
	assert.Same(t, base, base.Type.Decl)
	assert.Same(t, base, derived.Bases[0].Record())
	assert.True(t, base.HasVtbl())
	assert.True(t, derived.HasVtbl(), "virtual methods are inherited through non-virtual bases")

	body := fn.Body()
	require.NotNil(t, body)
	ref := body.Child(0).Child(0)
	assert.Same(t, base, ref.RefNode)
	assert.Same(t, body, ref.Parent.Parent)
	assert.Equal(t, "a.h (3, 5)", fn.Location())
	assert.Same(t, fn, ref.Ancestor(FunctionDecl))
}

func TestParseJSON(t *testing.T) {
	doc := `{"kind":"TranslationUnitDecl","inner":[{"kind":"VarDecl","name":"v","inner":[{"kind":"IntegerLiteral","value":"42"}]}]}`
	root, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	v := root.Inner[0]
	assert.Equal(t, "42", v.Init().Value)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("inner: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("kind: [unterminated"))
	assert.Error(t, err)

	_, err = LoadFile("does-not-exist.json")
	assert.Error(t, err)
}

func TestLinkUnresolved(t *testing.T) {
	root := &Node{Kind: TranslationUnitDecl, Inner: []*Node{
		{Kind: DeclRefExpr, Ref: "missing"},
	}}
	assert.Equal(t, []string{"missing"}, Link(root))
}

func TestLinkPrefersDefinition(t *testing.T) {
	fwd := &Node{Kind: RecordDecl, Name: "S"}
	def := &Node{Kind: RecordDecl, Name: "S", Inner: []*Node{{Kind: FieldDecl, Name: "a"}}}
	user := &Node{Kind: FieldDecl, Name: "s", Type: &Type{Kind: RecordType, DeclRef: "S"}}
	root := &Node{Kind: TranslationUnitDecl, Inner: []*Node{fwd, def, user}}
	Link(root)
	assert.Same(t, def, user.Type.Decl)
}

func TestCategory(t *testing.T) {
	tests := []struct {
		kind Kind
		want Category
	}{
		{RecordDecl, CategoryDecl},
		{IfStmt, CategoryStmt},
		{BinaryOperator, CategoryExpr},
		{IntegerLiteral, CategoryExpr},
		{CXXBoolLiteralExpr, CategoryExpr},
		{MacroDefinitionRecord, CategoryPreprocessing},
		{InclusionDirective, CategoryPreprocessing},
		{CXXCtorInitializer, CategoryOther},
		{Kind("ObjCInterfaceDecl"), CategoryDecl},
		{Kind("CoroutineBodyStmt"), CategoryStmt},
		{Kind("Mystery"), CategoryOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Category())
		})
	}
}

func TestTypeLayout(t *testing.T) {
	intT := &Type{Kind: BuiltinType, Builtin: Int}
	ptr := &Type{Kind: PointerType, Pointee: intT}
	arr := &Type{Kind: ConstantArrayType, Element: ptr, ArraySize: 3}
	td := &Type{Kind: TypedefType, Underlying: arr}
	enumDecl := &Node{Kind: EnumDecl, IntegerType: &Type{Kind: BuiltinType, Builtin: UShort}}
	enumT := &Type{Kind: EnumType, Decl: enumDecl}

	tests := []struct {
		name             string
		typ              *Type
		size32, size64   int64
		align32, align64 int64
	}{
		{"int", intT, 4, 4, 4, 4},
		{"pointer", ptr, 4, 8, 4, 8},
		{"array of pointers", arr, 12, 24, 4, 8},
		{"typedef", td, 12, 24, 4, 8},
		{"enum", enumT, 2, 2, 2, 2},
		{"oracle wins", &Type{Kind: RecordType, Size32: 20, Size64: 24, Align32: 4, Align64: 8}, 20, 24, 4, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size32, tt.typ.SizeOf(false))
			assert.Equal(t, tt.size64, tt.typ.SizeOf(true))
			assert.Equal(t, tt.align32, tt.typ.AlignOf(false))
			assert.Equal(t, tt.align64, tt.typ.AlignOf(true))
		})
	}

	assert.False(t, ptr.HasStableSize())
	assert.True(t, intT.HasStableSize())
}

func TestTypePredicates(t *testing.T) {
	fn := &Type{Kind: FunctionProtoType}
	fnPtr := &Type{Kind: PointerType, Pointee: &Type{Kind: ParenType, Underlying: fn}}
	elaborated := &Type{Kind: ElaboratedType, Underlying: &Type{Kind: BuiltinType, Builtin: Bool}}

	assert.True(t, fnPtr.IsFunctionPointer())
	assert.True(t, fnPtr.IsPointerLike())
	assert.True(t, elaborated.IsBuiltin(Bool))
	assert.False(t, elaborated.IsBuiltin(Int))
	assert.Same(t, elaborated.Underlying, elaborated.Canonical())
	assert.Nil(t, (&Type{Kind: BuiltinType}).EnumIntegerType())
}

func TestQualifiedName(t *testing.T) {
	root, err := Parse([]byte(`
kind: TranslationUnitDecl
inner:
  - kind: NamespaceDecl
    name: outer
    inner:
      - kind: CXXRecordDecl
        name: S
        inner:
          - kind: FieldDecl
            name: f
`))
	require.NoError(t, err)
	f := root.Inner[0].Inner[0].Inner[0]
	assert.Equal(t, "outer::S::f", f.QualifiedName())
	assert.False(t, f.IsInStdNamespace())
}

// =============================================================================
// Derived layout
// =============================================================================

const layoutTU = `
kind: TranslationUnitDecl
inner:
  - kind: RecordDecl
    name: Mixed
    tagUsed: struct
    inner:
      - {kind: FieldDecl, name: c, type: {kind: Builtin, builtin: Char_S}}
      - {kind: FieldDecl, name: p, type: {kind: Pointer, pointee: {kind: Builtin, builtin: Void}}}
      - {kind: FieldDecl, name: a, isBitfield: true, bitWidth: 3, type: {kind: Builtin, builtin: UInt}}
      - {kind: FieldDecl, name: b, isBitfield: true, bitWidth: 30, type: {kind: Builtin, builtin: UInt}}
  - kind: RecordDecl
    name: U
    tagUsed: union
    inner:
      - {kind: FieldDecl, name: i, type: {kind: Builtin, builtin: Int}}
      - {kind: FieldDecl, name: d, type: {kind: Builtin, builtin: Double}}
`

func TestDerivedLayout(t *testing.T) {
	root, err := Parse([]byte(layoutTU))
	require.NoError(t, err)

	mixed := root.Inner[0]
	require.NotNil(t, mixed.Type)
	assert.Same(t, mixed, mixed.Type.Decl)

	offsets := []int64{}
	for _, f := range mixed.Fields() {
		offsets = append(offsets, f.OffsetBits)
	}
	// b straddles the first unit and starts the next one
	assert.Equal(t, []int64{0, 64, 128, 160}, offsets)
	assert.Equal(t, int64(24), mixed.Type.SizeOf(true))
	assert.Equal(t, int64(8), mixed.Type.AlignOf(true))
	assert.Equal(t, int64(16), mixed.Type.SizeOf(false))

	u := root.Inner[1]
	for _, f := range u.Fields() {
		assert.Zero(t, f.OffsetBits)
	}
	assert.Equal(t, int64(8), u.Type.SizeOf(true))
}

func TestDerivedLayoutKeepsProvidedValues(t *testing.T) {
	root, err := Parse([]byte(`
kind: TranslationUnitDecl
inner:
  - kind: RecordDecl
    name: S
    type: {kind: Record, size64: 32, size32: 32, align64: 16, align32: 16}
    inner:
      - {kind: FieldDecl, name: a, type: {kind: Builtin, builtin: Int}}
      - {kind: FieldDecl, name: b, offset: 128, type: {kind: Builtin, builtin: Int}}
`))
	require.NoError(t, err)

	s := root.Inner[0]
	assert.Equal(t, int64(32), s.Type.SizeOf(true))
	assert.Equal(t, int64(128), s.Fields()[1].OffsetBits)
}
