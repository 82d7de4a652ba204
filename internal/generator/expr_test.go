package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// renderExpr writes e on a scratch output and returns its lines, the
// unterminated last one included
func renderExpr(t *testing.T, e *ast.Node) ([]string, *emitter.Emitter) {
	t.Helper()
	g, bag := newTestGenerator(t, testOptions())
	out := emitter.New("Scratch", false)
	newRun(g).visitExpr(out, e)
	require.Zero(t, bag.Len(), "diagnostics: %v", bag.Diagnostics())

	lines := out.Contents()
	if p := out.Pending(); p != "" {
		lines = append(lines, p)
	}
	return lines, out
}

func implicit(castKind string, typ *ast.Type, sub *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.ImplicitCastExpr, CastKind: castKind, Type: typ, Inner: []*ast.Node{sub}}
}

func variable(name string, typ *ast.Type) *ast.Node {
	return &ast.Node{Kind: ast.VarDecl, Name: name, Type: typ}
}

func callOf(fn *ast.Node, args ...*ast.Node) *ast.Node {
	callee := implicit("FunctionToPointerDecay", nil, ref(fn))
	return &ast.Node{Kind: ast.CallExpr, Inner: append([]*ast.Node{callee}, args...)}
}

func TestImplicitConversions(t *testing.T) {
	boolType := builtin(ast.Bool, "bool")
	voidPtr := &ast.Type{Kind: ast.PointerType, Spelling: "void *", Pointee: builtin(ast.Void, "void")}
	p := variable("p", voidPtr)
	n := variable("n", intType())
	b := variable("b", boolType)
	not := func(sub *ast.Node, typ *ast.Type) *ast.Node {
		return &ast.Node{Kind: ast.UnaryOperator, OpCode: "!", Type: typ, Inner: []*ast.Node{sub}}
	}

	tests := []struct {
		name string
		expr *ast.Node
		want string
	}{
		{"pointer truth test", implicit("PointerToBoolean", boolType, load(p)), "p != null"},
		{"integer truth test", implicit("IntegralToBoolean", boolType, load(n)), "n != 0"},
		{"compound truth test", implicit("IntegralToBoolean", boolType, binop("&", load(n), lit("4"))), "(n & 4) != 0"},
		{"negation is already a test", implicit("IntegralToBoolean", boolType, not(load(n), intType())), "n == 0"},
		{"negated pointer", not(implicit("PointerToBoolean", boolType, load(p)), boolType), "p == null"},
		{"negated bool", not(load(b), boolType), "!b"},
		{"bool to int", implicit("IntegralCast", intType(), load(b)), "(b ? 1 : 0)"},
		{"bool to byte", implicit("IntegralCast", builtin(ast.UChar, "unsigned char"), load(b)), "(byte)(b ? 1 : 0)"},
		{"bool to signed", implicit("BooleanToSignedIntegral", intType(), load(b)), "(b ? 1 : 0)"},
		{"null pointer", implicit("NullToPointer", voidPtr, lit("0")), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _ := renderExpr(t, tt.expr)
			assert.Equal(t, []string{tt.want}, lines)
		})
	}
}

func TestMemoryIntrinsics(t *testing.T) {
	voidPtr := &ast.Type{Kind: ast.PointerType, Spelling: "void *", Pointee: builtin(ast.Void, "void")}
	dst := variable("dst", voidPtr)
	src := variable("src", voidPtr)
	memcpy := &ast.Node{Kind: ast.FunctionDecl, Name: "memcpy"}
	memset := &ast.Node{Kind: ast.FunctionDecl, Name: "memset"}
	other := &ast.Node{Kind: ast.FunctionDecl, Name: "copy_bytes"}

	tests := []struct {
		name   string
		expr   *ast.Node
		want   string
		usings []string
	}{
		{"memcpy", callOf(memcpy, load(dst), load(src), lit("16")), "Unsafe.CopyBlockUnaligned(dst, src, 16)", []string{usingCompiler}},
		{"memset", callOf(memset, load(dst), lit("0"), lit("16")), "Unsafe.InitBlockUnaligned(dst, 0, 16)", []string{usingCompiler}},
		{"plain call", callOf(other, load(dst), load(src)), "copy_bytes(dst, src)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, out := renderExpr(t, tt.expr)
			assert.Equal(t, []string{tt.want}, lines)
			assert.Equal(t, tt.usings, out.UsingDirectives())
		})
	}
}

func TestEnumOperatorsSpelledAsOperators(t *testing.T) {
	flags := &ast.Node{Kind: ast.EnumDecl, Name: "Flags"}
	enumType := &ast.Type{Kind: ast.EnumType, Spelling: "Flags", Decl: flags}
	param := func() *ast.Node { return &ast.Node{Kind: ast.ParmVarDecl, Type: enumType} }
	a := variable("a", enumType)
	b := variable("b", enumType)

	or := &ast.Node{Kind: ast.FunctionDecl, Name: "operator|", Inner: []*ast.Node{param(), param()}}
	complement := &ast.Node{Kind: ast.FunctionDecl, Name: "operator~", Inner: []*ast.Node{param()}}
	operatorCall := func(fn *ast.Node, args ...*ast.Node) *ast.Node {
		call := callOf(fn, args...)
		call.Kind = ast.CXXOperatorCallExpr
		call.Type = enumType
		return call
	}

	tests := []struct {
		name string
		expr *ast.Node
		want string
	}{
		{"binary", operatorCall(or, load(a), load(b)), "a | b"},
		{"unary", operatorCall(complement, load(a)), "~a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _ := renderExpr(t, tt.expr)
			assert.Equal(t, []string{tt.want}, lines)
		})
	}
}

func TestInitLists(t *testing.T) {
	intField := func(name string) *ast.Node {
		return &ast.Node{Kind: ast.FieldDecl, Name: name, Type: intType()}
	}
	point := &ast.Node{Kind: ast.RecordDecl, Name: "Point", TagUsed: "struct", Inner: []*ast.Node{intField("x"), intField("y")}}
	value := &ast.Node{Kind: ast.RecordDecl, Name: "Value", TagUsed: "union", Inner: []*ast.Node{
		intField("i"),
		{Kind: ast.FieldDecl, Name: "u", Type: builtin(ast.UInt, "unsigned int")},
	}}
	bytes8 := &ast.Type{Kind: ast.ConstantArrayType, Element: builtin(ast.UChar, "unsigned char"), ArraySize: 8}
	guid := &ast.Node{Kind: ast.RecordDecl, Name: "_GUID", TagUsed: "struct", Inner: []*ast.Node{
		{Kind: ast.FieldDecl, Name: "Data1", Type: builtin(ast.ULong, "unsigned long")},
		{Kind: ast.FieldDecl, Name: "Data2", Type: builtin(ast.UShort, "unsigned short")},
		{Kind: ast.FieldDecl, Name: "Data3", Type: builtin(ast.UShort, "unsigned short")},
		{Kind: ast.FieldDecl, Name: "Data4", Type: bytes8},
	}}
	recordType := func(d *ast.Node) *ast.Type {
		return &ast.Type{Kind: ast.RecordType, Spelling: d.Name, Decl: d}
	}
	initList := func(typ *ast.Type, field string, inits ...*ast.Node) *ast.Node {
		return &ast.Node{Kind: ast.InitListExpr, Type: typ, InitField: field, Inner: inits}
	}
	var data []*ast.Node
	for _, v := range []string{"0xC0", "0", "0", "0", "0", "0", "0", "0x46"} {
		data = append(data, lit(v))
	}

	tests := []struct {
		name string
		expr *ast.Node
		want []string
	}{
		{
			name: "array padded with defaults",
			expr: initList(&ast.Type{Kind: ast.ConstantArrayType, Element: intType(), ArraySize: 4}, "", lit("1"), lit("2")),
			want: []string{"new int[4]", "{", "    1,", "    2,", "    default,", "    default,", "}"},
		},
		{
			name: "record by position",
			expr: initList(recordType(point), "", lit("1"), lit("2")),
			want: []string{"new Point", "{", "    x = 1,", "    y = 2,", "}"},
		},
		{
			name: "implicit members are skipped",
			expr: initList(recordType(point), "", lit("1"), &ast.Node{Kind: ast.ImplicitValueInitExpr, Type: intType()}),
			want: []string{"new Point", "{", "    x = 1,", "}"},
		},
		{
			name: "union names its member",
			expr: initList(recordType(value), "u", lit("7")),
			want: []string{"new Value", "{", "    u = 7,", "}"},
		},
		{
			name: "guid shaped record",
			expr: initList(recordType(guid), "", lit("0x00021401"), lit("0"), lit("0"), initList(bytes8, "", data...)),
			want: []string{"new Guid(0x00021401, 0, 0, 0xC0, 0, 0, 0, 0, 0, 0, 0x46)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _ := renderExpr(t, tt.expr)
			assert.Equal(t, tt.want, lines)
		})
	}
}
