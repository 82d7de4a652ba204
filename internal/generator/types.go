package generator

import (
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
)

// typeName returns the C# spelling of t as used by node n
func (r *run) typeName(n *ast.Node, t *ast.Type) string {
	if t == nil {
		return "void"
	}
	if name, ok := r.policy.TypeOverride(nativeSpelling(t)); ok {
		return name
	}

	switch t.Kind {
	case ast.BuiltinType:
		return r.builtinName(n, t)

	case ast.PointerType, ast.LValueReferenceType, ast.RValueReferenceType:
		if t.Pointee.IsFunction() {
			return r.functionPointerName(n, t.Pointee.Canonical())
		}
		return r.typeName(n, t.Pointee) + "*"

	case ast.ConstantArrayType, ast.IncompleteArrayType:
		return r.typeName(n, t.Element)

	case ast.RecordType, ast.EnumType:
		d := t.Decl
		if d == nil {
			return r.remap(n, stripTag(t.Spelling))
		}
		if d.Is(ast.EnumDecl) && d.Name == "" && typedefNameFor(d) == "" {
			return r.typeName(n, t.EnumIntegerType())
		}
		return r.escapedName(d)

	case ast.TypedefType:
		name := typedefName(t)
		if remapped := r.policy.RemappedName(name, n); remapped != name {
			return remapped
		}
		if t.IsFunctionPointer() || t.IsFunction() {
			return r.functionPointerName(n, functionProto(t))
		}
		return r.typeName(n, t.Desugar())

	case ast.ElaboratedType, ast.AttributedType, ast.ParenType:
		return r.typeName(n, t.Desugar())

	case ast.FunctionProtoType, ast.FunctionNoProtoType:
		return r.functionPointerName(n, t)
	}

	r.report(diag.Warning, n, "Unsupported type: '%s'. Generated bindings may be incomplete.", t.Kind)
	return stripTag(t.Spelling)
}

func (r *run) remap(n *ast.Node, name string) string {
	return r.policy.EscapedName(r.policy.RemappedName(name, n))
}

func typedefName(t *ast.Type) string {
	if t.Decl != nil {
		return t.Decl.Name
	}
	return t.Spelling
}

// functionProto returns the function prototype behind a function or
// function pointer type
func functionProto(t *ast.Type) *ast.Type {
	c := t.Canonical()
	if c == nil {
		return nil
	}
	if c.Kind == ast.PointerType {
		return c.Pointee.Canonical()
	}
	return c
}

// signatureOf returns the prototype of a function declaration, or an empty
// prototype when the front-end supplied none
func signatureOf(n *ast.Node) *ast.Type {
	if proto := functionProto(n.Type); proto != nil {
		return proto
	}
	return &ast.Type{Kind: ast.FunctionProtoType}
}

func (r *run) builtinName(n *ast.Node, t *ast.Type) string {
	switch t.Builtin {
	case ast.Void:
		return "void"
	case ast.Bool:
		return "bool"
	case ast.Char_U, ast.UChar:
		return "byte"
	case ast.Char_S, ast.SChar:
		return "sbyte"
	case ast.Char16, ast.UShort:
		return "ushort"
	case ast.Char32, ast.UInt:
		return "uint"
	case ast.WChar:
		if r.opts.UnixTypes {
			return "uint"
		}
		return "ushort"
	case ast.Short:
		return "short"
	case ast.Int:
		return "int"
	case ast.Long:
		if r.opts.UnixTypes {
			return r.nativeInt(false)
		}
		return "int"
	case ast.ULong:
		if r.opts.UnixTypes {
			return r.nativeInt(true)
		}
		return "uint"
	case ast.LongLong:
		return "long"
	case ast.ULongLong:
		return "ulong"
	case ast.Float:
		return "float"
	case ast.Double, ast.LongDouble:
		return "double"
	case ast.NullPtr:
		return "void*"
	}
	r.report(diag.Warning, n, "Unsupported builtin type: '%s'. Generated bindings may be incomplete.", t.Builtin)
	return "int"
}

func (r *run) nativeInt(unsigned bool) string {
	switch {
	case r.opts.nint() && unsigned:
		return "nuint"
	case r.opts.nint():
		return "nint"
	case unsigned:
		return "UIntPtr"
	default:
		return "IntPtr"
	}
}

// functionPointerName spells a function type as a raw function pointer in
// fnptr mode and as IntPtr otherwise
func (r *run) functionPointerName(n *ast.Node, proto *ast.Type) string {
	if !r.opts.PreviewCodegenFnptr {
		return "IntPtr"
	}
	parts := make([]string, 0, len(proto.Params)+1)
	for _, p := range proto.Params {
		parts = append(parts, r.marshalledName(n, p))
	}
	parts = append(parts, r.marshalledName(n, proto.Result))
	return fnptrPrefix(r.callConv(n, proto.CallConv, false)) + "<" + strings.Join(parts, ", ") + ">"
}

// fnptrPrefix returns "delegate* unmanaged[Conv]" for a calling convention
func fnptrPrefix(conv string) string {
	switch conv {
	case "Winapi":
		return "delegate* unmanaged"
	case "StdCall":
		return "delegate* unmanaged[Stdcall]"
	case "ThisCall":
		return "delegate* unmanaged[Thiscall]"
	case "FastCall":
		return "delegate* unmanaged[Fastcall]"
	default:
		return "delegate* unmanaged[Cdecl]"
	}
}

// marshalledName is typeName with bool replaced by its one-byte surrogate,
// as used at the native call boundary
func (r *run) marshalledName(n *ast.Node, t *ast.Type) string {
	if t.IsBuiltin(ast.Bool) {
		return "byte"
	}
	if t.Canonical() != nil && t.Canonical().Kind == ast.ConstantArrayType {
		return r.typeName(n, t) + "*"
	}
	return r.typeName(n, t)
}

// callConv maps a clang calling convention onto System.Runtime.InteropServices
// CallingConvention. Overrides from the policy win for named declarations.
func (r *run) callConv(n *ast.Node, native string, method bool) string {
	if n != nil && n.IsFunction() {
		if conv, ok := r.policy.CallConv(r.cursorName(n)); ok {
			return conv
		}
	}
	switch strings.ToLower(native) {
	case "", "c", "cdecl":
		if method {
			return "ThisCall"
		}
		return "Cdecl"
	case "x86stdcall", "stdcall":
		return "StdCall"
	case "x86thiscall", "thiscall":
		return "ThisCall"
	case "x86fastcall", "fastcall":
		return "FastCall"
	case "win64", "winapi":
		return "Winapi"
	}
	r.report(diag.Warning, n, "Unsupported calling convention: '%s'. Generated bindings may be incomplete.", native)
	return "Cdecl"
}

// nativeSpelling is the source spelling of t, used for NativeTypeName
func nativeSpelling(t *ast.Type) string {
	if t == nil {
		return ""
	}
	if t.Spelling != "" {
		return t.Spelling
	}
	if t.Decl != nil {
		return t.Decl.Name
	}
	return ""
}

func stripTag(s string) string {
	for _, tag := range []string{"struct ", "union ", "enum ", "class "} {
		s = strings.TrimPrefix(s, tag)
	}
	return s
}

// nativeTypeAttr returns the NativeTypeName argument when the source spelling
// carries information the C# name loses, or "".
func nativeTypeAttr(t *ast.Type, csName string) string {
	spelling := nativeSpelling(t)
	if spelling == "" {
		return ""
	}
	if stripTag(spelling) == csName || strings.TrimPrefix(csName, "@") == stripTag(spelling) {
		return ""
	}
	return spelling
}

// isUnsafeType reports a C# type spelling that requires an unsafe context
func isUnsafeType(name string) bool {
	return strings.Contains(name, "*")
}

// isUnsigned reports unsigned integer builtins (through enums and sugar)
func isUnsigned(t *ast.Type) bool {
	if it := t.EnumIntegerType(); it != nil {
		t = it
	}
	return t.IsBuiltin(ast.Bool, ast.Char_U, ast.UChar, ast.Char16, ast.Char32, ast.UShort, ast.UInt, ast.ULong, ast.ULongLong)
}

// canBeConstant reports types a C# const can carry
func canBeConstant(t *ast.Type) bool {
	if t.EnumIntegerType() != nil {
		return true
	}
	c := t.Canonical()
	return c != nil && c.Kind == ast.BuiltinType && c.Builtin != ast.Void && c.Builtin != ast.NullPtr
}

// isConstQualified reports a const qualifier at any sugar level
func isConstQualified(t *ast.Type) bool {
	for t != nil {
		if t.IsConst {
			return true
		}
		next := t.Desugar()
		if next == t {
			return false
		}
		t = next
	}
	return false
}
