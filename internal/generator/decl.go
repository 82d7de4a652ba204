package generator

import (
	"fmt"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/logger"
)

// visitDecl dispatches a declaration. out is the enclosing output, or nil
// at namespace scope where each declaration picks its own.
func (r *run) visitDecl(out *emitter.Emitter, n *ast.Node) {
	if n.Category() == ast.CategoryPreprocessing {
		r.visitPreprocessing(n)
		return
	}
	if !n.Is(ast.TranslationUnitDecl, ast.NamespaceDecl, ast.LinkageSpecDecl) && r.policy.IsExcluded(n) {
		return
	}
	if r.opts.LogVisitedFiles && n.Loc.File != "" {
		r.visitedFiles[n.Loc.File] = true
	}

	defer r.ctx.push(n)()

	switch n.Kind {
	case ast.TranslationUnitDecl:
		r.index(n)
		r.visitChildren(out, n)

	case ast.NamespaceDecl, ast.LinkageSpecDecl:
		r.visitChildren(out, n)

	case ast.AccessSpecDecl, ast.EmptyDecl, ast.UsingDecl, ast.UsingDirectiveDecl, ast.UsingShadowDecl,
		ast.PragmaCommentDecl, ast.StaticAssertDecl, ast.FileScopeAsmDecl, ast.FriendDecl,
		ast.IndirectFieldDecl:
		// Nothing to bind

	case ast.ClassTemplateDecl:
		r.report(diag.Warning, n, "Class templates are not supported: '%s'. Generated bindings may be incomplete.", n.QualifiedName())
	case ast.ClassTemplatePartialSpecializationDecl:
		r.report(diag.Warning, n, "Class template partial specializations are not supported: '%s'. Generated bindings may be incomplete.", n.QualifiedName())
	case ast.FunctionTemplateDecl:
		r.report(diag.Warning, n, "Function templates are not supported: '%s'. Generated bindings may be incomplete.", n.QualifiedName())

	case ast.EnumDecl:
		r.visitEnum(out, n)
	case ast.EnumConstantDecl:
		r.visitEnumConstant(out, n)
	case ast.RecordDecl, ast.CXXRecordDecl, ast.ClassTemplateSpecializationDecl:
		r.visitRecord(out, n)
	case ast.FieldDecl:
		// Fields are written by their record
	case ast.FunctionDecl, ast.CXXMethodDecl, ast.CXXConstructorDecl, ast.CXXDestructorDecl, ast.CXXConversionDecl:
		r.visitFunction(out, n)
	case ast.TypedefDecl, ast.TypeAliasDecl:
		r.visitTypedef(out, n)
	case ast.VarDecl:
		r.visitVar(out, n)

	default:
		r.report(diag.Error, n, "Unsupported declaration: '%s'. Generated bindings may be incomplete.", n.Kind)
	}
}

func (r *run) visitChildren(out *emitter.Emitter, n *ast.Node) {
	for _, c := range n.Inner {
		r.visitDecl(out, c)
	}
}

// =============================================================================
// Enums
// =============================================================================

func (r *run) visitEnum(out *emitter.Emitter, n *ast.Node) {
	if !n.IsComplete() {
		return
	}

	if n.Name == "" && typedefNameFor(n) == "" {
		// Anonymous enum constants become typed constants of the container
		target := out
		if target == nil {
			target = r.methods()
		}
		for _, c := range n.ChildrenOf(ast.EnumConstantDecl) {
			r.visitDecl(target, c)
		}
		return
	}

	name := r.escapedName(n)
	target := out
	if target == nil {
		target = r.createEmitter(name, false)
	}

	startMember(target)
	r.writeComment(target, n)
	r.writeAttributes(target, n)

	integer := n.IntegerType
	if integer == nil {
		integer = &ast.Type{Kind: ast.BuiltinType, Builtin: ast.Int, Spelling: "int"}
	}
	integerName := r.typeName(n, integer)
	if override, ok := r.policy.TypeOverride(r.cursorName(n)); ok {
		integerName = override
	}
	if native := nativeTypeAttr(integer, integerName); native != "" && integerName != "int" {
		writeNativeTypeName(target, integer, integerName)
	}

	target.WriteIndented(accessModifier(n) + " enum " + name)
	if integerName != "int" {
		target.Write(" : " + integerName)
	}
	target.WriteNewline()
	target.WriteBlockStart()
	for _, c := range n.ChildrenOf(ast.EnumConstantDecl) {
		r.visitDecl(target, c)
	}
	target.WriteBlockEnd()
	endMember(target)
}

func (r *run) visitEnumConstant(out *emitter.Emitter, n *ast.Node) {
	enum := r.ctx.parent()
	name := r.escapedName(n)
	init := n.Init()

	if enum != nil && enum.Name == "" && typedefNameFor(enum) == "" {
		integer := enum.IntegerType
		if integer == nil {
			integer = &ast.Type{Kind: ast.BuiltinType, Builtin: ast.Int, Spelling: "int"}
		}
		typeName := r.typeName(n, integer)

		startMember(out)
		r.writeComment(out, n)
		out.WriteIndented("public const " + typeName + " " + name + " = ")
		switch {
		case init != nil:
			r.writeUnchecked(out, integer, init, n.Value)
		case strings.HasPrefix(n.Value, "-") && isUnsigned(integer):
			out.Write(fmt.Sprintf("unchecked((%s)(%s))", typeName, n.Value))
		case n.Value != "":
			out.Write(n.Value)
		default:
			out.Write("0")
		}
		out.WriteSemicolon()
		out.WriteNewline()
		endMember(out)
		return
	}

	out.WriteIndented(name)
	if init != nil {
		out.Write(" = ")
		integer := enum.IntegerType
		r.writeUnchecked(out, integer, init, n.Value)
	}
	out.WriteLine(",")
}

// writeUnchecked writes an initializer, wrapping it in unchecked(...) when a
// negative value lands in an unsigned type
func (r *run) writeUnchecked(out *emitter.Emitter, t *ast.Type, init *ast.Node, value string) {
	if t != nil && isUnsigned(t) && strings.HasPrefix(value, "-") {
		out.Write("unchecked((" + r.typeName(init, t) + ")(")
		r.visitExpr(out, init)
		out.Write("))")
		return
	}
	r.visitExpr(out, init)
}

// =============================================================================
// Typedefs
// =============================================================================

func (r *run) visitTypedef(out *emitter.Emitter, n *ast.Node) {
	r.visitTypedefUnderlying(out, n, n.UnderlyingType)
}

// visitTypedefUnderlying walks the typedef's underlying type until it finds
// something that needs its own declaration: only function types do.
func (r *run) visitTypedefUnderlying(out *emitter.Emitter, n *ast.Node, t *ast.Type) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.PointerType, ast.LValueReferenceType, ast.RValueReferenceType:
		r.visitTypedefPointee(out, n, t.Pointee)
	case ast.FunctionProtoType, ast.FunctionNoProtoType:
		r.visitDelegate(out, n, t)
	case ast.ElaboratedType, ast.AttributedType, ast.ParenType:
		r.visitTypedefUnderlying(out, n, t.Underlying)
	case ast.TypedefType:
		if r.opts.LogPotentialTypedefs {
			r.log.Infow("Potential typedef remapping",
				logger.FieldDecl, n.Name,
				"underlying", typedefName(t))
		}
	case ast.RecordType, ast.EnumType:
		if d := t.Decl; r.opts.LogPotentialTypedefs && d != nil && d.Name != "" && d.Name != n.Name {
			r.log.Infow("Potential typedef remapping",
				logger.FieldDecl, n.Name,
				"underlying", d.Name)
		}
	case ast.BuiltinType, ast.ConstantArrayType, ast.IncompleteArrayType:
	default:
		r.report(diag.Error, n, "Unsupported underlying type: '%s'. Generated bindings may be incomplete.", t.Kind)
	}
}

func (r *run) visitTypedefPointee(out *emitter.Emitter, n *ast.Node, t *ast.Type) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.PointerType, ast.LValueReferenceType, ast.RValueReferenceType:
		r.visitTypedefPointee(out, n, t.Pointee)
	case ast.FunctionProtoType, ast.FunctionNoProtoType:
		r.visitDelegate(out, n, t)
	case ast.ElaboratedType, ast.AttributedType, ast.ParenType:
		r.visitTypedefPointee(out, n, t.Underlying)
	case ast.BuiltinType, ast.RecordType, ast.EnumType, ast.TypedefType,
		ast.ConstantArrayType, ast.IncompleteArrayType:
	default:
		r.report(diag.Error, n, "Unsupported pointee type: '%s'. Generated bindings may be incomplete.", t.Kind)
	}
}

// visitDelegate declares a managed delegate for a function typedef. Raw
// function pointers need no declaration.
func (r *run) visitDelegate(out *emitter.Emitter, n *ast.Node, proto *ast.Type) {
	if r.opts.PreviewCodegenFnptr {
		return
	}
	name := r.escapedName(n)
	target := out
	if target == nil {
		target = r.createEmitter(name, false)
	}
	target.AddUsingDirective(usingInterop)

	conv := r.callConv(n, proto.CallConv, false)
	ret := r.marshalledName(n, proto.Result)
	params := r.paramList(target, n, proto)

	startMember(target)
	r.writeComment(target, n)
	r.writeUnmanagedFunctionPointer(target, conv)
	if proto.Result.IsBuiltin(ast.Bool) {
		target.WriteIndentedLine(`[return: NativeTypeName("bool")]`)
	}
	target.WriteIndented(accessModifier(n) + " ")
	if isUnsafeType(ret) || isUnsafeType(params) {
		target.Write("unsafe ")
	}
	target.Write("delegate " + ret + " " + name + "(" + params + ")")
	target.WriteSemicolon()
	target.WriteNewline()
	endMember(target)
}

func (r *run) writeUnmanagedFunctionPointer(out *emitter.Emitter, conv string) {
	if conv == "Winapi" {
		out.WriteIndentedLine("[UnmanagedFunctionPointer]")
		return
	}
	out.WriteIndentedLine("[UnmanagedFunctionPointer(CallingConvention." + conv + ")]")
}

// paramList renders the parameters of a function-typed declaration. Named
// ParmVarDecl children are preferred; bare prototypes get positional names.
func (r *run) paramList(out *emitter.Emitter, n *ast.Node, proto *ast.Type) string {
	params := n.Params()
	if len(params) > 0 {
		parts := make([]string, 0, len(params))
		for i, p := range params {
			parts = append(parts, r.visitParam(out, p, i, true))
		}
		return strings.Join(parts, ", ")
	}
	if proto == nil {
		return ""
	}
	parts := make([]string, 0, len(proto.Params))
	for i, t := range proto.Params {
		name := r.marshalledName(n, t)
		parts = append(parts, nativeTypeNamePrefix(t, name)+name+fmt.Sprintf(" param%d", i))
	}
	return strings.Join(parts, ", ")
}

// visitParam renders one parameter. marshalled selects the bool surrogate
// used at the native boundary.
func (r *run) visitParam(out *emitter.Emitter, p *ast.Node, index int, marshalled bool) string {
	defer r.ctx.push(p)()

	parent := r.ctx.parent()
	if parent == nil {
		parent = p.Parent
	}
	if !parent.IsFunction() && !parent.Is(ast.TypedefDecl, ast.TypeAliasDecl) {
		kind := ast.Kind("")
		if parent != nil {
			kind = parent.Kind
		}
		r.report(diag.Error, p, "Unsupported parameter variable declaration parent: '%s'. Generated bindings may be incomplete.", kind)
		return ""
	}

	var typeName string
	switch {
	case marshalled:
		typeName = r.marshalledName(p, p.Type)
	case p.Type.Canonical() != nil && p.Type.Canonical().Kind == ast.ConstantArrayType:
		typeName = r.typeName(p, p.Type) + "*"
	default:
		typeName = r.typeName(p, p.Type)
	}
	if c := p.Type.Canonical(); c != nil && c.Kind == ast.IncompleteArrayType {
		typeName += "*"
	}

	var sb strings.Builder
	sb.WriteString(nativeTypeNamePrefix(p.Type, typeName))
	sb.WriteString(typeName)
	sb.WriteString(" ")
	sb.WriteString(r.paramName(p, index))

	if init := p.Init(); init != nil {
		sb.WriteString(" = ")
		sb.WriteString(r.exprString(out, init))
	}
	return sb.String()
}

// =============================================================================
// Variables
// =============================================================================

// macroVarPrefix marks variables synthesized from captured macros
const macroVarPrefix = "ClangSharpMacro_"

func (r *run) visitVar(out *emitter.Emitter, n *ast.Node) {
	parent := r.ctx.parent()
	switch {
	case parent.Is(ast.TranslationUnitDecl, ast.NamespaceDecl, ast.LinkageSpecDecl):
		r.visitGlobalVar(r.methods(), n)
	case parent.IsRecord():
		r.visitGlobalVar(out, n)
	default:
		kind := ast.Kind("")
		if parent != nil {
			kind = parent.Kind
		}
		r.report(diag.Error, n, "Unsupported variable declaration parent: '%s'. Generated bindings may be incomplete.", kind)
	}
}

// visitGlobalVar writes a variable with static storage as a constant or a
// static member
func isMacroVar(n *ast.Node) bool {
	return strings.HasPrefix(n.Name, macroVarPrefix)
}

// emittedVarType is the type a variable is bound with. Macro constants take
// the type of their initializer.
func emittedVarType(n *ast.Node) *ast.Type {
	if init := n.Init(); isMacroVar(n) && init != nil && init.Type != nil {
		return init.Type
	}
	return n.Type
}

// declaresConst reports whether n becomes a C# const once its initializer
// is constant
func declaresConst(n *ast.Node) bool {
	t := emittedVarType(n)
	return (isMacroVar(n) || isConstQualified(t)) && canBeConstant(t)
}

func (r *run) visitGlobalVar(out *emitter.Emitter, n *ast.Node) {
	init := n.Init()
	if init == nil {
		// Storage lives in the native library; nothing to bind
		return
	}

	isMacro := isMacroVar(n)
	name := r.escapedName(n)
	if isMacro {
		if ref := stripExpr(init); ref.Is(ast.DeclRefExpr) && refName(ref) == r.cursorName(n) {
			return
		}
	}

	t := emittedVarType(n)
	typeName := r.typeName(n, t)
	if override, ok := r.policy.TypeOverride(r.cursorName(n)); ok {
		typeName = override
	}

	startMember(out)
	r.writeComment(out, n)
	r.writeAttributes(out, n)
	if isMacro {
		if def, ok := r.macroDefs[r.cursorName(n)]; ok {
			out.WriteIndentedLine(fmt.Sprintf("[NativeTypeName(%s)]", quote("#define "+def.Name+" "+joinTokens(def.Tokens[1:]))))
		}
	} else {
		writeNativeTypeName(out, t, typeName)
	}

	access := accessModifier(n)
	if lit := stripExpr(init); lit.Is(ast.StringLiteral) {
		r.writeStringConstant(out, access, name, lit)
		endMember(out)
		return
	}

	constant := declaresConst(n) && r.isConstant(init)
	out.WriteIndented(access + " ")
	if needsNewKeyword(name, -1) {
		out.Write("new ")
	}
	switch {
	case constant:
		out.Write("const ")
	case isMacro || isConstQualified(t):
		out.Write("static readonly ")
	default:
		out.Write("static ")
	}
	out.Write(typeName + " " + name + " = ")
	if isMacro && r.opts.PreviewCodegenFnptr && t.IsFunctionPointer() && refersToFunction(init) {
		out.Write("&")
	}
	if constant && isUnsigned(t) && isNegativeLiteral(init) {
		out.Write("unchecked((" + typeName + ")(")
		r.visitExpr(out, init)
		out.Write("))")
	} else {
		r.visitExpr(out, init)
	}
	out.WriteSemicolon()
	out.WriteNewline()
	r.noteUnsafe(out, typeName)
	endMember(out)
}

// writeStringConstant binds narrow strings as UTF-8 byte spans and wide
// strings as C# strings
func (r *run) writeStringConstant(out *emitter.Emitter, access, name string, lit *ast.Node) {
	s := decodeStringLiteral(lit)
	if s.wide {
		out.WriteIndented(access + " const string " + name + " = " + csharpString(s.text))
	} else {
		out.AddUsingDirective(usingSystem)
		out.WriteIndented(access + " static ReadOnlySpan<byte> " + name + " => " + byteArray(s.bytes))
	}
	out.WriteSemicolon()
	out.WriteNewline()
}

func refersToFunction(e *ast.Node) bool {
	e = stripExpr(e)
	return e.Is(ast.DeclRefExpr) && e.RefNode.IsFunction()
}

func isNegativeLiteral(e *ast.Node) bool {
	e = stripExpr(e)
	return e.Is(ast.UnaryOperator) && e.OpCode == "-"
}

func refName(e *ast.Node) string {
	if e.RefNode != nil {
		return e.RefNode.Name
	}
	if e.Name != "" {
		return e.Name
	}
	return e.Ref
}
