package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// transparentKinds wrap an expression without changing its spelling
var transparentKinds = []ast.Kind{
	ast.ConstantExpr,
	ast.ExprWithCleanups,
	ast.MaterializeTemporaryExpr,
	ast.CXXBindTemporaryExpr,
}

// stripImplicit skips implicit casts and other wrappers the source does not
// spell, returning the expression as written
func stripImplicit(e *ast.Node) *ast.Node {
	for e.Is(ast.ImplicitCastExpr) || e.Is(transparentKinds...) {
		next := e.Child(0)
		if next == nil {
			return e
		}
		e = next
	}
	return e
}

// stripExpr is stripImplicit that also looks through parentheses
func stripExpr(e *ast.Node) *ast.Node {
	for {
		e = stripImplicit(e)
		if !e.Is(ast.ParenExpr) || e.Child(0) == nil {
			return e
		}
		e = e.Child(0)
	}
}

// exprString renders e into a string. Usings required by e are copied onto
// out.
func (r *run) exprString(out *emitter.Emitter, e *ast.Node) string {
	scratch := emitter.New(out.Name(), out.IsTestOutput())
	r.visitExpr(scratch, e)
	for _, u := range scratch.UsingDirectives() {
		out.AddUsingDirective(u)
	}
	for _, u := range scratch.StaticUsingDirectives() {
		out.AddUsingDirective(u)
	}
	lines := append(scratch.Contents(), scratch.Pending())
	return strings.TrimSpace(strings.Join(lines, " "))
}

// visitExpr writes one expression inline
func (r *run) visitExpr(out *emitter.Emitter, e *ast.Node) {
	if e.IsAbsent() {
		return
	}
	defer r.ctx.push(e)()

	switch e.Kind {
	case ast.IntegerLiteral:
		out.Write(integerLiteral(e.Value, r.opts.UnixTypes))

	case ast.FloatingLiteral:
		out.Write(floatLiteral(e.Value))

	case ast.CharacterLiteral:
		r.visitCharacterLiteral(out, e)

	case ast.StringLiteral:
		r.visitStringLiteral(out, e)

	case ast.CXXBoolLiteralExpr:
		if e.Value == "true" {
			out.Write("true")
		} else {
			out.Write("false")
		}

	case ast.CXXNullPtrLiteralExpr, ast.GNUNullExpr:
		out.Write("null")

	case ast.CXXThisExpr:
		out.Write("this")

	case ast.ImplicitValueInitExpr:
		out.Write("default")

	case ast.ParenExpr:
		out.Write("(")
		r.visitExpr(out, e.Child(0))
		out.Write(")")

	case ast.ConstantExpr, ast.ExprWithCleanups, ast.MaterializeTemporaryExpr, ast.CXXBindTemporaryExpr:
		r.visitExpr(out, e.Child(0))

	case ast.ImplicitCastExpr:
		r.visitImplicitCast(out, e)

	case ast.CStyleCastExpr, ast.CXXStaticCastExpr, ast.CXXReinterpretCastExpr:
		r.visitExplicitCast(out, e)

	case ast.CXXConstCastExpr:
		// C# pointers carry no const
		r.visitExpr(out, stripImplicit(e.Child(0)))

	case ast.CXXFunctionalCastExpr:
		if sub := stripImplicit(e.Child(0)); sub.Is(ast.CXXConstructExpr, ast.CXXTemporaryObjectExpr) {
			r.visitExpr(out, sub)
			return
		}
		r.visitExplicitCast(out, e)

	case ast.BinaryOperator, ast.CompoundAssignOperator:
		r.visitExpr(out, e.Child(0))
		out.Write(" " + e.OpCode + " ")
		r.visitExpr(out, e.Child(1))

	case ast.UnaryOperator:
		r.visitUnaryOperator(out, e)

	case ast.ConditionalOperator:
		r.visitExpr(out, e.Child(0))
		out.Write(" ? ")
		r.visitExpr(out, e.Child(1))
		out.Write(" : ")
		r.visitExpr(out, e.Child(2))

	case ast.DeclRefExpr:
		out.Write(r.declRefName(out, e))

	case ast.MemberExpr:
		r.visitMemberExpr(out, e)

	case ast.ArraySubscriptExpr:
		r.visitExpr(out, e.Child(0))
		out.Write("[")
		r.visitExpr(out, e.Child(1))
		out.Write("]")

	case ast.CallExpr, ast.CXXMemberCallExpr:
		r.visitCall(out, e)

	case ast.CXXOperatorCallExpr:
		r.visitOperatorCall(out, e)

	case ast.CXXConstructExpr, ast.CXXTemporaryObjectExpr:
		r.visitConstruct(out, e)

	case ast.InitListExpr:
		r.visitInitList(out, e)

	case ast.UnaryExprOrTypeTraitExpr:
		r.visitTypeTrait(out, e)

	case ast.CXXUuidofExpr:
		t := e.ArgType
		if t == nil {
			if sub := e.Child(0); sub != nil {
				t = sub.Type
			}
		}
		out.Write("typeof(" + r.typeName(e, t) + ").GUID")

	default:
		r.reportUnsupportedStmt(e)
	}
}

// writeArgs writes a parenthesized argument list. Defaulted arguments are
// left to the C# default parameter values.
func (r *run) writeArgs(out *emitter.Emitter, args []*ast.Node) {
	out.Write("(")
	first := true
	for _, a := range args {
		if a.IsAbsent() || a.Is(ast.CXXDefaultArgExpr) {
			continue
		}
		if !first {
			out.Write(", ")
		}
		first = false
		r.visitExpr(out, a)
	}
	out.Write(")")
}

// parenthesize writes e, wrapping it in parentheses unless it is primary
func (r *run) parenthesize(out *emitter.Emitter, e *ast.Node) {
	if isPrimary(stripImplicit(e)) {
		r.visitExpr(out, e)
		return
	}
	out.Write("(")
	r.visitExpr(out, e)
	out.Write(")")
}

func isPrimary(e *ast.Node) bool {
	return e.Is(ast.ParenExpr, ast.DeclRefExpr, ast.MemberExpr, ast.ArraySubscriptExpr,
		ast.CallExpr, ast.CXXMemberCallExpr, ast.CXXThisExpr, ast.IntegerLiteral,
		ast.FloatingLiteral, ast.CXXBoolLiteralExpr, ast.CXXNullPtrLiteralExpr)
}

// =============================================================================
// Literals
// =============================================================================

func (r *run) visitCharacterLiteral(out *emitter.Emitter, e *ast.Node) {
	value, err := strconv.ParseInt(e.Value, 0, 64)
	if err != nil {
		if c, size := decodeCharSpelling(e.Value); size > 0 {
			value = int64(c)
		} else {
			r.report(diag.Error, e, "Unsupported character literal value: '%s'. Generated bindings may be incomplete.", e.Value)
			return
		}
	}
	parentIsCast := r.ctx.parent().Is(ast.CStyleCastExpr, ast.CXXStaticCastExpr, ast.CXXFunctionalCastExpr)
	text, ok := charLiteral(e.CharKind, value, r.opts.UnixTypes, parentIsCast)
	if !ok {
		r.report(diag.Error, e, "Unsupported character literal kind: '%s'. Generated bindings may be incomplete.", e.CharKind)
		return
	}
	out.Write(text)
}

// decodeCharSpelling reads a quoted character spelling such as 'a' or '\n'
func decodeCharSpelling(s string) (rune, int) {
	body, ok := strings.CutPrefix(strings.TrimLeft(s, "LuU8"), "'")
	if !ok {
		return 0, 0
	}
	body = strings.TrimSuffix(body, "'")
	decoded := []rune(string(unescapeC(body)))
	if len(decoded) == 0 {
		return 0, 0
	}
	return decoded[0], 1
}

func (r *run) visitStringLiteral(out *emitter.Emitter, e *ast.Node) {
	s := decodeStringLiteral(e)
	kind := e.CharKind
	if kind == "" {
		kind = charAscii
		if s.wide {
			kind = charWide
		}
	}
	switch {
	case kind == charAscii || kind == charUTF8:
		out.Write(byteArray(s.bytes))
	case kind == charUTF16 || (kind == charWide && !r.opts.UnixTypes):
		out.Write(csharpString(s.text))
	default:
		r.report(diag.Error, e, "Unsupported string literal kind: '%s'. Generated bindings may be incomplete.", kind)
	}
}

// =============================================================================
// Casts
// =============================================================================

func (r *run) visitImplicitCast(out *emitter.Emitter, e *ast.Node) {
	sub := e.Child(0)
	written := stripImplicit(sub)

	switch e.CastKind {
	case "NullToPointer":
		out.Write("null")

	case "PointerToBoolean":
		r.writeTruthTest(out, sub, written, " != null")

	case "IntegralToBoolean":
		r.writeTruthTest(out, sub, written, " != 0")

	case "IntegralCast":
		if written.Type.IsBuiltin(ast.Bool) {
			r.writeBoolToInt(out, e, sub)
			return
		}
		r.visitDefaultImplicitCast(out, e, sub, written)

	case "BooleanToSignedIntegral":
		r.writeBoolToInt(out, e, sub)

	default:
		r.visitDefaultImplicitCast(out, e, sub, written)
	}
}

// writeTruthTest makes an implicit truth test explicit. A logical negation
// already yields bool.
func (r *run) writeTruthTest(out *emitter.Emitter, sub, written *ast.Node, comparison string) {
	if written.Is(ast.UnaryOperator) && written.OpCode == "!" {
		r.visitExpr(out, sub)
		return
	}
	r.parenthesize(out, sub)
	out.Write(comparison)
}

// writeBoolToInt spells a bool-to-integer conversion as a conditional,
// narrowed when the target is smaller than int
func (r *run) writeBoolToInt(out *emitter.Emitter, e, sub *ast.Node) {
	if e.Type.Size() > 0 && e.Type.Size() < 4 {
		out.Write("(byte)")
	}
	out.Write("(")
	r.parenthesize(out, sub)
	out.Write(" ? 1 : 0)")
}

// visitDefaultImplicitCast converts enumerators used as integers. Equality
// comparisons and enumerator initializers keep the bare name.
func (r *run) visitDefaultImplicitCast(out *emitter.Emitter, e, sub, written *ast.Node) {
	isEnumerator := written.Is(ast.DeclRefExpr) && written.RefNode.Is(ast.EnumConstantDecl)
	if !isEnumerator || e.Type.EnumIntegerType() != nil {
		r.visitExpr(out, sub)
		return
	}
	if p := r.ctx.parent(); p.Is(ast.BinaryOperator) && (p.OpCode == "==" || p.OpCode == "!=") {
		r.visitExpr(out, sub)
		return
	}
	if r.ctx.nearest(ast.EnumConstantDecl) != nil {
		r.visitExpr(out, sub)
		return
	}
	out.Write("(" + r.typeName(e, e.Type) + ")")
	r.parenthesize(out, written)
}

func (r *run) visitExplicitCast(out *emitter.Emitter, e *ast.Node) {
	sub := stripImplicit(e.Child(0))
	switch e.CastKind {
	case "ToVoid":
		out.Write("_ = ")
		r.visitExpr(out, sub)
		return
	case "NullToPointer":
		out.Write("null")
		return
	}
	typeName := r.typeName(e, e.Type)
	r.noteUnsafe(out, typeName)
	out.Write("(" + typeName + ")")
	r.parenthesize(out, sub)
}

// =============================================================================
// Operators
// =============================================================================

func (r *run) visitUnaryOperator(out *emitter.Emitter, e *ast.Node) {
	sub := e.Child(0)
	switch e.OpCode {
	case "++", "--":
		if e.IsPostfix {
			r.visitExpr(out, sub)
			out.Write(e.OpCode)
			return
		}
		out.Write(e.OpCode)
		r.visitExpr(out, sub)

	case "*", "+", "-", "~":
		out.Write(e.OpCode)
		r.visitExpr(out, sub)

	case "!":
		written := stripImplicit(sub)
		switch t := written.Type.Canonical(); {
		case t.IsPointerLike():
			r.visitExpr(out, written)
			out.Write(" == null")
		case isIntegerType(t):
			r.visitExpr(out, written)
			out.Write(" == 0")
		default:
			out.Write("!")
			r.visitExpr(out, sub)
		}

	case "&":
		if ref := stripImplicit(sub); ref.Is(ast.DeclRefExpr) && ref.RefNode != nil && ref.RefNode.Type.Canonical() != nil &&
			ref.RefNode.Type.Canonical().Kind == ast.LValueReferenceType {
			// references already bind as pointers
			r.visitExpr(out, sub)
			return
		}
		out.Write("&")
		r.visitExpr(out, sub)

	default:
		r.report(diag.Error, e, "Unsupported unary operator opcode: '%s'. Generated bindings may be incomplete.", e.OpCode)
	}
}

// isIntegerType reports integer builtins other than bool, and enums
func isIntegerType(t *ast.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind == ast.EnumType {
		return true
	}
	if t.Kind != ast.BuiltinType {
		return false
	}
	switch t.Builtin {
	case ast.Bool, ast.Void, ast.Float, ast.Double, ast.LongDouble, ast.NullPtr:
		return false
	}
	return true
}

// =============================================================================
// References
// =============================================================================

// declRefName spells a reference to a declaration
func (r *run) declRefName(out *emitter.Emitter, e *ast.Node) string {
	d := e.RefNode
	if d == nil {
		return r.policy.EscapedName(r.policy.RemappedName(refName(e), e))
	}
	switch {
	case d.Is(ast.ParmVarDecl):
		return r.paramName(d, paramIndex(d))

	case d.Is(ast.EnumConstantDecl):
		name := r.escapedName(d)
		enum := d.Parent
		if enum == nil {
			return name
		}
		if enum.Name == "" && typedefNameFor(enum) == "" {
			// Anonymous enumerators live in the method container
			if out != nil && !r.isMethods(out) && !enum.Parent.IsRecord() {
				return r.opts.MethodClassName + "." + name
			}
			return name
		}
		if r.ctx.nearest(ast.EnumDecl) == enum {
			return name
		}
		return r.escapedName(enum) + "." + name
	}
	return r.escapedName(d)
}

// isAnonymousFieldRef reports a member access through an unnamed field,
// which the flattened accessors make unnecessary
func isAnonymousFieldRef(e *ast.Node) bool {
	return e.Is(ast.MemberExpr) && e.RefNode.Is(ast.FieldDecl) && e.RefNode.Name == ""
}

// writesNothing reports a member base that produces no text
func writesNothing(base *ast.Node) bool {
	base = stripImplicit(base)
	if base.IsImplicitThis() {
		return true
	}
	return isAnonymousFieldRef(base) && writesNothing(base.Child(0))
}

func (r *run) visitMemberExpr(out *emitter.Emitter, e *ast.Node) {
	base := e.Child(0)
	if isAnonymousFieldRef(e) {
		if !writesNothing(base) {
			r.visitExpr(out, base)
		}
		return
	}

	if base != nil && !writesNothing(base) {
		r.visitExpr(out, base)
		if e.IsArrow || memberNeedsArrow(stripImplicit(base)) {
			out.Write("->")
		} else {
			out.Write(".")
		}
	}

	switch {
	case e.RefNode != nil:
		out.Write(r.escapedName(e.RefNode))
	default:
		out.Write(r.policy.EscapedName(e.Name))
	}
}

// memberNeedsArrow reports a base that binds as a pointer. An explicit this
// is a reference in a C# struct.
func memberNeedsArrow(base *ast.Node) bool {
	switch {
	case base.Is(ast.CXXThisExpr):
		return false
	case isAnonymousFieldRef(base):
		return memberNeedsArrow(stripImplicit(base.Child(0)))
	case base.Is(ast.DeclRefExpr) && base.RefNode != nil && base.RefNode.Type != nil:
		return base.RefNode.Type.IsPointerLike()
	}
	return base.Type.IsPointerLike()
}

// =============================================================================
// Calls and construction
// =============================================================================

// calleeDecl finds the declaration a call invokes
func calleeDecl(callee *ast.Node) *ast.Node {
	callee = stripExpr(callee)
	if callee.Is(ast.DeclRefExpr, ast.MemberExpr) {
		return callee.RefNode
	}
	return nil
}

func (r *run) visitCall(out *emitter.Emitter, e *ast.Node) {
	callee := e.Child(0)
	args := e.Inner[min(1, len(e.Inner)):]
	decl := calleeDecl(callee)

	switch {
	case decl.IsFunction():
		switch decl.Name {
		case "memcpy":
			out.AddUsingDirective(usingCompiler)
			out.Write("Unsafe.CopyBlockUnaligned")
		case "memset":
			out.AddUsingDirective(usingCompiler)
			out.Write("Unsafe.InitBlockUnaligned")
		default:
			r.visitExpr(out, callee)
		}
		r.writeArgs(out, args)

	case decl.Is(ast.FieldDecl, ast.VarDecl, ast.ParmVarDecl):
		r.visitExpr(out, callee)
		r.writeArgs(out, args)

	default:
		kind := ast.Kind("")
		if decl != nil {
			kind = decl.Kind
		}
		r.report(diag.Error, e, "Unsupported callee declaration: '%s'. Generated bindings may be incomplete.", kind)
	}
}

// visitOperatorCall writes an overloaded operator call. Operators C# enums
// provide are spelled back as operators.
func (r *run) visitOperatorCall(out *emitter.Emitter, e *ast.Node) {
	callee := e.Child(0)
	args := e.Inner[min(1, len(e.Inner)):]
	decl := calleeDecl(callee)
	if !decl.IsFunction() {
		kind := ast.Kind("")
		if decl != nil {
			kind = decl.Kind
		}
		r.report(diag.Error, e, "Unsupported callee declaration: '%s'. Generated bindings may be incomplete.", kind)
		return
	}

	if sym, ok := operatorSymbol(decl.Name); ok && enumOperators[sym] && hasEnumOperands(decl) {
		switch {
		case sym == "~" && len(args) == 1:
			out.Write(sym)
			r.visitExpr(out, args[0])
			return
		case sym != "~" && len(args) == 2:
			r.visitExpr(out, args[0])
			out.Write(" " + sym + " ")
			r.visitExpr(out, args[1])
			return
		}
	}

	if decl.IsMethod() && len(args) > 0 {
		r.visitExpr(out, args[0])
		out.Write(".")
		args = args[1:]
	}
	out.Write(r.escapedName(decl))
	r.writeArgs(out, args)
}

func (r *run) visitConstruct(out *emitter.Emitter, e *ast.Node) {
	ctor := e.RefNode
	if ctor != nil && ctor.IsCopyConstructor {
		// C# copies structs by value
		for i, a := range e.Inner {
			if i > 0 {
				out.Write(", ")
			}
			r.visitExpr(out, a)
		}
		return
	}

	name := r.typeName(e, e.Type)
	if ctor != nil && ctor.Parent != nil {
		name = r.escapedName(ctor.Parent)
	}
	out.Write("new " + name)
	r.writeArgs(out, e.Inner)
}

// =============================================================================
// Initializer lists
// =============================================================================

func (r *run) visitInitList(out *emitter.Emitter, e *ast.Node) {
	t := e.Type.Canonical()
	switch {
	case t == nil:
		r.report(diag.Error, e, "Unsupported init list expression type: ''. Generated bindings may be incomplete.")
	case t.Kind == ast.ConstantArrayType || t.Kind == ast.IncompleteArrayType:
		r.visitArrayInitList(out, e, t)
	case t.Kind == ast.RecordType:
		r.visitRecordInitList(out, e, t)
	default:
		r.report(diag.Error, e, "Unsupported init list expression type: '%s'. Generated bindings may be incomplete.", t.Kind)
	}
}

// visitArrayInitList writes a sized array creation padded with default
// elements. The closing brace is left for the caller to terminate.
func (r *run) visitArrayInitList(out *emitter.Emitter, e *ast.Node, t *ast.Type) {
	size := int64(len(e.Inner))
	if t.Kind == ast.ConstantArrayType {
		size = t.ArraySize
	} else {
		r.report(diag.Error, e, "Unsupported array type kind: '%s'. Generated bindings may be incomplete.", t.Kind)
	}

	out.WriteLine(fmt.Sprintf("new %s[%d]", r.typeName(e, t), size))
	out.WriteIndentedLine("{")
	out.IncreaseIndentation()
	for _, init := range e.Inner {
		out.WriteIndentation()
		r.visitExpr(out, init)
		out.WriteLine(",")
	}
	for i := int64(len(e.Inner)); i < size; i++ {
		out.WriteIndentedLine("default,")
	}
	out.DecreaseIndentation()
	out.WriteIndented("}")
	out.SetNeedsSemicolon(true)
}

func (r *run) visitRecordInitList(out *emitter.Emitter, e *ast.Node, t *ast.Type) {
	typeName := r.typeName(e, e.Type)
	rec := t.Decl

	if isGuidShaped(typeName, rec) && len(e.Inner) == 4 {
		out.Write("new Guid(")
		args := e.Inner[:3]
		if data := stripImplicit(e.Inner[3]); data.Is(ast.InitListExpr) {
			args = append(args[:3:3], data.Inner...)
		} else {
			args = append(args[:3:3], e.Inner[3])
		}
		for i, a := range args {
			if i > 0 {
				out.Write(", ")
			}
			r.visitExpr(out, a)
		}
		out.Write(")")
		out.AddUsingDirective(usingSystem)
		return
	}

	var fields []*ast.Node
	if rec != nil {
		fields = rec.Fields()
	}
	out.WriteLine("new " + typeName)
	out.WriteIndentedLine("{")
	out.IncreaseIndentation()
	if f := designatedField(fields, e.InitField); f != nil {
		fields = []*ast.Node{f}
	}
	for i, init := range e.Inner {
		if stripImplicit(init).Is(ast.ImplicitValueInitExpr) || i >= len(fields) {
			continue
		}
		out.WriteIndented(r.escapedName(fields[i]) + " = ")
		r.visitExpr(out, init)
		out.WriteLine(",")
	}
	out.DecreaseIndentation()
	out.WriteIndented("}")
	out.SetNeedsSemicolon(true)
}

// designatedField finds the member a union init list names
func designatedField(fields []*ast.Node, ref string) *ast.Node {
	if ref == "" {
		return nil
	}
	for _, f := range fields {
		if f.ID == ref || f.Name == ref {
			return f
		}
	}
	return nil
}

// isGuidShaped reports Guid itself or a record laid out as one: three
// integers followed by eight bytes
func isGuidShaped(typeName string, rec *ast.Node) bool {
	if typeName == "Guid" {
		return true
	}
	if rec == nil {
		return false
	}
	fields := rec.Fields()
	if len(fields) != 4 {
		return false
	}
	data := fields[3].Type.Canonical()
	return data != nil && data.Kind == ast.ConstantArrayType && data.ArraySize == 8 &&
		fields[0].Type.Size() == 4 && fields[1].Type.Size() == 2 && fields[2].Type.Size() == 2
}

// =============================================================================
// Type traits
// =============================================================================

func (r *run) visitTypeTrait(out *emitter.Emitter, e *ast.Node) {
	t := e.ArgType
	if t == nil {
		if sub := e.Child(0); sub != nil {
			t = sub.Type
		}
	}

	switch e.Trait {
	case "sizeof":
		size32, size64 := t.SizeOf(false), t.SizeOf(true)
		if size32 == size64 && size64 > 0 {
			out.Write(strconv.FormatInt(size64, 10))
			return
		}
		typeName := r.typeName(e, t)
		if r.isMethods(out) {
			r.methodsUnsafe = true
		}
		if r.sizeofNeedsCast(t, typeName) {
			out.Write("(uint)(sizeof(" + typeName + "))")
			return
		}
		out.Write("sizeof(" + typeName + ")")

	case "alignof", "preferred_alignof", "__alignof":
		align32, align64 := t.AlignOf(false), t.AlignOf(true)
		if align32 == align64 {
			out.Write(strconv.FormatInt(align64, 10))
			return
		}
		out.AddUsingDirective(usingSystem)
		out.Write(fmt.Sprintf("(Environment.Is64BitProcess ? %d : %d)", align64, align32))

	default:
		r.report(diag.Error, e, "Unsupported unary or type trait expression: '%s'. Generated bindings may be incomplete.", e.Trait)
	}
}

// sizeofNeedsCast reports a sizeof whose int result lands in an unsigned
// 32-bit slot
func (r *run) sizeofNeedsCast(arg *ast.Type, typeName string) bool {
	if arg.EnumIntegerType() != nil || isFixedBufferType(typeName) {
		return false
	}
	var target *ast.Type
	parent := r.ctx.parent()
	switch {
	case parent.Is(ast.CallExpr):
		if fn := calleeDecl(parent.Child(0)); fn.IsFunction() {
			params := fn.Params()
			for i, a := range parent.Inner[1:] {
				if stripImplicit(a) == r.ctx.current() && i < len(params) {
					target = params[i].Type
				}
			}
		}
	case parent.IsExpr():
		target = parent.Type
	case parent.IsDecl():
		target = parent.Type
	}
	return target.IsBuiltin(ast.UInt, ast.ULong)
}
