package generator

import (
	"fmt"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// enumOperators are the bitwise operators C# enums already provide
var enumOperators = map[string]bool{
	"|": true, "&": true, "^": true, "~": true, "|=": true, "&=": true, "^=": true,
}

// operatorSymbol returns the operator of an "operator<sym>" name
func operatorSymbol(name string) (string, bool) {
	sym, ok := strings.CutPrefix(name, "operator")
	if !ok || sym == "" {
		return "", false
	}
	c := sym[0]
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return "", false
	}
	return strings.TrimSpace(sym), true
}

// hasEnumOperands reports an operator whose operands are enums
func hasEnumOperands(n *ast.Node) bool {
	params := n.Params()
	if len(params) == 0 {
		return false
	}
	for _, p := range params {
		t := p.Type
		if t.IsPointerLike() {
			t = t.Canonical().Pointee
		}
		if t.EnumIntegerType() == nil {
			return false
		}
	}
	return true
}

func (r *run) visitFunction(out *emitter.Emitter, n *ast.Node) {
	switch {
	case n.Is(ast.CXXDestructorDecl, ast.CXXConversionDecl):
		return
	case n.Is(ast.CXXConstructorDecl):
		r.visitConstructor(out, n)
		return
	case n.IsVirtual:
		return
	}
	if chosen, ok := r.functions[functionKey(n)]; ok && chosen != n {
		return
	}

	if sym, ok := operatorSymbol(n.Name); ok {
		if enumOperators[sym] && hasEnumOperands(n) {
			if !r.opts.ExcludeEnumOperators {
				r.report(diag.Info, n, "Enum operator '%s' was not generated; C# enums provide it.", n.Name)
			}
			return
		}
		r.report(diag.Warning, n, "Operator overloads are not supported: '%s'. Generated bindings may be incomplete.", n.QualifiedName())
		return
	}

	name := r.cursorName(n)
	if r.opts.ExcludeComProxies && (strings.HasSuffix(name, "_Proxy") || strings.HasSuffix(name, "_Stub")) {
		return
	}

	body := n.Body()
	if body != nil && r.opts.ExcludeFnsWithBody {
		return
	}
	if body != nil && (n.Access == "private" || n.Access == "protected") {
		return
	}

	target := out
	if target == nil {
		target = r.methods()
	}
	if body == nil {
		r.writeImport(target, n)
	} else {
		r.writeFunctionWithBody(target, n, body)
	}
}

// writeImport declares a native entry point
func (r *run) writeImport(out *emitter.Emitter, n *ast.Node) {
	proto := signatureOf(n)
	instance := n.IsMethod() && !n.IsStatic
	name := r.escapedName(n)
	native := r.cursorName(n)
	entry := n.Name
	if n.MangledName != "" {
		entry = n.MangledName
	}

	conv := r.callConv(n, proto.CallConv, instance)
	ret := r.marshalledName(n, proto.Result)

	var params []string
	if instance {
		params = append(params, r.escapedName(n.Parent)+"* pThis")
	}
	for i, p := range n.Params() {
		params = append(params, r.visitParam(out, p, i, true))
	}
	if proto.IsVariadic {
		params = append(params, "__arglist")
	}

	out.AddUsingDirective(usingInterop)
	startMember(out)
	r.writeComment(out, n)

	var attr strings.Builder
	fmt.Fprintf(&attr, "[DllImport(%s, CallingConvention = CallingConvention.%s", quote(r.policy.LibraryPath(native)), conv)
	if entry != strings.TrimPrefix(name, "@") {
		fmt.Fprintf(&attr, ", EntryPoint = %s", quote(entry))
	}
	attr.WriteString(", ExactSpelling = true")
	if r.policy.SetLastError(native) {
		attr.WriteString(", SetLastError = true")
	}
	attr.WriteString(")]")
	out.WriteIndentedLine(attr.String())
	if r.policy.SuppressGC(native) {
		out.WriteIndentedLine("[SuppressGCTransition]")
	}
	r.writeAttributes(out, n)
	r.writeReturnNativeTypeName(out, proto.Result, ret)

	out.WriteIndented(accessModifier(n) + " static extern " + ret + " " + name + "(" + strings.Join(params, ", ") + ")")
	out.WriteSemicolon()
	out.WriteNewline()
	endMember(out)

	r.noteUnsafe(out, ret, strings.Join(params, ", "))
}

func (r *run) writeReturnNativeTypeName(out *emitter.Emitter, result *ast.Type, ret string) {
	if result.IsBuiltin(ast.Bool) {
		out.WriteIndentedLine(`[return: NativeTypeName("bool")]`)
		return
	}
	if native := nativeTypeAttr(result, ret); native != "" {
		out.WriteIndentedLine(fmt.Sprintf("[return: NativeTypeName(%s)]", quote(native)))
	}
}

// writeFunctionWithBody translates an inline definition. Free functions
// become static members of the method container, member functions become
// instance methods.
func (r *run) writeFunctionWithBody(out *emitter.Emitter, n, body *ast.Node) {
	result := signatureOf(n).Result
	name := r.escapedName(n)
	ret := r.typeName(n, result)

	params := make([]string, 0, len(n.Params()))
	for i, p := range n.Params() {
		params = append(params, r.visitParam(out, p, i, false))
	}
	signature := strings.Join(params, ", ")

	startMember(out)
	r.writeComment(out, n)
	if r.opts.AggressiveInlining {
		out.AddUsingDirective(usingCompiler)
		out.WriteIndentedLine("[MethodImpl(MethodImplOptions.AggressiveInlining)]")
	}
	r.writeAttributes(out, n)
	if native := nativeTypeAttr(result, ret); native != "" {
		out.WriteIndentedLine(fmt.Sprintf("[return: NativeTypeName(%s)]", quote(native)))
	}

	out.WriteIndented(accessModifier(n) + " ")
	if !n.IsMethod() || n.IsStatic {
		out.Write("static ")
	}
	if needsNewKeyword(name, len(params)) {
		out.Write("new ")
	}
	out.WriteLine(ret + " " + name + "(" + signature + ")")
	r.visitStmt(out, body)
	endMember(out)

	r.noteUnsafe(out, ret, signature)
}

// visitConstructor translates a user constructor with a body. Copy and move
// constructors have value semantics in C# and are skipped.
func (r *run) visitConstructor(out *emitter.Emitter, n *ast.Node) {
	if out == nil || n.IsImplicit || n.IsCopyConstructor || n.IsMoveConstructor {
		return
	}
	body := n.Body()
	if body == nil || r.opts.ExcludeFnsWithBody {
		return
	}

	params := make([]string, 0, len(n.Params()))
	for i, p := range n.Params() {
		params = append(params, r.visitParam(out, p, i, false))
	}

	startMember(out)
	r.writeComment(out, n)
	out.WriteIndentedLine(accessModifier(n) + " " + r.escapedName(n.Parent) + "(" + strings.Join(params, ", ") + ")")
	out.WriteBlockStart()
	for _, init := range n.CtorInitializers() {
		r.writeCtorInitializer(out, init)
	}
	func() {
		defer r.ctx.push(body)()
		r.visitStmts(out, body.Inner)
	}()
	out.WriteSemicolonIfNeeded()
	out.WriteNewlineIfNeeded()
	out.WriteBlockEnd()
	endMember(out)
}

// writeCtorInitializer assigns one member initializer. The member is
// qualified with this when the initializer names a same-named parameter.
func (r *run) writeCtorInitializer(out *emitter.Emitter, init *ast.Node) {
	defer r.ctx.push(init)()

	value := init.Init()
	if value == nil || stripExpr(value).Is(ast.ImplicitValueInitExpr) {
		return
	}
	member := init.Name
	if init.RefNode != nil {
		member = r.escapedName(init.RefNode)
	}
	if member == "" {
		return
	}

	out.WriteIndentation()
	if ref := stripExpr(value); ref.Is(ast.DeclRefExpr) && refName(ref) == strings.TrimPrefix(member, "@") {
		out.Write("this.")
	}
	out.Write(member + " = ")
	r.visitExpr(out, value)
	out.WriteSemicolon()
	out.WriteNewline()
}
