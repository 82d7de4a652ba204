package generator

import (
	"fmt"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/internal/policy"
)

// vtblEntry is one vtable slot
type vtblEntry struct {
	method *ast.Node
	name   string
	// skip marks slots that are counted but get no helper: destructors and
	// excluded methods
	skip bool
}

// vtblEntries lists the slots of rec's primary vtable, base slots first.
// An override takes over the slot of the method it overrides.
func (r *run) vtblEntries(rec *ast.Node) []vtblEntry {
	var entries []vtblEntry
	for _, b := range rec.Bases {
		if base := b.Record(); !b.IsVirtual && base.HasVtbl() {
			entries = r.vtblEntries(base)
			break
		}
	}
	for _, m := range rec.Methods() {
		if !m.IsVirtual {
			continue
		}
		if i := overriddenSlot(entries, m); i >= 0 {
			entries[i].method = m
			continue
		}
		entries = append(entries, vtblEntry{method: m})
	}
	return entries
}

func overriddenSlot(entries []vtblEntry, m *ast.Node) int {
	for i, e := range entries {
		if m.Is(ast.CXXDestructorDecl) {
			if e.method.Is(ast.CXXDestructorDecl) {
				return i
			}
			continue
		}
		if e.method.Name == m.Name && len(e.method.Params()) == len(m.Params()) {
			return i
		}
	}
	return -1
}

// nameVtblEntries gives overloads distinct names: the first keeps the
// remapped name, later ones get the number of earlier hits appended. The
// names live in an overlay so the shared policy stays untouched.
func (r *run) nameVtblEntries(entries []vtblEntry) []vtblEntry {
	names := policy.NewOverlay(r.policy)
	hits := make(map[string]int)
	for i := range entries {
		m := entries[i].method
		if m.Is(ast.CXXDestructorDecl) {
			entries[i].name = "Dispose"
			entries[i].skip = true
			continue
		}
		if r.policy.IsExcluded(m) {
			entries[i].skip = true
		}
		base := r.policy.RemappedName(m.Name, m)
		key := fmt.Sprintf("%s#%d", m.Name, i)
		if h := hits[base]; h > 0 {
			names.Set(key, fmt.Sprintf("%s%d", base, h))
		} else {
			names.Set(key, base)
		}
		hits[base]++
		entries[i].name = r.policy.EscapedName(names.RemappedName(key, m))
	}
	return entries
}

// returnsRecord reports a by-value record result, which the native ABI
// returns through a hidden pointer
func returnsRecord(m *ast.Node) bool {
	c := resultType(m).Canonical()
	return c != nil && c.Kind == ast.RecordType
}

func resultType(m *ast.Node) *ast.Type {
	return signatureOf(m).Result
}

// vtblSignature renders the native signature of a slot: the managed return
// type and the parameter list with the this pointer first
func (r *run) vtblSignature(out *emitter.Emitter, rec *ast.Node, e vtblEntry) (ret string, params []string) {
	recName := r.escapedName(rec)
	ret = r.marshalledName(e.method, resultType(e.method))
	params = []string{recName + "* pThis"}
	if returnsRecord(e.method) {
		ret += "*"
		params = append(params, ret+" _result")
	}
	for i, p := range e.method.Params() {
		params = append(params, r.visitParam(out, p, i, true))
	}
	return ret, params
}

func (r *run) vtblFnptrType(rec *ast.Node, e vtblEntry) string {
	recName := r.escapedName(rec)
	parts := []string{recName + "*"}
	ret := r.marshalledName(e.method, resultType(e.method))
	if returnsRecord(e.method) {
		ret += "*"
		parts = append(parts, ret)
	}
	for _, p := range e.method.Params() {
		parts = append(parts, r.marshalledName(p, p.Type))
	}
	parts = append(parts, ret)
	conv := r.callConv(e.method, signatureOf(e.method).CallConv, true)
	return fnptrPrefix(conv) + "<" + strings.Join(parts, ", ") + ">"
}

func (r *run) writeVtblDelegate(out *emitter.Emitter, rec *ast.Node, e vtblEntry) {
	if e.skip {
		return
	}
	defer r.ctx.push(e.method)()

	ret, params := r.vtblSignature(out, rec, e)
	conv := r.callConv(e.method, signatureOf(e.method).CallConv, true)

	startMember(out)
	r.writeUnmanagedFunctionPointer(out, conv)
	if resultType(e.method).IsBuiltin(ast.Bool) {
		out.WriteIndentedLine(`[return: NativeTypeName("bool")]`)
	}
	out.WriteIndented(accessModifier(e.method) + " delegate " + ret + " _" + e.name + "(" + strings.Join(params, ", ") + ")")
	out.WriteSemicolon()
	out.WriteNewline()
	endMember(out)
}

// writeVtblHelper writes the managed method that dispatches through slot
func (r *run) writeVtblHelper(out *emitter.Emitter, rec *ast.Node, e vtblEntry, slot int) {
	if e.skip {
		return
	}
	defer r.ctx.push(e.method)()

	recName := r.escapedName(rec)
	ret, params := r.vtblSignature(out, rec, e)
	managedRet := ret
	result := resultType(e.method)
	isBool := result.IsBuiltin(ast.Bool)
	switch {
	case isBool:
		managedRet = "bool"
	case returnsRecord(e.method):
		managedRet = strings.TrimSuffix(ret, "*")
	}

	var callee string
	switch {
	case r.opts.PreviewCodegenFnptr && r.opts.ExplicitVtbls:
		callee = "lpVtbl->" + e.name
	case r.opts.PreviewCodegenFnptr:
		callee = fmt.Sprintf("((%s)(lpVtbl[%d]))", r.vtblFnptrType(rec, e), slot)
	case r.opts.ExplicitVtbls:
		out.AddUsingDirective(usingInterop)
		callee = fmt.Sprintf("Marshal.GetDelegateForFunctionPointer<_%s>(lpVtbl->%s)", e.name, e.name)
	default:
		out.AddUsingDirective(usingInterop)
		callee = fmt.Sprintf("Marshal.GetDelegateForFunctionPointer<_%s>((IntPtr)(lpVtbl[%d]))", e.name, slot)
		out.AddUsingDirective(usingSystem)
	}

	thisArg := fmt.Sprintf("(%s*)Unsafe.AsPointer(ref this)", recName)
	if r.opts.CompatibleCodegen {
		thisArg = "pThis"
	} else {
		out.AddUsingDirective(usingCompiler)
	}
	args := []string{thisArg}
	if returnsRecord(e.method) {
		args = append(args, "&result")
	}
	for i, p := range e.method.Params() {
		args = append(args, r.paramName(p, i))
	}
	call := callee + "(" + strings.Join(args, ", ") + ")"

	startMember(out)
	r.writeComment(out, e.method)
	if r.opts.AggressiveInlining {
		out.AddUsingDirective(usingCompiler)
		out.WriteIndentedLine("[MethodImpl(MethodImplOptions.AggressiveInlining)]")
	}
	if isBool {
		out.WriteIndentedLine(`[return: NativeTypeName("bool")]`)
	} else if native := nativeTypeAttr(result, managedRet); native != "" {
		out.WriteIndentedLine(fmt.Sprintf("[return: NativeTypeName(%s)]", quote(native)))
	}
	out.WriteIndented(accessModifier(e.method) + " ")
	if needsNewKeyword(e.name, len(e.method.Params())) {
		out.Write("new ")
	}
	managedParams := params[1:]
	if returnsRecord(e.method) {
		managedParams = params[2:]
	}
	out.WriteLine(managedRet + " " + e.name + "(" + strings.Join(managedParams, ", ") + ")")
	out.WriteBlockStart()
	if r.opts.CompatibleCodegen {
		out.WriteIndentedLine(fmt.Sprintf("fixed (%s* pThis = &this)", recName))
		out.WriteBlockStart()
	}
	switch {
	case returnsRecord(e.method):
		out.WriteIndentedLine(managedRet + " result;")
		out.WriteIndentedLine("return *" + call + ";")
	case result == nil || result.IsBuiltin(ast.Void):
		out.WriteIndentedLine(call + ";")
	case isBool:
		out.WriteIndentedLine("return " + call + " != 0;")
	default:
		out.WriteIndentedLine("return " + call + ";")
	}
	if r.opts.CompatibleCodegen {
		out.WriteBlockEnd()
	}
	out.WriteBlockEnd()
	endMember(out)
}

// writeVtblStruct declares the typed vtable layout
func (r *run) writeVtblStruct(out *emitter.Emitter, rec *ast.Node, entries []vtblEntry) {
	startMember(out)
	out.WriteIndentedLine("public partial struct Vtbl")
	out.WriteBlockStart()
	for _, e := range entries {
		typeName := "IntPtr"
		if r.opts.PreviewCodegenFnptr {
			typeName = "void*"
			if !e.skip {
				typeName = r.vtblFnptrType(rec, e)
			}
		} else {
			out.AddUsingDirective(usingSystem)
		}
		startMember(out)
		out.WriteIndented("public ")
		if needsNewKeyword(e.name, -1) {
			out.Write("new ")
		}
		out.Write(typeName + " " + e.name)
		out.WriteSemicolon()
		out.WriteNewline()
		endMember(out)
	}
	out.WriteBlockEnd()
	endMember(out)
}
