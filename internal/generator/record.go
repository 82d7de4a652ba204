package generator

import (
	"fmt"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/internal/policy"
)

func (r *run) visitRecord(out *emitter.Emitter, n *ast.Node) {
	if !n.IsComplete() {
		if def := declOf(n.Type); def != nil && def != n {
			return
		}
	}

	hasVtbl := n.HasVtbl()
	if r.opts.ExcludeEmptyRecords && len(n.Fields()) == 0 && len(n.Bases) == 0 && !hasVtbl {
		return
	}

	name := r.escapedName(n)
	nested := out != nil
	target := out
	if target == nil {
		target = r.createEmitter(name, false)
	}
	target.AddUsingDirective(usingInterop)

	size := max(n.Type.SizeOf(true), 1)
	align := max(n.Type.AlignOf(true), 1)

	startMember(target)
	r.writeComment(target, n)
	if n.UUID != "" {
		r.writeGuidAttribute(target, n)
	}
	target.WriteIndentedLine(fmt.Sprintf("[StructLayout(LayoutKind.Explicit, Size = %d, Pack = %d)]", size, align))
	if len(n.Bases) > 0 {
		var bases []string
		for _, b := range n.Bases {
			bases = append(bases, stripTag(nativeSpelling(b.Type)))
		}
		target.WriteIndentedLine(fmt.Sprintf("[NativeTypeName(%s)]", quote(fmt.Sprintf("%s %s : %s", recordKeyword(n), n.Name, strings.Join(bases, ", ")))))
	}
	r.writeAttributes(target, n)

	target.WriteIndented(accessModifier(n) + " ")
	if r.recordNeedsUnsafe(n, hasVtbl) {
		target.Write("unsafe ")
	}
	target.WriteLine("partial struct " + name)
	target.WriteBlockStart()

	if hasVtbl {
		startMember(target)
		target.WriteIndentedLine("[FieldOffset(0)]")
		if r.opts.ExplicitVtbls {
			target.WriteIndented("public Vtbl* lpVtbl")
		} else {
			target.WriteIndented("public void** lpVtbl")
		}
		target.WriteSemicolon()
		target.WriteNewline()
		endMember(target)
	}

	names := &bitfieldNames{total: r.inlinedBitfieldRuns(n)}
	r.writeBaseFields(target, n, names)
	r.writeFields(target, n, names)

	if !isAnonymousMember(n) {
		for _, f := range n.Fields() {
			if rec := fieldRecord(f); rec != nil && f.Name == "" {
				r.writeAnonymousAccessors(target, rec, anonymousFieldName(rec), r.escapedName(rec))
			}
		}
	}

	for _, m := range n.ChildrenOf(ast.CXXConstructorDecl) {
		r.visitDecl(target, m)
	}

	var entries []vtblEntry
	if hasVtbl {
		entries = r.nameVtblEntries(r.vtblEntries(n))
		if !r.opts.PreviewCodegenFnptr {
			for _, e := range entries {
				r.writeVtblDelegate(target, n, e)
			}
		}
	}

	for _, m := range n.ChildrenOf(ast.CXXMethodDecl) {
		if !m.IsVirtual {
			r.visitDecl(target, m)
		}
	}

	for _, c := range n.Inner {
		if c.Is(ast.FieldDecl) || c.IsMethod() {
			continue
		}
		r.visitDecl(target, c)
	}

	for _, f := range n.Fields() {
		r.writeFixedBuffer(target, f)
	}

	if hasVtbl {
		for i, e := range entries {
			r.writeVtblHelper(target, n, e, i)
		}
		if r.opts.ExplicitVtbls {
			r.writeVtblStruct(target, n, entries)
		}
	}

	target.WriteBlockEnd()
	endMember(target)

	if n.UUID != "" {
		r.writeIID(n, name)
	}
	if !nested && r.opts.generateTests() {
		r.writeRecordTests(n, name)
	}
}

func recordKeyword(n *ast.Node) string {
	if n.TagUsed != "" {
		return n.TagUsed
	}
	return "struct"
}

// isAnonymousMember reports an unnamed struct or union declared as a member
// without a field name of its own
func isAnonymousMember(rec *ast.Node) bool {
	return rec.IsRecord() && rec.Name == "" && rec.Parent.IsRecord() &&
		memberField(rec) == nil && typedefNameFor(rec) == ""
}

// hasPolymorphicBase reports whether a non-virtual base provides the vtable
// pointer
func hasPolymorphicBase(n *ast.Node) bool {
	for _, b := range n.Bases {
		if !b.IsVirtual && b.Record().HasVtbl() {
			return true
		}
	}
	return false
}

func (r *run) recordNeedsUnsafe(n *ast.Node, hasVtbl bool) bool {
	if hasVtbl {
		return true
	}
	for _, f := range n.Fields() {
		if f.Name == "" && fieldRecord(f) != nil {
			return true
		}
		t := f.Type
		if shape := arrayShapeOf(t); shape != nil {
			if elem := r.fieldTypeName(f, shape.element); isFixedBufferType(elem) || isUnsafeType(elem) {
				return true
			}
			continue
		}
		if isUnsafeType(r.fieldTypeName(f, t)) {
			return true
		}
	}
	for _, m := range n.ChildrenOf(ast.CXXMethodDecl) {
		if !m.IsStatic && !m.IsVirtual {
			return true
		}
	}
	return false
}

// writeBaseFields flattens non-virtual bases into one member each. A
// polymorphic base shares the vtable pointer written by the derived record,
// so its fields are inlined instead.
func (r *run) writeBaseFields(out *emitter.Emitter, n *ast.Node, names *bitfieldNames) {
	var bases []ast.Base
	for _, b := range n.Bases {
		if b.IsVirtual {
			r.report(diag.Warning, n, "Virtual base classes are not supported: '%s'. Generated bindings may be incomplete.", nativeSpelling(b.Type))
			continue
		}
		bases = append(bases, b)
	}

	var offset int64
	if n.HasVtbl() && !hasPolymorphicBase(n) {
		offset = 8
	}
	for i, b := range bases {
		rec := b.Record()
		if rec == nil {
			r.report(diag.Warning, n, "Unresolved base class: '%s'. Generated bindings may be incomplete.", nativeSpelling(b.Type))
			continue
		}
		if rec.HasVtbl() {
			r.writeBaseFields(out, rec, names)
			r.writeFields(out, rec, names)
			offset = max(offset, rec.Type.SizeOf(true))
			continue
		}

		name := "Base"
		if len(bases) > 1 {
			name = fmt.Sprintf("Base%d", i+1)
		}
		offset = alignUp(offset, max(b.Type.AlignOf(true), 1))
		typeName := r.typeName(n, b.Type)

		startMember(out)
		out.WriteIndentedLine(fmt.Sprintf("[FieldOffset(%d)]", offset))
		writeNativeTypeName(out, b.Type, typeName)
		out.WriteIndented(accessFor(b.Access) + " " + typeName + " " + name)
		out.WriteSemicolon()
		out.WriteNewline()
		endMember(out)

		offset += b.Type.SizeOf(true)
	}
}

// inlinedBitfieldRuns counts the bitfield backing fields written into n's
// struct, including those of inlined polymorphic bases
func (r *run) inlinedBitfieldRuns(n *ast.Node) int {
	total := countBitfieldRuns(n, r.opts.UnixTypes)
	for _, b := range n.Bases {
		if rec := b.Record(); !b.IsVirtual && rec != nil && rec.HasVtbl() {
			total += r.inlinedBitfieldRuns(rec)
		}
	}
	return total
}

func alignUp(v, a int64) int64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}

// writeFields writes the record's fields in declaration order. Consecutive
// bitfields share backing storage; any other field ends the run.
func (r *run) writeFields(out *emitter.Emitter, rec *ast.Node, names *bitfieldNames) {
	fields := rec.Fields()
	run := newBitfieldRun(planBitfields(fields, r.opts.UnixTypes), r.opts.UnixTypes, names)
	for _, f := range fields {
		if f.IsBitField {
			r.writeBitfield(out, rec, f, run)
			continue
		}
		run.reset()
		r.writeField(out, rec, f)
	}
}

// fieldTypeName is typeName with bool stored as a byte so layouts stay
// blittable
func (r *run) fieldTypeName(f *ast.Node, t *ast.Type) string {
	if t.IsBuiltin(ast.Bool) {
		return "byte"
	}
	return r.typeName(f, t)
}

func (r *run) writeField(out *emitter.Emitter, rec, f *ast.Node) {
	name := r.escapedName(f)
	access := accessModifier(f)
	offset := f.OffsetBits / 8
	if rec.IsUnion() {
		offset = 0
	}

	startMember(out)
	r.writeComment(out, f)
	out.WriteIndentedLine(fmt.Sprintf("[FieldOffset(%d)]", offset))

	if shape := arrayShapeOf(f.Type); shape != nil {
		elem := r.fieldTypeName(f, shape.element)
		writeNativeTypeName(out, f.Type, elem)
		if isFixedBufferType(elem) && !shape.incomplete {
			out.WriteIndented(fmt.Sprintf("%s fixed %s %s[%s]", access, elem, name, shape.dimsExpr()))
		} else {
			out.WriteIndented(access + " " + fixedBufferName(r.cursorName(f)) + " " + name)
		}
	} else {
		typeName := r.fieldTypeName(f, f.Type)
		writeNativeTypeName(out, f.Type, typeName)
		out.WriteIndented(access + " ")
		if needsNewKeyword(name, -1) {
			out.Write("new ")
		}
		out.Write(typeName + " " + name)
	}
	out.WriteSemicolon()
	out.WriteNewline()
	endMember(out)
}

// =============================================================================
// COM interface identity
// =============================================================================

func (r *run) writeGuidAttribute(out *emitter.Emitter, n *ast.Node) {
	id, err := policy.ParseGUID(n.UUID)
	if err != nil {
		r.report(diag.Warning, n, "Invalid uuid: '%s'. Generated bindings may be incomplete.", n.UUID)
		return
	}
	out.WriteIndentedLine(fmt.Sprintf("[Guid(%s)]", quote(policy.FormatGUID(id))))
}

// writeIID declares the IID_<Name> constant in the method container
func (r *run) writeIID(n *ast.Node, name string) {
	id, err := policy.ParseGUID(n.UUID)
	if err != nil {
		return
	}
	out := r.methods()
	out.AddUsingDirective(usingSystem)
	startMember(out)
	out.WriteIndentedLine(`[NativeTypeName("const GUID")]`)
	out.WriteIndented(fmt.Sprintf("public static readonly Guid IID_%s = new Guid(%s)", strings.TrimPrefix(name, "@"), policy.GUIDConstructorArgs(id)))
	out.WriteSemicolon()
	out.WriteNewline()
	endMember(out)
}
