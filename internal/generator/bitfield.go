package generator

import (
	"fmt"
	"strconv"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// A bitfield run packs consecutive bitfields into one backing field. A new
// backing field starts when the next bitfield does not fit in the bits left,
// or, with Windows layout, whenever the declared type size changes.

// packState tracks the bits left in the current backing field
type packState struct {
	remaining int64
	previous  int64
}

// advance accounts for a bitfield of width bits declared with a type of size
// bytes and returns the bit offset it lands at in the backing field. With
// Unix layout a larger type grows the current backing field when the
// bitfield then fits.
func (p *packState) advance(width, size int64, unix bool) (offset int64, restarted, widened bool) {
	var grow int64
	if unix && p.previous != 0 && size > p.previous {
		grow = (size - p.previous) * 8
	}
	switch {
	case (!unix && size != p.previous) || width > p.remaining+grow:
		p.remaining = size * 8
		p.previous = 0
		restarted = true
	case grow > 0:
		p.remaining += grow
		widened = true
	}
	p.previous = max(p.previous, size)
	offset = p.previous*8 - p.remaining
	p.remaining -= width
	return offset, restarted, widened
}

func (p *packState) reset() {
	p.remaining, p.previous = 0, 0
}

// planBitfields returns the backing type of every run, in order
func planBitfields(fields []*ast.Node, unix bool) []*ast.Type {
	var (
		types []*ast.Type
		sizes []int64
		pack  packState
	)
	for _, f := range fields {
		if !f.IsBitField || f.BitWidth == 0 {
			pack.reset()
			continue
		}
		size := f.Type.SizeOf(true)
		_, restarted, widened := pack.advance(int64(f.BitWidth), size, unix)
		switch {
		case restarted:
			types = append(types, backingType(f.Type))
			sizes = append(sizes, size)
		case widened && size > sizes[len(sizes)-1]:
			types[len(types)-1] = backingType(f.Type)
			sizes[len(sizes)-1] = size
		}
	}
	return types
}

// countBitfieldRuns counts the backing fields of rec's own bitfields
func countBitfieldRuns(rec *ast.Node, unix bool) int {
	return len(planBitfields(rec.Fields(), unix))
}

// backingType strips enums to their integer type and stores bool as a byte
func backingType(t *ast.Type) *ast.Type {
	if it := t.EnumIntegerType(); it != nil {
		t = it
	}
	if t.IsBuiltin(ast.Bool) {
		return &ast.Type{Kind: ast.BuiltinType, Builtin: ast.UChar, Spelling: "unsigned char"}
	}
	return t
}

// bitfieldNames hands out backing field names for one emitted struct. A
// struct with a single backing field uses _bitfield, otherwise they are
// numbered from _bitfield1 across inlined bases and the record itself.
type bitfieldNames struct {
	total int
	used  int
}

func (b *bitfieldNames) next() string {
	b.used++
	if b.total <= 1 {
		return "_bitfield"
	}
	return "_bitfield" + strconv.Itoa(b.used)
}

type bitfieldRun struct {
	types []*ast.Type
	unix  bool
	names *bitfieldNames
	index int
	name  string
	pack  packState
}

// bitfieldSlot is where one bitfield landed
type bitfieldSlot struct {
	backingName string
	backing     *ast.Type
	offset      int64
	restarted   bool
}

func newBitfieldRun(types []*ast.Type, unix bool, names *bitfieldNames) *bitfieldRun {
	if names == nil {
		names = &bitfieldNames{total: len(types)}
	}
	return &bitfieldRun{types: types, unix: unix, names: names}
}

// reset ends the current run
func (b *bitfieldRun) reset() {
	b.pack.reset()
}

// place assigns f to a backing field. ok is false for zero-width bitfields,
// which only end the run.
func (b *bitfieldRun) place(f *ast.Node) (slot bitfieldSlot, ok bool) {
	if f.BitWidth == 0 {
		b.reset()
		return slot, false
	}
	offset, restarted, _ := b.pack.advance(int64(f.BitWidth), f.Type.SizeOf(true), b.unix)
	if restarted {
		b.index++
		b.name = b.names.next()
	}

	slot.backingName = b.name
	slot.offset = offset
	slot.restarted = restarted
	if b.index > 0 && b.index <= len(b.types) {
		slot.backing = b.types[b.index-1]
	}
	return slot, true
}

func (r *run) writeBitfield(out *emitter.Emitter, rec, f *ast.Node, run *bitfieldRun) {
	slot, ok := run.place(f)
	if !ok || slot.backing == nil {
		return
	}
	backingName := r.typeName(f, slot.backing)

	if slot.restarted {
		unit := max((f.OffsetBits-slot.offset)/8, 0)
		if rec.IsUnion() {
			unit = 0
		}
		startMember(out)
		out.WriteIndentedLine(fmt.Sprintf("[FieldOffset(%d)]", unit))
		out.WriteIndented("public " + backingName + " " + slot.backingName)
		out.WriteSemicolon()
		out.WriteNewline()
		endMember(out)
	}

	if f.Name == "" {
		return
	}
	if bits := slot.backing.SizeOf(true) * 8; int64(f.BitWidth) > bits {
		r.report(diag.Warning, f, "Bitfield width %d of '%s' exceeds its %d-bit storage. Generated bindings may be incomplete.", f.BitWidth, f.Name, bits)
	}

	fieldType := r.typeName(f, f.Type)
	access := bitfieldAccess{
		backing:       slot.backingName,
		backingType:   backingName,
		backingSize:   slot.backing.SizeOf(true),
		fieldType:     fieldType,
		offset:        slot.offset,
		width:         f.BitWidth,
		backingSuffix: r.maskSuffix(f, slot.backing),
		valueSuffix:   r.maskSuffix(f, f.Type),
		isEnum:        f.Type.EnumIntegerType() != nil,
		isBool:        f.Type.IsBuiltin(ast.Bool),
	}

	startMember(out)
	r.writeComment(out, f)
	out.WriteIndentedLine(fmt.Sprintf("[NativeTypeName(%s)]", quote(fmt.Sprintf("%s : %d", nativeSpelling(f.Type), f.BitWidth))))
	out.WriteIndented(accessModifier(f) + " ")
	name := r.escapedName(f)
	if needsNewKeyword(name, -1) {
		out.Write("new ")
	}
	out.WriteLine(fieldType + " " + name)
	out.WriteBlockStart()
	r.writeAccessor(out, "get", "return "+access.getter()+";")
	out.WriteNewline()
	r.writeAccessor(out, "set", access.setter()+";")
	out.WriteBlockEnd()
	endMember(out)
}

// writeAccessor writes a get or set block holding one statement
func (r *run) writeAccessor(out *emitter.Emitter, keyword, stmt string) {
	if r.opts.AggressiveInlining {
		out.AddUsingDirective(usingCompiler)
		out.WriteIndentedLine("[MethodImpl(MethodImplOptions.AggressiveInlining)]")
	}
	out.WriteIndentedLine(keyword)
	out.WriteBlockStart()
	out.WriteIndentedLine(stmt)
	out.WriteBlockEnd()
}

// maskSuffix returns the literal suffix that gives a mask the type of t
func (r *run) maskSuffix(f *ast.Node, t *ast.Type) string {
	if it := t.EnumIntegerType(); it != nil {
		t = it
	}
	c := t.Canonical()
	if c == nil || c.Kind != ast.BuiltinType {
		kind := ast.TypeKind("")
		if c != nil {
			kind = c.Kind
		}
		r.report(diag.Warning, f, "Unsupported bitfield type: '%s'. Generated bindings may be incomplete.", kind)
		return ""
	}
	switch c.Builtin {
	case ast.Bool, ast.Char_U, ast.UChar, ast.UShort, ast.UInt, ast.Char16, ast.Char32, ast.WChar:
		return "u"
	case ast.ULong:
		if r.opts.UnixTypes {
			return "UL"
		}
		return "u"
	case ast.ULongLong:
		return "UL"
	case ast.Char_S, ast.SChar, ast.Short, ast.Int:
		return ""
	case ast.Long:
		if r.opts.UnixTypes {
			return "L"
		}
		return ""
	case ast.LongLong:
		return "L"
	}
	r.report(diag.Warning, f, "Unsupported bitfield type: '%s'. Generated bindings may be incomplete.", c.Builtin)
	return ""
}

// bitfieldAccess renders the accessor bodies of one bitfield
type bitfieldAccess struct {
	backing       string
	backingType   string
	backingSize   int64
	fieldType     string
	offset        int64
	width         int
	backingSuffix string
	valueSuffix   string
	isEnum        bool
	isBool        bool
}

func (a bitfieldAccess) mask(suffix string) string {
	var m uint64
	if a.width >= 64 {
		m = ^uint64(0)
	} else {
		m = uint64(1)<<uint(a.width) - 1
	}
	return fmt.Sprintf("0x%X%s", m, suffix)
}

func (a bitfieldAccess) needsCast() bool {
	return a.backingSize < 4 || a.backingType != a.fieldType
}

func (a bitfieldAccess) getter() string {
	expr := a.backing
	if a.offset != 0 {
		expr = fmt.Sprintf("(%s >> %d)", a.backing, a.offset)
	}
	expr += " & " + a.mask(a.backingSuffix)

	switch {
	case a.isBool:
		return "(" + expr + ") != 0"
	case a.needsCast():
		return "(" + a.fieldType + ")(" + expr + ")"
	default:
		return expr
	}
}

func (a bitfieldAccess) setter() string {
	shifted := a.mask(a.backingSuffix)
	if a.offset != 0 {
		shifted = fmt.Sprintf("(%s << %d)", shifted, a.offset)
	}
	cleared := a.backing + " & ~" + shifted

	value := "value"
	valueMask := a.mask(a.valueSuffix)
	switch {
	case a.isBool:
		value = fmt.Sprintf("(value ? 1%s : 0%s)", a.backingSuffix, a.backingSuffix)
		valueMask = a.mask(a.backingSuffix)
	case a.isEnum:
		value = "(" + a.backingType + ")(value)"
	}
	part := "(" + value + " & " + valueMask + ")"
	if a.offset != 0 {
		part = fmt.Sprintf("(%s << %d)", part, a.offset)
	}
	if a.needsCast() && !a.isEnum && !a.isBool {
		part = "(" + a.backingType + ")" + part
	}

	result := "(" + cleared + ") | " + part
	if a.needsCast() {
		result = "(" + a.backingType + ")(" + result + ")"
	}
	return a.backing + " = " + result
}
