package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixBitfieldWidensRun(t *testing.T) {
	opts := testOptions()
	opts.UnixTypes = true
	g, bag := generateYAML(t, `
kind: TranslationUnitDecl
inner:
  - kind: RecordDecl
    name: Packed
    tagUsed: struct
    inner:
      - {kind: FieldDecl, name: a, isBitfield: true, bitWidth: 4, type: {kind: Builtin, builtin: UChar, spelling: unsigned char}}
      - {kind: FieldDecl, name: b, isBitfield: true, bitWidth: 8, type: {kind: Builtin, builtin: UInt, spelling: unsigned int}}
`, opts)
	got := text(t, g, "Packed")

	assert.Equal(t, 1, strings.Count(got, "public uint _bitfield;"), "a and b share one widened backing field")
	assert.NotContains(t, got, "_bitfield1")
	assert.NotContains(t, got, "_bitfield2")
	assert.Contains(t, got, "return (byte)(_bitfield & 0xFu);")
	assert.Contains(t, got, "return (_bitfield >> 4) & 0xFFu;")
	assert.Contains(t, got, "_bitfield = (_bitfield & ~(0xFFu << 4)) | ((value & 0xFFu) << 4);")
	assert.False(t, bag.HasErrors())
}

func TestPackStateOffsets(t *testing.T) {
	type step struct {
		width, size int64
		offset      int64
		restarted   bool
	}
	tests := []struct {
		name  string
		unix  bool
		steps []step
	}{
		{
			name: "windows splits on size change",
			steps: []step{
				{width: 4, size: 1, offset: 0, restarted: true},
				{width: 8, size: 4, offset: 0, restarted: true},
			},
		},
		{
			name: "unix widens before checking the fit",
			unix: true,
			steps: []step{
				{width: 4, size: 1, offset: 0, restarted: true},
				{width: 8, size: 4, offset: 4},
				{width: 3, size: 1, offset: 12},
			},
		},
		{
			name: "unix restarts when the widened run is still full",
			unix: true,
			steps: []step{
				{width: 30, size: 4, offset: 0, restarted: true},
				{width: 40, size: 8, offset: 0, restarted: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p packState
			for i, s := range tt.steps {
				offset, restarted, _ := p.advance(s.width, s.size, tt.unix)
				assert.Equal(t, s.offset, offset, "step %d offset", i)
				assert.Equal(t, s.restarted, restarted, "step %d restart", i)
			}
		})
	}
}

// polymorphicDoc declares a base with three virtual methods and a derived
// record adding one, each with a bitfield of its own
const polymorphicDoc = `
kind: TranslationUnitDecl
inner:
  - kind: CXXRecordDecl
    name: Stream
    tagUsed: struct
    inner:
      - {kind: FieldDecl, name: mode, isBitfield: true, bitWidth: 4, type: {kind: Builtin, builtin: UInt, spelling: unsigned int}}
      - {kind: CXXMethodDecl, name: Open, isVirtual: true, type: {kind: FunctionProto, result: {kind: Builtin, builtin: Void, spelling: void}}}
      - {kind: CXXMethodDecl, name: Read, isVirtual: true, type: {kind: FunctionProto, result: {kind: Builtin, builtin: Void, spelling: void}}}
      - {kind: CXXMethodDecl, name: Close, isVirtual: true, type: {kind: FunctionProto, result: {kind: Builtin, builtin: Void, spelling: void}}}
  - kind: CXXRecordDecl
    name: FileStream
    tagUsed: struct
    bases:
      - type: {kind: Record, spelling: Stream, decl: Stream}
    inner:
      - {kind: FieldDecl, name: flags, isBitfield: true, bitWidth: 4, type: {kind: Builtin, builtin: UInt, spelling: unsigned int}}
      - {kind: CXXMethodDecl, name: Flush, isVirtual: true, type: {kind: FunctionProto, result: {kind: Builtin, builtin: Void, spelling: void}}}
`

func TestVtblInheritedSlots(t *testing.T) {
	g, bag := generateYAML(t, polymorphicDoc, testOptions())
	got := text(t, g, "FileStream")

	assert.Contains(t, got, "public void** lpVtbl;")
	assert.NotContains(t, got, "public Stream Base;", "a polymorphic base is inlined")
	for _, want := range []string{
		"public delegate void _Open(FileStream* pThis);",
		"public delegate void _Flush(FileStream* pThis);",
		"Marshal.GetDelegateForFunctionPointer<_Open>((IntPtr)(lpVtbl[0]))((FileStream*)Unsafe.AsPointer(ref this));",
		"Marshal.GetDelegateForFunctionPointer<_Read>((IntPtr)(lpVtbl[1]))((FileStream*)Unsafe.AsPointer(ref this));",
		"Marshal.GetDelegateForFunctionPointer<_Close>((IntPtr)(lpVtbl[2]))((FileStream*)Unsafe.AsPointer(ref this));",
		"Marshal.GetDelegateForFunctionPointer<_Flush>((IntPtr)(lpVtbl[3]))((FileStream*)Unsafe.AsPointer(ref this));",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "lpVtbl[4]")

	base := text(t, g, "Stream")
	assert.Contains(t, base, "(lpVtbl[2])")
	assert.NotContains(t, base, "lpVtbl[3]")
	assert.False(t, bag.HasErrors())
}

func TestInlinedBaseBitfieldsGetDistinctNames(t *testing.T) {
	g, _ := generateYAML(t, polymorphicDoc, testOptions())

	derived := text(t, g, "FileStream")
	assert.Equal(t, 1, strings.Count(derived, "public uint _bitfield1;"))
	assert.Equal(t, 1, strings.Count(derived, "public uint _bitfield2;"))
	assert.NotContains(t, derived, "public uint _bitfield;")
	assert.Contains(t, derived, "return _bitfield1 & 0xFu;")
	assert.Contains(t, derived, "return _bitfield2 & 0xFu;")

	// The base on its own has a single backing field
	assert.Contains(t, text(t, g, "Stream"), "public uint _bitfield;")
}

func TestAnonymousMembersFlattened(t *testing.T) {
	g, bag := generateYAML(t, `
kind: TranslationUnitDecl
inner:
  - kind: RecordDecl
    name: Variant
    tagUsed: struct
    inner:
      - {kind: FieldDecl, name: kind, type: {kind: Builtin, builtin: Int, spelling: int}}
      - id: "0x10"
        kind: RecordDecl
        tagUsed: union
        isDefinition: true
        inner:
          - {kind: FieldDecl, name: i, type: {kind: Builtin, builtin: Int, spelling: int}}
          - {kind: FieldDecl, name: p, type: {kind: Pointer, spelling: "void *", pointee: {kind: Builtin, builtin: Void, spelling: void}}}
          - id: "0x11"
            kind: RecordDecl
            tagUsed: struct
            isDefinition: true
            inner:
              - {kind: FieldDecl, name: lo, type: {kind: Builtin, builtin: Short, spelling: short}}
              - {kind: FieldDecl, name: hi, type: {kind: Builtin, builtin: Short, spelling: short}}
          - {kind: FieldDecl, type: {kind: Record, decl: "0x11"}}
      - {kind: FieldDecl, type: {kind: Record, decl: "0x10"}}
`, testOptions())
	got := text(t, g, "Variant")

	for _, want := range []string{
		"partial struct _Anonymous_e__Union",
		"partial struct _Anonymous_e__Struct",
		"public _Anonymous_e__Union Anonymous;",
		"public ref int i",
		"return ref MemoryMarshal.GetReference(MemoryMarshal.CreateSpan(ref Anonymous.i, 1));",
		"public ref short lo",
		"return ref MemoryMarshal.GetReference(MemoryMarshal.CreateSpan(ref Anonymous.Anonymous.hi, 1));",
		"public ref void* p",
		"fixed (_Anonymous_e__Union* pField = &Anonymous)",
		"return ref pField->p;",
	} {
		assert.Contains(t, got, want)
	}
	assert.False(t, bag.HasErrors())

	starts, ends := mustGet(t, g, "Variant").BlockCounts()
	assert.Equal(t, starts, ends)
}

func TestFixedBufferWrappers(t *testing.T) {
	g, _ := generateYAML(t, `
kind: TranslationUnitDecl
inner:
  - kind: RecordDecl
    name: Point
    tagUsed: struct
    inner:
      - {kind: FieldDecl, name: x, type: {kind: Builtin, builtin: Int, spelling: int}}
      - {kind: FieldDecl, name: y, type: {kind: Builtin, builtin: Int, spelling: int}}
  - kind: RecordDecl
    name: Shape
    tagUsed: struct
    inner:
      - {kind: FieldDecl, name: ids, type: {kind: ConstantArray, spelling: "int[4]", size: 4, element: {kind: Builtin, builtin: Int, spelling: int}}}
      - {kind: FieldDecl, name: pts, type: {kind: ConstantArray, spelling: "Point[2]", size: 2, element: {kind: Record, spelling: Point, decl: Point}}}
`, testOptions())
	got := text(t, g, "Shape")

	for _, want := range []string{
		"public fixed int ids[4];",
		"public _pts_e__FixedBuffer pts;",
		"public unsafe partial struct _pts_e__FixedBuffer",
		"public Point e0;",
		"public Point e1;",
		"public ref Point this[int index]",
		"return ref ((Point*)Unsafe.AsPointer(ref this))[index];",
		"public Span<Point> AsSpan() => MemoryMarshal.CreateSpan(ref e0, 2);",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "_ids_e__FixedBuffer", "primitive arrays use fixed buffers")
}

func TestImportEntryPoint(t *testing.T) {
	proto := "type: {kind: FunctionProto, result: {kind: Builtin, builtin: Int, spelling: int}}"
	tests := []struct {
		name   string
		decl   string
		prefix string
		want   string
		entry  bool
	}{
		{name: "same name", decl: "{kind: FunctionDecl, name: acme_open, " + proto + "}", want: "public static extern int acme_open();"},
		{name: "prefix stripped", decl: "{kind: FunctionDecl, name: acme_open, " + proto + "}", prefix: "acme_", want: "public static extern int open();", entry: true},
		{name: "escaped keyword", decl: "{kind: FunctionDecl, name: lock, " + proto + "}", want: "public static extern int @lock();"},
		{name: "mangled", decl: "{kind: FunctionDecl, name: open, mangledName: _Z4openv, " + proto + "}", want: "public static extern int open();", entry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.MethodPrefixToStrip = tt.prefix
			g, _ := generateYAML(t, "kind: TranslationUnitDecl\ninner:\n  - "+tt.decl+"\n", opts)
			lines := contents(t, g, "Methods")
			require.Len(t, lines, 2)
			assert.Equal(t, "    "+tt.want, lines[1])
			assert.Equal(t, tt.entry, strings.Contains(lines[0], "EntryPoint = "), lines[0])
		})
	}
}
