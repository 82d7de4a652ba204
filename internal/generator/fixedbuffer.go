package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// fixedBufferTypes are the element types C# allows in fixed-size buffers
var fixedBufferTypes = map[string]bool{
	"bool": true, "byte": true, "char": true, "short": true, "int": true, "long": true,
	"sbyte": true, "ushort": true, "uint": true, "ulong": true, "float": true, "double": true,
}

func isFixedBufferType(name string) bool { return fixedBufferTypes[name] }

func fixedBufferName(field string) string {
	return "_" + field + "_e__FixedBuffer"
}

// arrayShape describes a possibly multi-dimensional array type
type arrayShape struct {
	element    *ast.Type
	dims       []int64
	incomplete bool
}

// arrayShapeOf returns the shape of an array type, or nil
func arrayShapeOf(t *ast.Type) *arrayShape {
	var shape arrayShape
	for {
		c := t.Canonical()
		if c == nil {
			break
		}
		if c.Kind == ast.IncompleteArrayType && len(shape.dims) == 0 && !shape.incomplete {
			shape.incomplete = true
			t = c.Element
			continue
		}
		if c.Kind != ast.ConstantArrayType {
			break
		}
		shape.dims = append(shape.dims, c.ArraySize)
		t = c.Element
	}
	if len(shape.dims) == 0 && !shape.incomplete {
		return nil
	}
	shape.element = t
	return &shape
}

// count is the number of elements; a flexible array member counts as one
func (s *arrayShape) count() int64 {
	n := int64(1)
	for _, d := range s.dims {
		n *= d
	}
	return n
}

func (s *arrayShape) dimsExpr() string {
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return strings.Join(parts, " * ")
}

// elementNames names the wrapper's elements e0, e1 or, for several
// dimensions, e0_0, e0_1, ... in row-major order
func (s *arrayShape) elementNames() []string {
	dims := s.dims
	if len(dims) == 0 {
		dims = []int64{1}
	}
	total := s.count()
	names := make([]string, 0, total)
	idx := make([]int64, len(dims))
	for i := int64(0); i < total; i++ {
		parts := make([]string, len(idx))
		for j, v := range idx {
			parts[j] = strconv.FormatInt(v, 10)
		}
		names = append(names, "e"+strings.Join(parts, "_"))
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < dims[j] {
				break
			}
			idx[j] = 0
		}
	}
	return names
}

// writeFixedBuffer declares the wrapper type for an array field that cannot
// be a C# fixed buffer
func (r *run) writeFixedBuffer(out *emitter.Emitter, f *ast.Node) {
	shape := arrayShapeOf(f.Type)
	if shape == nil || f.IsBitField {
		return
	}
	elem := r.fieldTypeName(f, shape.element)
	if isFixedBufferType(elem) && !shape.incomplete {
		return
	}
	pointerElem := isUnsafeType(elem)

	out.AddUsingDirective(usingSystem)
	out.AddUsingDirective(usingInterop)
	out.AddUsingDirective(usingCompiler)

	startMember(out)
	out.WriteIndentedLine(accessModifier(f) + " unsafe partial struct " + fixedBufferName(r.cursorName(f)))
	out.WriteBlockStart()

	rowLen := int64(1)
	if len(shape.dims) > 1 {
		rowLen = shape.dims[len(shape.dims)-1]
	}
	for i, name := range shape.elementNames() {
		if len(shape.dims) > 1 && i > 0 && int64(i)%rowLen == 0 {
			out.WriteNewline()
		}
		out.WriteIndentedLine("public " + elem + " " + name + ";")
	}
	out.WriteNewline()

	out.WriteIndentedLine("public ref " + elem + " this[int index]")
	out.WriteBlockStart()
	if r.opts.AggressiveInlining {
		out.WriteIndentedLine("[MethodImpl(MethodImplOptions.AggressiveInlining)]")
	}
	out.WriteIndentedLine("get")
	out.WriteBlockStart()
	if r.opts.CompatibleCodegen {
		out.WriteIndentedLine(fmt.Sprintf("fixed (%s* pThis = &e0)", elem))
		out.WriteBlockStart()
		out.WriteIndentedLine("return ref pThis[index];")
		out.WriteBlockEnd()
	} else {
		out.WriteIndentedLine(fmt.Sprintf("return ref ((%s*)Unsafe.AsPointer(ref this))[index];", elem))
	}
	out.WriteBlockEnd()
	out.WriteBlockEnd()

	if !r.opts.CompatibleCodegen && !pointerElem {
		out.WriteNewline()
		if r.opts.AggressiveInlining {
			out.WriteIndentedLine("[MethodImpl(MethodImplOptions.AggressiveInlining)]")
		}
		if shape.incomplete {
			out.WriteIndentedLine(fmt.Sprintf("public Span<%s> AsSpan(int length) => MemoryMarshal.CreateSpan(ref e0, length);", elem))
		} else {
			out.WriteIndentedLine(fmt.Sprintf("public Span<%s> AsSpan() => MemoryMarshal.CreateSpan(ref e0, %d);", elem, shape.count()))
		}
	}

	out.WriteBlockEnd()
	endMember(out)
}
