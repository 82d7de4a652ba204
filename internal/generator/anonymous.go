package generator

import (
	"fmt"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// writeAnonymousAccessors surfaces the members of an anonymous struct or
// union member on the enclosing record. path is the member access from the
// record ("Anonymous", "Anonymous.Anonymous1") and typePath the matching
// nested type name.
func (r *run) writeAnonymousAccessors(out *emitter.Emitter, rec *ast.Node, path, typePath string) {
	out.AddUsingDirective(usingSystem)
	out.AddUsingDirective(usingInterop)

	for _, f := range rec.Fields() {
		if f.Name == "" {
			if nested := fieldRecord(f); nested != nil {
				r.writeAnonymousAccessors(out, nested,
					path+"."+anonymousFieldName(nested),
					typePath+"."+r.escapedName(nested))
			}
			continue
		}

		name := r.escapedName(f)
		access := accessModifier(f)
		member := path + "." + name

		startMember(out)
		r.writeComment(out, f)

		switch shape := arrayShapeOf(f.Type); {
		case f.IsBitField:
			typeName := r.typeName(f, f.Type)
			out.WriteIndentedLine(fmt.Sprintf("%s %s %s", access, typeName, name))
			out.WriteBlockStart()
			r.writeAccessor(out, "get", "return "+member+";")
			out.WriteNewline()
			r.writeAccessor(out, "set", member+" = value;")
			out.WriteBlockEnd()

		case shape != nil:
			r.writeAnonymousArray(out, f, shape, access, name, member, path, typePath)

		default:
			typeName := r.fieldTypeName(f, f.Type)
			out.WriteIndentedLine(fmt.Sprintf("%s ref %s %s", access, typeName, name))
			out.WriteBlockStart()
			r.writeRefGetter(out, typeName, member, path, typePath, name)
			out.WriteBlockEnd()
		}
		endMember(out)
	}
}

// writeRefGetter returns a reference to the member. The fixed form pins the
// record and works for pointer types, which spans cannot hold.
func (r *run) writeRefGetter(out *emitter.Emitter, typeName, member, path, typePath, name string) {
	if r.opts.AggressiveInlining {
		out.AddUsingDirective(usingCompiler)
		out.WriteIndentedLine("[MethodImpl(MethodImplOptions.AggressiveInlining)]")
	}
	out.WriteIndentedLine("get")
	out.WriteBlockStart()
	if r.opts.CompatibleCodegen || isUnsafeType(typeName) {
		out.WriteIndentedLine(fmt.Sprintf("fixed (%s* pField = &%s)", typePath, path))
		out.WriteBlockStart()
		out.WriteIndentedLine(fmt.Sprintf("return ref pField->%s;", name))
		out.WriteBlockEnd()
	} else {
		out.WriteIndentedLine(fmt.Sprintf("return ref MemoryMarshal.GetReference(MemoryMarshal.CreateSpan(ref %s, 1));", member))
	}
	out.WriteBlockEnd()
}

func (r *run) writeAnonymousArray(out *emitter.Emitter, f *ast.Node, shape *arrayShape, access, name, member, path, typePath string) {
	elem := r.fieldTypeName(f, shape.element)
	native := isFixedBufferType(elem) && !shape.incomplete

	switch {
	case native && !r.opts.CompatibleCodegen:
		out.WriteIndentedLine(fmt.Sprintf("%s Span<%s> %s", access, elem, name))
		out.WriteBlockStart()
		r.writeAccessor(out, "get", fmt.Sprintf("return MemoryMarshal.CreateSpan(ref %s[0], %d);", member, shape.count()))
		out.WriteBlockEnd()

	case native:
		out.WriteIndentedLine(fmt.Sprintf("%s %s* %s", access, elem, name))
		out.WriteBlockStart()
		out.WriteIndentedLine("get")
		out.WriteBlockStart()
		out.WriteIndentedLine(fmt.Sprintf("fixed (%s* pField = &%s)", typePath, path))
		out.WriteBlockStart()
		out.WriteIndentedLine(fmt.Sprintf("return pField->%s;", name))
		out.WriteBlockEnd()
		out.WriteBlockEnd()
		out.WriteBlockEnd()

	case !r.opts.CompatibleCodegen && !isUnsafeType(elem) && !shape.incomplete:
		out.WriteIndentedLine(fmt.Sprintf("%s Span<%s> %s", access, elem, name))
		out.WriteBlockStart()
		r.writeAccessor(out, "get", "return "+member+".AsSpan();")
		out.WriteBlockEnd()

	default:
		wrapper := typePath + "." + fixedBufferName(r.cursorName(f))
		out.WriteIndentedLine(fmt.Sprintf("%s ref %s %s", access, wrapper, name))
		out.WriteBlockStart()
		r.writeRefGetter(out, wrapper, member, path, typePath, name)
		out.WriteBlockEnd()
	}
}
