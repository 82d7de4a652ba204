package emitter

import (
	"slices"
	"strings"
)

// Unit describes one generated source file
type Unit struct {
	Header    string
	Namespace string
	Parts     []Part
}

// Part is one emitter's share of a Unit. A non-empty Wrapper is written as
// an enclosing type declaration around the emitter's lines.
type Part struct {
	Emitter *Emitter
	Wrapper string
}

// Render produces the compilation unit text: header, using block (non-static
// group then static group, each sorted), and a namespace block. A unit whose
// emitters committed no lines renders to the empty string.
func (u Unit) Render() string {
	emitters := make([]*Emitter, 0, len(u.Parts))
	empty := true
	for _, p := range u.Parts {
		if p.Emitter.Len() > 0 {
			empty = false
		}
		emitters = append(emitters, p.Emitter)
	}
	if empty {
		return ""
	}

	var sb strings.Builder
	if header := strings.TrimRight(u.Header, "\r\n"); header != "" {
		sb.WriteString(header)
		sb.WriteString("\n\n")
	}

	directives := MergeUsings(emitters...)
	for _, d := range directives {
		sb.WriteString("using ")
		sb.WriteString(d)
		sb.WriteString(";\n")
	}
	if len(directives) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("namespace ")
	sb.WriteString(u.Namespace)
	sb.WriteString("\n{\n")

	first := true
	for _, p := range u.Parts {
		if p.Emitter.Len() == 0 {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false

		if p.Wrapper != "" {
			writeIndentedLine(&sb, p.Wrapper)
			writeIndentedLine(&sb, "{")
		}
		for _, line := range p.Emitter.lines {
			writeIndentedLine(&sb, line)
		}
		if p.Wrapper != "" {
			writeIndentedLine(&sb, "}")
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func writeIndentedLine(sb *strings.Builder, line string) {
	if strings.TrimSpace(line) != "" {
		sb.WriteString(IndentUnit)
		sb.WriteString(line)
	}
	sb.WriteString("\n")
}

// MergeUsings returns the union of directives of the given emitters, sorted
// and grouped the way Render writes them
func MergeUsings(emitters ...*Emitter) []string {
	var usings, statics orderedSet
	for _, e := range emitters {
		for _, d := range e.usings.items {
			usings.add(d)
		}
		for _, d := range e.staticUsings.items {
			statics.add(d)
		}
	}
	return slices.Concat(usings.sorted(), statics.sorted())
}
