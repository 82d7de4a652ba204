// Package emitter buffers generated C# source for one output unit.
//
// An Emitter is a line-buffered writer with an indentation depth and two
// pending-punctuation flags. Text goes into the current line until a newline
// is requested, at which point the line is committed. Emitters are not safe
// for concurrent use; the generator owns them during traversal.
package emitter

import (
	"slices"
	"strings"

	"github.com/teranos/pinvokegen/errors"
)

// IndentUnit is written once per nesting level
const IndentUnit = "    "

const staticPrefix = "static "

// Emitter is one named unit of generated output
type Emitter struct {
	name   string
	isTest bool

	lines   []string
	current strings.Builder
	depth   int

	usings       orderedSet
	staticUsings orderedSet

	needsNewline   bool
	needsSemicolon bool

	blockStarts int
	blockEnds   int
}

// New creates an empty emitter. Names are validated by the Registry.
func New(name string, isTest bool) *Emitter {
	return &Emitter{name: name, isTest: isTest}
}

// Name returns the output unit name
func (e *Emitter) Name() string { return e.name }

// IsTestOutput reports whether the unit belongs to the generated test project
func (e *Emitter) IsTestOutput() bool { return e.isTest }

// Contents returns a copy of the committed lines
func (e *Emitter) Contents() []string { return slices.Clone(e.lines) }

// Len returns the number of committed lines
func (e *Emitter) Len() int { return len(e.lines) }

// Pending returns the uncommitted text of the current line
func (e *Emitter) Pending() string { return e.current.String() }

// Indentation returns the current nesting depth
func (e *Emitter) Indentation() int { return e.depth }

// NeedsNewline reports whether a line break is pending
func (e *Emitter) NeedsNewline() bool { return e.needsNewline }

// SetNeedsNewline sets or clears the pending line break
func (e *Emitter) SetNeedsNewline(v bool) { e.needsNewline = v }

// NeedsSemicolon reports whether a statement terminator is pending
func (e *Emitter) NeedsSemicolon() bool { return e.needsSemicolon }

// SetNeedsSemicolon sets or clears the pending statement terminator
func (e *Emitter) SetNeedsSemicolon(v bool) { e.needsSemicolon = v }

// BlockCounts returns how many scopes were opened and closed
func (e *Emitter) BlockCounts() (starts, ends int) { return e.blockStarts, e.blockEnds }

// UsingDirectives returns the non-static directives, sorted
func (e *Emitter) UsingDirectives() []string { return e.usings.sorted() }

// StaticUsingDirectives returns the static directives, sorted
func (e *Emitter) StaticUsingDirectives() []string { return e.staticUsings.sorted() }

// AddUsingDirective records a required import. Directives beginning with
// "static " are kept apart for rendering.
func (e *Emitter) AddUsingDirective(directive string) {
	if strings.HasPrefix(directive, staticPrefix) {
		e.staticUsings.add(directive)
		return
	}
	e.usings.add(directive)
}

// IncreaseIndentation nests one level deeper
func (e *Emitter) IncreaseIndentation() {
	e.depth++
}

// DecreaseIndentation leaves one nesting level. Going below zero means scope
// bookkeeping is broken and panics with an invariant error.
func (e *Emitter) DecreaseIndentation() {
	if e.depth == 0 {
		panic(errors.Invariantf("indentation underflow in emitter %q", e.name))
	}
	e.depth--
}

// Write appends text to the current line
func (e *Emitter) Write(text string) {
	e.current.WriteString(text)
}

// WriteLine appends text and commits the line
func (e *Emitter) WriteLine(text string) {
	e.Write(text)
	e.WriteNewline()
}

// WriteIndentation flushes a pending newline and writes one IndentUnit per level
func (e *Emitter) WriteIndentation() {
	e.WriteNewlineIfNeeded()
	for i := 0; i < e.depth; i++ {
		e.current.WriteString(IndentUnit)
	}
}

// WriteIndented writes indentation followed by text
func (e *Emitter) WriteIndented(text string) {
	e.WriteIndentation()
	e.Write(text)
}

// WriteIndentedLine writes indentation, text and a newline
func (e *Emitter) WriteIndentedLine(text string) {
	e.WriteIndented(text)
	e.WriteNewline()
}

// WriteNewline commits the current line
func (e *Emitter) WriteNewline() {
	e.lines = append(e.lines, e.current.String())
	e.current.Reset()
	e.needsNewline = false
}

// WriteNewlineIfNeeded commits the current line if a newline is pending
func (e *Emitter) WriteNewlineIfNeeded() {
	if e.needsNewline {
		e.WriteNewline()
	}
}

// WriteSemicolon terminates a statement and leaves a newline pending
func (e *Emitter) WriteSemicolon() {
	e.Write(";")
	e.needsSemicolon = false
	e.needsNewline = true
}

// WriteSemicolonIfNeeded terminates a statement if one is pending
func (e *Emitter) WriteSemicolonIfNeeded() {
	if e.needsSemicolon {
		e.WriteSemicolon()
	}
}

// WriteBlockStart opens a brace scope on its own line
func (e *Emitter) WriteBlockStart() {
	e.WriteIndentedLine("{")
	e.IncreaseIndentation()
	e.blockStarts++
}

// WriteBlockEnd closes a brace scope. Any punctuation queued by the last
// statement inside the scope is dropped.
func (e *Emitter) WriteBlockEnd() {
	e.needsNewline = false
	e.needsSemicolon = false
	e.DecreaseIndentation()
	e.WriteIndentedLine("}")
	e.blockEnds++
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (s *orderedSet) add(item string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}

func (s *orderedSet) sorted() []string {
	out := slices.Clone(s.items)
	slices.Sort(out)
	return out
}
