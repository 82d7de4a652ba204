package generator

import (
	"fmt"
	"strings"

	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/logger"
)

const (
	usingSystem   = "System"
	usingInterop  = "System.Runtime.InteropServices"
	usingCompiler = "System.Runtime.CompilerServices"
)

// run is the state of one Generate call
type run struct {
	*Generator
	ctx visitContext

	// macroDefs indexes object-like macro definitions by name
	macroDefs map[string]*ast.Node
	// macroVars holds the names captured macros were re-declared under
	macroVars map[string]bool
	// visitedFiles records files seen while logging is enabled
	visitedFiles map[string]bool
	// functions maps a function signature key to the declaration bound for it
	functions map[string]*ast.Node
}

func newRun(g *Generator) *run {
	return &run{
		Generator:    g,
		macroDefs:    make(map[string]*ast.Node),
		macroVars:    make(map[string]bool),
		visitedFiles: make(map[string]bool),
		functions:    make(map[string]*ast.Node),
	}
}

// index records macro definitions, captured macro variables and the
// declaration chosen for each function: the definition when there is one,
// else the first declaration.
func (r *run) index(tu *ast.Node) {
	ast.Walk(tu, func(n *ast.Node) bool {
		switch {
		case n.Is(ast.MacroDefinitionRecord) && !n.IsFunctionLike:
			r.macroDefs[n.Name] = n
		case n.Is(ast.VarDecl) && strings.HasPrefix(n.Name, macroVarPrefix):
			r.macroVars[strings.TrimPrefix(n.Name, macroVarPrefix)] = true
		case n.IsFunction():
			key := functionKey(n)
			if prev, ok := r.functions[key]; !ok || (!prev.HasBody() && n.HasBody()) {
				r.functions[key] = n
			}
		}
		return !n.IsStmt()
	})
}

func functionKey(n *ast.Node) string {
	return fmt.Sprintf("%s/%s/%d", n.Kind, n.QualifiedName(), len(n.Params()))
}

// report sends a diagnostic located at n
func (r *run) report(level diag.Level, n *ast.Node, format string, args ...any) {
	d, err := diag.New(level, fmt.Sprintf(format, args...), n.Location())
	if err != nil {
		r.log.Debugw("Dropped diagnostic", logger.FieldError, err)
		return
	}
	r.sink.Report(d)
}

// createEmitter registers a new output. A name collision is fatal.
func (r *run) createEmitter(name string, isTest bool) *emitter.Emitter {
	out, err := r.registry.Create(name, isTest)
	if err != nil {
		panic(errors.Mark(errors.Wrapf(err, "cannot create output %q", name), errors.ErrInvariant))
	}
	return out
}

// methods returns the method container, creating it on first use. Its
// contents start one level in; the class wrapper is added at render time.
func (r *run) methods() *emitter.Emitter {
	if out, ok := r.registry.TryGet(r.opts.MethodClassName); ok {
		return out
	}
	out := r.createEmitter(r.opts.MethodClassName, false)
	out.IncreaseIndentation()
	return out
}

func (r *run) isMethods(out *emitter.Emitter) bool {
	return out != nil && !out.IsTestOutput() && out.Name() == r.opts.MethodClassName
}

// noteUnsafe marks the method container unsafe when a member written to it
// needs pointers
func (r *run) noteUnsafe(out *emitter.Emitter, typeNames ...string) {
	if !r.isMethods(out) {
		return
	}
	for _, name := range typeNames {
		if isUnsafeType(name) {
			r.methodsUnsafe = true
			return
		}
	}
}

// finish checks that every output closed all of its scopes
func (r *run) finish() {
	for out := range r.registry.All() {
		starts, ends := out.BlockCounts()
		base := 0
		if r.isMethods(out) {
			base = 1
		}
		if starts != ends || out.Indentation() != base {
			panic(errors.Invariantf("output %q left unbalanced: %d opened, %d closed, indentation %d",
				out.Name(), starts, ends, out.Indentation()))
		}
		if out.Pending() != "" {
			out.WriteNewline()
		}
	}
	if r.opts.LogVisitedFiles {
		for file := range r.visitedFiles {
			r.log.Infow("Visited file", logger.FieldFile, file)
		}
	}
}

// writeAttributes writes the policy's extra attributes for a declaration
func (r *run) writeAttributes(out *emitter.Emitter, n *ast.Node) {
	for _, attr := range r.policy.Attributes(r.cursorName(n)) {
		out.WriteIndentedLine("[" + attr + "]")
	}
	for _, u := range r.policy.Usings(r.cursorName(n)) {
		out.AddUsingDirective(u)
	}
}

// writeNativeTypeName writes a NativeTypeName attribute line when needed
func writeNativeTypeName(out *emitter.Emitter, t *ast.Type, csName string) {
	if native := nativeTypeAttr(t, csName); native != "" {
		out.WriteIndentedLine(fmt.Sprintf("[NativeTypeName(%s)]", quote(native)))
	}
}

// nativeTypeNamePrefix is the inline form used on parameters
func nativeTypeNamePrefix(t *ast.Type, csName string) string {
	if native := nativeTypeAttr(t, csName); native != "" {
		return fmt.Sprintf("[NativeTypeName(%s)] ", quote(native))
	}
	return ""
}

// startMember separates consecutive members with one blank line
func startMember(out *emitter.Emitter) {
	out.WriteNewlineIfNeeded()
}

// endMember queues the blank line that separates the next member
func endMember(out *emitter.Emitter) {
	out.SetNeedsNewline(true)
}
