package generator

import (
	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
)

// Statement children are positional:
//
//	IfStmt      cond, then[, else]
//	WhileStmt   cond, body
//	DoStmt      body, cond
//	ForStmt     init, cond, inc, body (absent parts are empty nodes)
//	SwitchStmt  cond, body
//	CaseStmt    value, sub
//	DefaultStmt sub
//	LabelStmt   sub
//	ReturnStmt  [value]

// visitStmt dispatches statements and expressions. The caller positions the
// output; statements that own lines write them completely.
func (r *run) visitStmt(out *emitter.Emitter, n *ast.Node) {
	if n.IsExpr() {
		r.visitExpr(out, n)
		return
	}
	defer r.ctx.push(n)()

	switch n.Kind {
	case ast.CompoundStmt:
		out.WriteBlockStart()
		r.visitStmts(out, n.Inner)
		out.WriteSemicolonIfNeeded()
		out.WriteNewlineIfNeeded()
		out.WriteBlockEnd()

	case ast.NullStmt:
		// The pending semicolon is the whole statement

	case ast.DeclStmt:
		r.visitDeclStmt(out, n)

	case ast.ReturnStmt:
		value := n.Child(0)
		switch {
		case value == nil:
			out.Write("return")
		case r.returnsVoid():
			// "return f();" in a void function keeps only the call
			r.visitExpr(out, value)
		default:
			out.Write("return ")
			r.visitExpr(out, value)
		}

	case ast.BreakStmt:
		out.Write("break")

	case ast.ContinueStmt:
		out.Write("continue")

	case ast.GotoStmt:
		label := n.Name
		if n.RefNode != nil {
			label = n.RefNode.Name
		}
		out.Write("goto " + label)

	case ast.LabelStmt:
		out.WriteLine(n.Name + ":")
		if sub := n.Child(0); sub != nil {
			r.emitStmt(out, sub)
		}

	case ast.IfStmt:
		r.visitIf(out, n)

	case ast.WhileStmt:
		out.Write("while (")
		r.visitExpr(out, n.Child(0))
		out.WriteLine(")")
		r.visitBody(out, n.Child(1))

	case ast.DoStmt:
		out.WriteLine("do")
		r.visitBody(out, n.Child(0))
		out.WriteIndented("while (")
		r.visitExpr(out, n.Child(1))
		out.Write(")")
		out.WriteSemicolon()
		out.WriteNewline()
		out.SetNeedsNewline(true)

	case ast.ForStmt:
		r.visitFor(out, n)

	case ast.SwitchStmt:
		out.Write("switch (")
		r.visitExpr(out, n.Child(0))
		out.WriteLine(")")
		r.visitBody(out, n.Child(1))

	case ast.CaseStmt:
		out.Write("case ")
		r.visitExpr(out, n.Child(0))
		out.WriteLine(":")
		r.visitCaseBody(out, n.Child(1))

	case ast.DefaultStmt:
		out.WriteLine("default:")
		r.visitCaseBody(out, n.Child(0))

	case ast.AttributedStmt:
		if sub := n.Child(len(n.Inner) - 1); sub != nil {
			r.visitStmt(out, sub)
		}

	default:
		r.reportUnsupportedStmt(n)
	}
}

func (r *run) reportUnsupportedStmt(n *ast.Node) {
	for i := 1; i < r.ctx.depth(); i++ {
		if d := r.ctx.ancestor(i); d.IsDecl() && d.Name != "" {
			r.report(diag.Error, n, "Unsupported statement: '%s' in %s. Generated bindings may be incomplete.", n.Kind, d.QualifiedName())
			return
		}
	}
	r.report(diag.Error, n, "Unsupported statement: '%s'. Generated bindings may be incomplete.", n.Kind)
}

// returnsVoid reports whether the enclosing function returns nothing
func (r *run) returnsVoid() bool {
	fn := r.ctx.nearest(ast.FunctionDecl, ast.CXXMethodDecl, ast.CXXConstructorDecl, ast.CXXDestructorDecl, ast.CXXConversionDecl)
	if fn == nil {
		return false
	}
	if fn.Is(ast.CXXConstructorDecl, ast.CXXDestructorDecl) {
		return true
	}
	result := signatureOf(fn).Result
	return result == nil || result.IsBuiltin(ast.Void)
}

// emitStmt writes one statement on its own line(s), terminating it with a
// semicolon unless it closed a scope
func (r *run) emitStmt(out *emitter.Emitter, n *ast.Node) {
	if n.Is(ast.CompoundStmt) {
		r.visitStmt(out, n)
		return
	}
	out.WriteIndentation()
	out.SetNeedsSemicolon(true)
	r.visitStmt(out, n)
	out.WriteSemicolonIfNeeded()
	out.WriteNewlineIfNeeded()
}

// visitStmts writes a statement list. A blank line separates a run of
// declarations from the statements that follow it.
func (r *run) visitStmts(out *emitter.Emitter, stmts []*ast.Node) {
	var previous *ast.Node
	for _, s := range stmts {
		if s.IsAbsent() {
			continue
		}
		if previous.Is(ast.DeclStmt) && !s.Is(ast.DeclStmt) {
			out.SetNeedsNewline(true)
		}
		r.emitStmt(out, s)
		previous = s
	}
}

// visitBody writes a loop or branch body, wrapping a lone statement in a
// scope of its own
func (r *run) visitBody(out *emitter.Emitter, n *ast.Node) {
	if n == nil {
		out.WriteBlockStart()
		out.WriteBlockEnd()
		return
	}
	if n.Is(ast.CompoundStmt) {
		r.visitStmt(out, n)
		return
	}
	out.WriteBlockStart()
	r.emitStmt(out, n)
	out.WriteBlockEnd()
}

// visitCaseBody keeps stacked labels at one level
func (r *run) visitCaseBody(out *emitter.Emitter, n *ast.Node) {
	if n.Is(ast.CaseStmt, ast.DefaultStmt) {
		r.emitStmt(out, n)
		return
	}
	r.visitBody(out, n)
}

func (r *run) visitIf(out *emitter.Emitter, n *ast.Node) {
	out.Write("if (")
	r.visitExpr(out, n.Child(0))
	out.WriteLine(")")
	r.visitBody(out, n.Child(1))

	elseStmt := n.Child(2)
	if elseStmt == nil {
		return
	}
	if elseStmt.Is(ast.IfStmt) {
		out.WriteIndented("else ")
		r.visitStmt(out, elseStmt)
		return
	}
	out.WriteIndentedLine("else")
	r.visitBody(out, elseStmt)
}

func (r *run) visitFor(out *emitter.Emitter, n *ast.Node) {
	// clang's five-child form carries a condition variable slot
	init, cond, inc, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)
	if len(n.Inner) == 5 {
		cond, inc, body = n.Child(2), n.Child(3), n.Child(4)
	}

	out.Write("for (")
	if init != nil {
		r.visitStmt(out, init)
	}
	out.Write(";")
	if cond != nil {
		out.Write(" ")
		r.visitExpr(out, cond)
	}
	out.Write(";")
	if inc != nil {
		out.Write(" ")
		r.visitExpr(out, inc)
	}
	out.WriteLine(")")
	r.visitBody(out, body)
}

// visitDeclStmt writes local variables. Only the first declaration spells
// the type.
func (r *run) visitDeclStmt(out *emitter.Emitter, n *ast.Node) {
	for i, d := range n.Inner {
		if !d.Is(ast.VarDecl) {
			r.report(diag.Error, d, "Unsupported declaration: '%s'. Generated bindings may be incomplete.", d.Kind)
			continue
		}
		func() {
			defer r.ctx.push(d)()
			if i == 0 {
				typeName := r.typeName(d, d.Type)
				if arrayShapeOf(d.Type) != nil {
					typeName += "[]"
				}
				out.Write(typeName + " ")
			} else {
				out.Write(", ")
			}
			out.Write(r.escapedName(d))
			if init := d.Init(); init != nil {
				out.Write(" = ")
				r.visitExpr(out, init)
			}
		}()
	}
}
