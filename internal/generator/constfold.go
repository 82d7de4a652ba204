package generator

import (
	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
)

// isConstant reports whether e can initialize a C# const
func (r *run) isConstant(e *ast.Node) bool {
	return r.constant(e, make(map[*ast.Node]bool))
}

// constant is isConstant with the variables already being evaluated, so
// self-referencing initializers terminate
func (r *run) constant(e *ast.Node, visiting map[*ast.Node]bool) bool {
	if e.IsAbsent() {
		return false
	}
	switch e.Kind {
	case ast.IntegerLiteral, ast.FloatingLiteral, ast.CharacterLiteral, ast.StringLiteral,
		ast.CXXBoolLiteralExpr, ast.CXXNullPtrLiteralExpr, ast.GNUNullExpr:
		return true

	case ast.ParenExpr, ast.ConstantExpr, ast.ExprWithCleanups:
		return r.constant(e.Child(0), visiting)

	case ast.ImplicitCastExpr, ast.CStyleCastExpr, ast.CXXStaticCastExpr, ast.CXXFunctionalCastExpr:
		if e.Kind != ast.ImplicitCastExpr && e.Type.IsPointerLike() {
			// pointer constants do not exist in C#
			return false
		}
		return r.constant(stripImplicit(e.Child(0)), visiting)

	case ast.BinaryOperator:
		return r.constant(e.Child(0), visiting) && r.constant(e.Child(1), visiting)

	case ast.UnaryOperator:
		if e.OpCode == "&" || e.OpCode == "*" || e.OpCode == "++" || e.OpCode == "--" {
			return false
		}
		return r.constant(e.Child(0), visiting)

	case ast.ConditionalOperator, ast.CallExpr, ast.CXXMemberCallExpr, ast.MemberExpr,
		ast.ArraySubscriptExpr, ast.CompoundAssignOperator, ast.InitListExpr,
		ast.CXXConstructExpr, ast.CXXTemporaryObjectExpr, ast.CXXThisExpr, ast.CXXUuidofExpr:
		return false

	case ast.CXXOperatorCallExpr:
		decl := calleeDecl(e.Child(0))
		if !decl.IsFunction() {
			return false
		}
		sym, ok := operatorSymbol(decl.Name)
		return ok && enumOperators[sym] && hasEnumOperands(decl)

	case ast.DeclRefExpr:
		d := e.RefNode
		switch {
		case d.Is(ast.EnumConstantDecl):
			return true
		case d.Is(ast.VarDecl):
			init := d.Init()
			if init == nil || visiting[d] || !declaresConst(d) {
				return false
			}
			visiting[d] = true
			return r.constant(init, visiting)
		}
		return false

	case ast.UnaryExprOrTypeTraitExpr:
		t := e.ArgType
		if t == nil {
			if sub := e.Child(0); sub != nil {
				t = sub.Type
			}
		}
		switch e.Trait {
		case "sizeof":
			return t.HasStableSize()
		case "alignof", "preferred_alignof", "__alignof":
			return t.AlignOf(false) == t.AlignOf(true)
		}
		return false
	}

	r.report(diag.Warning, e, "Unsupported statement class: '%s'. Generated bindings may not be constant.", e.Kind)
	return false
}
