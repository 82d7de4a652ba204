package generator

import (
	"strconv"
	"strings"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
)

// visitPreprocessing handles macro definitions, expansions and inclusion
// directives. Nothing is emitted unless macro bindings are enabled.
func (r *run) visitPreprocessing(n *ast.Node) {
	if !r.opts.MacroBindings {
		return
	}

	switch n.Kind {
	case ast.MacroExpansion, ast.InclusionDirective:
		// Not bound
	case ast.MacroDefinitionRecord:
		r.visitMacroDefinition(n)
	default:
		r.report(diag.Error, n, "Unsupported preprocessing entity: '%s'. Generated bindings may be incomplete.", n.Kind)
	}
}

func (r *run) visitMacroDefinition(n *ast.Node) {
	if r.policy.IsExcluded(n) {
		return
	}
	if n.IsFunctionLike {
		r.report(diag.Warning, n, "Function like macro definition records are not supported: '%s'. Generated bindings may be incomplete.", n.Name)
		return
	}
	if len(n.Tokens) == 0 || n.Tokens[0].Spelling != n.Name {
		r.report(diag.Error, n, "Unsupported macro definition record: %s. Generated bindings may be incomplete.", n.Name)
		return
	}
	if len(n.Tokens) == 1 {
		// #define X with no value
		return
	}

	value := joinTokens(n.Tokens[1:])
	r.macros.WriteString("\nconst auto " + macroVarPrefix + n.Name + " = " + value + ";\n")

	// A second front-end pass re-declares the macro as a typed variable;
	// without one, bind what can be evaluated here.
	if r.macroVars[n.Name] {
		return
	}
	init, synthesized := n.Init(), false
	if init == nil {
		init, synthesized = macroLiteral(n.Tokens[1:]), true
	}
	if init == nil {
		return
	}

	defer r.ctx.push(n)()
	v := &ast.Node{
		Kind:   ast.VarDecl,
		Name:   macroVarPrefix + n.Name,
		Loc:    n.Loc,
		Type:   init.Type,
		Inner:  []*ast.Node{init},
		Parent: n.Parent,
	}
	if synthesized {
		init.Parent = v
	}
	defer r.ctx.push(v)()
	r.visitGlobalVar(r.methods(), v)
}

// macroLiteral builds a typed literal expression from a macro body made of
// one literal token, optionally negated. Anything else yields nil.
func macroLiteral(tokens []ast.Token) *ast.Node {
	if !isSimpleLiteral(tokens) {
		return nil
	}
	negate := len(tokens) == 2
	lit := literalNode(tokens[len(tokens)-1].Spelling)
	if lit == nil {
		return nil
	}
	if !negate {
		return lit
	}
	if lit.Is(ast.StringLiteral, ast.CharacterLiteral) {
		return nil
	}
	neg := &ast.Node{Kind: ast.UnaryOperator, OpCode: "-", Type: lit.Type, Inner: []*ast.Node{lit}}
	lit.Parent = neg
	return neg
}

// literalNode classifies one literal token the way the front-end would type
// it: strings, characters, floating and integer constants with their
// suffixes.
func literalNode(spelling string) *ast.Node {
	switch {
	case spelling == "":
		return nil
	case strings.HasSuffix(spelling, `"`):
		t := &ast.Type{Kind: ast.PointerType, Spelling: "const char *", Pointee: builtin(ast.Char_S, "char")}
		kind := prefixKind(spelling[:strings.IndexByte(spelling, '"')])
		if isWideKind(kind) {
			t.Spelling = "const wchar_t *"
			t.Pointee = builtin(ast.WChar, "wchar_t")
		}
		return &ast.Node{Kind: ast.StringLiteral, Value: spelling, CharKind: kind, Type: t}
	case strings.HasSuffix(spelling, "'"):
		kind := prefixKind(spelling[:strings.IndexByte(spelling, '\'')])
		t := builtin(ast.Char_S, "char")
		if isWideKind(kind) {
			t = builtin(ast.WChar, "wchar_t")
		}
		return &ast.Node{Kind: ast.CharacterLiteral, Value: spelling, CharKind: kind, Type: t}
	}

	lower := strings.ToLower(spelling)
	hex := strings.HasPrefix(lower, "0x")
	if !hex && strings.ContainsAny(lower, ".e") || hex && strings.Contains(lower, "p") {
		t := builtin(ast.Double, "double")
		if strings.HasSuffix(lower, "f") {
			t = builtin(ast.Float, "float")
		}
		return &ast.Node{Kind: ast.FloatingLiteral, Value: spelling, Type: t}
	}
	if lower[0] < '0' || lower[0] > '9' {
		return nil
	}
	return &ast.Node{Kind: ast.IntegerLiteral, Value: spelling, Type: integerLiteralType(lower, hex)}
}

// integerLiteralType picks the narrowest of int, long long and their
// unsigned forms that the suffix allows. Hexadecimal and octal constants
// may become unsigned without a suffix.
func integerLiteralType(lower string, hex bool) *ast.Type {
	digits := strings.TrimRight(lower, "ul")
	suffix := lower[len(digits):]
	unsigned := strings.Contains(suffix, "u")
	wide := strings.Count(suffix, "l") == 2

	value, err := strconv.ParseUint(digits, 0, 64)
	radix := hex || len(digits) > 1 && digits[0] == '0'
	switch {
	case err != nil:
		return builtin(ast.ULongLong, "unsigned long long")
	case !wide && !unsigned && value <= 0x7FFFFFFF:
		return builtin(ast.Int, "int")
	case !wide && (unsigned || radix) && value <= 0xFFFFFFFF:
		return builtin(ast.UInt, "unsigned int")
	case !unsigned && value <= 0x7FFFFFFFFFFFFFFF:
		return builtin(ast.LongLong, "long long")
	default:
		return builtin(ast.ULongLong, "unsigned long long")
	}
}

func builtin(kind ast.BuiltinKind, spelling string) *ast.Type {
	return &ast.Type{Kind: ast.BuiltinType, Builtin: kind, Spelling: spelling}
}
