package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/emitter"
)

func TestIntegerLiteral(t *testing.T) {
	tests := []struct {
		spelling string
		windows  string
		unix     string
	}{
		{"10", "10", "10"},
		{"0x1F", "0x1F", "0x1F"},
		{"10u", "10U", "10U"},
		{"10l", "10", "10L"},
		{"10L", "10", "10L"},
		{"10ul", "10U", "10UL"},
		{"10LU", "10U", "10UL"},
		{"10ll", "10L", "10L"},
		{"10ULL", "10UL", "10UL"},
		{"10i64", "10L", "10L"},
		{"10ui64", "10UL", "10UL"},
		{"10i32", "10", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			assert.Equal(t, tt.windows, integerLiteral(tt.spelling, false))
			assert.Equal(t, tt.unix, integerLiteral(tt.spelling, true))
		})
	}
}

func TestFloatLiteral(t *testing.T) {
	tests := map[string]string{
		"1.5":   "1.5",
		"1.f":   "1.0f",
		"1.":    "1.0",
		"1.0L":  "1.0",
		"2.5f":  "2.5f",
		"1e10":  "1e10",
		"0x1p3": "0x1p3",
	}
	for in, want := range tests {
		assert.Equal(t, want, floatLiteral(in), in)
	}
}

func TestCharLiteral(t *testing.T) {
	tests := []struct {
		name         string
		kind         string
		value        int64
		unix         bool
		parentIsCast bool
		want         string
	}{
		{"narrow", charAscii, 'a', false, false, "(byte)('a')"},
		{"narrow under cast", charAscii, 'a', false, true, "'a'"},
		{"narrow escape", charAscii, '\n', false, true, `'\n'`},
		{"narrow wide value", charAscii, 0x1234, false, false, "0x1234"},
		{"wide on windows", charWide, 'x', false, false, "'x'"},
		{"wide on unix", charWide, 'x', true, false, "0x00000078"},
		{"utf16 astral", charUTF16, 0x1F600, false, false, "0x0001F600"},
		{"utf32", charUTF32, 'x', false, false, "0x00000078"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := charLiteral(tt.kind, tt.value, tt.unix, tt.parentIsCast)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := charLiteral("ucs2", 'a', false, false)
	assert.False(t, ok)
}

func TestDecodeStringLiteral(t *testing.T) {
	tests := []struct {
		name  string
		value string
		kind  string
		wide  bool
		text  string
	}{
		{"plain", `"abc"`, "", false, "abc"},
		{"escapes", `"a\tb\n"`, "", false, "a\tb\n"},
		{"hex escape", `"\x41\x42"`, "", false, "AB"},
		{"octal escape", `"\101\0"`, "", false, "A\x00"},
		{"concatenated", `"ab" "cd"`, "", false, "abcd"},
		{"wide prefix", `L"wide"`, "", true, "wide"},
		{"utf16 kind", `u"x"`, charUTF16, true, "x"},
		{"universal", `"é"`, "", false, "é"},
		{"predecoded", "already", charAscii, false, "already"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := decodeStringLiteral(&ast.Node{Kind: ast.StringLiteral, Value: tt.value, CharKind: tt.kind})
			assert.Equal(t, tt.wide, s.wide)
			assert.Equal(t, tt.text, s.text)
		})
	}
}

func TestStringConstants(t *testing.T) {
	assert.Equal(t, `"a\"b\\c"`, quote(`a"b\c`))
	assert.Equal(t, "new byte[] { 0x68, 0x69, 0x00 }", byteArray([]byte("hi")))
}

func TestJoinTokens(t *testing.T) {
	tokens := []ast.Token{
		{Kind: "punctuation", Spelling: "("},
		{Kind: "identifier", Spelling: "unsigned"},
		{Kind: "keyword", Spelling: "int"},
		{Kind: "punctuation", Spelling: ")"},
		{Kind: "literal", Spelling: "1"},
		{Kind: "punctuation", Spelling: "<<"},
		{Kind: "literal", Spelling: "3"},
	}
	assert.Equal(t, "(unsigned int)1<<3", joinTokens(tokens))
}

func TestIsSimpleLiteral(t *testing.T) {
	lit := ast.Token{Kind: "literal", Spelling: "1"}
	minus := ast.Token{Kind: "punctuation", Spelling: "-"}
	plus := ast.Token{Kind: "punctuation", Spelling: "+"}

	assert.True(t, isSimpleLiteral([]ast.Token{lit}))
	assert.True(t, isSimpleLiteral([]ast.Token{minus, lit}))
	assert.False(t, isSimpleLiteral([]ast.Token{plus, lit}))
	assert.False(t, isSimpleLiteral([]ast.Token{lit, plus, lit}))
	assert.False(t, isSimpleLiteral([]ast.Token{{Kind: "identifier", Spelling: "X"}}))
}

func TestMacroLiteralNegation(t *testing.T) {
	g, _ := newTestGenerator(t, testOptions())
	r := newRun(g)
	out := emitter.New("Methods", false)

	neg := macroLiteral([]ast.Token{{Kind: "punctuation", Spelling: "-"}, {Kind: "literal", Spelling: "5"}})
	if assert.NotNil(t, neg) {
		assert.Equal(t, ast.UnaryOperator, neg.Kind)
		assert.Equal(t, "-5", r.exprString(out, neg))
		assert.True(t, r.isConstant(neg))
	}

	assert.Nil(t, macroLiteral([]ast.Token{{Kind: "punctuation", Spelling: "-"}, {Kind: "literal", Spelling: `"s"`}}))
}
