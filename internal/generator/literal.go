package generator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/teranos/pinvokegen/internal/ast"
)

// Character kinds as spelled by the front-end
const (
	charAscii = "ascii"
	charUTF8  = "utf8"
	charWide  = "wide"
	charUTF16 = "utf16"
	charUTF32 = "utf32"
)

// integerSuffixes maps lower-cased C suffixes onto C# ones, longest first.
// Entries holding "*" depend on the Unix integer widths.
var integerSuffixes = []struct {
	c, cs string
}{
	{"ui64", "UL"},
	{"ui32", "U"},
	{"ui16", "U"},
	{"ui8", "U"},
	{"i64", "L"},
	{"i32", ""},
	{"i16", ""},
	{"i8", ""},
	{"ull", "UL"},
	{"llu", "UL"},
	{"ll", "L"},
	{"ul", "*U"},
	{"lu", "*U"},
	{"u", "U"},
	{"l", "*"},
}

// integerLiteral rewrites the suffix of an integer spelling. long is 32 bits
// wide unless unix is set. No suffix letter is a hex digit, so hex spellings
// need no special casing.
func integerLiteral(spelling string, unix bool) string {
	lower := strings.ToLower(spelling)
	for _, s := range integerSuffixes {
		if !strings.HasSuffix(lower, s.c) {
			continue
		}
		digits := spelling[:len(spelling)-len(s.c)]
		switch s.cs {
		case "*":
			if unix {
				return digits + "L"
			}
			return digits
		case "*U":
			if unix {
				return digits + "UL"
			}
			return digits + "U"
		default:
			return digits + s.cs
		}
	}
	return spelling
}

// floatLiteral completes spellings C# does not accept: "1." and "1.f"
func floatLiteral(spelling string) string {
	lower := strings.ToLower(spelling)
	switch {
	case strings.HasSuffix(lower, ".f"):
		return spelling[:len(spelling)-1] + "0f"
	case strings.HasSuffix(lower, "."):
		return spelling + "0"
	case strings.HasSuffix(lower, "l") && !strings.HasPrefix(lower, "0x"):
		// long double binds as double
		return spelling[:len(spelling)-1]
	}
	return spelling
}

// charLiteral renders a character literal. parentIsCast suppresses the
// (byte) conversion of narrow characters.
func charLiteral(kind string, value int64, unix, parentIsCast bool) (string, bool) {
	switch kind {
	case "", charAscii, charUTF8:
		switch {
		case value > 0xFFFF:
			return fmt.Sprintf("0x%08X", value), true
		case value > 0xFF:
			return fmt.Sprintf("0x%04X", value), true
		case parentIsCast:
			return "'" + escapeChar(rune(value)) + "'", true
		default:
			return "(byte)('" + escapeChar(rune(value)) + "')", true
		}
	case charWide:
		if unix {
			return fmt.Sprintf("0x%08X", value), true
		}
		fallthrough
	case charUTF16:
		if value > 0xFFFF {
			return fmt.Sprintf("0x%08X", value), true
		}
		return "'" + escapeChar(rune(value)) + "'", true
	case charUTF32:
		return fmt.Sprintf("0x%08X", value), true
	}
	return "", false
}

func escapeChar(c rune) string {
	switch c {
	case '\\':
		return `\\`
	case '\'':
		return `\'`
	case '"':
		return `\"`
	}
	return escapeControl(c)
}

func escapeControl(c rune) string {
	switch c {
	case 0:
		return `\0`
	case '\a':
		return `\a`
	case '\b':
		return `\b`
	case '\f':
		return `\f`
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\v':
		return `\v`
	}
	if c < 0x20 || c == 0x7F {
		return fmt.Sprintf(`\u%04X`, c)
	}
	return string(c)
}

// quote renders s as a C# regular string literal
func quote(s string) string {
	return csharpString(s)
}

// csharpString escapes s for a C# regular string literal
func csharpString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range s {
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteString(escapeControl(c))
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// byteArray renders the bytes of a narrow string with its terminator
func byteArray(b []byte) string {
	var sb strings.Builder
	sb.WriteString("new byte[] { ")
	for _, c := range b {
		fmt.Fprintf(&sb, "0x%02X, ", c)
	}
	sb.WriteString("0x00 }")
	return sb.String()
}

// stringLiteral is a decoded string literal
type stringLiteral struct {
	wide  bool
	text  string
	bytes []byte
}

// decodeStringLiteral decodes the source spelling of a string literal,
// including prefixes, adjacent-literal concatenation and escapes
func decodeStringLiteral(n *ast.Node) stringLiteral {
	spelling := strings.TrimSpace(n.Value)
	kind := n.CharKind
	if !strings.Contains(spelling, `"`) {
		// Already decoded by the front-end
		return stringLiteral{
			wide:  isWideKind(kind),
			text:  n.Value,
			bytes: []byte(n.Value),
		}
	}

	var buf []byte
	for spelling != "" {
		prefix, rest, ok := strings.Cut(spelling, `"`)
		if !ok {
			break
		}
		if kind == "" {
			kind = prefixKind(strings.TrimSpace(prefix))
		}
		body, tail := splitQuoted(rest)
		buf = append(buf, unescapeC(body)...)
		spelling = strings.TrimSpace(tail)
	}
	return stringLiteral{wide: isWideKind(kind), text: string(buf), bytes: buf}
}

func isWideKind(kind string) bool {
	return kind == charWide || kind == charUTF16 || kind == charUTF32
}

func prefixKind(prefix string) string {
	switch prefix {
	case "L":
		return charWide
	case "u":
		return charUTF16
	case "U":
		return charUTF32
	case "u8":
		return charUTF8
	}
	return charAscii
}

// splitQuoted returns the body up to the closing quote and what follows it
func splitQuoted(s string) (body, tail string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// unescapeC resolves C escape sequences into UTF-8 bytes
func unescapeC(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'v':
			out = append(out, '\v')
		case 'x':
			j := i + 1
			for j < len(s) && isHex(s[j]) {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 16, 32)
			out = appendCodeUnit(out, v)
			i = j - 1
		case 'u', 'U':
			width := 4
			if e == 'U' {
				width = 8
			}
			end := min(i+1+width, len(s))
			v, _ := strconv.ParseUint(s[i+1:end], 16, 32)
			out = utf8.AppendRune(out, rune(v))
			i = end - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			out = appendCodeUnit(out, v)
			i = j - 1
		default:
			out = append(out, e)
		}
	}
	return out
}

func appendCodeUnit(out []byte, v uint64) []byte {
	if v <= 0xFF {
		return append(out, byte(v))
	}
	return utf8.AppendRune(out, rune(v))
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// joinTokens rebuilds macro body text from its tokens. Identifiers and
// literals that would fuse are separated by a space.
func joinTokens(tokens []ast.Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 && needsSpace(tokens[i-1], t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Spelling)
	}
	return sb.String()
}

func needsSpace(prev, next ast.Token) bool {
	wordy := func(t ast.Token) bool {
		return t.Kind == "identifier" || t.Kind == "keyword" || t.Kind == "literal"
	}
	return wordy(prev) && wordy(next)
}

// isSimpleLiteral reports a macro body that is one literal, optionally negated
func isSimpleLiteral(tokens []ast.Token) bool {
	switch len(tokens) {
	case 1:
		return tokens[0].Kind == "literal"
	case 2:
		return tokens[0].Spelling == "-" && tokens[1].Kind == "literal"
	}
	return false
}
