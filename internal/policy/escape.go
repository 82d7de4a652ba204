package policy

var keywords = map[string]struct{}{}

func init() {
	for _, k := range []string{
		"abstract", "as", "base", "bool", "break", "byte", "case", "catch", "char",
		"checked", "class", "const", "continue", "decimal", "default", "delegate",
		"do", "double", "else", "enum", "event", "explicit", "extern", "false",
		"finally", "fixed", "float", "for", "foreach", "goto", "if", "implicit",
		"in", "int", "interface", "internal", "is", "lock", "long", "namespace",
		"new", "null", "object", "operator", "out", "override", "params",
		"private", "protected", "public", "readonly", "ref", "return", "sbyte",
		"sealed", "short", "sizeof", "stackalloc", "static", "string", "struct",
		"switch", "this", "throw", "true", "try", "typeof", "uint", "ulong",
		"unchecked", "unsafe", "ushort", "using", "virtual", "void", "volatile",
		"while",
	} {
		keywords[k] = struct{}{}
	}
}

// EscapeName prefixes a C# keyword with '@' so it can be used as an identifier
func EscapeName(name string) string {
	if _, ok := keywords[name]; ok {
		return "@" + name
	}
	return name
}

// IsKeyword reports whether name is a reserved C# keyword
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}
