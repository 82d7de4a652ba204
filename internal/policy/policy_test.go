package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pinvokegen/config"
	"github.com/teranos/pinvokegen/internal/ast"
)

func newConfig() *config.Config {
	cfg := config.Default()
	cfg.Output.Namespace = "Acme"
	cfg.Output.LibraryPath = "acme"
	return cfg
}

func TestDefaultRemappings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		native string
		want   string
	}{
		{"intptr default", func(c *config.Config) {}, "intptr_t", "IntPtr"},
		{"size_t default", func(c *config.Config) {}, "size_t", "UIntPtr"},
		{"nint mode", func(c *config.Config) { c.Generator.PreviewCodegenNint = true }, "ptrdiff_t", "nint"},
		{"fnptr implies nint", func(c *config.Config) { c.Generator.PreviewCodegenFnptr = true }, "uintptr_t", "nuint"},
		{"disabled", func(c *config.Config) { c.Generator.NoDefaultRemappings = true }, "size_t", "size_t"},
		{"explicit wins", func(c *config.Config) { c.Names.Remapped = []string{"size_t=ulong"} }, "size_t", "ulong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig()
			tt.mutate(cfg)
			p, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.RemappedName(tt.native, nil))
		})
	}
}

func TestIsExcluded(t *testing.T) {
	cfg := newConfig()
	cfg.Names.Excluded = []string{"Hidden", "ns::Inner"}
	cfg.Names.TraversalFiles = []string{"include/api.h"}
	p, err := New(cfg)
	require.NoError(t, err)

	ns := &ast.Node{Kind: ast.NamespaceDecl, Name: "ns"}
	inner := &ast.Node{Kind: ast.RecordDecl, Name: "Inner", Parent: ns, Loc: ast.Loc{File: "/src/include/api.h"}}

	tests := []struct {
		name string
		node *ast.Node
		want bool
	}{
		{"by name", &ast.Node{Kind: ast.FunctionDecl, Name: "Hidden"}, true},
		{"by qualified name", inner, true},
		{"traversed file", &ast.Node{Kind: ast.FunctionDecl, Name: "f", Loc: ast.Loc{File: "/src/include/api.h"}}, false},
		{"other file", &ast.Node{Kind: ast.FunctionDecl, Name: "f", Loc: ast.Loc{File: "/usr/include/stdio.h"}}, true},
		{"no location", &ast.Node{Kind: ast.FunctionDecl, Name: "g"}, false},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsExcluded(tt.node))
		})
	}
}

func TestSymbolTables(t *testing.T) {
	cfg := newConfig()
	cfg.Names.WithCallConvs = []string{"Callback=StdCall"}
	cfg.Names.WithLibraryPaths = []string{"gl_init=opengl32"}
	cfg.Names.WithSetLastErrors = []string{"CreateFileW"}
	cfg.Names.SuppressGCMethods = []string{"Get.*"}
	cfg.Names.WithTypes = []string{"Flags=uint"}
	cfg.Names.WithAttributes = []string{"IUnknown=Obsolete; Serializable"}
	cfg.Names.WithUsings = []string{"*=System", "IUnknown=System.Runtime.CompilerServices"}
	p, err := New(cfg)
	require.NoError(t, err)

	conv, ok := p.CallConv("Callback")
	assert.True(t, ok)
	assert.Equal(t, "StdCall", conv)

	assert.Equal(t, "opengl32", p.LibraryPath("gl_init"))
	assert.Equal(t, "acme", p.LibraryPath("other"))
	assert.True(t, p.SetLastError("CreateFileW"))
	assert.False(t, p.SetLastError("CloseHandle"))

	assert.True(t, p.SuppressGC("GetValue"))
	assert.False(t, p.SuppressGC("TryGetValue"), "patterns must match the whole name")

	typ, ok := p.TypeOverride("Flags")
	assert.True(t, ok)
	assert.Equal(t, "uint", typ)

	assert.Equal(t, []string{"Obsolete", "Serializable"}, p.Attributes("IUnknown"))
	assert.Equal(t, []string{"System", "System.Runtime.CompilerServices"}, p.Usings("IUnknown"))
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := newConfig()
	cfg.Names.SuppressGCMethods = []string{"("}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestEscapeName(t *testing.T) {
	assert.Equal(t, "@string", EscapeName("string"))
	assert.Equal(t, "@event", EscapeName("event"))
	assert.Equal(t, "value", EscapeName("value"))
	assert.True(t, IsKeyword("fixed"))
}

func TestOverlay(t *testing.T) {
	cfg := newConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	o := NewOverlay(p)
	o.Set("Draw", "Draw1")

	assert.Equal(t, "Draw1", o.RemappedName("Draw", nil))
	assert.Equal(t, "IntPtr", o.RemappedName("intptr_t", nil))
	assert.Equal(t, "Draw", p.RemappedName("Draw", nil), "the shared policy is untouched")
}

func TestLoadRemapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remap.toml")
	require.NoError(t, os.WriteFile(path, []byte("[remapped]\nHRESULT = \"int\"\n_GUID = \"Guid\"\n"), 0644))

	remaps, err := LoadRemapFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HRESULT": "int", "_GUID": "Guid"}, remaps)

	cfg := newConfig()
	cfg.Names.RemapFile = path
	cfg.Names.Remapped = []string{"HRESULT=HResult"}
	p, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "HResult", p.RemappedName("HRESULT", nil))
	assert.Equal(t, "Guid", p.RemappedName("_GUID", nil))

	_, err = LoadRemapFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestGUID(t *testing.T) {
	for _, in := range []string{
		"00000000-0000-0000-c000-000000000046",
		"{00000000-0000-0000-C000-000000000046}",
		"urn:uuid:00000000-0000-0000-c000-000000000046",
	} {
		id, err := ParseGUID(in)
		require.NoError(t, err, in)
		assert.Equal(t, "00000000-0000-0000-C000-000000000046", FormatGUID(id))
		assert.Equal(t, "0x00000000, 0x0000, 0x0000, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46", GUIDConstructorArgs(id))
	}

	_, err := ParseGUID("not-a-guid")
	assert.Error(t, err)
}
