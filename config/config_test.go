package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := *Default()
	cfg.Output.Namespace = "Native.Interop"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "Methods", cfg.Output.MethodClassName)
	assert.Equal(t, "Generated", cfg.Output.Location)
	assert.True(t, cfg.Output.MultipleFiles)
	assert.False(t, cfg.Generator.ExplicitVtbls)
	assert.Empty(t, cfg.Names.Excluded)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectConfigName)
	content := `
[output]
namespace = "Acme.Native"
library_path = "acme"

[generator]
explicit_vtbls = true

[names]
excluded = ["internal_helper"]
remapped = ["HRESULT=int"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme.Native", cfg.Output.Namespace)
	assert.Equal(t, "acme", cfg.Output.LibraryPath)
	// Untouched keys in a partially specified section keep their defaults
	assert.Equal(t, "Methods", cfg.Output.MethodClassName)
	assert.True(t, cfg.Generator.ExplicitVtbls)
	assert.Equal(t, []string{"internal_helper"}, cfg.Names.Excluded)
	assert.Equal(t, []string{"HRESULT=int"}, cfg.Names.Remapped)
}

func TestUseFile_KeepsDefaults(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nnamespace = \"X\"\n"), 0644))

	UseFile(path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "X", cfg.Output.Namespace)
	assert.Equal(t, "Methods", cfg.Output.MethodClassName)
}

func TestUseFile_Precedence(t *testing.T) {
	defer Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	content := "[output]\nnamespace = \"File\"\nlibrary_path = \"filelib\"\nmethod_class_name = \"FileMethods\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("PINVOKEGEN_OUTPUT_LIBRARY_PATH", "envlib")
	t.Setenv("PINVOKEGEN_OUTPUT_METHOD_CLASS_NAME", "EnvMethods")

	UseFile(path)
	GetViper().Set("output.method_class_name", "FlagMethods")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "File", cfg.Output.Namespace)
	assert.Equal(t, "envlib", cfg.Output.LibraryPath)
	assert.Equal(t, "FlagMethods", cfg.Output.MethodClassName)
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, DefaultDirPermissions))

	assert.Empty(t, FindProjectConfig(nested))

	path := filepath.Join(root, ProjectConfigName)
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))
	assert.Equal(t, path, FindProjectConfig(nested))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing namespace", mutate: func(c *Config) { c.Output.Namespace = " " }, wantErr: "output.namespace"},
		{name: "missing location", mutate: func(c *Config) { c.Output.Location = "" }, wantErr: "output.location"},
		{name: "missing method class", mutate: func(c *Config) { c.Output.MethodClassName = "" }, wantErr: "method_class_name"},
		{
			name: "compat with preview",
			mutate: func(c *Config) {
				c.Generator.CompatibleCodegen = true
				c.Generator.PreviewCodegenFnptr = true
			},
			wantErr: "compatible_codegen",
		},
		{
			name: "both test frameworks",
			mutate: func(c *Config) {
				c.Generator.TestsNUnit = true
				c.Generator.TestsXUnit = true
				c.Output.TestLocation = "Tests"
			},
			wantErr: "mutually exclusive",
		},
		{name: "tests without location", mutate: func(c *Config) { c.Generator.TestsXUnit = true }, wantErr: "test_location"},
		{name: "bad regex", mutate: func(c *Config) { c.Names.SuppressGCMethods = []string{"("} }, wantErr: "suppress_gc_methods"},
		{name: "bad pair", mutate: func(c *Config) { c.Names.Remapped = []string{"nope"} }, wantErr: "names.remapped"},
		{name: "bad callconv", mutate: func(c *Config) { c.Names.WithCallConvs = []string{"Foo=Pascal"} }, wantErr: "unknown calling convention"},
		// dev builds satisfy every constraint, including malformed ones
		{name: "min_version on dev build", mutate: func(c *Config) { c.MinVersion = ">= 99" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePairs(t *testing.T) {
	pairs, err := ParsePairs([]string{"intptr_t=nint", " size_t = nuint ", "intptr_t=IntPtr"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"intptr_t": "IntPtr", "size_t": "nuint"}, pairs)

	_, err = ParsePairs([]string{"=x"})
	assert.Error(t, err)

	multi, err := ParseMultiPairs([]string{"IUnknown=System; System.Runtime.InteropServices", "IUnknown=Foo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"System", "System.Runtime.InteropServices", "Foo"}, multi["IUnknown"])
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ProjectConfigName)

	cfg := validConfig()
	cfg.Names.Excluded = []string{"a", "b"}
	cfg.Generator.UnixTypes = true
	require.NoError(t, Save(&cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Output.Namespace, loaded.Output.Namespace)
	assert.Equal(t, cfg.Names.Excluded, loaded.Names.Excluded)
	assert.True(t, loaded.Generator.UnixTypes)

	// Second save rotates the previous file into .back1
	require.NoError(t, Save(&cfg, path))
	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err)
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ast.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	changed := make(chan string, 4)
	w.OnChange(func(p string) error {
		changed <- p
		return nil
	})
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"TranslationUnitDecl"}`), 0644))

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWatcher_FollowsReplaceIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectConfigName)
	cfg := validConfig()
	require.NoError(t, Save(&cfg, path))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	changed := make(chan string, 8)
	w.OnChange(func(p string) error {
		changed <- p
		return nil
	})
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))
	select {
	case p := <-changed:
		t.Fatalf("unexpected change for %s", p)
	case <-time.After(200 * time.Millisecond):
	}

	// Save rotates a backup and renames a temp file over the original
	cfg.Output.Namespace = "Changed"
	require.NoError(t, Save(&cfg, path))

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not follow the replaced file")
	}
}
