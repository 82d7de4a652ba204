// Package config holds the generator option set, loaded from TOML files and
// PINVOKEGEN_* environment variables through viper.
package config

import (
	"strings"

	"github.com/teranos/pinvokegen/errors"
)

// Config represents the full pinvokegen configuration
type Config struct {
	// MinVersion is a semver constraint the running binary must satisfy
	MinVersion string          `mapstructure:"min_version" toml:"min_version,omitempty"`
	Output     OutputConfig    `mapstructure:"output" toml:"output"`
	Generator  GeneratorConfig `mapstructure:"generator" toml:"generator"`
	Names      NamesConfig     `mapstructure:"names" toml:"names"`
	Log        LogConfig       `mapstructure:"log" toml:"log"`
}

// OutputConfig configures where and how bindings are written
type OutputConfig struct {
	Location            string `mapstructure:"location" toml:"location"`
	TestLocation        string `mapstructure:"test_location" toml:"test_location,omitempty"`
	MultipleFiles       bool   `mapstructure:"multiple_files" toml:"multiple_files"`
	Namespace           string `mapstructure:"namespace" toml:"namespace"`
	MethodClassName     string `mapstructure:"method_class_name" toml:"method_class_name"`
	LibraryPath         string `mapstructure:"library_path" toml:"library_path"`
	MethodPrefixToStrip string `mapstructure:"method_prefix_to_strip" toml:"method_prefix_to_strip,omitempty"`
	HeaderFile          string `mapstructure:"header_file" toml:"header_file,omitempty"` // text prepended to every file
}

// GeneratorConfig holds the code generation switches
type GeneratorConfig struct {
	CompatibleCodegen    bool `mapstructure:"compatible_codegen" toml:"compatible_codegen"`
	PreviewCodegenNint   bool `mapstructure:"preview_codegen_nint" toml:"preview_codegen_nint"`
	PreviewCodegenFnptr  bool `mapstructure:"preview_codegen_fnptr" toml:"preview_codegen_fnptr"`
	ExplicitVtbls        bool `mapstructure:"explicit_vtbls" toml:"explicit_vtbls"`
	UnixTypes            bool `mapstructure:"unix_types" toml:"unix_types"`
	MacroBindings        bool `mapstructure:"macro_bindings" toml:"macro_bindings"`
	AggressiveInlining   bool `mapstructure:"aggressive_inlining" toml:"aggressive_inlining"`
	TestsNUnit           bool `mapstructure:"tests_nunit" toml:"tests_nunit"`
	TestsXUnit           bool `mapstructure:"tests_xunit" toml:"tests_xunit"`
	ExcludeEmptyRecords  bool `mapstructure:"exclude_empty_records" toml:"exclude_empty_records"`
	ExcludeComProxies    bool `mapstructure:"exclude_com_proxies" toml:"exclude_com_proxies"`
	ExcludeEnumOperators bool `mapstructure:"exclude_enum_operators" toml:"exclude_enum_operators"`
	ExcludeFnsWithBody   bool `mapstructure:"exclude_functions_with_body" toml:"exclude_functions_with_body"`
	NoDefaultRemappings  bool `mapstructure:"no_default_remappings" toml:"no_default_remappings"`
}

// NamesConfig holds the per-symbol policy tables.
//
// Tables keyed by native symbol are written as "name=value" pairs; viper
// folds map keys to lower case, and C identifiers are case-sensitive.
type NamesConfig struct {
	Excluded          []string `mapstructure:"excluded" toml:"excluded"`
	TraversalFiles    []string `mapstructure:"traversal_files" toml:"traversal_files"`
	Remapped          []string `mapstructure:"remapped" toml:"remapped"`
	RemapFile         string   `mapstructure:"remap_file" toml:"remap_file,omitempty"`
	WithCallConvs     []string `mapstructure:"with_callconvs" toml:"with_callconvs"`
	WithLibraryPaths  []string `mapstructure:"with_library_paths" toml:"with_library_paths"`
	WithSetLastErrors []string `mapstructure:"with_set_last_errors" toml:"with_set_last_errors"`
	WithTypes         []string `mapstructure:"with_types" toml:"with_types"`
	WithAttributes    []string `mapstructure:"with_attributes" toml:"with_attributes"`
	WithUsings        []string `mapstructure:"with_usings" toml:"with_usings"`
	SuppressGCMethods []string `mapstructure:"suppress_gc_methods" toml:"suppress_gc_methods"`
}

// LogConfig configures generator logging
type LogConfig struct {
	Exclusions    bool `mapstructure:"exclusions" toml:"exclusions"`
	VisitedFiles  bool `mapstructure:"visited_files" toml:"visited_files"`
	PotentialType bool `mapstructure:"potential_typedef_remappings" toml:"potential_typedef_remappings"`
}

// File and directory constants
const (
	ProjectConfigName     = "pinvokegen.toml"
	UserConfigDir         = ".pinvokegen"
	UserConfigName        = "config.toml"
	EnvPrefix             = "PINVOKEGEN"
	DefaultDirPermissions = 0755
	DefaultFilePerms      = 0644
)

// Calling convention spellings accepted in with_callconvs
var CallingConventions = []string{"Cdecl", "StdCall", "ThisCall", "FastCall", "Winapi"}

// ParsePairs splits "key=value" entries into a map. Later entries override
// earlier ones.
func ParsePairs(entries []string) (map[string]string, error) {
	pairs := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewInvalidArgumentError("expected name=value, got %q", entry)
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, nil
}

// ParseMultiPairs is ParsePairs for tables whose values accumulate, such as
// with_attributes and with_usings. Values may be separated by ';'.
func ParseMultiPairs(entries []string) (map[string][]string, error) {
	pairs := make(map[string][]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewInvalidArgumentError("expected name=value, got %q", entry)
		}
		for _, v := range strings.Split(value, ";") {
			if v = strings.TrimSpace(v); v != "" {
				pairs[key] = append(pairs[key], v)
			}
		}
	}
	return pairs, nil
}
