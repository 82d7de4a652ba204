package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Output defaults
	v.SetDefault("output.location", "Generated")
	v.SetDefault("output.multiple_files", true)
	v.SetDefault("output.method_class_name", "Methods")
	v.SetDefault("output.library_path", "")
	v.SetDefault("output.namespace", "")
	v.SetDefault("output.test_location", "")
	v.SetDefault("output.method_prefix_to_strip", "")
	v.SetDefault("output.header_file", "")

	// Generator defaults: modern codegen with raw vtable indexing
	v.SetDefault("generator.compatible_codegen", false)
	v.SetDefault("generator.preview_codegen_nint", false)
	v.SetDefault("generator.preview_codegen_fnptr", false)
	v.SetDefault("generator.explicit_vtbls", false)
	v.SetDefault("generator.unix_types", false)
	v.SetDefault("generator.macro_bindings", false)
	v.SetDefault("generator.aggressive_inlining", false)
	v.SetDefault("generator.tests_nunit", false)
	v.SetDefault("generator.tests_xunit", false)
	v.SetDefault("generator.exclude_empty_records", false)
	v.SetDefault("generator.exclude_com_proxies", false)
	v.SetDefault("generator.exclude_enum_operators", false)
	v.SetDefault("generator.exclude_functions_with_body", false)
	v.SetDefault("generator.no_default_remappings", false)

	// Names defaults
	v.SetDefault("names.remap_file", "")
	v.SetDefault("names.excluded", []string{})
	v.SetDefault("names.traversal_files", []string{})
	v.SetDefault("names.remapped", []string{})
	v.SetDefault("names.with_callconvs", []string{})
	v.SetDefault("names.with_library_paths", []string{})
	v.SetDefault("names.with_set_last_errors", []string{})
	v.SetDefault("names.with_types", []string{})
	v.SetDefault("names.with_attributes", []string{})
	v.SetDefault("names.with_usings", []string{})
	v.SetDefault("names.suppress_gc_methods", []string{})

	// Log defaults
	v.SetDefault("log.exclusions", false)
	v.SetDefault("log.visited_files", false)
	v.SetDefault("log.potential_typedef_remappings", false)
}

// Default returns a configuration populated only from SetDefaults
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode; a failure here means SetDefaults is broken
		panic(err)
	}
	return cfg
}
