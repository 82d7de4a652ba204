package config

import (
	"regexp"
	"slices"
	"strings"

	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/version"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := version.Get().Satisfies(c.MinVersion); err != nil {
		return err
	}

	if strings.TrimSpace(c.Output.Namespace) == "" {
		return errors.WithHint(
			errors.New("output.namespace cannot be empty"),
			"set output.namespace in pinvokegen.toml or pass --namespace",
		)
	}
	if strings.TrimSpace(c.Output.Location) == "" {
		return errors.New("output.location cannot be empty")
	}
	if strings.TrimSpace(c.Output.MethodClassName) == "" {
		return errors.New("output.method_class_name cannot be empty")
	}

	// Compatible codegen targets runtimes without nint or function pointers
	if c.Generator.CompatibleCodegen && (c.Generator.PreviewCodegenNint || c.Generator.PreviewCodegenFnptr) {
		return errors.New("generator.compatible_codegen cannot be combined with preview codegen options")
	}

	if c.Generator.TestsNUnit && c.Generator.TestsXUnit {
		return errors.New("generator.tests_nunit and generator.tests_xunit are mutually exclusive")
	}
	if (c.Generator.TestsNUnit || c.Generator.TestsXUnit) && strings.TrimSpace(c.Output.TestLocation) == "" {
		return errors.New("output.test_location cannot be empty when test generation is enabled")
	}

	for _, pattern := range c.Names.SuppressGCMethods {
		if _, err := regexp.Compile(pattern); err != nil {
			return errors.Wrapf(err, "names.suppress_gc_methods: invalid pattern %q", pattern)
		}
	}

	tables := []struct {
		key     string
		entries []string
	}{
		{"names.remapped", c.Names.Remapped},
		{"names.with_callconvs", c.Names.WithCallConvs},
		{"names.with_library_paths", c.Names.WithLibraryPaths},
		{"names.with_types", c.Names.WithTypes},
		{"names.with_attributes", c.Names.WithAttributes},
		{"names.with_usings", c.Names.WithUsings},
	}
	for _, table := range tables {
		if _, err := ParsePairs(table.entries); err != nil {
			return errors.Wrap(err, table.key)
		}
	}

	callConvs, _ := ParsePairs(c.Names.WithCallConvs)
	for name, conv := range callConvs {
		if !slices.Contains(CallingConventions, conv) {
			return errors.Newf("names.with_callconvs: %s has unknown calling convention %q (want one of %s)",
				name, conv, strings.Join(CallingConventions, ", "))
		}
	}

	return nil
}
