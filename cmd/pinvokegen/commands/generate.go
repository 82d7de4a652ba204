package commands

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teranos/pinvokegen/config"
	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/generator"
	"github.com/teranos/pinvokegen/internal/policy"
	"github.com/teranos/pinvokegen/logger"
)

// GenerateCmd generates bindings from translation units
var GenerateCmd = &cobra.Command{
	Use:   "generate <translation-unit>...",
	Short: "Generate C# bindings from exported translation units",
	Long: `Generate C# P/Invoke bindings from one or more translation units.

Each input is a declaration tree exported by a C/C++ front-end as JSON or
YAML. Several inputs are merged into one tree before generation, so a
declaration in one file may refer to a record defined in another.

Flags override pinvokegen.toml and PINVOKEGEN_* environment variables.
Generator switches use the --config-option names:

  compatible-codegen, preview-codegen-nint, preview-codegen-fnptr,
  explicit-vtbls, unix-types, generate-macro-bindings,
  generate-aggressive-inlining, generate-tests-nunit, generate-tests-xunit,
  exclude-empty-records, exclude-com-proxies, exclude-enum-operators,
  exclude-funcs-with-body, no-default-remappings, single-file, multi-file,
  log-exclusions, log-visited-files, log-potential-typedef-remappings

Examples:
  pinvokegen generate api.json -n Acme.Interop -l acme -o Generated
  pinvokegen generate api.json -c generate-tests-xunit --test-output Tests
  pinvokegen generate api.json --macro-capture macros.h
  pinvokegen generate api.json --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var (
	generateConfigFile   string
	generateMacroCapture string
	generateWatch        bool
)

// flagKeys maps generate flags onto configuration keys
var flagKeys = map[string]string{
	"output":             "output.location",
	"test-output":        "output.test_location",
	"namespace":          "output.namespace",
	"library":            "output.library_path",
	"method-class-name":  "output.method_class_name",
	"prefix-strip":       "output.method_prefix_to_strip",
	"header-file":        "output.header_file",
	"exclude":            "names.excluded",
	"traverse":           "names.traversal_files",
	"remap":              "names.remapped",
	"remap-file":         "names.remap_file",
	"with-callconv":      "names.with_callconvs",
	"with-library-path":  "names.with_library_paths",
	"with-setlasterror":  "names.with_set_last_errors",
	"with-type":          "names.with_types",
	"with-attribute":     "names.with_attributes",
	"with-using":         "names.with_usings",
	"suppress-gc-method": "names.suppress_gc_methods",
}

// configOptions maps --config-option names onto boolean configuration keys
var configOptions = map[string]struct {
	key   string
	value bool
}{
	"compatible-codegen":               {"generator.compatible_codegen", true},
	"preview-codegen-nint":             {"generator.preview_codegen_nint", true},
	"preview-codegen-fnptr":            {"generator.preview_codegen_fnptr", true},
	"explicit-vtbls":                   {"generator.explicit_vtbls", true},
	"unix-types":                       {"generator.unix_types", true},
	"generate-macro-bindings":          {"generator.macro_bindings", true},
	"generate-aggressive-inlining":     {"generator.aggressive_inlining", true},
	"generate-tests-nunit":             {"generator.tests_nunit", true},
	"generate-tests-xunit":             {"generator.tests_xunit", true},
	"exclude-empty-records":            {"generator.exclude_empty_records", true},
	"exclude-com-proxies":              {"generator.exclude_com_proxies", true},
	"exclude-enum-operators":           {"generator.exclude_enum_operators", true},
	"exclude-funcs-with-body":          {"generator.exclude_functions_with_body", true},
	"no-default-remappings":            {"generator.no_default_remappings", true},
	"single-file":                      {"output.multiple_files", false},
	"multi-file":                       {"output.multiple_files", true},
	"log-exclusions":                   {"log.exclusions", true},
	"log-visited-files":                {"log.visited_files", true},
	"log-potential-typedef-remappings": {"log.potential_typedef_remappings", true},
}

func init() {
	addGenerateFlags(GenerateCmd.Flags())
}

func addGenerateFlags(flags *pflag.FlagSet) {
	flags.StringVar(&generateConfigFile, "config", "", "Read configuration from this file instead of searching for pinvokegen.toml")
	flags.StringP("output", "o", "", "Output file, or directory in multi-file mode")
	flags.String("test-output", "", "Test output file, or directory in multi-file mode")
	flags.StringP("namespace", "n", "", "Namespace of the generated bindings")
	flags.StringP("library", "l", "", "Native library the bindings import from")
	flags.StringP("method-class-name", "m", "", "Class holding free functions and constants")
	flags.StringP("prefix-strip", "p", "", "Prefix removed from free function names")
	flags.String("header-file", "", "File whose text is prepended to every output file")
	flags.StringSliceP("exclude", "e", nil, "Declarations to skip")
	flags.StringSliceP("traverse", "t", nil, "Only bind declarations from these files")
	flags.StringSliceP("remap", "r", nil, "Rename a declaration (name=newName)")
	flags.String("remap-file", "", "TOML table of additional remappings")
	flags.StringSlice("with-callconv", nil, "Calling convention override (name=Convention)")
	flags.StringSlice("with-library-path", nil, "Library override (name=library)")
	flags.StringSlice("with-setlasterror", nil, "Functions imported with SetLastError = true")
	flags.StringSlice("with-type", nil, "Type override (name=type)")
	flags.StringSlice("with-attribute", nil, "Extra attribute (name=Attribute)")
	flags.StringSlice("with-using", nil, "Extra using directive (name=Namespace)")
	flags.StringSlice("suppress-gc-method", nil, "Functions imported with [SuppressGCTransition] (patterns allowed)")
	flags.StringSliceP("config-option", "c", nil, "Generator switch (repeatable, see above)")
	flags.StringVar(&generateMacroCapture, "macro-capture", "", "Write the captured macro definitions to this file")
	flags.BoolVarP(&generateWatch, "watch", "w", false, "Regenerate when an input or configuration file changes")
}

// applyFlags sets every flag the user passed onto its configuration key.
// Set takes precedence over files, defaults and the environment.
func applyFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		if key, ok := flagKeys[f.Name]; ok {
			if f.Value.Type() == "stringSlice" {
				values, _ := flags.GetStringSlice(f.Name)
				v.Set(key, values)
			} else {
				v.Set(key, f.Value.String())
			}
			return
		}
		if f.Name != "config-option" {
			return
		}
		names, _ := flags.GetStringSlice(f.Name)
		for _, name := range names {
			opt, ok := configOptions[strings.TrimSpace(name)]
			if !ok {
				err = errors.WithHintf(
					errors.NewInvalidArgumentError("unknown config option %q", name),
					"supported options: %s", strings.Join(configOptionNames(), ", "))
				return
			}
			v.Set(opt.key, opt.value)
		}
	})
	return err
}

func configOptionNames() []string {
	names := make([]string, 0, len(configOptions))
	for name := range configOptions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// loadGenerateConfig merges files, environment and flags into a validated
// configuration
func loadGenerateConfig(flags *pflag.FlagSet) (*config.Config, error) {
	if generateConfigFile != "" {
		config.UseFile(generateConfigFile)
	} else {
		config.Reset()
	}
	if err := applyFlags(config.GetViper(), flags); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadInputs reads every translation unit and merges them under one root.
// A declaration repeated at the same location, as happens when several units
// include one header, is kept once.
func loadInputs(paths []string) (*ast.Node, error) {
	if len(paths) == 1 {
		return ast.LoadFile(paths[0])
	}
	root := &ast.Node{Kind: ast.TranslationUnitDecl}
	seen := map[string]bool{}
	for _, path := range paths {
		tu, err := ast.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, n := range tu.Inner {
			if loc := n.Loc.String(); n.Name != "" && loc != "" {
				key := string(n.Kind) + " " + n.Name + " " + loc
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			root.Inner = append(root.Inner, n)
		}
	}
	if unresolved := ast.Link(root); len(unresolved) > 0 {
		logger.Debugw("Unresolved references after merge",
			logger.FieldCount, len(unresolved))
	}
	return root, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := generateOnce(cmd, args); err != nil {
		if !generateWatch {
			return err
		}
		pterm.Error.Println(err.Error())
	}
	if !generateWatch {
		return nil
	}
	return watchAndGenerate(cmd, args)
}

// generateOnce runs one full load, generate and write cycle
func generateOnce(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadGenerateConfig(cmd.Flags())
	if err != nil {
		return err
	}
	pol, err := policy.New(cfg)
	if err != nil {
		return err
	}
	opts, err := generator.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	tu, err := loadInputs(args)
	if err != nil {
		return err
	}

	bag := &diag.Bag{}
	gen := generator.New(opts, pol, bag)
	genErr := gen.Generate(tu)
	showDiagnostics(bag.Diagnostics())
	if genErr != nil {
		return genErr
	}

	files, err := gen.Files()
	if err != nil {
		return err
	}
	if err := generator.WriteFiles(cmd.Context(), files); err != nil {
		return err
	}
	if generateMacroCapture != "" {
		if err := os.WriteFile(generateMacroCapture, []byte(gen.MacroCapture()), config.DefaultFilePerms); err != nil {
			return errors.Wrapf(err, "failed to write macro capture %s", generateMacroCapture)
		}
	}

	logger.Infow("Generation complete",
		logger.FieldCount, len(files),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	if !logger.JSONOutput {
		pterm.Success.Printf("Wrote %d files to %s\n", len(files), opts.OutputLocation)
	}

	if n := bag.Count(diag.Error); n > 0 {
		return errors.WithHint(
			errors.Newf("generation reported %d errors", n),
			"the generated bindings may be incomplete",
		)
	}
	return nil
}

// watchAndGenerate regenerates whenever an input or configuration file
// changes, until interrupted
func watchAndGenerate(cmd *cobra.Command, args []string) error {
	paths := slices.Clone(args)
	if generateConfigFile != "" {
		paths = append(paths, generateConfigFile)
	} else {
		for _, p := range config.ConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				paths = append(paths, p)
			}
		}
	}

	watcher, err := config.NewWatcher(paths...)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	watcher.OnChange(func(path string) error {
		if !logger.JSONOutput {
			pterm.Info.Printf("%s changed, regenerating\n", path)
		}
		if err := generateOnce(cmd, args); err != nil {
			pterm.Error.Println(err.Error())
		}
		return nil
	})
	watcher.Start()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if !logger.JSONOutput {
		pterm.Info.Printf("Watching %d files (Ctrl+C to stop)\n", len(paths))
	}

	select {
	case <-ctx.Done():
	case <-watcher.Done():
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
