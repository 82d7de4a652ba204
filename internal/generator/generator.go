// Package generator translates a linked declaration tree into C# P/Invoke
// source held in emitters.
//
// Traversal is single threaded. Each call to Generate owns a fresh run with
// its own ancestor stack; the name policy and options are shared read-only.
package generator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pinvokegen/config"
	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/logger"
)

// NamePolicy is the exclusion and naming collaborator consulted by the visitors
type NamePolicy interface {
	IsExcluded(n *ast.Node) bool
	RemappedName(native string, context *ast.Node) string
	EscapedName(name string) string
	CallConv(name string) (string, bool)
	LibraryPath(name string) string
	SetLastError(name string) bool
	SuppressGC(name string) bool
	TypeOverride(name string) (string, bool)
	Attributes(name string) []string
	Usings(name string) []string
}

// Options is the read-only option set of a generator
type Options struct {
	Namespace           string
	MethodClassName     string
	LibraryPath         string
	MethodPrefixToStrip string
	HeaderText          string

	OutputLocation     string
	TestOutputLocation string
	MultipleFiles      bool

	CompatibleCodegen    bool
	PreviewCodegenNint   bool
	PreviewCodegenFnptr  bool
	ExplicitVtbls        bool
	UnixTypes            bool
	MacroBindings        bool
	AggressiveInlining   bool
	TestsNUnit           bool
	TestsXUnit           bool
	ExcludeEmptyRecords  bool
	ExcludeComProxies    bool
	ExcludeEnumOperators bool
	ExcludeFnsWithBody   bool

	LogVisitedFiles      bool
	LogPotentialTypedefs bool
}

// OptionsFromConfig maps the configuration onto generator options. The
// header file, when set, is read here.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := Options{
		Namespace:            cfg.Output.Namespace,
		MethodClassName:      cfg.Output.MethodClassName,
		LibraryPath:          cfg.Output.LibraryPath,
		MethodPrefixToStrip:  cfg.Output.MethodPrefixToStrip,
		OutputLocation:       cfg.Output.Location,
		TestOutputLocation:   cfg.Output.TestLocation,
		MultipleFiles:        cfg.Output.MultipleFiles,
		CompatibleCodegen:    cfg.Generator.CompatibleCodegen,
		PreviewCodegenNint:   cfg.Generator.PreviewCodegenNint,
		PreviewCodegenFnptr:  cfg.Generator.PreviewCodegenFnptr,
		ExplicitVtbls:        cfg.Generator.ExplicitVtbls,
		UnixTypes:            cfg.Generator.UnixTypes,
		MacroBindings:        cfg.Generator.MacroBindings,
		AggressiveInlining:   cfg.Generator.AggressiveInlining,
		TestsNUnit:           cfg.Generator.TestsNUnit,
		TestsXUnit:           cfg.Generator.TestsXUnit,
		ExcludeEmptyRecords:  cfg.Generator.ExcludeEmptyRecords,
		ExcludeComProxies:    cfg.Generator.ExcludeComProxies,
		ExcludeEnumOperators: cfg.Generator.ExcludeEnumOperators,
		ExcludeFnsWithBody:   cfg.Generator.ExcludeFnsWithBody,
		LogVisitedFiles:      cfg.Log.VisitedFiles,
		LogPotentialTypedefs: cfg.Log.PotentialType,
	}
	if cfg.Output.HeaderFile != "" {
		data, err := os.ReadFile(cfg.Output.HeaderFile)
		if err != nil {
			return Options{}, errors.Wrapf(err, "failed to read header file %s", cfg.Output.HeaderFile)
		}
		opts.HeaderText = string(data)
	}
	if opts.MethodClassName == "" {
		opts.MethodClassName = "Methods"
	}
	return opts, nil
}

// nint reports whether native-sized integers are spelled nint/nuint
func (o Options) nint() bool { return o.PreviewCodegenNint || o.PreviewCodegenFnptr }

// generateTests reports whether a test framework is selected
func (o Options) generateTests() bool { return o.TestsNUnit || o.TestsXUnit }

// Generator turns translation units into emitters
type Generator struct {
	opts     Options
	policy   NamePolicy
	sink     diag.Sink
	registry *emitter.Registry
	log      *zap.SugaredLogger

	macros        strings.Builder
	methodsUnsafe bool
}

// New creates a generator. Diagnostics are reported to sink.
func New(opts Options, policy NamePolicy, sink diag.Sink) *Generator {
	if opts.MethodClassName == "" {
		opts.MethodClassName = "Methods"
	}
	return &Generator{
		opts:     opts,
		policy:   policy,
		sink:     sink,
		registry: emitter.NewRegistry(),
		log:      logger.ComponentLogger("generator"),
	}
}

// Options returns the generator's options
func (g *Generator) Options() Options { return g.opts }

// Registry exposes the emitters of the last run
func (g *Generator) Registry() *emitter.Registry { return g.registry }

// MacroCapture returns the "const auto ClangSharpMacro_X = ...;" lines
// captured from object-like macros. Feeding them back through the front-end
// yields typed VarDecls for a second pass.
func (g *Generator) MacroCapture() string { return g.macros.String() }

// Generate visits tu and fills the registry. Emitters from a previous run are
// discarded first. An invariant fault aborts the run, clears all output,
// reports one Error diagnostic and returns an error wrapping ErrInvariant.
func (g *Generator) Generate(tu *ast.Node) (err error) {
	start := time.Now()
	g.registry.Clear()
	g.macros.Reset()
	g.methodsUnsafe = false

	r := newRun(g)

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		fault, ok := rec.(error)
		if !ok || !errors.IsInvariant(fault) {
			panic(rec)
		}
		g.registry.Clear()
		g.methodsUnsafe = false
		if d, derr := diag.New(diag.Error, fmt.Sprintf("Generation aborted: %v", fault), tu.Location()); derr == nil {
			g.sink.Report(d)
		}
		g.log.Errorw("Generation aborted",
			logger.FieldError, fault)
		err = errors.Wrap(fault, "generation aborted")
	}()

	r.visitDecl(nil, tu)
	r.finish()

	g.log.Infow("Generated bindings",
		logger.FieldCount, g.registry.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil
}
