// Package policy decides which declarations are emitted and under which
// names, and carries the per-symbol attribute tables.
package policy

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/pinvokegen/config"
	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/internal/ast"
	"github.com/teranos/pinvokegen/logger"
)

// Remapper maps native names to emitted names
type Remapper interface {
	RemappedName(native string, context *ast.Node) string
}

// Policy is read-mostly state shared by the visitors. It is not modified
// after New returns.
type Policy struct {
	excluded       map[string]struct{}
	traversalFiles []string
	remapped       map[string]string
	callConvs      map[string]string
	libraryPaths   map[string]string
	setLastErrors  map[string]struct{}
	types          map[string]string
	attributes     map[string][]string
	usings         map[string][]string
	suppressGC     []*regexp.Regexp
	libraryPath    string
	logExclusions  bool
	log            *zap.SugaredLogger
}

// DefaultRemappings returns the remaps applied unless disabled
func DefaultRemappings(nint bool) map[string]string {
	signed, unsigned := "IntPtr", "UIntPtr"
	if nint {
		signed, unsigned = "nint", "nuint"
	}
	return map[string]string{
		"intptr_t":  signed,
		"ptrdiff_t": signed,
		"size_t":    unsigned,
		"uintptr_t": unsigned,
	}
}

// New builds a policy from the configuration. Remaps from names.remap_file
// are applied first so explicit names.remapped entries override them.
func New(cfg *config.Config) (*Policy, error) {
	p := &Policy{
		excluded:       make(map[string]struct{}),
		setLastErrors:  make(map[string]struct{}),
		remapped:       make(map[string]string),
		traversalFiles: make([]string, 0, len(cfg.Names.TraversalFiles)),
		libraryPath:    cfg.Output.LibraryPath,
		logExclusions:  cfg.Log.Exclusions,
		log:            logger.ComponentLogger("policy"),
	}

	if !cfg.Generator.NoDefaultRemappings {
		nint := cfg.Generator.PreviewCodegenNint || cfg.Generator.PreviewCodegenFnptr
		for k, v := range DefaultRemappings(nint) {
			p.remapped[k] = v
		}
	}

	if cfg.Names.RemapFile != "" {
		fromFile, err := LoadRemapFile(cfg.Names.RemapFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			p.remapped[k] = v
		}
	}

	explicit, err := config.ParsePairs(cfg.Names.Remapped)
	if err != nil {
		return nil, errors.Wrap(err, "names.remapped")
	}
	for k, v := range explicit {
		p.remapped[k] = v
	}

	if p.callConvs, err = config.ParsePairs(cfg.Names.WithCallConvs); err != nil {
		return nil, errors.Wrap(err, "names.with_callconvs")
	}
	if p.libraryPaths, err = config.ParsePairs(cfg.Names.WithLibraryPaths); err != nil {
		return nil, errors.Wrap(err, "names.with_library_paths")
	}
	if p.types, err = config.ParsePairs(cfg.Names.WithTypes); err != nil {
		return nil, errors.Wrap(err, "names.with_types")
	}
	if p.attributes, err = config.ParseMultiPairs(cfg.Names.WithAttributes); err != nil {
		return nil, errors.Wrap(err, "names.with_attributes")
	}
	if p.usings, err = config.ParseMultiPairs(cfg.Names.WithUsings); err != nil {
		return nil, errors.Wrap(err, "names.with_usings")
	}

	for _, name := range cfg.Names.Excluded {
		p.excluded[name] = struct{}{}
	}
	for _, name := range cfg.Names.WithSetLastErrors {
		p.setLastErrors[name] = struct{}{}
	}
	for _, file := range cfg.Names.TraversalFiles {
		p.traversalFiles = append(p.traversalFiles, filepath.ToSlash(filepath.Clean(file)))
	}
	for _, pattern := range cfg.Names.SuppressGCMethods {
		re, err := regexp.Compile(`^(?:` + pattern + `)$`)
		if err != nil {
			return nil, errors.Wrapf(err, "names.suppress_gc_methods: invalid pattern %q", pattern)
		}
		p.suppressGC = append(p.suppressGC, re)
	}

	return p, nil
}

// IsExcluded reports whether a declaration is suppressed by name or by the
// traversal file filter
func (p *Policy) IsExcluded(n *ast.Node) bool {
	if n == nil {
		return true
	}

	if n.Name != "" {
		if _, ok := p.excluded[n.Name]; ok {
			p.logExclusion(n, "excluded by name")
			return true
		}
		if _, ok := p.excluded[n.QualifiedName()]; ok {
			p.logExclusion(n, "excluded by qualified name")
			return true
		}
	}

	if len(p.traversalFiles) > 0 && n.Loc.File != "" && n.IsDecl() && !p.isTraversed(n.Loc.File) {
		p.logExclusion(n, "not in a traversal file")
		return true
	}

	return false
}

func (p *Policy) isTraversed(file string) bool {
	file = filepath.ToSlash(filepath.Clean(file))
	for _, t := range p.traversalFiles {
		if file == t || strings.HasSuffix(file, "/"+t) {
			return true
		}
	}
	return false
}

func (p *Policy) logExclusion(n *ast.Node, reason string) {
	if !p.logExclusions {
		return
	}
	p.log.Debugw("Excluding declaration",
		logger.FieldDecl, n.Name,
		logger.FieldKind, string(n.Kind),
		"reason", reason)
}

// RemappedName returns the configured replacement for native, or native
func (p *Policy) RemappedName(native string, context *ast.Node) string {
	if name, ok := p.TryRemap(native); ok {
		return name
	}
	if context != nil && context.IsDecl() && context.Name == native {
		if name, ok := p.TryRemap(context.QualifiedName()); ok {
			return name
		}
	}
	return native
}

// TryRemap looks native up in the remap table
func (p *Policy) TryRemap(native string) (string, bool) {
	name, ok := p.remapped[native]
	return name, ok
}

// EscapedName prefixes C# keywords with '@'
func (p *Policy) EscapedName(name string) string {
	return EscapeName(name)
}

// CallConv returns the calling convention override for a symbol
func (p *Policy) CallConv(name string) (string, bool) {
	conv, ok := p.callConvs[name]
	return conv, ok
}

// LibraryPath returns the library a symbol is imported from
func (p *Policy) LibraryPath(name string) string {
	if lib, ok := p.libraryPaths[name]; ok {
		return lib
	}
	return p.libraryPath
}

// SetLastError reports whether imports of name set the last error
func (p *Policy) SetLastError(name string) bool {
	_, ok := p.setLastErrors[name]
	if !ok {
		_, ok = p.setLastErrors["*"]
	}
	return ok
}

// SuppressGC reports whether name fully matches a suppress_gc_methods pattern
func (p *Policy) SuppressGC(name string) bool {
	for _, re := range p.suppressGC {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// TypeOverride returns the forced backing type for an enum or typedef
func (p *Policy) TypeOverride(name string) (string, bool) {
	t, ok := p.types[name]
	return t, ok
}

// Attributes returns extra attributes to place on a declaration
func (p *Policy) Attributes(name string) []string {
	return p.attributes[name]
}

// Usings returns extra using directives required by a declaration
func (p *Policy) Usings(name string) []string {
	return slices.Concat(p.usings["*"], p.usings[name])
}
