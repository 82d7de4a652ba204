package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/pinvokegen/config"
	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/internal/emitter"
	"github.com/teranos/pinvokegen/logger"
)

// File is one rendered compilation unit
type File struct {
	Path    string
	Content string
	IsTest  bool
}

// Files renders the emitters of the last run. In single-file mode all
// bindings go to the output location and all tests to the test output
// location; otherwise each emitter gets <location>/<name>.cs. Emitters with
// no committed lines produce no file.
func (g *Generator) Files() ([]File, error) {
	if g.opts.OutputLocation == "" {
		return nil, errors.NewInvalidArgumentError("output location is empty")
	}

	var bindings, tests []emitter.Part
	for out := range g.registry.All() {
		part := emitter.Part{Emitter: out}
		if out.Name() == g.opts.MethodClassName && !out.IsTestOutput() {
			part.Wrapper = "public static partial class " + out.Name()
			if g.methodsUnsafe {
				part.Wrapper = "public static unsafe partial class " + out.Name()
			}
		}
		if out.IsTestOutput() {
			tests = append(tests, part)
		} else {
			bindings = append(bindings, part)
		}
	}
	if len(tests) > 0 && g.opts.TestOutputLocation == "" {
		return nil, errors.WithHint(
			errors.NewInvalidArgumentError("test output location is empty"),
			"set output.test_location when a test framework is enabled")
	}

	var files []File
	add := func(path string, isTest bool, parts ...emitter.Part) {
		ns := g.opts.Namespace
		if isTest {
			ns += ".UnitTests"
		}
		unit := emitter.Unit{Header: g.opts.HeaderText, Namespace: ns, Parts: parts}
		if content := unit.Render(); content != "" {
			files = append(files, File{Path: path, Content: content, IsTest: isTest})
		}
	}

	if !g.opts.MultipleFiles {
		if len(bindings) > 0 {
			add(g.opts.OutputLocation, false, bindings...)
		}
		if len(tests) > 0 {
			add(g.opts.TestOutputLocation, true, tests...)
		}
		return files, nil
	}

	for _, p := range bindings {
		add(filepath.Join(g.opts.OutputLocation, fileName(p.Emitter.Name())), false, p)
	}
	for _, p := range tests {
		add(filepath.Join(g.opts.TestOutputLocation, fileName(p.Emitter.Name())), true, p)
	}
	return files, nil
}

func fileName(name string) string {
	return strings.TrimPrefix(name, "@") + ".cs"
}

// WriteFiles writes files concurrently, creating parent directories and
// overwriting existing files
func WriteFiles(ctx context.Context, files []File) error {
	log := logger.ComponentLogger("output")
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(f.Path), config.DefaultDirPermissions); err != nil {
				return errors.Wrapf(err, "failed to create directory for %s", f.Path)
			}
			if err := os.WriteFile(f.Path, []byte(f.Content), config.DefaultFilePerms); err != nil {
				return errors.Wrapf(err, "failed to write %s", f.Path)
			}
			log.Debugw("Wrote output file", logger.FieldFile, f.Path)
			return nil
		})
	}
	return g.Wait()
}
