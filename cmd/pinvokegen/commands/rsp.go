package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/pinvokegen/errors"
)

// maxResponseDepth bounds nested response files
const maxResponseDepth = 8

// ExpandResponseFiles replaces every @file argument with the arguments read
// from file. Files are split with shell quoting rules, lines starting with #
// are comments, and nested @file references resolve relative to the file
// that names them.
func ExpandResponseFiles(args []string) ([]string, error) {
	return expandResponseFiles(args, "", 0)
}

func expandResponseFiles(args []string, dir string, depth int) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "@") || len(arg) == 1 {
			out = append(out, arg)
			continue
		}
		if depth >= maxResponseDepth {
			return nil, errors.WithHint(
				errors.Newf("response files nested deeper than %d at %s", maxResponseDepth, arg),
				"check for a response file that includes itself",
			)
		}

		path := arg[1:]
		if dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		nested, err := readResponseFile(path)
		if err != nil {
			return nil, err
		}
		expanded, err := expandResponseFiles(nested, filepath.Dir(path), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func readResponseFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response file %s", path)
	}

	var args []string
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shellquote.Split(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, i+1)
		}
		args = append(args, words...)
	}
	return args, nil
}
