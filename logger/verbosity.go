package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Verbosity is the number of -v flags on the command line
type Verbosity int

const (
	Quiet    Verbosity = iota // diagnostics and failures
	Progress                  // -v: inputs read, files written, timings
	Detail                    // -vv: per-declaration dispatch and exclusions
)

// Level maps the flag count onto a zap level. Counts past Detail change
// nothing.
func (v Verbosity) Level() zapcore.Level {
	switch {
	case v >= Detail:
		return zapcore.DebugLevel
	case v == Progress:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

func (v Verbosity) String() string {
	switch {
	case v <= Quiet:
		return "quiet"
	case v == Progress:
		return "progress (-v)"
	case v == Detail:
		return "detail (-vv)"
	default:
		return fmt.Sprintf("detail (-%s)", strings.Repeat("v", int(v)))
	}
}
