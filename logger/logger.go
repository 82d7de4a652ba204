// Package logger holds the process-wide zap logger. Bindings and diagnostics
// go to stdout and the terminal, so log records always go to stderr.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is a no-op until Initialize runs
	Logger = zap.NewNop().Sugar()

	// JSONOutput is set when records are encoded as JSON. The CLI then routes
	// diagnostics through the log instead of printing them.
	JSONOutput bool

	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

// Initialize replaces Logger with one writing to stderr at the level implied
// by verbosity (the -v count).
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	level.SetLevel(Verbosity(verbosity).Level())

	var encoder zapcore.Encoder
	if jsonOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	Logger = zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr))).Sugar()
	return nil
}

// Enabled reports whether records at lvl are currently written
func Enabled(lvl zapcore.Level) bool {
	return level.Enabled(lvl)
}

// Cleanup flushes buffered records. Sync on a terminal stderr fails on some
// platforms; the error is ignored.
func Cleanup() {
	_ = Logger.Sync()
}

func Infow(msg string, keysAndValues ...interface{}) {
	Logger.Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	Logger.Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	Logger.Errorw(msg, keysAndValues...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	Logger.Debugw(msg, keysAndValues...)
}
