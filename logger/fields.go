package logger

import "go.uber.org/zap"

// Structured field keys shared by every component
const (
	FieldComponent  = "component"
	FieldDecl       = "decl"
	FieldKind       = "kind"
	FieldFile       = "file"
	FieldCount      = "count"
	FieldError      = "error"
	FieldDurationMS = "duration_ms"
)

// ComponentLogger names a child of Logger after a pipeline stage (generator,
// policy, config). Call it after Initialize; the child keeps the core it was
// created from.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name).With(FieldComponent, name)
}
