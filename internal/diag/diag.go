// Package diag defines generator diagnostics and the sink they are reported to.
package diag

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/pinvokegen/errors"
)

// Level is the severity of a diagnostic
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Diagnostic is an immutable report. Two diagnostics are equal when all
// three fields are equal, so values compare with ==.
type Diagnostic struct {
	level    Level
	message  string
	location string
}

// New builds a diagnostic. The message must not be blank. Backslashes in the
// location are normalized to forward slashes.
func New(level Level, message, location string) (Diagnostic, error) {
	if strings.TrimSpace(message) == "" {
		return Diagnostic{}, errors.NewInvalidArgumentError("diagnostic message cannot be empty")
	}
	return Diagnostic{
		level:    level,
		message:  message,
		location: strings.ReplaceAll(location, `\`, "/"),
	}, nil
}

// Level returns the severity
func (d Diagnostic) Level() Level { return d.level }

// Message returns the text
func (d Diagnostic) Message() string { return d.message }

// Location returns the normalized source location, possibly empty
func (d Diagnostic) Location() string { return d.location }

func (d Diagnostic) String() string {
	if d.location == "" {
		return fmt.Sprintf("%s: %s", d.level, d.message)
	}
	return fmt.Sprintf("%s (%s): %s", d.level, d.location, d.message)
}

// Sink receives diagnostics. Report never fails.
type Sink interface {
	Report(Diagnostic)
}

// Bag collects diagnostics in report order
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report appends d
func (b *Bag) Report(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, d)
}

// Add builds and reports a diagnostic; blank messages are dropped
func (b *Bag) Add(level Level, message, location string) {
	if d, err := New(level, message, location); err == nil {
		b.Report(d)
	}
}

// Diagnostics returns a snapshot in report order
func (b *Bag) Diagnostics() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Count returns the number of diagnostics at level
func (b *Bag) Count(level Level) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, d := range b.items {
		if d.level == level {
			n++
		}
	}
	return n
}

// Len returns the number of diagnostics
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// HasErrors reports whether any Error diagnostic was recorded
func (b *Bag) HasErrors() bool { return b.Count(Error) > 0 }

// Reset drops all diagnostics
func (b *Bag) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

// LogTo forwards each diagnostic to log at the matching level
func LogTo(log *zap.SugaredLogger, diagnostics []Diagnostic) {
	for _, d := range diagnostics {
		fields := []interface{}{"level", d.level.String()}
		if d.location != "" {
			fields = append(fields, "location", d.location)
		}
		switch d.level {
		case Error:
			log.Errorw(d.message, fields...)
		case Warning:
			log.Warnw(d.message, fields...)
		default:
			log.Infow(d.message, fields...)
		}
	}
}
