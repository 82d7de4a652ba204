// Package errors wraps github.com/cockroachdb/errors for pinvokegen.
//
// Errors carry stack traces and user hints. The CLI prints every hint under
// the error message:
//
//	return errors.WithHint(
//	    errors.New("output.namespace cannot be empty"),
//	    "set output.namespace in pinvokegen.toml or pass --namespace",
//	)
//
// Generator bookkeeping faults are raised with Invariantf and recovered at
// the top of a run, where IsInvariant identifies them.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As
	Mark  = crdb.Mark

	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	GetAllHints = crdb.GetAllHints
)

var (
	// ErrInvalidArgument marks a malformed name, option or input value
	ErrInvalidArgument = New("invalid argument")

	// ErrDuplicateKey marks a name that is already registered
	ErrDuplicateKey = New("duplicate key")

	// ErrKeyNotFound marks a lookup of a name that was never registered
	ErrKeyNotFound = New("key not found")

	// ErrInvariant marks broken generator bookkeeping such as unbalanced
	// scopes or a mismatched ancestor stack. A run that hits it writes nothing.
	ErrInvariant = New("invariant violation")
)

func IsInvalidArgument(err error) bool { return err != nil && Is(err, ErrInvalidArgument) }

func IsDuplicateKey(err error) bool { return err != nil && Is(err, ErrDuplicateKey) }

func IsKeyNotFound(err error) bool { return err != nil && Is(err, ErrKeyNotFound) }

// IsInvariant also accepts bare assertion failures from the cockroach API
func IsInvariant(err error) bool {
	return err != nil && (Is(err, ErrInvariant) || crdb.HasAssertionFailure(err))
}

// NewInvalidArgumentError formats a message and marks it ErrInvalidArgument
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidArgument)
}

func NewDuplicateKeyError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrDuplicateKey)
}

func NewKeyNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrKeyNotFound)
}

// Invariantf builds the value a generator panics with on a bookkeeping fault
func Invariantf(format string, args ...interface{}) error {
	return Mark(crdb.AssertionFailedf(format, args...), ErrInvariant)
}
