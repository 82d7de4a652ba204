package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		msg   string
	}{
		{"invalid argument", NewInvalidArgumentError("emitter name %q", "  "), IsInvalidArgument, `emitter name "  "`},
		{"duplicate key", NewDuplicateKeyError("emitter %q already exists", "Foo"), IsDuplicateKey, `emitter "Foo" already exists`},
		{"key not found", NewKeyNotFoundError("emitter %q", "Bar"), IsKeyNotFound, `emitter "Bar"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(Wrap(tt.err, "while rendering")), "mark survives wrapping")
			assert.False(t, IsInvariant(tt.err))
		})
	}

	assert.False(t, IsInvalidArgument(nil))
	assert.False(t, IsDuplicateKey(New("plain")))
	assert.False(t, IsKeyNotFound(NewDuplicateKeyError("x")))
}

func TestInvariant(t *testing.T) {
	err := Invariantf("unbalanced blocks in %s: %d open", "Point", 2)
	assert.Contains(t, err.Error(), "unbalanced blocks in Point: 2 open")
	assert.True(t, IsInvariant(err))
	assert.True(t, Is(err, ErrInvariant))
	assert.True(t, IsInvariant(Wrap(err, "Generation aborted")))

	// recovered panics keep their mark
	var recovered error
	func() {
		defer func() { recovered = recover().(error) }()
		panic(Invariantf("ancestor stack mismatch"))
	}()
	assert.True(t, IsInvariant(recovered))

	assert.False(t, IsInvariant(nil))
	assert.False(t, IsInvariant(New("boom")))
}

func TestHintsSurviveWrapping(t *testing.T) {
	err := WithHintf(NewInvalidArgumentError("unknown config option %q", "x"), "supported options: %s", "a, b")
	err = Wrapf(err, "loading %s", "pinvokegen.toml")

	require.Equal(t, []string{"supported options: a, b"}, GetAllHints(err))
	assert.True(t, IsInvalidArgument(err))

	var target interface{ Error() string }
	assert.True(t, As(err, &target))
}
