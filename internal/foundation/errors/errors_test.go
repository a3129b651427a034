package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.json").
			Build()

		require.Equal(t, CategoryConfig, err.Category())
		require.Equal(t, SeverityFatal, err.Severity())
		require.Equal(t, "invalid configuration", err.Message())

		file, exists := err.Context().GetString("file")
		require.True(t, exists)
		require.Equal(t, "config.json", file)
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		require.True(t, HasCategory(err, CategoryConfig))
		require.Equal(t, SeverityFatal, err.Severity())
	})

	t.Run("Detection through fmt wrapping", func(t *testing.T) {
		inner := TransformError("boom").Build()
		wrapped := fmt.Errorf("rebuild: %w", inner)

		got, ok := AsClassified(wrapped)
		require.True(t, ok)
		require.Same(t, inner, got)
		require.True(t, HasCategory(wrapped, CategoryTransform))
	})

	t.Run("Unclassified", func(t *testing.T) {
		_, ok := AsClassified(errors.New("plain"))
		require.False(t, ok)
		require.False(t, HasCategory(errors.New("plain"), CategoryConfig))
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := WrapError(originalErr, CategoryFileSystem, "create output directory").
		Warning().
		WithContext("path", "/tmp/out").
		Build()

	require.Equal(t, CategoryFileSystem, err.Category())
	require.Equal(t, SeverityWarning, err.Severity())
	require.ErrorIs(t, err, originalErr)
	require.Contains(t, err.Error(), "[filesystem:warning] create output directory: permission denied")
}

func TestClassifiedError_Is(t *testing.T) {
	a := NewError(CategoryConfig, "missing").Build()
	b := NewError(CategoryConfig, "missing").WithContext("x", 1).Build()
	c := NewError(CategoryFileSystem, "missing").Build()

	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, c))
}

func TestErrorContext_Merge(t *testing.T) {
	var empty ErrorContext
	other := ErrorContext{"k": "v"}
	require.Equal(t, other, empty.Merge(other))

	left := ErrorContext{"k": "left", "l": true}
	merged := left.Merge(ErrorContext{"k": "right"})
	require.Equal(t, "right", merged["k"])
	require.Equal(t, true, merged["l"])
	require.Equal(t, "left", left["k"])
}
