package errors_test

import (
	"fmt"
	"testing"

	"github.com/speakeasy-api/openapi-refs/errors"
	"github.com/stretchr/testify/assert"
)

const errTest = errors.Error("test error")

func TestError_Is_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   error
		expected bool
	}{
		{
			name:     "exact match",
			target:   errors.Error("test error"),
			expected: true,
		},
		{
			name:     "wrapped error with separator",
			target:   errors.New("test error -- wrapped cause"),
			expected: true,
		},
		{
			name:     "different error",
			target:   errors.Error("different error"),
			expected: false,
		},
		{
			name:     "partial match without separator",
			target:   errors.New("test error but different"),
			expected: false,
		},
		{
			name:     "nil target",
			target:   nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, errTest.Is(tt.target))
		})
	}
}

func TestError_Wrap_Success(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")
	err := errTest.Wrap(cause)

	assert.Equal(t, "test error -- root cause", err.Error())
	assert.ErrorIs(t, err, errTest)
	assert.ErrorIs(t, err, cause)

	outer := fmt.Errorf("outer: %w", err)
	assert.ErrorIs(t, outer, errTest)
}

func TestError_Wrapf_Success(t *testing.T) {
	t.Parallel()

	err := errTest.Wrapf("key %s missing", "foo")
	assert.Equal(t, "test error -- key foo missing", err.Error())
	assert.True(t, errors.Is(err, errTest))
}

func TestUnwrapErrors_Success(t *testing.T) {
	t.Parallel()

	a := errors.New("a")
	b := errors.New("b")

	assert.Nil(t, errors.UnwrapErrors(nil))
	assert.Equal(t, []error{a}, errors.UnwrapErrors(a))
	assert.Equal(t, []error{a, b}, errors.UnwrapErrors(errors.Join(a, b)))
}
