package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeIO, "open shard")
	outer := Wrap(inner, ErrorTypeIO, "load stream")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "x"))
	assert.Nil(t, Wrapf(nil, ErrorTypeIO, "x %d", 1))
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("pass orders: %w", Wrapf(os.ErrNotExist, ErrorTypeIO, "shard %d", 4))

	assert.True(t, IsType(err, ErrorTypeIO))
	assert.False(t, IsType(err, ErrorTypeSchema))
	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	assert.True(t, IsFatal(err))
	assert.False(t, IsType(os.ErrNotExist, ErrorTypeIO))
}

func TestErrNoData(t *testing.T) {
	err := fmt.Errorf("avg quantity: %w", ErrNoData)
	assert.True(t, stderrors.Is(err, ErrNoData))
	assert.True(t, IsType(err, ErrorTypeNoData))
	assert.False(t, IsFatal(err))
}

func TestWithDetail(t *testing.T) {
	err := Newf(ErrorTypeSchema, "column %s has %d rows", "created", 3).
		WithDetail("expected", 4)

	assert.Equal(t, "schema: column created has 3 rows", err.Error())
	assert.Equal(t, 4, err.Details["expected"])
}
