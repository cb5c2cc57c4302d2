package cachedict_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geowatson/cachedict"
)

func TestStringColumn_AppendAndAt(t *testing.T) {
	col := cachedict.NewStringColumn()
	col.Append([]byte("alice"))
	col.Append([]byte(""))
	col.Append([]byte("bob"))

	require := assert.New(t)
	require.Equal(3, col.Len())
	require.Equal("alice", string(col.At(0)))
	require.Equal("", string(col.At(1)))
	require.Equal("bob", string(col.At(2)))
}

func TestStringColumn_TruncateDiscardsTrailingRowsOnly(t *testing.T) {
	col := cachedict.NewStringColumn()
	col.Append([]byte("kept"))
	col.Append([]byte("also-kept"))
	col.Append([]byte("discarded"))

	col.Truncate(2)

	assert.Equal(t, 2, col.Len())
	assert.Equal(t, "kept", string(col.At(0)))
	assert.Equal(t, "also-kept", string(col.At(1)))
}

func TestStringColumn_TruncateToZeroEmptiesColumn(t *testing.T) {
	col := cachedict.NewStringColumn()
	col.Append([]byte("x"))
	col.Truncate(0)
	assert.Equal(t, 0, col.Len())

	col.Append([]byte("y"))
	assert.Equal(t, 1, col.Len())
	assert.Equal(t, "y", string(col.At(0)))
}

func TestStringColumn_ReserveDoesNotChangeLength(t *testing.T) {
	col := cachedict.NewStringColumn()
	col.Append([]byte("a"))
	col.Reserve(1024)
	assert.Equal(t, 1, col.Len())
	assert.Equal(t, "a", string(col.At(0)))
}
