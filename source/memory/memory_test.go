package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geowatson/cachedict/source/memory"
)

func TestSource_LoadReturnsOnlyKnownKeys(t *testing.T) {
	src := memory.New(1)
	src.Put(1, uint32(10))
	src.Put(2, uint32(20))

	stream, err := src.Load(context.Background(), []uint64{1, 2, 3})
	require.NoError(t, err)

	var keys []uint64
	for {
		block, err := stream.Read()
		require.NoError(t, err)
		if block == nil {
			break
		}
		blockKeys, err := block.Keys()
		require.NoError(t, err)
		keys = append(keys, blockKeys...)
	}

	assert.ElementsMatch(t, []uint64{1, 2}, keys)
	assert.EqualValues(t, 1, src.LoadCount())
}

func TestSource_DeleteRemovesRow(t *testing.T) {
	src := memory.New(1)
	src.Put(1, uint32(10))
	src.Delete(1)

	stream, err := src.Load(context.Background(), []uint64{1})
	require.NoError(t, err)
	block, err := stream.Read()
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, 0, block.Len())
}

func TestSource_CloneIsIndependent(t *testing.T) {
	src := memory.New(1)
	src.Put(1, uint32(10))

	clonedSrc, err := src.Clone()
	require.NoError(t, err)
	clone := clonedSrc.(*memory.Source)

	src.Put(2, uint32(20))

	stream, err := clone.Load(context.Background(), []uint64{1, 2})
	require.NoError(t, err)
	block, err := stream.Read()
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, 1, block.Len(), "clone must not see rows added to the original after Clone()")
}
