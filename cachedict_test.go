package cachedict_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geowatson/cachedict"
	"github.com/geowatson/cachedict/source/memory"
)

func schema() []cachedict.AttributeSchema {
	return []cachedict.AttributeSchema{
		{Name: "age", Kind: cachedict.KindUint32, NullValue: "0"},
		{Name: "name", Kind: cachedict.KindString, NullValue: ""},
	}
}

// unselectiveSource always refuses selective load, exercising scenario:
// "a dictionary cannot be constructed over a source that cannot be
// queried by key list."
type unselectiveSource struct{}

func (unselectiveSource) SupportsSelectiveLoad() bool { return false }
func (unselectiveSource) Load(context.Context, []uint64) (cachedict.BlockStream, error) {
	return nil, errors.New("must not be called")
}
func (unselectiveSource) Clone() (cachedict.Source, error) { return unselectiveSource{}, nil }

func TestNew_RejectsSourceWithoutSelectiveLoad(t *testing.T) {
	_, err := cachedict.New("bad", schema(), unselectiveSource{}, cachedict.Lifetime{MinSec: 1, MaxSec: 2}, 8)
	require.ErrorIs(t, err, cachedict.ErrUnsupportedSource)
}

func TestNew_RoundsCapacityUpToPowerOfTwo(t *testing.T) {
	src := memory.New(2)
	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), dict.Stats().Capacity)
}

func TestGetUint32_ColdMissThenWarmHit(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "alice")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	age, err := dict.GetUint32(ctx, "age", 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), age)
	assert.EqualValues(t, 1, src.LoadCount())

	age, err = dict.GetUint32(ctx, "age", 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), age)
	assert.EqualValues(t, 1, src.LoadCount(), "warm lookup must not call the source again")
}

func TestGetUint32_UnresolvedKeyReturnsNullValue(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	age, err := dict.GetUint32(ctx, "age", 999)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), age, "a key the source never resolves reads back as the configured null value")
}

func TestGetUint32_UnknownAttribute(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	_, err = dict.GetUint32(ctx, "nope", 1)
	require.ErrorIs(t, err, cachedict.ErrUnknownAttribute)
	assert.EqualValues(t, 0, src.LoadCount(), "an unknown attribute must not touch the source")
}

func TestGetUint32_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	_, err = dict.GetUint32(ctx, "name", 1) // "name" is a string attribute
	require.ErrorIs(t, err, cachedict.ErrTypeMismatch)
	assert.EqualValues(t, 0, src.LoadCount())
}

func TestGetString_TwoPhaseReadAcrossMixedHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "alice")
	src.Put(2, uint32(41), "bob")
	src.Put(3, uint32(19), "carol")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 16)
	require.NoError(t, err)

	// Warm key 1 only, so the batch below mixes a hit with misses and
	// forces the optimistic pass to discard and fall back.
	_, err = dict.GetString(ctx, "name", 1)
	require.NoError(t, err)

	out := cachedict.NewStringColumn()
	err = dict.GetStrings(ctx, "name", []uint64{1, 2, 3}, out)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, "alice", string(out.At(0)))
	assert.Equal(t, "bob", string(out.At(1)))
	assert.Equal(t, "carol", string(out.At(2)))
}

func TestGetString_EmptyStringRoundTrips(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	v, err := dict.GetString(ctx, "name", 1)
	require.NoError(t, err)
	assert.Equal(t, "", string(v))
}

func TestTTLExpiry_StaleCellTriggersRefresh(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "alice")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 1, MaxSec: 1}, 8)
	require.NoError(t, err)

	_, err = dict.GetUint32(ctx, "age", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.LoadCount())

	time.Sleep(1500 * time.Millisecond)

	src.Put(1, uint32(31), "alice")
	age, err := dict.GetUint32(ctx, "age", 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(31), age)
	assert.EqualValues(t, 2, src.LoadCount(), "an expired cell must be refreshed from the source again")
}

func TestCollisionEviction_DifferentKeySameSlotOverwritesUnconditionally(t *testing.T) {
	ctx := context.Background()
	src := memory.New(1)
	src.Put(1, uint32(10))
	src.Put(2, uint32(20))

	// Capacity 1 forces every key onto the same slot, deterministically
	// exercising the "colliding key evicts with no special handling"
	// invariant regardless of which keys happen to hash together.
	dict, err := cachedict.New("counters", []cachedict.AttributeSchema{
		{Name: "n", Kind: cachedict.KindUint32, NullValue: "0"},
	}, src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 1)
	require.NoError(t, err)

	v, err := dict.GetUint32(ctx, "n", 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), v)

	v, err = dict.GetUint32(ctx, "n", 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), v)

	// Key 1's cell has been evicted by key 2's install; re-reading it must
	// cost another source call rather than returning stale data for key 2.
	v, err = dict.GetUint32(ctx, "n", 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), v)
	assert.EqualValues(t, 3, src.LoadCount())
}

func TestCollisionWithinBatch_BothKeysResolveToTheirOwnValue(t *testing.T) {
	ctx := context.Background()
	src := memory.New(1)
	src.Put(1, uint32(7))
	src.Put(5, uint32(9))

	// Capacity 1 forces keys 1 and 5 onto the same slot. Both are missing
	// and requested in a single batch, so one refresh installs both rows
	// back to back: whichever lands second overwrites the slot the first
	// just occupied. Each key's result must still reflect its own row,
	// not whatever the slot happened to hold once the whole batch landed.
	dict, err := cachedict.New("counters", []cachedict.AttributeSchema{
		{Name: "n", Kind: cachedict.KindUint32, NullValue: "0"},
	}, src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 1)
	require.NoError(t, err)

	out := make([]uint32, 3)
	err = dict.GetUint32s(ctx, "n", []uint64{1, 5, 1}, out)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 9, 7}, out)
}

func TestConcurrentMisses_CollapseIntoOneSourceCall(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "alice")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]uint32, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := dict.GetUint32(ctx, "age", 1)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, uint32(30), v)
	}
	assert.EqualValues(t, 1, src.LoadCount(), "concurrent misses on the identical key set must singleflight into one Load call")
}

func TestClone_SharesSchemaNotCells(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "alice")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 8)
	require.NoError(t, err)

	_, err = dict.GetUint32(ctx, "age", 1)
	require.NoError(t, err)

	clone, err := dict.Clone()
	require.NoError(t, err)
	assert.Equal(t, dict.Name(), clone.Name())
	assert.EqualValues(t, 0, clone.Stats().Occupied, "a clone starts with an empty cell table")

	age, err := clone.GetUint32(ctx, "age", 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), age)
}

func TestStats_ReportsOccupancy(t *testing.T) {
	ctx := context.Background()
	src := memory.New(2)
	src.Put(1, uint32(30), "alice")
	src.Put(2, uint32(41), "bob")

	dict, err := cachedict.New("users", schema(), src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, 16)
	require.NoError(t, err)

	_, err = dict.GetUint32(ctx, "age", 1)
	require.NoError(t, err)
	_, err = dict.GetUint32(ctx, "age", 2)
	require.NoError(t, err)

	stats := dict.Stats()
	assert.Equal(t, "users", stats.Name)
	assert.Equal(t, uint64(16), stats.Capacity)
	assert.Equal(t, 2, stats.Attributes)
	assert.EqualValues(t, 2, stats.Occupied)
}
