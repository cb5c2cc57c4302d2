package cachedict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundUpToPowerOfTwo(t *testing.T) {
	cases := map[uint64]uint64{
		0:  1,
		1:  1,
		2:  2,
		3:  4,
		9:  16,
		16: 16,
		17: 32,
	}
	for in, want := range cases {
		assert.Equal(t, want, roundUpToPowerOfTwo(in), "roundUpToPowerOfTwo(%d)", in)
	}
}

func TestCellTable_ProbeClassifiesHitMissStale(t *testing.T) {
	table := newCellTable(8)
	now := time.Now()

	_, slot := table.probe(42, now)
	table.install(slot, 42, now.Add(time.Minute))

	res, gotSlot := table.probe(42, now)
	assert.Equal(t, probeHit, res)
	assert.Equal(t, slot, gotSlot)

	res, _ = table.probe(42, now.Add(2*time.Minute))
	assert.Equal(t, probeStale, res)

	res, _ = table.probe(7, now)
	assert.Equal(t, probeMiss, res, "an unpopulated or differently-keyed slot is always a miss")
}

func TestHash64_Deterministic(t *testing.T) {
	assert.Equal(t, hash64(123), hash64(123))
	assert.NotEqual(t, hash64(123), hash64(124))
}
