package cachedict

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
)

// probeResult classifies a cell lookup for a given key.
type probeResult uint8

const (
	probeHit probeResult = iota
	probeStale
	probeMiss
)

// cell is the metadata record at one slot. key == 0 means the slot
// has never been populated.
type cell struct {
	key       uint64
	expiresAt time.Time
}

// cellTable is the fixed-size, never-reallocated slot array (C2).
type cellTable struct {
	cells []cell
	mask  uint64 // len(cells)-1, cells always sized to a power of two
}

func newCellTable(capacity uint64) *cellTable {
	return &cellTable{
		cells: make([]cell, capacity),
		mask:  capacity - 1,
	}
}

func (t *cellTable) size() uint64 { return uint64(len(t.cells)) }

// hash64 is the bit-mixing 64-bit hash a direct-mapped table needs for
// good slot distribution. xxhash.Sum64 over the key's 8 little-endian
// bytes stands in for ClickHouse's intHash64.
func hash64(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return xxhash.Sum64(buf[:])
}

// slotOf computes the direct-mapped slot index for key.
func (t *cellTable) slotOf(key uint64) uint64 {
	return hash64(key) & t.mask
}

// probe classifies the cell at slotOf(key) against key and the current
// wall-clock time, without mutating anything.
func (t *cellTable) probe(key uint64, at time.Time) (probeResult, uint64) {
	slot := t.slotOf(key)
	c := &t.cells[slot]
	if c.key != key {
		return probeMiss, slot
	}
	if !at.Before(c.expiresAt) {
		return probeStale, slot
	}
	return probeHit, slot
}

// install unconditionally overwrites the cell at slot with key and a new
// expiry — a colliding different key is evicted with no special
// handling. Must be called under the write lock.
func (t *cellTable) install(slot uint64, key uint64, expiresAt time.Time) {
	t.cells[slot] = cell{key: key, expiresAt: expiresAt}
}

func roundUpToPowerOfTwo(n uint64) uint64 {
	if n < 1 {
		n = 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
