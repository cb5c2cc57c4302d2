// Package memory implements an in-process cachedict.Source backed by a
// plain map, the "upstream database" stand-in used by tests and the
// cmd/dictdemo demo: a RWMutex-guarded map keyed by row id, one
// positional value per attribute.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/geowatson/cachedict"
)

// Source is a map-backed Source. Safe for concurrent use.
type Source struct {
	mu      sync.RWMutex
	rows    map[uint64][]any
	loads   atomic.Int64 // number of Load calls, for test assertions
	attrs   int
}

// New returns an empty Source for a schema with attrs positional
// attributes per row.
func New(attrs int) *Source {
	return &Source{rows: make(map[uint64][]any), attrs: attrs}
}

// Put installs (or replaces) the row for key. len(values) must equal the
// attribute count this Source was constructed with.
func (s *Source) Put(key uint64, values ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := make([]any, s.attrs)
	copy(row, values)
	s.rows[key] = row
}

// Delete removes key, simulating an upstream row disappearing.
func (s *Source) Delete(key uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
}

// LoadCount returns how many times Load has been called — used by tests
// verifying the source is only invoked on genuine misses.
func (s *Source) LoadCount() int64 { return s.loads.Load() }

func (s *Source) SupportsSelectiveLoad() bool { return true }

// Load returns a single block covering every key this Source has a row
// for; a key with no row is silently omitted and left unresolved by the
// caller.
func (s *Source) Load(_ context.Context, keys []uint64) (cachedict.BlockStream, error) {
	s.loads.Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]cachedict.Row, 0, len(keys))
	for _, k := range keys {
		if row, ok := s.rows[k]; ok {
			rows = append(rows, cachedict.Row{Key: k, Values: row})
		}
	}

	block := cachedict.NewSimpleBlock(rows)
	return cachedict.NewSimpleBlockStream([]*cachedict.SimpleBlock{block}), nil
}

// Clone returns a fresh handle sharing no state with s beyond the
// already-loaded rows (a defensive snapshot), matching the Source.Clone
// contract used by Dictionary.Clone.
func (s *Source) Clone() (cachedict.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := New(s.attrs)
	for k, v := range s.rows {
		row := make([]any, len(v))
		copy(row, v)
		clone.rows[k] = row
	}
	return clone, nil
}
