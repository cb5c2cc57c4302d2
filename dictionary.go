// Package cachedict implements a fixed-capacity, in-memory, direct-mapped
// attribute cache over a heterogeneous set of typed columns, backed by a
// pluggable external Source. It is the Go counterpart of ClickHouse's
// CacheDictionary: batched lookups are served from RAM; missing or
// expired entries are refreshed from the source under a write lock while
// concurrent readers stay correct.
package cachedict

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Dictionary is the cache itself — the concurrency shell (C5) composing
// the cell table (C2), typed columns (C1), and the lookup/refresh
// engines (C3/C4) behind one RW lock.
type Dictionary struct {
	name     string
	schema   []AttributeSchema
	lifetime Lifetime
	capacity uint64

	attrIndex map[string]int
	attrs     []*attribute

	source   Source
	recorder Recorder
	limits   ResourceLimits

	mu        sync.RWMutex // covers cells + all attribute columns jointly
	cells     *cellTable
	rnd       *rand.Rand    // seeded at construction; only touched under the write lock
	occupancy *roaring.Bitmap // populated-slot tracker for Stats(), guarded by mu

	sf      singleflight.Group
	sem     *semaphore.Weighted // nil when ResourceLimits.MaxConcurrentRefreshes == 0
	limiter *rate.Limiter       // nil when ResourceLimits.SourceQPS == 0
}

// Option configures optional Dictionary behavior at construction.
type Option func(*Dictionary)

// WithRecorder attaches an observer for hit/miss/refresh/source-error
// events. The zero value (no option) uses NoopRecorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dictionary) { d.recorder = r }
}

// WithResourceLimits bounds refresh concurrency and source call rate.
func WithResourceLimits(limits ResourceLimits) Option {
	return func(d *Dictionary) { d.limits = limits }
}

// New constructs a Dictionary. size is rounded up to a power of two (a
// minimum of 1). The source must support selective load, or construction
// fails with ErrUnsupportedSource.
func New(name string, schema []AttributeSchema, source Source, lifetime Lifetime, size uint64, opts ...Option) (*Dictionary, error) {
	if !source.SupportsSelectiveLoad() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, name)
	}

	capacity := roundUpToPowerOfTwo(size)

	d := &Dictionary{
		name:      name,
		schema:    schema,
		lifetime:  lifetime,
		capacity:  capacity,
		attrIndex: make(map[string]int, len(schema)),
		attrs:     make([]*attribute, len(schema)),
		source:    source,
		recorder:  NoopRecorder{},
		cells:     newCellTable(capacity),
		rnd:       rand.New(rand.NewSource(seed())),
		occupancy: roaring.New(),
	}

	for i, as := range schema {
		a, err := newAttribute(as, capacity)
		if err != nil {
			return nil, err
		}
		d.attrs[i] = a
		d.attrIndex[as.Name] = i
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.limits.MaxConcurrentRefreshes > 0 {
		d.sem = semaphore.NewWeighted(d.limits.MaxConcurrentRefreshes)
	}
	if d.limits.SourceQPS > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(d.limits.SourceQPS), int(d.limits.SourceQPS)+1)
	}

	return d, nil
}

// seed mixes the wall-clock time in nanoseconds (not a monotonic clock
// reading) with the process id; collisions are possible but only affect
// TTL jitter.
func seed() int64 {
	return time.Now().UnixNano() ^ int64(os.Getpid())
}

// Name returns the dictionary's configured name.
func (d *Dictionary) Name() string { return d.name }

// TypeName identifies the dictionary implementation kind.
func (d *Dictionary) TypeName() string { return "CacheDictionary" }

// IsCached is always true for this implementation.
func (d *Dictionary) IsCached() bool { return true }

// HasHierarchy is always false; this variant declares no hierarchy.
func (d *Dictionary) HasHierarchy() bool { return false }

// ToParent always returns 0 (no hierarchy).
func (d *Dictionary) ToParent(uint64) uint64 { return 0 }

// Source returns the configured source handle.
func (d *Dictionary) Source() Source { return d.source }

// Lifetime returns the configured TTL bounds.
func (d *Dictionary) Lifetime() Lifetime { return d.lifetime }

// Clone deep-copies the schema, size, and lifetime, and obtains a fresh
// source handle via source.Clone(); no cell contents are copied.
func (d *Dictionary) Clone() (*Dictionary, error) {
	src, err := d.source.Clone()
	if err != nil {
		return nil, fmt.Errorf("cachedict: cloning source for %q: %w", d.name, err)
	}

	schemaCopy := make([]AttributeSchema, len(d.schema))
	copy(schemaCopy, d.schema)

	return New(d.name, schemaCopy, src, d.lifetime, d.capacity,
		WithRecorder(d.recorder), WithResourceLimits(d.limits))
}

// attributeIndex resolves attrName to its schema position, or
// ErrUnknownAttribute.
func (d *Dictionary) attributeIndex(attrName string) (int, error) {
	idx, ok := d.attrIndex[attrName]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, attrName)
	}
	return idx, nil
}

// checkKind verifies the attribute at idx has the requested kind.
func (d *Dictionary) checkKind(idx int, want Kind) error {
	if d.attrs[idx].kind != want {
		return fmt.Errorf("%w: attribute %q has kind %s, requested %s",
			ErrTypeMismatch, d.schema[idx].Name, d.attrs[idx].kind, want)
	}
	return nil
}

// drawExpiry picks a randomized expiry uniform in
// [now+MinSec, now+MaxSec] seconds. Must be called under the write lock
// (the PRNG is exclusively touched there).
func (d *Dictionary) drawExpiry(at time.Time) time.Time {
	span := d.lifetime.MaxSec - d.lifetime.MinSec
	offset := d.lifetime.MinSec
	if span > 0 {
		offset += uint64(d.rnd.Int63n(int64(span) + 1))
	}
	return at.Add(time.Duration(offset) * time.Second)
}
