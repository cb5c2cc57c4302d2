package cachedict

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// refresh drains the source for the given unique keys, invoking
// onUpdated(key, slot) for each row immediately as it is installed, in
// the same write-locked pass that installs it — a later row in the
// same drain can still land on the same slot and overwrite it, so the
// callback must fire the instant its own row goes in, not after the
// drain finishes.
//
// Concurrent refresh calls over the identical key set collapse into a
// single in-flight source call via singleflight. Only the call that
// actually drives that drain gets its onUpdated wired into the install
// loop; a call that instead joins an in-flight drain re-probes the
// cells once it completes and invokes its own onUpdated from there —
// correct unless two of the shared keys collided onto the same slot
// during that drain, in which case the earlier one already lost its
// window to fire.
func (d *Dictionary) refresh(ctx context.Context, attrName string, keys []uint64, onUpdated func(key, slot uint64)) error {
	d.recorder.Refresh(attrName, len(keys))

	sig := refreshSignature(keys)
	drove := false
	_, err, _ := d.sf.Do(sig, func() (any, error) {
		drove = true
		return nil, d.drainSource(ctx, keys, onUpdated)
	})
	if err != nil {
		d.recorder.SourceError(attrName, err)
		return err
	}
	if drove {
		return nil
	}

	d.mu.RLock()
	at := now()
	for _, k := range keys {
		if res, slot := d.cells.probe(k, at); res == probeHit {
			onUpdated(k, slot)
		}
	}
	d.mu.RUnlock()

	return nil
}

// refreshSignature produces a stable singleflight key for a set of
// unique keys, order-independent so two callers requesting the same
// keys in different orders still collapse onto one source call.
func refreshSignature(keys []uint64) string {
	sorted := make([]uint64, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var buf bytes.Buffer
	for i, k := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%d", k)
	}
	return buf.String()
}

// drainSource asks the source for a block stream over keys, then holds
// the write lock for the entire drain: all blocks of one refresh are
// atomic relative to readers. onUpdated is invoked inline, per row, as
// each row is installed.
func (d *Dictionary) drainSource(ctx context.Context, keys []uint64, onUpdated func(key, slot uint64)) error {
	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("%w: %v", ErrSourceFailure, err)
		}
		defer d.sem.Release(1)
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrSourceFailure, err)
		}
	}

	stream, err := d.source.Load(ctx, keys)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceFailure, err)
	}
	if err := stream.ReadPrefix(); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceFailure, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	touched := roaring.New() // unique slot indices touched by this refresh, for Stats()

	for {
		block, err := stream.Read()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceFailure, err)
		}
		if block == nil {
			break
		}
		if err := d.installBlock(block, touched, onUpdated); err != nil {
			return err
		}
	}

	if err := stream.ReadSuffix(); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceFailure, err)
	}

	d.occupancy.Or(touched)

	return nil
}

// installBlock writes one block's rows into the cell table and every
// attribute column, assigning each touched cell a freshly randomized
// expiry and invoking onUpdated(key, slot) immediately after that row's
// cell is installed — a later row in the same block may still collide
// onto the same slot and overwrite it, so the callback cannot be
// deferred past this point. Must run under the write lock.
func (d *Dictionary) installBlock(block Block, touched *roaring.Bitmap, onUpdated func(key, slot uint64)) error {
	keys, err := block.Keys()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}

	at := now()
	for i, key := range keys {
		slot := d.cells.slotOf(key)

		for attrIdx, attr := range d.attrs {
			if attr.kind == KindString {
				attr.writeString(slot, block.String(attrIdx, i))
			} else {
				attr.writeScalar(slot, block.Scalar(attrIdx, i))
			}
		}

		d.cells.install(slot, key, d.drawExpiry(at))
		onUpdated(key, slot)
		if slot <= uint64(^uint32(0)) {
			touched.Add(uint32(slot))
		}
	}
	return nil
}
