package cachedict

import (
	"context"
)

// getScalar is the C3 batched scalar read path: classify each key as
// hit/miss against cells and TTL under the read lock, then refresh the
// unresolved ones.
func (d *Dictionary) getScalar(ctx context.Context, idx int, keys []uint64) ([]any, error) {
	attr := d.attrs[idx]
	out := make([]any, len(keys))
	outdated := make(map[uint64][]int)

	d.mu.RLock()
	at := now()
	for i, k := range keys {
		if k == 0 {
			out[i] = attr.nullScalarAny()
			continue
		}
		if res, slot := d.cells.probe(k, at); res == probeHit {
			out[i] = attr.readScalarAny(slot)
			d.recorder.Hit(attr.name)
		} else {
			out[i] = attr.nullScalarAny()
			outdated[k] = append(outdated[k], i)
			d.recorder.Miss(attr.name)
		}
	}
	d.mu.RUnlock()

	if len(outdated) == 0 {
		return out, nil
	}

	uniqueKeys := make([]uint64, 0, len(outdated))
	for k := range outdated {
		uniqueKeys = append(uniqueKeys, k)
	}

	err := d.refresh(ctx, attr.name, uniqueKeys, func(key uint64, slot uint64) {
		v := attr.readScalarAny(slot)
		for _, pos := range outdated[key] {
			out[pos] = v
		}
	})
	return out, err
}

// getString is the C3 two-phase string read path.
// startRows lets the optimistic pass discard exactly the rows it
// appended to out, via StringColumn.Truncate, on the first miss.
func (d *Dictionary) getString(ctx context.Context, idx int, keys []uint64, out *StringColumn) error {
	attr := d.attrs[idx]
	startRows := out.Len()

	foundOutdated := false
	d.mu.RLock()
	at := now()
	for _, k := range keys {
		if k == 0 {
			out.Append([]byte(attr.nullValueString()))
			continue
		}
		res, slot := d.cells.probe(k, at)
		if res != probeHit {
			foundOutdated = true
			break
		}
		out.Append(attr.readString(slot))
		d.recorder.Hit(attr.name)
	}
	d.mu.RUnlock()

	if !foundOutdated {
		return nil
	}

	// Discard the partial optimistic output in place; fall through to
	// the pessimistic pass.
	out.Truncate(startRows)

	outdatedCount := make(map[uint64]int)
	found := make(map[uint64][]byte)
	totalLength := 0

	d.mu.RLock()
	at = now()
	for _, k := range keys {
		if k == 0 {
			totalLength++
			continue
		}
		res, slot := d.cells.probe(k, at)
		if res == probeHit {
			v := attr.readString(slot)
			found[k] = v
			totalLength += len(v) + 1
			d.recorder.Hit(attr.name)
		} else {
			outdatedCount[k]++
			d.recorder.Miss(attr.name)
		}
	}
	d.mu.RUnlock()

	if len(outdatedCount) > 0 {
		uniqueKeys := make([]uint64, 0, len(outdatedCount))
		for k := range outdatedCount {
			uniqueKeys = append(uniqueKeys, k)
		}

		err := d.refresh(ctx, attr.name, uniqueKeys, func(key uint64, slot uint64) {
			v := attr.readString(slot)
			found[key] = v
			totalLength += len(v) + 1
		})
		if err != nil {
			return err
		}
	}

	out.Reserve(len(out.data) + totalLength)
	nullBytes := []byte(attr.nullValueString())
	for _, k := range keys {
		if k == 0 {
			out.Append(nullBytes)
			continue
		}
		if v, ok := found[k]; ok {
			out.Append(v)
		} else {
			out.Append(nullBytes)
		}
	}
	return nil
}
