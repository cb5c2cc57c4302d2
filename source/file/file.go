// Package file implements a cachedict.Source backed by a local,
// zstd-compressed record file: the whole source table materialized once
// by an offline export job and read back in full on every Load (no
// on-disk index — a fit for small reference tables).
package file

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"

	"context"

	"github.com/klauspost/compress/zstd"

	"github.com/geowatson/cachedict"
)

// record is the on-disk shape of one source row, gob-encoded back to
// back inside the zstd stream.
type record struct {
	Key    uint64
	Values []any
}

func init() {
	// Values holds interface{}; gob needs every concrete type it will
	// see registered up front.
	for _, v := range []any{
		uint8(0), uint16(0), uint32(0), uint64(0),
		int8(0), int16(0), int32(0), int64(0),
		float32(0), float64(0), "",
	} {
		gob.Register(v)
	}
}

// Source loads every row from a single compressed file on each Load
// call, filtering down to the requested keys in memory.
type Source struct {
	path string
}

// Open returns a Source reading path. The file is not opened (and its
// existence not verified) until the first Load.
func Open(path string) *Source {
	return &Source{path: path}
}

func (s *Source) SupportsSelectiveLoad() bool { return true }

func (s *Source) Load(_ context.Context, keys []uint64) (cachedict.BlockStream, error) {
	want := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %s", cachedict.ErrSourceFailure, s.path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd reader: %s", cachedict.ErrSourceFailure, err)
	}
	defer dec.Close()

	gd := gob.NewDecoder(dec)

	var rows []cachedict.Row
	for {
		var rec record
		if err := gd.Decode(&rec); err != nil {
			break // EOF or truncated tail; treat as end of stream
		}
		if want[rec.Key] {
			rows = append(rows, cachedict.Row{Key: rec.Key, Values: rec.Values})
		}
	}

	block := cachedict.NewSimpleBlock(rows)
	return cachedict.NewSimpleBlockStream([]*cachedict.SimpleBlock{block}), nil
}

// Clone returns a new handle to the same path; the file itself is
// immutable reference data, so no copy is made.
func (s *Source) Clone() (cachedict.Source, error) {
	return Open(s.path), nil
}

// Write (re)creates the record file at path from rows, compressing with
// zstd's default speed level. Used by exporters and tests, not by the
// Dictionary itself.
func Write(path string, rows []cachedict.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cachedict/source/file: create %s: %w", path, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("cachedict/source/file: zstd writer: %w", err)
	}
	defer enc.Close()

	ge := gob.NewEncoder(enc)
	for _, r := range rows {
		if err := ge.Encode(record{Key: r.Key, Values: r.Values}); err != nil {
			return fmt.Errorf("cachedict/source/file: encode row %d: %w", r.Key, err)
		}
	}
	return nil
}
