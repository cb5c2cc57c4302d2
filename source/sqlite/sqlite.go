// Package sqlite implements a cachedict.Source backed by a SQLite table,
// queried through mattn/go-sqlite3's database/sql driver. Rows are
// fetched in chunks of in-clause placeholders to stay under SQLite's
// default bound-parameter limit, mirroring how the original
// CacheDictionary's ClickHouse-backed sources page large key sets.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/geowatson/cachedict"
)

// maxChunk bounds how many keys go into a single "IN (...)" query.
const maxChunk = 500

// Source queries table for rows keyed by keyColumn, projecting columns
// in the same order as the dictionary's schema.
type Source struct {
	db        *sql.DB
	dsn       string
	table     string
	keyColumn string
	columns   []string
}

// Open opens (or creates a handle to) the SQLite database at dsn and
// returns a Source reading table, selecting keyColumn followed by
// columns (which must match the dictionary schema's attribute order).
func Open(dsn, table, keyColumn string, columns []string) (*Source, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("cachedict/source/sqlite: open %s: %w", dsn, err)
	}
	return &Source{db: db, dsn: dsn, table: table, keyColumn: keyColumn, columns: columns}, nil
}

func (s *Source) SupportsSelectiveLoad() bool { return true }

// Load runs one SELECT per maxChunk-sized slice of keys and returns all
// matching rows as a single-block stream.
func (s *Source) Load(ctx context.Context, keys []uint64) (cachedict.BlockStream, error) {
	var rows []cachedict.Row

	for start := 0; start < len(keys); start += maxChunk {
		end := start + maxChunk
		if end > len(keys) {
			end = len(keys)
		}
		chunk, err := s.loadChunk(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", cachedict.ErrSourceFailure, err)
		}
		rows = append(rows, chunk...)
	}

	block := cachedict.NewSimpleBlock(rows)
	return cachedict.NewSimpleBlockStream([]*cachedict.SimpleBlock{block}), nil
}

func (s *Source) loadChunk(ctx context.Context, keys []uint64) ([]cachedict.Row, error) {
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = "?"
		args[i] = k
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		s.keyColumn, strings.Join(s.columns, ", "), s.table, s.keyColumn,
		strings.Join(placeholders, ", "))

	rs, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []cachedict.Row
	for rs.Next() {
		var key uint64
		values := make([]any, len(s.columns))
		scanDest := make([]any, len(values)+1)
		scanDest[0] = &key
		for i := range values {
			scanDest[i+1] = &values[i]
		}
		if err := rs.Scan(scanDest...); err != nil {
			return nil, err
		}
		out = append(out, cachedict.Row{Key: key, Values: values})
	}
	return out, rs.Err()
}

// Clone opens a second handle to the same database file, per the
// Source.Clone contract used by Dictionary.Clone.
func (s *Source) Clone() (cachedict.Source, error) {
	return Open(s.dsn, s.table, s.keyColumn, s.columns)
}

// Close releases the underlying database handle.
func (s *Source) Close() error { return s.db.Close() }
