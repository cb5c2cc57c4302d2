package cachedict

// StringColumn is a variable-length byte column: a single growable
// backing buffer plus per-row end offsets, mirroring the source
// ColumnString this cache is modeled on. Batch string lookups
// append rows to a caller-supplied StringColumn so callers can build one
// column across several calls without per-row allocations.
type StringColumn struct {
	data    []byte
	offsets []int
}

// NewStringColumn returns an empty column.
func NewStringColumn() *StringColumn {
	return &StringColumn{}
}

// Reserve grows the backing buffer's capacity to at least totalBytes
// without changing its length, to minimize reallocation during a large
// append burst.
func (c *StringColumn) Reserve(totalBytes int) {
	if cap(c.data) >= totalBytes {
		return
	}
	grown := make([]byte, len(c.data), totalBytes)
	copy(grown, c.data)
	c.data = grown
}

// Append adds one row.
func (c *StringColumn) Append(b []byte) {
	c.data = append(c.data, b...)
	c.offsets = append(c.offsets, len(c.data))
}

// Len returns the number of rows.
func (c *StringColumn) Len() int { return len(c.offsets) }

// At returns row i without copying.
func (c *StringColumn) At(i int) []byte {
	start := 0
	if i > 0 {
		start = c.offsets[i-1]
	}
	return c.data[start:c.offsets[i]]
}

// Truncate discards every row at or past index rows, without releasing
// the underlying array. Used by the optimistic read pass to discard a
// partial batch on the first miss while preserving whatever rows the
// column held before this call.
func (c *StringColumn) Truncate(rows int) {
	if rows >= len(c.offsets) {
		return
	}
	end := 0
	if rows > 0 {
		end = c.offsets[rows-1]
	}
	c.data = c.data[:end]
	c.offsets = c.offsets[:rows]
}
