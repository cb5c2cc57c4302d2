package cachedict

// Row is one source row: a key plus one positional value per declared
// attribute (strings as string, everything else as its Go scalar type).
// SimpleBlock/SimpleBlockStream are a reusable Block/BlockStream
// implementation for Source adapters whose backend already materializes
// whole rows in memory (source/memory, source/sqlite, source/dynamo,
// source/file) — every adapter in this repo builds Rows from its own
// backend and hands them to NewSimpleBlockStream rather than
// reimplementing the block protocol.
type Row struct {
	Key    uint64
	Values []any
}

// SimpleBlock is a Block backed by a plain slice of Rows.
type SimpleBlock struct {
	rows []Row
}

// NewSimpleBlock wraps rows as a single Block.
func NewSimpleBlock(rows []Row) *SimpleBlock {
	return &SimpleBlock{rows: rows}
}

func (b *SimpleBlock) Len() int { return len(b.rows) }

func (b *SimpleBlock) Keys() ([]uint64, error) {
	keys := make([]uint64, len(b.rows))
	for i, r := range b.rows {
		keys[i] = r.Key
	}
	return keys, nil
}

func (b *SimpleBlock) Scalar(attrIdx, row int) any {
	return b.rows[row].Values[attrIdx]
}

func (b *SimpleBlock) String(attrIdx, row int) string {
	switch v := b.rows[row].Values[attrIdx].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// SimpleBlockStream iterates a fixed, pre-built slice of blocks. Prefix
// and suffix are no-ops; adapters that need real stream setup/teardown
// (e.g. closing a SQL cursor) wrap this or implement BlockStream
// directly.
type SimpleBlockStream struct {
	blocks []*SimpleBlock
	pos    int
}

// NewSimpleBlockStream wraps pre-built blocks as a BlockStream.
func NewSimpleBlockStream(blocks []*SimpleBlock) *SimpleBlockStream {
	return &SimpleBlockStream{blocks: blocks}
}

func (s *SimpleBlockStream) ReadPrefix() error { return nil }
func (s *SimpleBlockStream) ReadSuffix() error { return nil }

func (s *SimpleBlockStream) Read() (Block, error) {
	if s.pos >= len(s.blocks) {
		return nil, nil
	}
	b := s.blocks[s.pos]
	s.pos++
	return b, nil
}
