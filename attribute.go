package cachedict

import (
	"fmt"
	"strconv"
)

// attribute is the per-declared-column typed storage. Exactly one of
// the typed slices is non-nil, selected by kind — a tagged variant over
// a closed set of column types. Reads and writes switch on kind once
// per element (readScalarAny, writeScalar); there is no per-batch typed
// path.
type attribute struct {
	name string
	kind Kind

	nullU8  uint8
	nullU16 uint16
	nullU32 uint32
	nullU64 uint64
	nullI8  int8
	nullI16 int16
	nullI32 int32
	nullI64 int64
	nullF32 float32
	nullF64 float64
	nullStr string

	u8  []uint8
	u16 []uint16
	u32 []uint32
	u64 []uint64
	i8  []int8
	i16 []int16
	i32 []int32
	i64 []int64
	f32 []float32
	f64 []float64
	str [][]byte // owned buffers; nil entry == empty value or not yet written
}

// newAttribute allocates all columns to length capacity and parses
// nullValue per kind: a typed default configured at construction from a
// human-readable string parsed according to kind.
func newAttribute(schema AttributeSchema, capacity uint64) (*attribute, error) {
	a := &attribute{name: schema.Name, kind: schema.Kind}
	n := int(capacity)

	switch schema.Kind {
	case KindUint8:
		v, err := strconv.ParseUint(schema.NullValue, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as uint8: %w", schema.Name, err)
		}
		a.nullU8 = uint8(v)
		a.u8 = make([]uint8, n)
	case KindUint16:
		v, err := strconv.ParseUint(schema.NullValue, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as uint16: %w", schema.Name, err)
		}
		a.nullU16 = uint16(v)
		a.u16 = make([]uint16, n)
	case KindUint32:
		v, err := strconv.ParseUint(schema.NullValue, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as uint32: %w", schema.Name, err)
		}
		a.nullU32 = uint32(v)
		a.u32 = make([]uint32, n)
	case KindUint64:
		v, err := strconv.ParseUint(schema.NullValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as uint64: %w", schema.Name, err)
		}
		a.nullU64 = v
		a.u64 = make([]uint64, n)
	case KindInt8:
		v, err := strconv.ParseInt(schema.NullValue, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as int8: %w", schema.Name, err)
		}
		a.nullI8 = int8(v)
		a.i8 = make([]int8, n)
	case KindInt16:
		v, err := strconv.ParseInt(schema.NullValue, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as int16: %w", schema.Name, err)
		}
		a.nullI16 = int16(v)
		a.i16 = make([]int16, n)
	case KindInt32:
		v, err := strconv.ParseInt(schema.NullValue, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as int32: %w", schema.Name, err)
		}
		a.nullI32 = int32(v)
		a.i32 = make([]int32, n)
	case KindInt64:
		v, err := strconv.ParseInt(schema.NullValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as int64: %w", schema.Name, err)
		}
		a.nullI64 = v
		a.i64 = make([]int64, n)
	case KindFloat32:
		v, err := strconv.ParseFloat(schema.NullValue, 32)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as float32: %w", schema.Name, err)
		}
		a.nullF32 = float32(v)
		a.f32 = make([]float32, n)
	case KindFloat64:
		v, err := strconv.ParseFloat(schema.NullValue, 64)
		if err != nil {
			return nil, fmt.Errorf("cachedict: parsing null_value for %q as float64: %w", schema.Name, err)
		}
		a.nullF64 = v
		a.f64 = make([]float64, n)
	case KindString:
		a.nullStr = schema.NullValue
		a.str = make([][]byte, n)
	default:
		return nil, fmt.Errorf("cachedict: unknown attribute kind %d for %q", schema.Kind, schema.Name)
	}

	return a, nil
}

// writeScalar installs value at slot. Only legal under the write lock.
func (a *attribute) writeScalar(slot uint64, value any) {
	switch a.kind {
	case KindUint8:
		a.u8[slot] = toUint8(value)
	case KindUint16:
		a.u16[slot] = toUint16(value)
	case KindUint32:
		a.u32[slot] = toUint32(value)
	case KindUint64:
		a.u64[slot] = toUint64(value)
	case KindInt8:
		a.i8[slot] = toInt8(value)
	case KindInt16:
		a.i16[slot] = toInt16(value)
	case KindInt32:
		a.i32[slot] = toInt32(value)
	case KindInt64:
		a.i64[slot] = toInt64(value)
	case KindFloat32:
		a.f32[slot] = toFloat32(value)
	case KindFloat64:
		a.f64[slot] = toFloat64(value)
	}
}

// writeString releases the previous buffer (if any) before installing a
// new one. An empty string stores a nil sentinel and frees the old
// buffer — zero-length writes must not leak.
func (a *attribute) writeString(slot uint64, value string) {
	a.str[slot] = nil // drop our reference; GC reclaims the old buffer
	if len(value) == 0 {
		return
	}
	buf := make([]byte, len(value))
	copy(buf, value) // exactly len(value) bytes — see DESIGN.md open question #1
	a.str[slot] = buf
}

func (a *attribute) readString(slot uint64) []byte {
	return a.str[slot]
}

func (a *attribute) nullValueString() string { return a.nullStr }

// readScalarAny reads the column value at slot, boxed. Only valid when
// the caller has already verified the owning cell matches the requested
// key and is unexpired.
func (a *attribute) readScalarAny(slot uint64) any {
	switch a.kind {
	case KindUint8:
		return a.u8[slot]
	case KindUint16:
		return a.u16[slot]
	case KindUint32:
		return a.u32[slot]
	case KindUint64:
		return a.u64[slot]
	case KindInt8:
		return a.i8[slot]
	case KindInt16:
		return a.i16[slot]
	case KindInt32:
		return a.i32[slot]
	case KindInt64:
		return a.i64[slot]
	case KindFloat32:
		return a.f32[slot]
	case KindFloat64:
		return a.f64[slot]
	default:
		return nil
	}
}

// nullScalarAny returns the boxed typed default for this attribute.
func (a *attribute) nullScalarAny() any {
	switch a.kind {
	case KindUint8:
		return a.nullU8
	case KindUint16:
		return a.nullU16
	case KindUint32:
		return a.nullU32
	case KindUint64:
		return a.nullU64
	case KindInt8:
		return a.nullI8
	case KindInt16:
		return a.nullI16
	case KindInt32:
		return a.nullI32
	case KindInt64:
		return a.nullI64
	case KindFloat32:
		return a.nullF32
	case KindFloat64:
		return a.nullF64
	default:
		return nil
	}
}

func toUint8(v any) uint8 {
	switch x := v.(type) {
	case uint8:
		return x
	case uint64:
		return uint8(x)
	case int64:
		return uint8(x)
	}
	return 0
}

func toUint16(v any) uint16 {
	switch x := v.(type) {
	case uint16:
		return x
	case uint64:
		return uint16(x)
	case int64:
		return uint16(x)
	}
	return 0
}

func toUint32(v any) uint32 {
	switch x := v.(type) {
	case uint32:
		return x
	case uint64:
		return uint32(x)
	case int64:
		return uint32(x)
	}
	return 0
}

func toUint64(v any) uint64 {
	switch x := v.(type) {
	case uint64:
		return x
	case int64:
		return uint64(x)
	}
	return 0
}

func toInt8(v any) int8 {
	switch x := v.(type) {
	case int8:
		return x
	case int64:
		return int8(x)
	case uint64:
		return int8(x)
	}
	return 0
}

func toInt16(v any) int16 {
	switch x := v.(type) {
	case int16:
		return x
	case int64:
		return int16(x)
	case uint64:
		return int16(x)
	}
	return 0
}

func toInt32(v any) int32 {
	switch x := v.(type) {
	case int32:
		return x
	case int64:
		return int32(x)
	case uint64:
		return int32(x)
	}
	return 0
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case uint64:
		return int64(x)
	}
	return 0
}

func toFloat32(v any) float32 {
	switch x := v.(type) {
	case float32:
		return x
	case float64:
		return float32(x)
	}
	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	}
	return 0
}
