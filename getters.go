package cachedict

import "context"

// getScalarInto resolves attrName, verifies its kind matches want, runs
// the batched lookup, and copies the boxed results into out in place. On
// UnknownAttribute/TypeMismatch out is left untouched and no source call
// is made.
func getScalarInto[T any](d *Dictionary, ctx context.Context, attrName string, keys []uint64, want Kind, out []T) error {
	idx, err := d.attributeIndex(attrName)
	if err != nil {
		return err
	}
	if err := d.checkKind(idx, want); err != nil {
		return err
	}

	raw, err := d.getScalar(ctx, idx, keys)
	for i, v := range raw {
		if i >= len(out) {
			break
		}
		if t, ok := v.(T); ok {
			out[i] = t
		}
	}
	return err
}

// GetUint8 returns the uint8 attribute value for key.
func (d *Dictionary) GetUint8(ctx context.Context, attrName string, key uint64) (uint8, error) {
	out := make([]uint8, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindUint8, out)
	return out[0], err
}

// GetUint8s fills out in-place, one value per key.
func (d *Dictionary) GetUint8s(ctx context.Context, attrName string, keys []uint64, out []uint8) error {
	return getScalarInto(d, ctx, attrName, keys, KindUint8, out)
}

func (d *Dictionary) GetUint16(ctx context.Context, attrName string, key uint64) (uint16, error) {
	out := make([]uint16, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindUint16, out)
	return out[0], err
}

func (d *Dictionary) GetUint16s(ctx context.Context, attrName string, keys []uint64, out []uint16) error {
	return getScalarInto(d, ctx, attrName, keys, KindUint16, out)
}

func (d *Dictionary) GetUint32(ctx context.Context, attrName string, key uint64) (uint32, error) {
	out := make([]uint32, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindUint32, out)
	return out[0], err
}

func (d *Dictionary) GetUint32s(ctx context.Context, attrName string, keys []uint64, out []uint32) error {
	return getScalarInto(d, ctx, attrName, keys, KindUint32, out)
}

func (d *Dictionary) GetUint64(ctx context.Context, attrName string, key uint64) (uint64, error) {
	out := make([]uint64, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindUint64, out)
	return out[0], err
}

func (d *Dictionary) GetUint64s(ctx context.Context, attrName string, keys []uint64, out []uint64) error {
	return getScalarInto(d, ctx, attrName, keys, KindUint64, out)
}

func (d *Dictionary) GetInt8(ctx context.Context, attrName string, key uint64) (int8, error) {
	out := make([]int8, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindInt8, out)
	return out[0], err
}

func (d *Dictionary) GetInt8s(ctx context.Context, attrName string, keys []uint64, out []int8) error {
	return getScalarInto(d, ctx, attrName, keys, KindInt8, out)
}

func (d *Dictionary) GetInt16(ctx context.Context, attrName string, key uint64) (int16, error) {
	out := make([]int16, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindInt16, out)
	return out[0], err
}

func (d *Dictionary) GetInt16s(ctx context.Context, attrName string, keys []uint64, out []int16) error {
	return getScalarInto(d, ctx, attrName, keys, KindInt16, out)
}

func (d *Dictionary) GetInt32(ctx context.Context, attrName string, key uint64) (int32, error) {
	out := make([]int32, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindInt32, out)
	return out[0], err
}

func (d *Dictionary) GetInt32s(ctx context.Context, attrName string, keys []uint64, out []int32) error {
	return getScalarInto(d, ctx, attrName, keys, KindInt32, out)
}

func (d *Dictionary) GetInt64(ctx context.Context, attrName string, key uint64) (int64, error) {
	out := make([]int64, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindInt64, out)
	return out[0], err
}

func (d *Dictionary) GetInt64s(ctx context.Context, attrName string, keys []uint64, out []int64) error {
	return getScalarInto(d, ctx, attrName, keys, KindInt64, out)
}

func (d *Dictionary) GetFloat32(ctx context.Context, attrName string, key uint64) (float32, error) {
	out := make([]float32, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindFloat32, out)
	return out[0], err
}

func (d *Dictionary) GetFloat32s(ctx context.Context, attrName string, keys []uint64, out []float32) error {
	return getScalarInto(d, ctx, attrName, keys, KindFloat32, out)
}

func (d *Dictionary) GetFloat64(ctx context.Context, attrName string, key uint64) (float64, error) {
	out := make([]float64, 1)
	err := getScalarInto(d, ctx, attrName, []uint64{key}, KindFloat64, out)
	return out[0], err
}

func (d *Dictionary) GetFloat64s(ctx context.Context, attrName string, keys []uint64, out []float64) error {
	return getScalarInto(d, ctx, attrName, keys, KindFloat64, out)
}

// GetString returns the string attribute value for key.
func (d *Dictionary) GetString(ctx context.Context, attrName string, key uint64) ([]byte, error) {
	idx, err := d.attributeIndex(attrName)
	if err != nil {
		return nil, err
	}
	if err := d.checkKind(idx, KindString); err != nil {
		return nil, err
	}

	col := NewStringColumn()
	if err := d.getString(ctx, idx, []uint64{key}, col); err != nil {
		return nil, err
	}
	return col.At(0), nil
}

// GetStrings appends one row per key to out.
func (d *Dictionary) GetStrings(ctx context.Context, attrName string, keys []uint64, out *StringColumn) error {
	idx, err := d.attributeIndex(attrName)
	if err != nil {
		return err
	}
	if err := d.checkKind(idx, KindString); err != nil {
		return err
	}
	return d.getString(ctx, idx, keys, out)
}
