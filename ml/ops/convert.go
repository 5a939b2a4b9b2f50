// Package ops implements per-field operations that turn tar records into
// training values and labels
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var intBits = map[DType]uint{Uint8: 8, Int32: 31, Int64: 63}

// ConvertTensor converts an image tensor following the image dtype convention:
// integer values span [0, MAX] and float values span [0, 1], so that
//   - int => float scales by 1/MAX(src)
//   - float => int scales by MAX(dst)+0.5 and saturates
//   - float => float casts
//   - int => int rescales by the power-of-two ratio of the ranges
func ConvertTensor(t *Tensor, dt DType) *Tensor {
	if t.DType == dt {
		return t
	}
	var (
		n   = t.Len()
		out = NewTensor(dt, t.Shape...)
	)
	switch {
	case !t.DType.IsFloat() && dt.IsFloat():
		scale := 1 / t.DType.max()
		for i := range n {
			out.Set(i, t.At(i)*scale)
		}
	case t.DType.IsFloat() && !dt.IsFloat():
		scale := dt.max() + 0.5
		for i := range n {
			out.Set(i, saturate(t.At(i)*scale, dt))
		}
	case t.DType.IsFloat() && dt.IsFloat():
		for i := range n {
			out.Set(i, t.At(i))
		}
	default:
		srcBits, dstBits := intBits[t.DType], intBits[dt]
		for i := range n {
			v := t.atInt(i)
			if srcBits > dstBits {
				v >>= srcBits - dstBits
			} else {
				v <<= dstBits - srcBits
			}
			out.setInt(i, v)
		}
	}
	return out
}

// Cast converts values as is (saturating for integer dtypes)
func Cast(t *Tensor, dt DType) *Tensor {
	if t.DType == dt {
		return t
	}
	out := NewTensor(dt, t.Shape...)
	for i := range t.Len() {
		if !t.DType.IsFloat() && !dt.IsFloat() {
			out.setInt(i, t.atInt(i))
		} else {
			out.Set(i, saturate(t.At(i), dt))
		}
	}
	return out
}

// ToTensor converts a value produced by an operation: tensors are returned
// as is; bytes and strings are parsed as a number; JSON numbers, booleans,
// and arrays of numbers are cast to `dt`
func ToTensor(v any, dt DType) (*Tensor, error) {
	switch x := v.(type) {
	case *Tensor:
		return x, nil
	case []byte:
		return parseScalar(string(x), dt)
	case string:
		return parseScalar(x, dt)
	case float64:
		return Scalar(dt, saturate(x, dt)), nil
	case float32:
		return Scalar(dt, saturate(float64(x), dt)), nil
	case int:
		return scalarInt(dt, int64(x)), nil
	case int32:
		return scalarInt(dt, int64(x)), nil
	case int64:
		return scalarInt(dt, x), nil
	case bool:
		if x {
			return Scalar(dt, 1), nil
		}
		return Scalar(dt, 0), nil
	case []any:
		t := NewTensor(dt, len(x))
		for i, e := range x {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("array element %d: expected number, got %T", i, e)
			}
			t.Set(i, saturate(f, dt))
		}
		return t, nil
	}
	return nil, fmt.Errorf("can't convert %T to %s", v, dt)
}

func parseScalar(s string, dt DType) (*Tensor, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scalarInt(dt, n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q as a number", s)
	}
	return Scalar(dt, saturate(f, dt)), nil
}

func scalarInt(dt DType, n int64) *Tensor {
	t := NewTensor(dt)
	if dt.IsFloat() {
		t.Set(0, float64(n))
	} else {
		t.setInt(0, n)
	}
	return t
}

func saturate(v float64, dt DType) float64 {
	if dt.IsFloat() {
		return v
	}
	if math.IsNaN(v) {
		return 0
	}
	switch {
	case v <= dt.min():
		return dt.min()
	case dt == Int64 && v >= math.MaxInt64:
		return math.Nextafter(math.MaxInt64, 0)
	case v >= dt.max():
		return dt.max()
	}
	return v
}

func (t *Tensor) atInt(i int) int64 {
	switch d := t.Data.(type) {
	case []uint8:
		return int64(d[i])
	case []int32:
		return int64(d[i])
	case []int64:
		return d[i]
	}
	return int64(t.At(i))
}

// setInt stores an integer saturating to the dtype's range
func (t *Tensor) setInt(i int, v int64) {
	switch d := t.Data.(type) {
	case []uint8:
		d[i] = uint8(min(max(v, 0), math.MaxUint8))
	case []int32:
		d[i] = int32(min(max(v, math.MinInt32), math.MaxInt32))
	case []int64:
		d[i] = v
	default:
		t.Set(i, float64(v))
	}
}
