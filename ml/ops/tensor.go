// Package ops implements per-field operations that turn tar records into
// training values and labels
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type DType int

const (
	Invalid DType = iota
	Uint8
	Int32
	Int64
	Float32
	Float64
)

var dtypeNames = [...]string{"invalid", "uint8", "int32", "int64", "float32", "float64"}

func (dt DType) String() string {
	if dt < 0 || int(dt) >= len(dtypeNames) {
		return fmt.Sprintf("dtype(%d)", int(dt))
	}
	return dtypeNames[dt]
}

func (dt DType) IsFloat() bool { return dt == Float32 || dt == Float64 }

// max is the image-convention maximum of an integer dtype
func (dt DType) max() float64 {
	switch dt {
	case Uint8:
		return math.MaxUint8
	case Int32:
		return math.MaxInt32
	case Int64:
		return math.MaxInt64
	default:
		return 1
	}
}

func (dt DType) min() float64 {
	switch dt {
	case Int32:
		return math.MinInt32
	case Int64:
		return math.MinInt64
	case Uint8:
		return 0
	default:
		return -1
	}
}

func ParseDType(s string) (DType, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "tf.")
	for i := Uint8; i <= Float64; i++ {
		if dtypeNames[i] == s {
			return i, nil
		}
	}
	return Invalid, fmt.Errorf("invalid dtype %q, expecting one of: %v", s, dtypeNames[1:])
}

// Tensor is a dense row-major array; Data is one of []uint8, []int32, []int64,
// []float32, []float64 according to DType; empty Shape denotes a scalar
type Tensor struct {
	Data  any
	Shape []int
	DType DType
}

func NumElems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func NewTensor(dt DType, shape ...int) *Tensor {
	n := NumElems(shape)
	t := &Tensor{DType: dt, Shape: slices.Clone(shape)}
	switch dt {
	case Uint8:
		t.Data = make([]uint8, n)
	case Int32:
		t.Data = make([]int32, n)
	case Int64:
		t.Data = make([]int64, n)
	case Float32:
		t.Data = make([]float32, n)
	case Float64:
		t.Data = make([]float64, n)
	default:
		panic("invalid dtype " + dt.String())
	}
	return t
}

// Scalar makes a 0-dimensional tensor
func Scalar(dt DType, v float64) *Tensor {
	t := NewTensor(dt)
	t.Set(0, v)
	return t
}

func (t *Tensor) Len() int {
	switch d := t.Data.(type) {
	case []uint8:
		return len(d)
	case []int32:
		return len(d)
	case []int64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	}
	return 0
}

func (t *Tensor) At(i int) float64 {
	switch d := t.Data.(type) {
	case []uint8:
		return float64(d[i])
	case []int32:
		return float64(d[i])
	case []int64:
		return float64(d[i])
	case []float32:
		return float64(d[i])
	case []float64:
		return d[i]
	}
	panic("invalid tensor data")
}

// Set stores the value as is (truncating toward zero for integer dtypes);
// see Convert for saturating, scaled conversions
func (t *Tensor) Set(i int, v float64) {
	switch d := t.Data.(type) {
	case []uint8:
		d[i] = uint8(v)
	case []int32:
		d[i] = int32(v)
	case []int64:
		d[i] = int64(v)
	case []float32:
		d[i] = float32(v)
	case []float64:
		d[i] = v
	default:
		panic("invalid tensor data")
	}
}

func (t *Tensor) IsScalar() bool { return len(t.Shape) == 0 }

// ShapeEq compares shapes; negative dimensions in `shape` match any size
func (t *Tensor) ShapeEq(shape []int) bool {
	if len(t.Shape) != len(shape) {
		return false
	}
	for i, d := range shape {
		if d >= 0 && t.Shape[i] != d {
			return false
		}
	}
	return true
}

func (t *Tensor) String() string {
	return fmt.Sprintf("tensor<%s%v>", t.DType, t.Shape)
}
