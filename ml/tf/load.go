// Package tf turns tar shards stored in AIStore into (value, label) pairs
// for TensorFlow-style input pipelines, or into TFRecord files
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tf

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/NVIDIA/aisdataset/ml/ops"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/stats"
)

// string-keyed LoadFromTar arguments (see ParseLoadArgs)
const (
	ArgOutputTypes  = "output_types"
	ArgOutputShapes = "output_shapes"
	ArgPath         = "path"
)

type (
	loadArgs struct {
		toExample RecordToExample
		worker    *shard.WorkerInfo
		path      string
		shapes    [2][]int
		types     [2]ops.DType
	}
	LoadOpt func(*loadArgs)
)

// DefaultValueShape and DefaultLabelShape: [224, 224, 3] and scalar
var (
	DefaultValueShape = []int{DefaultHeight, DefaultWidth, 3}
	DefaultLabelShape = []int{}
)

// OutputTypes: dtypes the values and labels are cast to (default: float32, int32)
func OutputTypes(value, label ops.DType) LoadOpt {
	return func(a *loadArgs) { a.types = [2]ops.DType{value, label} }
}

// OutputShapes: expected shapes of values and labels; nil shape is not checked,
// empty shape is a scalar, negative dimension matches any size
func OutputShapes(value, label []int) LoadOpt {
	return func(a *loadArgs) { a.shapes = [2][]int{value, label} }
}

// Path makes LoadFromTar write the records to the TFRecord file
func Path(path string) LoadOpt {
	return func(a *loadArgs) { a.path = path }
}

// WithRecordToExample overrides DefaultRecordToExample (used with Path)
func WithRecordToExample(fn RecordToExample) LoadOpt {
	return func(a *loadArgs) { a.toExample = fn }
}

// Worker restricts loading to the worker's share of the shards
func Worker(w *shard.WorkerInfo) LoadOpt {
	return func(a *loadArgs) { a.worker = w }
}

func newLoadArgs(opts []LoadOpt) *loadArgs {
	a := &loadArgs{
		types:     [2]ops.DType{ops.Float32, ops.Int32},
		shapes:    [2][]int{DefaultValueShape, DefaultLabelShape},
		toExample: DefaultRecordToExample,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadFromTar produces (value, label) pairs out of the shards that match the template.
// Values and labels are cast to the output types and checked against the output shapes;
// List operations produce ops.Fields that are passed through as is.
// With Path, records are first written to the TFRecord file (see WriteTFRecord),
// and the pairs are then read back from it using ParseExample.
func (ds *Dataset) LoadFromTar(ctx context.Context, template string, opts ...LoadOpt) (iter.Seq2[Pair, error], error) {
	args := newLoadArgs(opts)
	for _, dt := range args.types {
		if dt <= ops.Invalid || dt > ops.Float64 {
			return nil, fmt.Errorf("invalid output type %s", dt)
		}
	}
	if args.path != "" {
		if _, err := ds.WriteTFRecord(ctx, template, args.path, args.toExample, args.worker); err != nil {
			return nil, err
		}
		return ReadTFRecord(args.path), nil
	}

	names, err := ds.ShardNames(ctx, template)
	if err != nil {
		return nil, err
	}
	if names, err = shard.SliceNames(names, args.worker); err != nil {
		return nil, err
	}
	load := func(ctx context.Context, name string) ([]Pair, error) {
		recs, err := ds.ReadShard(ctx, name)
		if err != nil {
			return nil, err
		}
		pairs := make([]Pair, 0, len(recs))
		for _, rec := range recs {
			value, label, err := ds.Apply(rec)
			if err == nil {
				value, err = output(value, args.types[0], args.shapes[0])
			}
			if err == nil {
				label, err = output(label, args.types[1], args.shapes[1])
			}
			if err != nil {
				return nil, fmt.Errorf("shard %q, record %q: %w", name, rec.Key, err)
			}
			pairs = append(pairs, Pair{Value: value, Label: label, Key: rec.Key, Shard: name})
		}
		ds.config.Stats.Add(stats.SampleCount, int64(len(pairs)))
		return pairs, nil
	}
	return shard.Prefetch(ctx, names, ds.config.NumWorkers, load), nil
}

func output(v any, dt ops.DType, shape []int) (any, error) {
	if fields, ok := v.(ops.Fields); ok {
		return fields, nil
	}
	t, err := ops.ToTensor(v, dt)
	if err != nil {
		return nil, err
	}
	t = ops.Cast(t, dt)
	if shape != nil && !t.ShapeEq(shape) {
		return nil, fmt.Errorf("%s does not match output shape %v", t, shape)
	}
	return t, nil
}

/////////////////
// string args //
/////////////////

var reShape = regexp.MustCompile(`\[([^\]]*)\]`)

// ParseLoadArgs converts string-keyed arguments, e.g.:
//
//	output_types:  "float32, int32"
//	output_shapes: "[224, 224, 3], []"  ("[*]" - any shape; "?" or -1 - any size)
//	path:          "/tmp/train.record"
func ParseLoadArgs(args map[string]string) ([]LoadOpt, error) {
	opts := make([]LoadOpt, 0, len(args))
	for name, val := range args {
		switch name {
		case ArgOutputTypes:
			parts := strings.Split(val, ",")
			if len(parts) != 2 {
				return nil, fmt.Errorf("%s: expecting (value, label) types, got %q", name, val)
			}
			vt, err := ops.ParseDType(parts[0])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			lt, err := ops.ParseDType(parts[1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			opts = append(opts, OutputTypes(vt, lt))
		case ArgOutputShapes:
			groups := reShape.FindAllStringSubmatch(val, -1)
			if len(groups) != 2 {
				return nil, fmt.Errorf("%s: expecting (value, label) shapes, got %q", name, val)
			}
			var shapes [2][]int
			for i, g := range groups {
				shape, err := parseShape(g[1])
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				shapes[i] = shape
			}
			opts = append(opts, OutputShapes(shapes[0], shapes[1]))
		case ArgPath:
			opts = append(opts, Path(val))
		default:
			return nil, fmt.Errorf("invalid argument name %q", name)
		}
	}
	return opts, nil
}

func parseShape(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return []int{}, nil
	case "*":
		return nil, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "?" || strings.EqualFold(p, "none") {
			shape = append(shape, -1)
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q", p)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
