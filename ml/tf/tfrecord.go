// Package tf turns tar shards stored in AIStore into (value, label) pairs
// for TensorFlow-style input pipelines, or into TFRecord files
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tf

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/cmn/nlog"
	"github.com/NVIDIA/aisdataset/ml/ops"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/ml/tarrec"

	"github.com/NVIDIA/go-tfdata/tfdata/core"
)

// TFExample features written by DefaultRecordToExample
const (
	FeatHeight   = "height"
	FeatWidth    = "width"
	FeatDepth    = "depth"
	FeatLabel    = "label"
	FeatImageRaw = "image_raw"
)

// RecordToExample translates a tar record into a TFExample
type RecordToExample func(rec *tarrec.Record) (*core.TFExample, error)

// DefaultRecordToExample stores the "jpg" image as is, along with its
// dimensions and the integer label parsed from "cls"
func DefaultRecordToExample(rec *tarrec.Record) (*core.TFExample, error) {
	cls, ok := rec.Get("cls")
	if !ok {
		return nil, &ops.ErrMissingField{Key: rec.Key, Ext: "cls"}
	}
	label, err := strconv.Atoi(strings.TrimSpace(string(cls)))
	if err != nil {
		return nil, fmt.Errorf("record %q: invalid label %q", rec.Key, cls)
	}
	img, ok := rec.Get("jpg")
	if !ok {
		return nil, &ops.ErrMissingField{Key: rec.Key, Ext: "jpg"}
	}
	shape, err := ops.ImageShape(img)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", rec.Key, err)
	}
	ex := core.NewTFExample()
	ex.AddInt(FeatHeight, shape[0])
	ex.AddInt(FeatWidth, shape[1])
	ex.AddInt(FeatDepth, shape[2])
	ex.AddInt(FeatLabel, label)
	ex.AddBytes(FeatImageRaw, img)
	return ex, nil
}

// WriteTFRecord writes examples of all records of the matching shards to
// the file at `path`; the file appears only when complete
func (ds *Dataset) WriteTFRecord(ctx context.Context, template, path string, toExample RecordToExample,
	w *shard.WorkerInfo) (cnt int, err error) {
	if toExample == nil {
		toExample = DefaultRecordToExample
	}
	recs, err := ds.Records(ctx, template, w)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, cos.PermRWXRX); err != nil {
			return 0, err
		}
	}
	tmp := path + ".tmp." + cos.GenUUID()
	fh, err := cos.CreateFile(tmp)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			fh.Close()
			if errRm := os.Remove(tmp); errRm != nil && !os.IsNotExist(errRm) {
				nlog.Errorf("failed to remove %q: %v", tmp, errRm)
			}
		}
	}()

	tw := core.NewTFRecordWriter(fh)
	for rec, errN := range recs {
		if errN != nil {
			return cnt, errN
		}
		ex, errN := toExample(rec)
		if errN != nil {
			return cnt, errN
		}
		if _, err = tw.WriteExample(ex); err != nil {
			return cnt, fmt.Errorf("failed to write %q: %w", tmp, err)
		}
		cnt++
	}
	if err = fh.Close(); err != nil {
		return cnt, err
	}
	if err = cos.Rename(tmp, path); err != nil {
		return cnt, err
	}
	nlog.Infof("%s: wrote %d example(s) to %q", ds, cnt, path)
	return cnt, nil
}

// ReadTFRecord yields pairs parsed from the TFRecord file with ParseExample
func ReadTFRecord(path string) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		fh, err := os.Open(path)
		if err != nil {
			yield(Pair{}, err)
			return
		}
		examples, err := core.NewTFRecordReader(fh).ReadAllExamples()
		fh.Close()
		if err != nil {
			yield(Pair{}, fmt.Errorf("failed to read %q: %w", path, err))
			return
		}
		for i, ex := range examples {
			p, err := ParseExample(ex)
			if err != nil {
				err = fmt.Errorf("%q, example #%d: %w", path, i, err)
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// ParseExample is the default record parser: decodes "image_raw" and resizes
// it to float32 [224, 224, 3]; the label is an int32 scalar
func ParseExample(ex *core.TFExample) (Pair, error) {
	raw := ex.GetFeature(FeatImageRaw).GetBytesList().GetValue()
	if len(raw) == 0 {
		return Pair{}, errors.New("missing " + FeatImageRaw)
	}
	labels := ex.GetFeature(FeatLabel).GetInt64List().GetValue()
	if len(labels) == 0 {
		return Pair{}, errors.New("missing " + FeatLabel)
	}
	img, err := ops.DecodeImage(raw[0])
	if err != nil {
		return Pair{}, err
	}
	value, err := ops.ResizeImage(img, DefaultHeight, DefaultWidth)
	if err != nil {
		return Pair{}, err
	}
	if !value.ShapeEq(DefaultValueShape) {
		return Pair{}, fmt.Errorf("can't reshape %s to %v", value, DefaultValueShape)
	}
	return Pair{Value: value, Label: ops.Scalar(ops.Int32, float64(labels[0]))}, nil
}
