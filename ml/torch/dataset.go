// Package torch provides PyTorch-style datasets over AIStore objects:
// iterable and map-style (name, bytes) datasets and a tar-shard record reader
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package torch

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/stats"
)

type (
	// Sample is a (name, bytes) pair; Name is the object name
	Sample struct {
		Name string
		Data []byte
	}

	base struct {
		bp        api.BaseParams
		prefixMap PrefixMap
		stats     *stats.Tracker
		etlName   string
		sources   []Source
	}

	// IterDataset streams the objects of its sources; each worker reads
	// its own disjoint subset (see shard.WorkerInfo)
	IterDataset struct {
		base
	}

	// MapDataset lists its sources once, up front, and reads objects by index
	MapDataset struct {
		base
		objects []Object
	}
)

func newBase(bp api.BaseParams, sources []Source, prefixMap PrefixMap, etlName string) (base, error) {
	if len(sources) == 0 {
		return base{}, fmt.Errorf("no sources")
	}
	for i, src := range sources {
		if src == nil {
			return base{}, fmt.Errorf("source #%d is nil", i)
		}
	}
	return base{bp: bp, sources: sources, prefixMap: prefixMap, etlName: etlName}, nil
}

// SetStats enables GET accounting
func (b *base) SetStats(t *stats.Tracker) { b.stats = t }

func (b *base) read(ctx context.Context, obj *Object) (Sample, error) {
	var (
		bp      = b.bp
		buf     bytes.Buffer
		started = time.Now()
	)
	bp.Ctx = ctx
	if obj.Size > 0 && b.etlName == "" {
		buf.Grow(int(obj.Size))
	}
	n, err := api.GetObject(bp, obj.Bck, obj.Name, &api.GetArgs{Writer: &buf, ETLName: b.etlName})
	if err != nil {
		b.stats.IncErr(stats.GetCount)
		return Sample{}, readErr(obj, err)
	}
	b.stats.ObjGet(n, started)
	b.stats.Inc(stats.SampleCount)
	return Sample{Name: obj.Name, Data: buf.Bytes()}, nil
}

func readErr(obj *Object, err error) error {
	if cmn.IsStatusNotFound(err) {
		return cos.NewErrNotFound(&obj.Bck, fmt.Sprintf("object %q", obj.Name), err)
	}
	return fmt.Errorf("failed to read %s: %w", obj.String(), err)
}

/////////////////
// IterDataset //
/////////////////

// NewIterDataset: prefixMap (optional) restricts sources to objects with the given name prefixes;
// etlName (optional) transforms each object on the way out of the cluster
func NewIterDataset(bp api.BaseParams, sources []Source, prefixMap PrefixMap, etlName string) (*IterDataset, error) {
	b, err := newBase(bp, sources, prefixMap, etlName)
	if err != nil {
		return nil, err
	}
	return &IterDataset{base: b}, nil
}

// Iter yields the samples the worker owns: objects number w.ID, w.ID + w.NumWorkers,
// and so on, in listing order; nil w reads everything
func (ds *IterDataset) Iter(ctx context.Context, w *shard.WorkerInfo) (iter.Seq2[Sample, error], error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return func(yield func(Sample, error) bool) {
		var errList error
		objs := func(yieldObj func(Object) bool) {
			for obj, err := range allObjects(ctx, ds.bp, ds.sources, ds.prefixMap) {
				if err != nil {
					errList = err
					return
				}
				if !yieldObj(obj) {
					return
				}
			}
		}
		owned, err := shard.Slice(objs, w)
		if err != nil {
			yield(Sample{}, err)
			return
		}
		for obj := range owned {
			sample, err := ds.read(ctx, &obj)
			if !yield(sample, err) || err != nil {
				return
			}
		}
		if errList != nil {
			ds.stats.IncErr(stats.ListCount)
			yield(Sample{}, errList)
		}
	}, nil
}

////////////////
// MapDataset //
////////////////

// NewMapDataset lists all sources (see NewIterDataset for the arguments)
func NewMapDataset(ctx context.Context, bp api.BaseParams, sources []Source, prefixMap PrefixMap, etlName string) (*MapDataset, error) {
	b, err := newBase(bp, sources, prefixMap, etlName)
	if err != nil {
		return nil, err
	}
	ds := &MapDataset{base: b}
	for obj, err := range allObjects(ctx, bp, sources, prefixMap) {
		if err != nil {
			return nil, err
		}
		ds.objects = append(ds.objects, obj)
	}
	return ds, nil
}

func (ds *MapDataset) Len() int { return len(ds.objects) }

// Objects returns the listed objects (not to be modified)
func (ds *MapDataset) Objects() []Object { return ds.objects }

func (ds *MapDataset) Get(ctx context.Context, i int) (Sample, error) {
	if i < 0 || i >= len(ds.objects) {
		return Sample{}, fmt.Errorf("index %d out of range [0, %d)", i, len(ds.objects))
	}
	return ds.read(ctx, &ds.objects[i])
}
