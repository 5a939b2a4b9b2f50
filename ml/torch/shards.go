// Package torch provides PyTorch-style datasets over AIStore objects:
// iterable and map-style (name, bytes) datasets and a tar-shard record reader
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package torch

import (
	"context"
	"iter"
	"time"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/ml/tarrec"
	"github.com/NVIDIA/aisdataset/stats"
	"github.com/NVIDIA/aisdataset/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ShardReader treats every object of its sources as a tar shard and yields
// the shard's records: all member files with the same basename, keyed by extension
type ShardReader struct {
	base
	opts       tarrec.Options
	numWorkers int
}

// NewShardReader: opts == nil accepts all extensions; numWorkers shards are
// loaded concurrently while records are yielded in shard order
func NewShardReader(bp api.BaseParams, sources []Source, prefixMap PrefixMap, opts *tarrec.Options, numWorkers int) (*ShardReader, error) {
	b, err := newBase(bp, sources, prefixMap, "")
	if err != nil {
		return nil, err
	}
	sr := &ShardReader{base: b, numWorkers: max(numWorkers, 1)}
	if opts != nil {
		sr.opts = *opts
	} else {
		sr.opts.AllExts = true
	}
	return sr, nil
}

// Iter partitions shards (not records) between workers
func (sr *ShardReader) Iter(ctx context.Context, w *shard.WorkerInfo) (iter.Seq2[*tarrec.Record, error], error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	var (
		objs  = make(map[string]Object)
		names []string
		i     int
	)
	for obj, err := range allObjects(ctx, sr.bp, sr.sources, sr.prefixMap) {
		if err != nil {
			sr.stats.IncErr(stats.ListCount)
			return nil, err
		}
		if w.Owns(i) {
			cname := obj.String()
			objs[cname] = obj
			names = append(names, cname)
		}
		i++
	}
	load := func(ctx context.Context, cname string) ([]*tarrec.Record, error) {
		obj := objs[cname]
		return sr.readShard(ctx, &obj)
	}
	return shard.Prefetch(ctx, names, sr.numWorkers, load), nil
}

func (sr *ShardReader) readShard(ctx context.Context, obj *Object) (recs []*tarrec.Record, err error) {
	ctx, span := tracing.StartSpan(ctx, "read-shard", attribute.String("shard", obj.String()))
	defer func() { tracing.EndSpan(span, err) }()
	bp := sr.bp
	bp.Ctx = ctx
	started := time.Now()
	r, _, err := api.GetObjectReader(bp, obj.Bck, obj.Name, nil)
	if err != nil {
		sr.stats.IncErr(stats.GetCount)
		return nil, readErr(obj, err)
	}
	cr := &cos.CountingReader{R: r}
	opts := sr.opts
	opts.ShardName = obj.Name
	recs, err = tarrec.ReadShard(cr, "", obj.Name, &opts)
	cos.Close(r)
	if err != nil {
		sr.stats.IncErr(stats.RecordCount)
		return nil, err
	}
	sr.stats.ObjGet(cr.N, started)
	sr.stats.Add(stats.RecordCount, int64(len(recs)))
	return recs, nil
}
