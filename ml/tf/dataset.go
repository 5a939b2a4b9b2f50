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
	"sync"
	"time"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/cmn/nlog"
	"github.com/NVIDIA/aisdataset/core/meta"
	"github.com/NVIDIA/aisdataset/ml/ops"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/ml/tarrec"
	"github.com/NVIDIA/aisdataset/stats"
	"github.com/NVIDIA/aisdataset/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultHeight = 224
	DefaultWidth  = 224
)

type (
	Config struct {
		ValOp   ops.Op // default: DefaultValOp()
		LabelOp ops.Op // default: DefaultLabelOp()
		// record assembly: allowed extensions, shuffle
		Records tarrec.Options
		// optional ETL to transform shards on the way out of the cluster
		ETLName string
		// number of shards loaded concurrently (records are yielded in shard order)
		NumWorkers int
		// read shards directly from the targets that store them (see api.HrwParams)
		Direct bool
		Stats  *stats.Tracker
	}

	Dataset struct {
		bp     api.BaseParams
		bck    cmn.Bck
		config Config
		smap   *meta.Smap
		mu     sync.Mutex
	}

	// Pair is a (value, label) produced by the dataset's operations
	Pair struct {
		Value any
		Label any
		Key   string // record key
		Shard string // shard (object) name
	}
)

// Resize(Convert(Decode("jpg"), float32), 224, 224)
func DefaultValOp() ops.Op {
	return ops.NewResize(ops.NewConvert(ops.NewDecode("jpg"), ops.Float32), DefaultHeight, DefaultWidth)
}

// Select("cls")
func DefaultLabelOp() ops.Op { return ops.NewSelect("cls") }

// NewDataset validates the operations; nil config means defaults
func NewDataset(bp api.BaseParams, bck cmn.Bck, config *Config) (*Dataset, error) {
	if err := bck.Validate(); err != nil {
		return nil, err
	}
	ds := &Dataset{bp: bp, bck: bck}
	if config != nil {
		ds.config = *config
	}
	if ds.config.ValOp == nil {
		ds.config.ValOp = DefaultValOp()
	}
	if ds.config.LabelOp == nil {
		ds.config.LabelOp = DefaultLabelOp()
	}
	if err := ops.Validate(ds.config.ValOp); err != nil {
		return nil, fmt.Errorf("invalid value operation: %w", err)
	}
	if err := ops.Validate(ds.config.LabelOp); err != nil {
		return nil, fmt.Errorf("invalid label operation: %w", err)
	}
	ds.config.NumWorkers = max(ds.config.NumWorkers, 1)
	return ds, nil
}

func (ds *Dataset) Bck() cmn.Bck { return ds.bck }

func (ds *Dataset) String() string {
	return fmt.Sprintf("tf-dataset[%s, value=%s, label=%s]", ds.bck.String(), ds.config.ValOp, ds.config.LabelOp)
}

// ShardNames lists the bucket (with the template's prefix) and returns, in
// listed order, the names the template matches
func (ds *Dataset) ShardNames(ctx context.Context, template string) ([]string, error) {
	pt, err := cos.NewParsedTemplate(template)
	if err != nil {
		return nil, err
	}
	bp := ds.bp
	bp.Ctx = ctx
	lst, err := api.ListObjects(bp, ds.bck, &apc.LsoMsg{Prefix: pt.Prefix, Props: apc.GetPropsName}, api.ListArgs{})
	if err != nil {
		ds.config.Stats.IncErr(stats.ListCount)
		return nil, err
	}
	ds.config.Stats.Inc(stats.ListCount)
	names := make([]string, 0, len(lst.Entries))
	for _, en := range lst.Entries {
		if !en.IsDir() && pt.Match(en.Name) {
			names = append(names, en.Name)
		}
	}
	if len(names) == 0 {
		nlog.Warningf("%s: no shards matching %q", ds.bck.String(), template)
	}
	return names, nil
}

// ReadShard downloads the shard and returns its records
func (ds *Dataset) ReadShard(ctx context.Context, name string) (recs []*tarrec.Record, err error) {
	ctx, span := tracing.StartSpan(ctx, "read-shard", attribute.String("bucket", ds.bck.String()), attribute.String("shard", name))
	defer func() { tracing.EndSpan(span, err) }()
	bp := ds.bp
	bp.Ctx = ctx
	if ds.config.Direct {
		var smap *meta.Smap
		if smap, err = ds.clusterMap(bp); err != nil {
			return nil, err
		}
		if bp, err = api.HrwParams(bp, smap, ds.bck, name); err != nil {
			return nil, err
		}
	}
	started := time.Now()
	r, _, err := api.GetObjectReader(bp, ds.bck, name, &api.GetArgs{ETLName: ds.config.ETLName})
	if err != nil {
		ds.config.Stats.IncErr(stats.GetCount)
		if cmn.IsStatusNotFound(err) {
			err = cos.NewErrNotFound(&ds.bck, fmt.Sprintf("shard %q", name), err)
		}
		return nil, err
	}
	cr := &cos.CountingReader{R: r}
	opts := ds.config.Records
	opts.ShardName = name
	recs, err = tarrec.ReadShard(cr, "", name, &opts)
	cos.Close(r)
	if err != nil {
		ds.config.Stats.IncErr(stats.RecordCount)
		return nil, err
	}
	ds.config.Stats.ObjGet(cr.N, started)
	ds.config.Stats.Add(stats.RecordCount, int64(len(recs)))
	return recs, nil
}

func (ds *Dataset) clusterMap(bp api.BaseParams) (*meta.Smap, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.smap != nil {
		return ds.smap, nil
	}
	smap, err := api.GetClusterMap(bp)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster map: %w", err)
	}
	ds.smap = smap
	return smap, nil
}

// Records yields the records of all shards matching the template, shard by shard
func (ds *Dataset) Records(ctx context.Context, template string, w *shard.WorkerInfo) (iter.Seq2[*tarrec.Record, error], error) {
	names, err := ds.ShardNames(ctx, template)
	if err != nil {
		return nil, err
	}
	if names, err = shard.SliceNames(names, w); err != nil {
		return nil, err
	}
	return shard.Prefetch(ctx, names, ds.config.NumWorkers, ds.ReadShard), nil
}

// Apply runs the value and label operations on the record
func (ds *Dataset) Apply(rec *tarrec.Record) (value, label any, err error) {
	if value, err = ops.Apply(ds.config.ValOp, rec); err != nil {
		return
	}
	label, err = ops.Apply(ds.config.LabelOp, rec)
	return
}
