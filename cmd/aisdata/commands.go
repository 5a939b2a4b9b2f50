// Package main is the `aisdata` executable: AIStore datasets from the command line
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/archive"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/ml/ops"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/ml/tarrec"
	"github.com/NVIDIA/aisdataset/ml/tf"
	"github.com/NVIDIA/aisdataset/ml/torch"

	"github.com/NVIDIA/go-tfdata/tfdata/core"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
)

const (
	commandTar2TF  = "tar2tf"
	commandPairs   = "pairs"
	commandIter    = "iter"
	commandRecords = "records"

	progressBarWidth = 64
)

// command flags
var (
	etlFlag          = cli.StringFlag{Name: "etl", Usage: "transform objects with the named ETL"}
	shuffleFlag      = cli.BoolFlag{Name: "shuffle", Usage: "shuffle records within each shard"}
	seedFlag         = cli.Uint64Flag{Name: "seed", Usage: "shuffle seed"}
	extsFlag         = cli.StringFlag{Name: "exts", Usage: "comma-separated extensions to keep, e.g. 'jpg,cls'"}
	allExtsFlag      = cli.BoolFlag{Name: "all-exts", Usage: "keep all extensions"}
	matchFlag        = cli.StringFlag{Name: "match", Usage: "keep only archived files matching the pattern (see --match-mode)"}
	matchModeFlag    = cli.StringFlag{Name: "match-mode", Usage: "how to match --match: regexp, prefix, suffix, substr, or wdskey", Value: "regexp"}
	progressFlag     = cli.BoolFlag{Name: "progress", Usage: "show progress bar"}
	valueOpFlag      = cli.StringFlag{Name: "value", Usage: "value operation", Value: "resize(convert(decode(jpg), float32), 224, 224)"}
	labelOpFlag      = cli.StringFlag{Name: "label", Usage: "label operation", Value: "cls"}
	outputTypesFlag  = cli.StringFlag{Name: "output-types", Usage: "value and label types, e.g. 'float32, int32'"}
	outputShapesFlag = cli.StringFlag{Name: "output-shapes", Usage: "value and label shapes, e.g. '[224, 224, 3], []'"}
	limitFlag        = cli.IntFlag{Name: "limit", Usage: "stop after this many items (0 - no limit)"}
	workerIDFlag     = cli.IntFlag{Name: "worker-id", Usage: "this worker's ID in [0, num-workers)"}
	numWorkersFlag   = cli.IntFlag{Name: "num-workers", Usage: "total number of workers sharing the dataset"}
	prefixFlag       = cli.StringSliceFlag{Name: "prefix", Usage: "object name prefix (may be repeated)"}
	templateFlag     = cli.StringFlag{Name: "template", Usage: "object names template, e.g. 'shard-{0000..0099}.tar'"}
	mapFlag          = cli.BoolFlag{Name: "map", Usage: "list all objects up front and read them by index"}
)

func (a *acli) commands() []cli.Command {
	return []cli.Command{
		{
			Name:      commandTar2TF,
			Usage:     "convert tar shards matching the template into a TFRecord file",
			ArgsUsage: "BUCKET TEMPLATE PATH",
			Flags:     []cli.Flag{etlFlag, shuffleFlag, seedFlag, extsFlag, progressFlag, workerIDFlag, numWorkersFlag},
			Action:    a.tar2tf,
		},
		{
			Name:      commandPairs,
			Usage:     "print (value, label) pairs produced from tar shards matching the template",
			ArgsUsage: "BUCKET TEMPLATE",
			Flags: []cli.Flag{valueOpFlag, labelOpFlag, outputTypesFlag, outputShapesFlag, etlFlag, shuffleFlag, seedFlag,
				extsFlag, allExtsFlag, matchFlag, matchModeFlag, limitFlag, workerIDFlag, numWorkersFlag},
			Action: a.pairs,
		},
		{
			Name:      commandIter,
			Usage:     "read objects and print their names and sizes",
			ArgsUsage: "BUCKET [OBJECT_NAME...]",
			Flags:     []cli.Flag{prefixFlag, templateFlag, etlFlag, mapFlag, limitFlag, workerIDFlag, numWorkersFlag},
			Action:    a.iter,
		},
		{
			Name:      commandRecords,
			Usage:     "print records of a tar shard (local file or BUCKET/OBJECT_NAME)",
			ArgsUsage: "SHARD",
			Flags:     []cli.Flag{extsFlag, allExtsFlag, matchFlag, matchModeFlag, shuffleFlag, seedFlag},
			Action:    a.records,
		},
	}
}

func cleanFlag(f cli.Flag) string {
	name, _, _ := strings.Cut(f.GetName(), ",")
	return strings.TrimSpace(name)
}

func argBucket(c *cli.Context) (cmn.Bck, error) {
	if c.NArg() == 0 {
		return cmn.Bck{}, errors.New("missing bucket name")
	}
	bck, err := cmn.ParseBckURI(c.Args().First())
	if err != nil {
		return bck, err
	}
	return bck, bck.Validate()
}

func workerInfo(c *cli.Context) (*shard.WorkerInfo, error) {
	if !c.IsSet(numWorkersFlag.Name) {
		if c.IsSet(workerIDFlag.Name) {
			return nil, fmt.Errorf("--%s requires --%s", workerIDFlag.Name, numWorkersFlag.Name)
		}
		return nil, nil
	}
	w := &shard.WorkerInfo{ID: c.Int(workerIDFlag.Name), NumWorkers: c.Int(numWorkersFlag.Name)}
	return w, w.Validate()
}

func recordOpts(c *cli.Context) (opts tarrec.Options, err error) {
	opts = tarrec.Options{
		Shuffle: c.Bool(shuffleFlag.Name),
		Seed:    c.Uint64(seedFlag.Name),
		AllExts: c.Bool(allExtsFlag.Name),
		Regex:   c.String(matchFlag.Name),
	}
	if s := c.String(extsFlag.Name); s != "" {
		for _, ext := range strings.Split(s, ",") {
			opts.Exts = append(opts.Exts, strings.TrimPrefix(strings.TrimSpace(ext), "."))
		}
	}
	if opts.Regex != "" {
		opts.MatchMode, err = archive.ValidateMatchMode(c.String(matchModeFlag.Name))
	}
	return opts, err
}

func (a *acli) dataset(c *cli.Context, bck cmn.Bck, valOp, labelOp ops.Op) (*tf.Dataset, error) {
	opts, err := recordOpts(c)
	if err != nil {
		return nil, err
	}
	return tf.NewDataset(a.bp, bck, &tf.Config{
		ValOp:      valOp,
		LabelOp:    labelOp,
		Records:    opts,
		ETLName:    c.String(etlFlag.Name),
		NumWorkers: a.config.NumWorkers,
		Direct:     a.config.Direct,
		Stats:      a.stats,
	})
}

////////////
// tar2tf //
////////////

func (a *acli) tar2tf(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("expecting BUCKET TEMPLATE PATH, got %d argument(s)", c.NArg())
	}
	bck, err := argBucket(c)
	if err != nil {
		return err
	}
	w, err := workerInfo(c)
	if err != nil {
		return err
	}
	ds, err := a.dataset(c, bck, nil, nil)
	if err != nil {
		return err
	}
	var (
		template  = c.Args().Get(1)
		path      = c.Args().Get(2)
		toExample = tf.DefaultRecordToExample
		progress  *mpb.Progress
		bar       *mpb.Bar
	)
	if c.Bool(progressFlag.Name) {
		text := "Records written: "
		progress = mpb.New(mpb.WithWidth(progressBarWidth), mpb.WithOutput(a.errOut))
		bar = progress.AddBar(0,
			mpb.PrependDecorators(
				decor.Name(text, decor.WC{W: len(text) + 2, C: decor.DSyncWidthR}),
				decor.CurrentNoUnit("%d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncWidth)),
		)
		toExample = func(rec *tarrec.Record) (*core.TFExample, error) {
			ex, err := tf.DefaultRecordToExample(rec)
			if err == nil {
				bar.Increment()
			}
			return ex, err
		}
	}
	cnt, err := ds.WriteTFRecord(a.ctx, template, path, toExample, w)
	if bar != nil {
		if err != nil {
			bar.Abort(true)
		} else {
			bar.SetTotal(bar.Current(), true)
		}
		progress.Wait()
	}
	if err != nil {
		return err
	}
	dsBck := ds.Bck()
	fmt.Fprintf(a.out, "%s: wrote %d records to %s\n", dsBck.String(), cnt, fcyan(path))
	return nil
}

///////////
// pairs //
///////////

func (a *acli) pairs(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expecting BUCKET TEMPLATE, got %d argument(s)", c.NArg())
	}
	bck, err := argBucket(c)
	if err != nil {
		return err
	}
	valOp, err := ops.Parse(c.String(valueOpFlag.Name))
	if err != nil {
		return err
	}
	labelOp, err := ops.Parse(c.String(labelOpFlag.Name))
	if err != nil {
		return err
	}
	ds, err := a.dataset(c, bck, valOp, labelOp)
	if err != nil {
		return err
	}
	strArgs := make(map[string]string, 2)
	if s := c.String(outputTypesFlag.Name); s != "" {
		strArgs[tf.ArgOutputTypes] = s
	}
	if s := c.String(outputShapesFlag.Name); s != "" {
		strArgs[tf.ArgOutputShapes] = s
	}
	opts, err := tf.ParseLoadArgs(strArgs)
	if err != nil {
		return err
	}
	w, err := workerInfo(c)
	if err != nil {
		return err
	}
	opts = append(opts, tf.Worker(w))
	seq, err := ds.LoadFromTar(a.ctx, c.Args().Get(1), opts...)
	if err != nil {
		return err
	}
	limit := c.Int(limitFlag.Name)
	var n int
	for p, err := range seq {
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n", p.Shard, p.Key, summary(p.Value), summary(p.Label))
		if n++; n == limit {
			break
		}
	}
	return nil
}

func summary(v any) string {
	switch v := v.(type) {
	case *ops.Tensor:
		if v.IsScalar() {
			return fmt.Sprintf("%s(%v)", v.DType, v.At(0))
		}
		return v.String()
	case []byte:
		return fmt.Sprintf("bytes[%d]", len(v))
	case ops.Fields:
		s := make([]string, len(v))
		for i, f := range v {
			s[i] = f.Name + ": " + summary(f.Value)
		}
		return "{" + strings.Join(s, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

//////////
// iter //
//////////

func (a *acli) iter(c *cli.Context) error {
	bck, err := argBucket(c)
	if err != nil {
		return err
	}
	var (
		src       torch.Source
		prefixMap torch.PrefixMap
		names     = c.Args().Tail()
	)
	switch {
	case c.IsSet(templateFlag.Name):
		if len(names) > 0 {
			return fmt.Errorf("--%s and object names are mutually exclusive", templateFlag.Name)
		}
		if src, err = torch.NewObjectGroupTemplate(bck, c.String(templateFlag.Name)); err != nil {
			return err
		}
	case len(names) > 0:
		src = torch.NewObjectGroup(bck, names...)
	default:
		src = torch.NewBucket(bck)
	}
	if prefixes := c.StringSlice(prefixFlag.Name); len(prefixes) > 0 {
		prefixMap = torch.PrefixMap{src: prefixes}
	}
	var (
		sources = []torch.Source{src}
		etlName = c.String(etlFlag.Name)
		limit   = c.Int(limitFlag.Name)
		n       int
	)
	show := func(s torch.Sample) bool {
		fmt.Fprintf(a.out, "%s\t%s\n", s.Name, cos.ToSizeIEC(int64(len(s.Data)), 2))
		n++
		return n != limit
	}
	if c.Bool(mapFlag.Name) {
		if c.IsSet(numWorkersFlag.Name) {
			return fmt.Errorf("--%s can't be used with --%s", numWorkersFlag.Name, mapFlag.Name)
		}
		ds, err := torch.NewMapDataset(a.ctx, a.bp, sources, prefixMap, etlName)
		if err != nil {
			return err
		}
		ds.SetStats(a.stats)
		for i := range ds.Len() {
			s, err := ds.Get(a.ctx, i)
			if err != nil {
				return err
			}
			if !show(s) {
				break
			}
		}
		return nil
	}
	w, err := workerInfo(c)
	if err != nil {
		return err
	}
	ds, err := torch.NewIterDataset(a.bp, sources, prefixMap, etlName)
	if err != nil {
		return err
	}
	ds.SetStats(a.stats)
	seq, err := ds.Iter(a.ctx, w)
	if err != nil {
		return err
	}
	for s, err := range seq {
		if err != nil {
			return err
		}
		if !show(s) {
			break
		}
	}
	return nil
}

/////////////
// records //
/////////////

func (a *acli) records(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expecting SHARD, got %d argument(s)", c.NArg())
	}
	opts, err := recordOpts(c)
	if err != nil {
		return err
	}
	var (
		shardPath = c.Args().First()
		r         io.ReadCloser
		name      string
	)
	if _, err := os.Stat(shardPath); err == nil {
		if r, err = os.Open(shardPath); err != nil {
			return err
		}
		name = shardPath
	} else {
		bck, objName, err := cmn.ParseObjURI(shardPath)
		if err != nil {
			return err
		}
		if r, _, err = api.GetObjectReader(a.bp, bck, objName, nil); err != nil {
			return err
		}
		name = objName
	}
	opts.ShardName = name
	recs, err := tarrec.ReadShard(r, "", name, &opts)
	cos.Close(r)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		fields := make([]string, 0, len(rec.Exts()))
		for _, ext := range rec.Exts() {
			fields = append(fields, fmt.Sprintf("%s(%s)", ext, cos.ToSizeIEC(int64(len(rec.Fields[ext])), 0)))
		}
		fmt.Fprintf(a.out, "%s\t%s\n", rec.Key, strings.Join(fields, " "))
	}
	fmt.Fprintf(a.out, "%s: %d records\n", fcyan(name), len(recs))
	return nil
}
