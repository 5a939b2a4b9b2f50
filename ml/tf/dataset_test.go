// Package tf_test: unit tests
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tf_test

import (
	"context"
	"fmt"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/archive"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/ml/ops"
	"github.com/NVIDIA/aisdataset/ml/shard"
	"github.com/NVIDIA/aisdataset/ml/tarrec"
	"github.com/NVIDIA/aisdataset/ml/tf"
	"github.com/NVIDIA/aisdataset/stats"
	"github.com/NVIDIA/aisdataset/tools/aisfake"
	"github.com/NVIDIA/aisdataset/tools/tshard"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	bucket          = "imagenet"
	numShards       = 3
	samplesPerShard = 4
	template        = "train-{0..2}.tar"
)

var bck = cmn.Bck{Name: bucket, Provider: apc.AIS}

type customOp struct{ ops.Select }

func collect(seq func(func(tf.Pair, error) bool)) ([]tf.Pair, error) {
	var pairs []tf.Pair
	for p, err := range seq {
		if err != nil {
			return pairs, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func labelOf(p tf.Pair) int32 {
	t, ok := p.Label.(*ops.Tensor)
	Expect(ok).To(BeTrue())
	Expect(t.IsScalar()).To(BeTrue())
	return t.Data.([]int32)[0]
}

var _ = Describe("Dataset", func() {
	var (
		cluster *aisfake.Cluster
		bp      api.BaseParams
		ctx     context.Context
	)

	putShard := func(name string, members []tshard.Member) {
		b, err := tshard.Make(archive.ExtTar, members...)
		Expect(err).NotTo(HaveOccurred())
		cluster.Put(bucket, name, b)
	}

	BeforeEach(func() {
		ctx = context.Background()
		cluster = aisfake.NewCluster(2)
		bp = api.BaseParams{Client: cmn.NewClient(cmn.TransportArgs{Timeout: 30 * time.Second}), URL: cluster.URL()}
		for i := range numShards {
			putShard(fmt.Sprintf("train-%d.tar", i), tshard.Samples(fmt.Sprintf("s%d/", i), samplesPerShard, 100*i, 32, 24))
		}
		// not matching the template
		putShard("train-7.tar", tshard.Samples("x/", 1, 700, 8, 8))
		putShard("train-01.tar", tshard.Samples("y/", 1, 800, 8, 8))
		putShard("val-0.tar", tshard.Samples("z/", 1, 900, 8, 8))
	})

	AfterEach(func() {
		cluster.Close()
	})

	Describe("NewDataset", func() {
		It("should default operations", func() {
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(ds.String()).To(ContainSubstring("resize(convert(decode(jpg), float32), 224, 224)"))
			Expect(ds.String()).To(ContainSubstring("label=cls"))
		})

		It("should reject invalid operations", func() {
			_, err := tf.NewDataset(bp, bck, &tf.Config{ValOp: ops.List{ops.NewSelect("cls"), ops.List{}}})
			Expect(err).To(MatchError(ContainSubstring("list of operations can't contain another list")))

			_, err = tf.NewDataset(bp, bck, &tf.Config{LabelOp: &customOp{}})
			Expect(ops.IsErrUnknownOp(err)).To(BeTrue())

			_, err = tf.NewDataset(bp, cmn.Bck{}, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ShardNames", func() {
		It("should list names matching the template", func() {
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			names, err := ds.ShardNames(ctx, template)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"train-0.tar", "train-1.tar", "train-2.tar"}))

			names, err = ds.ShardNames(ctx, "val-0.tar")
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"val-0.tar"}))

			names, err = ds.ShardNames(ctx, "test-{0..9}.tar")
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})

		It("should list names matching adjacent ranges", func() {
			for _, name := range []string{"part-000.tar", "part-001.tar", "part-110.tar", "part-111.tar", "part-20.tar"} {
				putShard(name, tshard.Samples("p/", 1, 0, 4, 4))
			}
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			names, err := ds.ShardNames(ctx, "part-{0..1}{00..10}.tar")
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"part-000.tar", "part-001.tar", "part-110.tar"}))
		})
	})

	Describe("ReadShard", func() {
		It("should report a missing shard", func() {
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = ds.ReadShard(ctx, "train-9.tar")
			Expect(cos.IsErrNotFound(err)).To(BeTrue())
			Expect(api.HTTPStatus(err)).To(Equal(http.StatusNotFound))
			Expect(err).To(MatchError(ContainSubstring(`shard "train-9.tar" does not exist`)))
		})
	})

	Describe("LoadFromTar", func() {
		It("should produce default (value, label) pairs", func() {
			tracker := stats.New("")
			ds, err := tf.NewDataset(bp, bck, &tf.Config{Stats: tracker})
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, template)
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs).To(HaveLen(numShards * samplesPerShard))

			for i, p := range pairs {
				shardIdx, sampleIdx := i/samplesPerShard, i%samplesPerShard
				Expect(p.Shard).To(Equal(fmt.Sprintf("train-%d.tar", shardIdx)))
				Expect(p.Key).To(Equal(fmt.Sprintf("s%d/%04d", shardIdx, sampleIdx)))
				Expect(labelOf(p)).To(BeEquivalentTo(100*shardIdx + sampleIdx))

				v := p.Value.(*ops.Tensor)
				Expect(v.DType).To(Equal(ops.Float32))
				Expect(v.Shape).To(Equal([]int{224, 224, 3}))
				for _, f := range v.Data.([]float32)[:3*224] {
					Expect(f).To(BeNumerically(">=", 0))
					Expect(f).To(BeNumerically("<=", 1))
				}
			}
			Expect(tracker.Get(stats.GetCount)).To(BeEquivalentTo(numShards))
			Expect(tracker.Get(stats.RecordCount)).To(BeEquivalentTo(numShards * samplesPerShard))
			Expect(tracker.Get(stats.SampleCount)).To(BeEquivalentTo(numShards * samplesPerShard))
		})

		It("should yield in shard order with many workers", func() {
			ds, err := tf.NewDataset(bp, bck, &tf.Config{NumWorkers: 8})
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, template, tf.OutputShapes(nil, nil))
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			for i, p := range pairs {
				Expect(labelOf(p)).To(BeEquivalentTo(100*(i/samplesPerShard) + i%samplesPerShard))
			}
		})

		It("should cast to output types and check output shapes", func() {
			ds, err := tf.NewDataset(bp, bck, &tf.Config{ValOp: ops.NewDecode("jpg")})
			Expect(err).NotTo(HaveOccurred())

			seq, err := ds.LoadFromTar(ctx, template)
			Expect(err).NotTo(HaveOccurred())
			_, err = collect(seq)
			Expect(err).To(MatchError(ContainSubstring("does not match output shape")))

			seq, err = ds.LoadFromTar(ctx, template, tf.OutputTypes(ops.Uint8, ops.Int64), tf.OutputShapes([]int{24, 32, -1}, []int{}))
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs[0].Value.(*ops.Tensor).DType).To(Equal(ops.Uint8))
			Expect(pairs[0].Label.(*ops.Tensor).Data).To(Equal([]int64{0}))
		})

		It("should pass list results through", func() {
			ds, err := tf.NewDataset(bp, bck, &tf.Config{
				ValOp:   ops.List{ops.NewDecode("jpg"), ops.NewSelect(tarrec.KeyField)},
				LabelOp: ops.NewConvert(ops.NewSelect("cls"), ops.Float64),
			})
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, "train-1.tar", tf.OutputTypes(ops.Float32, ops.Float64))
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs).To(HaveLen(samplesPerShard))

			fields := pairs[2].Value.(ops.Fields)
			Expect(fields).To(HaveLen(2))
			Expect(fields[0].Name).To(Equal("jpg"))
			key, ok := fields.Get(tarrec.KeyField)
			Expect(ok).To(BeTrue())
			Expect(string(key.([]byte))).To(Equal("s1/0002"))
			Expect(pairs[2].Label.(*ops.Tensor).Data).To(Equal([]float64{102}))
		})

		It("should fail on missing fields", func() {
			putShard("broken-0.tar", []tshard.Member{{Name: "a.jpg", Data: tshard.JPEG(4, 4, color.Black)}})
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, "broken-0.tar")
			Expect(err).NotTo(HaveOccurred())
			_, err = collect(seq)
			Expect(ops.IsErrMissingField(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("broken-0.tar"))
		})

		It("should partition shards among workers", func() {
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			seen := make(map[string]int)
			for id := range 2 {
				seq, err := ds.LoadFromTar(ctx, template, tf.Worker(&shard.WorkerInfo{ID: id, NumWorkers: 2}))
				Expect(err).NotTo(HaveOccurred())
				pairs, err := collect(seq)
				Expect(err).NotTo(HaveOccurred())
				for _, p := range pairs {
					seen[p.Key]++
				}
			}
			Expect(seen).To(HaveLen(numShards * samplesPerShard))
			for _, cnt := range seen {
				Expect(cnt).To(Equal(1))
			}

			_, err = ds.LoadFromTar(ctx, template, tf.Worker(&shard.WorkerInfo{ID: 2, NumWorkers: 2}))
			Expect(err).To(HaveOccurred())
		})

		It("should read shards directly from targets", func() {
			ds, err := tf.NewDataset(bp, bck, &tf.Config{Direct: true})
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, template)
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs).To(HaveLen(numShards * samplesPerShard))
			// list-objects and cluster map only
			Expect(cluster.Requests(aisfake.ProxyID)).To(Equal(2))
			Expect(cluster.Requests("t1") + cluster.Requests("t2")).To(Equal(numShards))
		})

		It("should transform shards with ETL", func() {
			replacement, err := tshard.Make(archive.ExtTar, tshard.Samples("etl/", 2, 7, 16, 16)...)
			Expect(err).NotTo(HaveOccurred())
			cluster.AddETL("swap", func([]byte) ([]byte, error) { return replacement, nil })

			ds, err := tf.NewDataset(bp, bck, &tf.Config{ETLName: "swap"})
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, "train-0.tar")
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs).To(HaveLen(2))
			Expect(labelOf(pairs[0])).To(BeEquivalentTo(7))
			Expect(pairs[1].Key).To(Equal("etl/0001"))
		})

		It("should shuffle records deterministically", func() {
			putShard("big-0.tar", tshard.Samples("b/", 20, 0, 4, 4))
			keys := func(seed uint64) []string {
				ds, err := tf.NewDataset(bp, bck, &tf.Config{
					Records: tarrec.Options{Shuffle: true, Seed: seed},
					ValOp:   ops.NewSelect("cls"),
				})
				Expect(err).NotTo(HaveOccurred())
				seq, err := ds.LoadFromTar(ctx, "big-0.tar", tf.OutputShapes(nil, nil))
				Expect(err).NotTo(HaveOccurred())
				pairs, err := collect(seq)
				Expect(err).NotTo(HaveOccurred())
				out := make([]string, 0, len(pairs))
				for _, p := range pairs {
					out = append(out, p.Key)
				}
				return out
			}
			k1, k2, k3 := keys(1), keys(1), keys(2)
			Expect(k1).To(HaveLen(20))
			Expect(k1).To(Equal(k2))
			Expect(k1).NotTo(Equal(k3))
			Expect(k1).To(ConsistOf(k3))
		})

		It("should stop on canceled context", func() {
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			cctx, cancel := context.WithCancel(ctx)
			seq, err := ds.LoadFromTar(cctx, template)
			Expect(err).NotTo(HaveOccurred())
			cancel()
			_, err = collect(seq)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("TFRecord", func() {
		It("should write and read back TFRecord file", func() {
			var (
				dir  = GinkgoT().TempDir()
				path = filepath.Join(dir, "out", "train.record")
			)
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, template, tf.Path(path))
			Expect(err).NotTo(HaveOccurred())

			entries, err := os.ReadDir(filepath.Dir(path))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("train.record"))

			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs).To(HaveLen(numShards * samplesPerShard))
			for i, p := range pairs {
				Expect(labelOf(p)).To(BeEquivalentTo(100*(i/samplesPerShard) + i%samplesPerShard))
				v := p.Value.(*ops.Tensor)
				Expect(v.Shape).To(Equal([]int{224, 224, 3}))
				// not scaled: [0, 255]
				Expect(v.Data.([]float32)[2]).To(BeNumerically(">", 100))
			}
		})

		It("should leave no file behind on failure", func() {
			putShard("bad-0.tar", []tshard.Member{{Name: "a.jpg", Data: tshard.JPEG(4, 4, color.Black)}, {Name: "a.cls", Data: []byte("cat")}})
			var (
				dir  = GinkgoT().TempDir()
				path = filepath.Join(dir, "bad.record")
			)
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = ds.WriteTFRecord(ctx, "bad-0.tar", path, nil, nil)
			Expect(err).To(MatchError(ContainSubstring("invalid label")))
			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("should write custom examples", func() {
			path := filepath.Join(GinkgoT().TempDir(), "custom.record")
			ds, err := tf.NewDataset(bp, bck, nil)
			Expect(err).NotTo(HaveOccurred())
			cnt, err := ds.WriteTFRecord(ctx, "train-{0..1}.tar", path, tf.DefaultRecordToExample, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(cnt).To(Equal(2 * samplesPerShard))
		})
	})

	Describe("ParseLoadArgs", func() {
		It("should reject unknown arguments", func() {
			_, err := tf.ParseLoadArgs(map[string]string{"output_types": "float32,int32", "batch_size": "32"})
			Expect(err).To(MatchError(ContainSubstring("invalid argument name")))
		})

		DescribeTable("should reject invalid values",
			func(name, val string) {
				_, err := tf.ParseLoadArgs(map[string]string{name: val})
				Expect(err).To(HaveOccurred())
			},
			Entry("one type", tf.ArgOutputTypes, "float32"),
			Entry("bad type", tf.ArgOutputTypes, "float32, string"),
			Entry("one shape", tf.ArgOutputShapes, "[224, 224, 3]"),
			Entry("bad dim", tf.ArgOutputShapes, "[224, x], []"),
		)

		It("should parse arguments", func() {
			opts, err := tf.ParseLoadArgs(map[string]string{
				tf.ArgOutputTypes:  "tf.uint8, tf.int64",
				tf.ArgOutputShapes: "[?, ?, 3], []",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(opts).To(HaveLen(2))

			ds, err := tf.NewDataset(bp, bck, &tf.Config{ValOp: ops.NewDecode("jpg")})
			Expect(err).NotTo(HaveOccurred())
			seq, err := ds.LoadFromTar(ctx, "train-0.tar", opts...)
			Expect(err).NotTo(HaveOccurred())
			pairs, err := collect(seq)
			Expect(err).NotTo(HaveOccurred())
			Expect(pairs[0].Value.(*ops.Tensor).Shape).To(Equal([]int{24, 32, 3}))
			Expect(pairs[0].Label.(*ops.Tensor).DType).To(Equal(ops.Int64))
		})
	})
})
