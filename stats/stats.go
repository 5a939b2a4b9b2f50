// Package stats tracks and exports (Prometheus) dataset reader metrics:
// objects and bytes read, records assembled, errors, and GET latency
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"strings"
	ratomic "sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metric names; all basic counters are accompanied by the corresponding
// (errPrefix + name) error count, e.g. "get.n" => "err.get.n"
const (
	GetCount    = "get.n"    // GET(object) count
	GetSize     = "get.size" // bytes read
	ListCount   = "lst.n"    // list-objects
	RecordCount = "rec.n"    // records assembled from shards
	SampleCount = "smpl.n"   // values (or pairs) produced by the operations

	GetLatency = "get.ns"

	errPrefix = "err."
)

const dfltNamespace = "ais_dataset"

type (
	// Tracker is safe for concurrent use; nil Tracker is a no-op
	Tracker struct {
		counters map[string]*counter
		getLat   prometheus.Histogram
		getNs    int64
	}
	counter struct {
		prometheus.Counter
		value int64
	}

	// Snapshot: current values by metric name
	Snapshot map[string]int64
)

var basicCounters = []string{GetCount, ListCount, RecordCount, SampleCount}

// New makes a tracker with all metrics in the namespace (default "ais_dataset")
func New(namespace string) *Tracker {
	if namespace == "" {
		namespace = dfltNamespace
	}
	t := &Tracker{counters: make(map[string]*counter, 2*len(basicCounters)+1)}
	reg := func(name, help string) {
		t.counters[name] = &counter{Counter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      promName(name),
			Help:      help,
		})}
	}
	for _, name := range basicCounters {
		reg(name, "total number of "+name+" operations")
		reg(errPrefix+name, "total number of "+name+" errors")
	}
	reg(GetSize, "total size of objects read (bytes)")
	t.getLat = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "get_ms",
		Help:      "GET(object) latency (milliseconds)",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	})
	return t
}

// "get.n" => "get_n", "get.size" => "get_size_bytes"
func promName(name string) string {
	s := strings.ReplaceAll(name, ".", "_")
	if strings.HasSuffix(s, "_size") {
		s += "_bytes"
	}
	return s
}

// Register adds all metrics to the registry (prometheus.DefaultRegisterer when nil)
func (t *Tracker) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range t.counters {
		if err := reg.Register(c.Counter); err != nil {
			return err
		}
	}
	return reg.Register(t.getLat)
}

func (t *Tracker) Add(name string, val int64) {
	if t == nil || val == 0 {
		return
	}
	c, ok := t.counters[name]
	if !ok {
		panic("invalid metric name " + name)
	}
	ratomic.AddInt64(&c.value, val)
	c.Add(float64(val))
}

func (t *Tracker) Inc(name string) { t.Add(name, 1) }

// IncErr increments the error counter of the basic metric, e.g. "get.n" => "err.get.n"
func (t *Tracker) IncErr(name string) { t.Add(errPrefix+name, 1) }

// ObjGet records a successful GET
func (t *Tracker) ObjGet(size int64, started time.Time) {
	if t == nil {
		return
	}
	d := time.Since(started)
	t.Inc(GetCount)
	t.Add(GetSize, size)
	ratomic.AddInt64(&t.getNs, int64(d))
	t.getLat.Observe(float64(d) / float64(time.Millisecond))
}

func (t *Tracker) Get(name string) int64 {
	if t == nil {
		return 0
	}
	if name == GetLatency {
		return ratomic.LoadInt64(&t.getNs)
	}
	if c, ok := t.counters[name]; ok {
		return ratomic.LoadInt64(&c.value)
	}
	return 0
}

func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	snap := make(Snapshot, len(t.counters)+1)
	for name, c := range t.counters {
		snap[name] = ratomic.LoadInt64(&c.value)
	}
	snap[GetLatency] = ratomic.LoadInt64(&t.getNs)
	return snap
}

// AvgGetLatency returns cumulative GET latency divided by the number of GETs
func (snap Snapshot) AvgGetLatency() time.Duration {
	n := snap[GetCount]
	if n == 0 {
		return 0
	}
	return time.Duration(snap[GetLatency] / n)
}
