// Package shard partitions an iteration among data-loading workers
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package shard

import (
	"fmt"
	"iter"
)

// WorkerInfo identifies one of NumWorkers readers of the same dataset;
// nil WorkerInfo denotes a single reader
type WorkerInfo struct {
	ID         int
	NumWorkers int
}

func (w *WorkerInfo) Validate() error {
	if w == nil {
		return nil
	}
	if w.NumWorkers <= 0 {
		return fmt.Errorf("invalid number of workers %d", w.NumWorkers)
	}
	if w.ID < 0 || w.ID >= w.NumWorkers {
		return fmt.Errorf("invalid worker ID %d, expecting [0, %d)", w.ID, w.NumWorkers)
	}
	return nil
}

func (w *WorkerInfo) String() string {
	if w == nil {
		return "worker[single]"
	}
	return fmt.Sprintf("worker[%d/%d]", w.ID, w.NumWorkers)
}

// Owns returns true if the i-th item belongs to the worker
func (w *WorkerInfo) Owns(i int) bool {
	return w == nil || w.NumWorkers <= 1 || i%w.NumWorkers == w.ID
}

// Slice yields items with indices ID, ID+N, ID+2N, ... (all items when `w` is nil);
// the partitions of workers 0..N-1 are disjoint and together cover `seq`
func Slice[T any](seq iter.Seq[T], w *WorkerInfo) (iter.Seq[T], error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w == nil || w.NumWorkers == 1 {
		return seq, nil
	}
	return func(yield func(T) bool) {
		i := 0
		for v := range seq {
			if w.Owns(i) && !yield(v) {
				return
			}
			i++
		}
	}, nil
}

// SliceNames is Slice for a list of names
func SliceNames(names []string, w *WorkerInfo) ([]string, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w == nil || w.NumWorkers == 1 {
		return names, nil
	}
	out := make([]string, 0, len(names)/w.NumWorkers+1)
	for i := w.ID; i < len(names); i += w.NumWorkers {
		out = append(out, names[i])
	}
	return out, nil
}
