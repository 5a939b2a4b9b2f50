// Package shard partitions an iteration among data-loading workers
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package shard

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

// LoadFunc loads all items of the named object (e.g., records of a shard)
type LoadFunc[T any] func(ctx context.Context, name string) ([]T, error)

type loaded[T any] struct {
	err   error
	items []T
}

// Prefetch loads up to `numWorkers` objects concurrently and yields their items
// in the order of `names`; it stops at the first error (which it yields) or
// when the consumer stops
func Prefetch[T any](ctx context.Context, names []string, numWorkers int, load LoadFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var (
			zero        T
			cctx, abort = context.WithCancel(ctx)
			g, gctx     = errgroup.WithContext(cctx)
			pending     = make(chan chan loaded[T], max(numWorkers, 1))
		)
		g.SetLimit(max(numWorkers, 1))
		go func() {
			defer close(pending)
			for _, name := range names {
				ch := make(chan loaded[T], 1)
				select {
				case pending <- ch:
				case <-gctx.Done():
					return
				}
				g.Go(func() error {
					items, err := load(gctx, name)
					ch <- loaded[T]{items: items, err: err}
					return nil // reported in order, via `ch`
				})
			}
		}()
		defer func() {
			abort()
			for range pending {
			}
			g.Wait()
		}()

		for ch := range pending {
			var res loaded[T]
			select {
			case res = <-ch:
			case <-ctx.Done():
				yield(zero, ctx.Err())
				return
			}
			if res.err != nil {
				yield(zero, res.err)
				return
			}
			for _, item := range res.items {
				if !yield(item, nil) {
					return
				}
			}
		}
		if err := ctx.Err(); err != nil {
			yield(zero, err)
		}
	}
}
