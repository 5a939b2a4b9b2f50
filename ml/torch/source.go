// Package torch provides PyTorch-style datasets over AIStore objects:
// iterable and map-style (name, bytes) datasets and a tar-shard record reader
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package torch

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"

	"github.com/pkg/errors"
)

type (
	// Source yields objects; a non-empty prefix restricts the result to the
	// names that start with it
	Source interface {
		Objects(ctx context.Context, bp api.BaseParams, prefix string) iter.Seq2[Object, error]
		String() string
	}

	Object struct {
		Bck  cmn.Bck
		Name string
		Size int64 // -1 when unknown
	}

	// Bucket: all objects in the bucket, listed page by page
	Bucket struct {
		Bck      cmn.Bck
		PageSize uint // 0 - cluster default
	}

	// ObjectGroup: explicitly named objects, or the names a template expands to
	ObjectGroup struct {
		Bck      cmn.Bck
		Template string
		Names    []string
	}

	// PrefixMap restricts sources to objects with the given name prefixes;
	// sources not in the map are used in their entirety
	PrefixMap map[Source][]string
)

// interface guard
var (
	_ Source = (*Bucket)(nil)
	_ Source = (*ObjectGroup)(nil)
)

func (o *Object) String() string { return o.Bck.Cname(o.Name) }

////////////
// Bucket //
////////////

func NewBucket(bck cmn.Bck) *Bucket { return &Bucket{Bck: bck} }

func (b *Bucket) String() string { return b.Bck.String() }

func (b *Bucket) Objects(ctx context.Context, bp api.BaseParams, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		bp.Ctx = ctx
		lsmsg := &apc.LsoMsg{Prefix: prefix, PageSize: b.PageSize}
		lsmsg.AddProps(apc.GetPropsMinimal...)
		for {
			page, err := api.ListObjectsPage(bp, b.Bck, lsmsg)
			if err != nil {
				yield(Object{}, err)
				return
			}
			for _, en := range page.Entries {
				if en.IsDir() {
					continue
				}
				if !yield(Object{Bck: b.Bck, Name: en.Name, Size: en.Size}, nil) {
					return
				}
			}
			if lsmsg.ContinuationToken == "" {
				return
			}
		}
	}
}

/////////////////
// ObjectGroup //
/////////////////

func NewObjectGroup(bck cmn.Bck, names ...string) *ObjectGroup {
	return &ObjectGroup{Bck: bck, Names: names}
}

// NewObjectGroupTemplate makes a group of the names the template expands to,
// e.g. "shard-{0000..1023}.tar"
func NewObjectGroupTemplate(bck cmn.Bck, template string) (*ObjectGroup, error) {
	pt, err := cos.NewParsedTemplate(template)
	if err != nil {
		return nil, err
	}
	if !pt.IsRange() {
		return nil, errors.Errorf("%q: expecting a range template", template)
	}
	return &ObjectGroup{Bck: bck, Template: template}, nil
}

func (g *ObjectGroup) String() string {
	if g.Template != "" {
		return g.Bck.Cname(g.Template)
	}
	return g.Bck.String() + "[" + strings.Join(g.Names, ",") + "]"
}

func (g *ObjectGroup) Objects(_ context.Context, _ api.BaseParams, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		names, err := g.names()
		if err != nil {
			yield(Object{}, err)
			return
		}
		for name := range names {
			if prefix != "" && !strings.HasPrefix(name, prefix) {
				continue
			}
			if !yield(Object{Bck: g.Bck, Name: name, Size: -1}, nil) {
				return
			}
		}
	}
}

func (g *ObjectGroup) names() (iter.Seq[string], error) {
	if g.Template == "" {
		return slices.Values(g.Names), nil
	}
	pt, err := cos.NewParsedTemplate(g.Template)
	if err != nil {
		return nil, err
	}
	return pt.Iter(), nil
}

// objects of all sources, in order, restricted by the prefix map
func allObjects(ctx context.Context, bp api.BaseParams, sources []Source, prefixMap PrefixMap) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		for _, src := range sources {
			prefixes, ok := prefixMap[src]
			if !ok || len(prefixes) == 0 {
				prefixes = []string{""}
			}
			for _, prefix := range prefixes {
				for obj, err := range src.Objects(ctx, bp, prefix) {
					if !yield(obj, err) || err != nil {
						return
					}
				}
			}
		}
	}
}
