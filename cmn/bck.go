// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"errors"
	"net/url"
	"strings"

	"github.com/NVIDIA/aisdataset/api/apc"
)

type (
	Bck struct {
		Name     string `json:"name" yaml:"name"`
		Provider string `json:"provider" yaml:"provider"` // NOTE: see api/apc/provider.go for supported enum
	}
)

var errEmptyBucket = errors.New("bucket name is empty")

// ParseBckURI parses "ais://name", "s3://name", or a bare "name" (defaults to ais://)
func ParseBckURI(uri string) (bck Bck, err error) {
	bck.Provider = apc.AIS
	if provider, name, ok := strings.Cut(uri, apc.BckProviderSeparator); ok {
		bck.Provider = apc.NormalizeProvider(provider)
		uri = name
	}
	bck.Name = strings.TrimSuffix(uri, "/")
	if bck.Name == "" {
		err = errEmptyBucket
	}
	return
}

// ParseObjURI parses "ais://bucket/object/name" (the provider defaults to ais://)
func ParseObjURI(uri string) (bck Bck, objName string, err error) {
	provider, rest, ok := strings.Cut(uri, apc.BckProviderSeparator)
	if !ok {
		provider, rest = apc.AIS, uri
	}
	name, objName, _ := strings.Cut(rest, "/")
	if bck, err = ParseBckURI(provider + apc.BckProviderSeparator + name); err != nil {
		return
	}
	if objName == "" {
		err = errors.New("object name is empty in \"" + uri + "\"")
	}
	return
}

func (b *Bck) Validate() error {
	if b.Name == "" {
		return errEmptyBucket
	}
	if b.Provider == "" {
		b.Provider = apc.AIS
	}
	if !apc.IsProvider(b.Provider) {
		return errors.New("invalid backend provider \"" + b.Provider + "\"")
	}
	return nil
}

func (b *Bck) String() string {
	p := b.Provider
	if p == "" {
		p = apc.AIS
	}
	return p + apc.BckProviderSeparator + b.Name
}

// Cname returns the fully-qualified name of an object in this bucket
func (b *Bck) Cname(objName string) string { return b.String() + "/" + objName }

// MakeUname returns the unique name of an object that HRW hashes on
func (b *Bck) MakeUname(objName string) string {
	p := b.Provider
	if p == "" {
		p = apc.AIS
	}
	return p + "/" + b.Name + "/" + objName
}

func (b *Bck) AddToQuery(q url.Values) url.Values {
	if b.Provider == "" {
		return q
	}
	if q == nil {
		q = make(url.Values, 1)
	}
	q.Set(apc.QparamProvider, b.Provider)
	return q
}
