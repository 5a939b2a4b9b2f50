// Package aisfake provides an in-process AIS cluster (one gateway, N targets)
// for unit tests: objects, paged listing, cluster map, and named ETLs
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package aisfake

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"

	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/core/meta"

	"github.com/tinylib/msgp/msgp"
)

const ProxyID = "p1"

type (
	ETL func(b []byte) ([]byte, error)

	Cluster struct {
		proxy    *httptest.Server
		targets  map[string]*httptest.Server
		objects  map[string]map[string][]byte // bucket => object name => content
		etls     map[string]ETL
		requests map[string]int // node ID => number of served requests
		token    string
		pageSize int
		fail     int
		mu       sync.Mutex
	}

	lsoReq struct {
		Action string     `json:"action"`
		Value  apc.LsoMsg `json:"value"`
	}
)

// NewCluster starts a gateway and `numTargets` targets that share the same
// object namespace
func NewCluster(numTargets int) *Cluster {
	c := &Cluster{
		targets:  make(map[string]*httptest.Server, numTargets),
		objects:  make(map[string]map[string][]byte, 2),
		etls:     make(map[string]ETL, 1),
		requests: make(map[string]int, numTargets+1),
		pageSize: apc.DefaultPageSizeAIS,
	}
	c.proxy = httptest.NewServer(c.handler(ProxyID))
	for i := range numTargets {
		tid := fmt.Sprintf("t%d", i+1)
		c.targets[tid] = httptest.NewServer(c.handler(tid))
	}
	return c
}

func (c *Cluster) URL() string { return c.proxy.URL }

func (c *Cluster) Close() {
	c.proxy.Close()
	for _, ts := range c.targets {
		ts.Close()
	}
}

func (c *Cluster) Put(bucket, objName string, b []byte) {
	c.mu.Lock()
	if c.objects[bucket] == nil {
		c.objects[bucket] = make(map[string][]byte)
	}
	c.objects[bucket][objName] = b
	c.mu.Unlock()
}

func (c *Cluster) AddETL(name string, etl ETL) {
	c.mu.Lock()
	c.etls[name] = etl
	c.mu.Unlock()
}

// SetPageSize limits the number of entries in a list-objects page
func (c *Cluster) SetPageSize(n int) {
	c.mu.Lock()
	c.pageSize = n
	c.mu.Unlock()
}

// RequireToken makes every node reject requests without the bearer token
func (c *Cluster) RequireToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// FailNext makes the next `n` requests (to any node) fail with 503
func (c *Cluster) FailNext(n int) {
	c.mu.Lock()
	c.fail = n
	c.mu.Unlock()
}

// Requests returns the number of requests served by the node
func (c *Cluster) Requests(nodeID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[nodeID]
}

func (c *Cluster) Smap() *meta.Smap {
	smap := &meta.Smap{
		Pmap:    make(meta.NodeMap, 1),
		Tmap:    make(meta.NodeMap, len(c.targets)),
		UUID:    "fake-cluster",
		Version: 1,
	}
	pi := meta.NewSnode(ProxyID, apc.Proxy, meta.NetInfo{URL: c.proxy.URL}, meta.NetInfo{URL: c.proxy.URL})
	smap.Pmap[ProxyID], smap.Primary = pi, pi
	for tid, ts := range c.targets {
		smap.Tmap[tid] = meta.NewSnode(tid, apc.Target, meta.NetInfo{URL: ts.URL}, meta.NetInfo{URL: ts.URL})
	}
	smap.Init()
	return smap
}

func (c *Cluster) handler(nodeID string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apc.URLPathObjects.S+"/{bucket}/{obj...}", c.getObject)
	mux.HandleFunc("GET "+apc.URLPathBuckets.S+"/{bucket}", c.listObjects)
	mux.HandleFunc("GET "+apc.URLPathDaemon.S, c.daemon)
	mux.HandleFunc("GET "+apc.URLPathHealth.S, func(http.ResponseWriter, *http.Request) {})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.requests[nodeID]++
		token, fail := c.token, c.fail > 0
		if fail {
			c.fail--
		}
		c.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if token != "" && r.Header.Get(apc.HdrAuthorization) != apc.AuthenticationTypeBearer+" "+token {
			writeErr(w, r, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Header().Set(apc.HdrNodeID, nodeID)
		mux.ServeHTTP(w, r)
	})
}

func (c *Cluster) getObject(w http.ResponseWriter, r *http.Request) {
	bucket, objName := r.PathValue("bucket"), r.PathValue("obj")
	c.mu.Lock()
	b, ok := c.objects[bucket][objName]
	etlName := r.URL.Query().Get(apc.QparamETLName)
	etl, etlOK := c.etls[etlName]
	c.mu.Unlock()
	if !ok {
		writeErr(w, r, fmt.Sprintf("object %s/%s does not exist", bucket, objName), http.StatusNotFound)
		return
	}
	if etlName != "" {
		if !etlOK {
			writeErr(w, r, fmt.Sprintf("ETL %q not found", etlName), http.StatusNotFound)
			return
		}
		var err error
		if b, err = etl(b); err != nil {
			writeErr(w, r, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set(cos.HdrContentType, cos.ContentBinary)
	w.Header().Set(apc.HdrObjSize, fmt.Sprint(len(b)))
	w.Write(b)
}

func (c *Cluster) listObjects(w http.ResponseWriter, r *http.Request) {
	var (
		req    lsoReq
		bucket = r.PathValue("bucket")
	)
	if err := cos.JSON.NewDecoder(r.Body).Decode(&req); err != nil || req.Action != apc.ActList {
		writeErr(w, r, fmt.Sprintf("invalid list-objects request (%v)", err), http.StatusBadRequest)
		return
	}
	c.mu.Lock()
	objs, ok := c.objects[bucket]
	names := make([]string, 0, len(objs))
	for name := range objs {
		if strings.HasPrefix(name, req.Value.Prefix) && name > req.Value.ContinuationToken {
			names = append(names, name)
		}
	}
	pageSize := c.pageSize
	c.mu.Unlock()
	if !ok {
		writeErr(w, r, fmt.Sprintf("bucket %q does not exist", bucket), http.StatusNotFound)
		return
	}
	slices.Sort(names)
	if req.Value.PageSize > 0 {
		pageSize = min(pageSize, int(req.Value.PageSize))
	}
	lst := &cmn.LsoResult{UUID: cos.NonZero(req.Value.UUID, "lso-"+bucket)}
	if len(names) > pageSize {
		names = names[:pageSize]
		lst.ContinuationToken = names[pageSize-1]
	}
	c.mu.Lock()
	for _, name := range names {
		lst.Entries = append(lst.Entries, &cmn.LsoEntry{Name: name, Size: int64(len(objs[name])), Flags: apc.EntryIsCached})
	}
	c.mu.Unlock()

	if strings.Contains(r.Header.Get(cos.HdrAccept), cos.ContentMsgPack) {
		w.Header().Set(cos.HdrContentType, cos.ContentMsgPack)
		mw := msgp.NewWriter(w)
		if err := lst.EncodeMsg(mw); err == nil {
			mw.Flush()
		}
		return
	}
	w.Header().Set(cos.HdrContentType, cos.ContentJSON)
	w.Write(cos.MustMarshal(lst))
}

func (c *Cluster) daemon(w http.ResponseWriter, r *http.Request) {
	if what := r.URL.Query().Get(apc.QparamWhat); what != apc.WhatSmap {
		writeErr(w, r, fmt.Sprintf("invalid %s=%q", apc.QparamWhat, what), http.StatusBadRequest)
		return
	}
	w.Header().Set(cos.HdrContentType, cos.ContentJSON)
	w.Write(cos.MustMarshal(c.Smap()))
}

func writeErr(w http.ResponseWriter, r *http.Request, msg string, status int) {
	herr := cmn.NewErrHTTP(r, msg, status)
	w.Header().Set(cos.HdrContentType, cos.ContentJSON)
	w.WriteHeader(status)
	w.Write(cos.MustMarshal(herr))
}
