// Package api provides AIStore API over HTTP(S) for the dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
)

// GetArgs: optional arguments of GET(object)
type GetArgs struct {
	Writer  io.Writer   // destination; io.Discard when nil
	Query   url.Values  // additional query parameters
	Header  http.Header // additional request headers
	ETLName string      // when non-empty, the object is transformed by the named ETL on the way out
}

func (args *GetArgs) ret() (w io.Writer, q url.Values, hdr http.Header) {
	w = io.Discard
	if args == nil {
		return
	}
	if args.Writer != nil {
		w = args.Writer
	}
	if len(args.Query) != 0 || args.ETLName != "" {
		q = make(url.Values, len(args.Query)+1)
		for k, vs := range args.Query {
			q[k] = vs
		}
		if args.ETLName != "" {
			q.Set(apc.QparamETLName, args.ETLName)
		}
	}
	if len(args.Header) != 0 {
		hdr = args.Header
	}
	return
}

func objPath(bck *cmn.Bck, objName string) string {
	return apc.URLPathObjects.Join(bck.Name, objName)
}

// GetObject reads the object and copies its content into `args.Writer`;
// returns the number of bytes written
func GetObject(bp BaseParams, bck cmn.Bck, objName string, args *GetArgs) (int64, error) {
	w, q, hdr := args.ret()
	bp.Method = http.MethodGet
	reqParams := AllocRp()
	{
		reqParams.BaseParams = bp
		reqParams.Path = objPath(&bck, objName)
		reqParams.Query = bck.AddToQuery(q)
		reqParams.Header = hdr
	}
	n, err := reqParams.DoReqAny(w)
	FreeRp(reqParams)
	return n, err
}

// GetObjectReader returns the object's content as a stream (the caller
// must close it) and the size reported by the server, or -1 when unknown.
// `args.Writer`, if any, is ignored.
func GetObjectReader(bp BaseParams, bck cmn.Bck, objName string, args *GetArgs) (io.ReadCloser, int64, error) {
	_, q, hdr := args.ret()
	bp.Method = http.MethodGet
	reqParams := AllocRp()
	{
		reqParams.BaseParams = bp
		reqParams.Path = objPath(&bck, objName)
		reqParams.Query = bck.AddToQuery(q)
		reqParams.Header = hdr
	}
	r, size, err := reqParams.doReader()
	FreeRp(reqParams)
	return r, size, err
}
