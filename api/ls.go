// Package api provides AIStore API over HTTP(S) for the dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"
)

const maxListPageRetries = 4

// additional and optional list-objects args
type ListArgs struct {
	Callback func(listed int) // called after each page
	Num      uint             // aka limit; 0 - list all
}

func lsoReqParams(bp BaseParams, bck *cmn.Bck) *ReqParams {
	bp.Method = http.MethodGet
	reqParams := AllocRp()
	{
		reqParams.BaseParams = bp
		reqParams.Path = apc.URLPathBuckets.Join(bck.Name)
		reqParams.Header = http.Header{
			cos.HdrAccept:      []string{cos.ContentMsgPack},
			cos.HdrContentType: []string{cos.ContentJSON},
		}
		reqParams.Query = bck.AddToQuery(url.Values{})
	}
	return reqParams
}

// ListObjects returns objects in a bucket, page by page, until either all
// objects are listed or `args.Num` is reached.
// See also: ListObjectsPage
func ListObjects(bp BaseParams, bck cmn.Bck, lsmsg *apc.LsoMsg, args ListArgs) (*cmn.LsoResult, error) {
	if lsmsg == nil {
		lsmsg = &apc.LsoMsg{}
	}
	lsmsg.UUID = ""
	lsmsg.ContinuationToken = ""
	reqParams := lsoReqParams(bp, &bck)
	lst, err := lso(reqParams, lsmsg, args)
	FreeRp(reqParams)
	return lst, err
}

// `toRead` holds the remaining number of objects to list (that is, unless we are listing
// the entire bucket). Each iteration lists a page of objects and reduces `toRead`
// accordingly.
func lso(reqParams *ReqParams, lsmsg *apc.LsoMsg, args ListArgs) (*cmn.LsoResult, error) {
	var (
		lst     = &cmn.LsoResult{}
		toRead  = args.Num
		listAll = args.Num == 0
	)
	for pageNum := 1; listAll || toRead > 0; pageNum++ {
		if !listAll {
			lsmsg.PageSize = toRead
		}
		reqParams.Body = cos.MustMarshal(apc.ActMsg{Action: apc.ActList, Value: lsmsg})
		page := lst
		if pageNum > 1 {
			page = &cmn.LsoResult{}
		}
		// w/ limited retry and increasing timeout
		for i := range maxListPageRetries {
			_, err := reqParams.DoReqAny(page)
			if err == nil {
				break
			}
			if errors.Is(err, context.DeadlineExceeded) && i < maxListPageRetries-1 && reqParams.BaseParams.Client.Timeout > 0 {
				client := *reqParams.BaseParams.Client
				client.Timeout = 2 * client.Timeout
				reqParams.BaseParams.Client = &client
				continue
			}
			return nil, err
		}
		if pageNum > 1 {
			lst.Flags |= page.Flags
			lst.Entries = append(lst.Entries, page.Entries...)
			lst.ContinuationToken = page.ContinuationToken
		}
		if args.Callback != nil {
			args.Callback(len(lst.Entries))
		}
		if page.ContinuationToken == "" { // listed all pages
			lsmsg.ContinuationToken = ""
			break
		}
		toRead = uint(max(int(toRead)-len(page.Entries), 0))
		lsmsg.UUID = page.UUID
		lsmsg.ContinuationToken = page.ContinuationToken
	}
	if !listAll && uint(len(lst.Entries)) > args.Num {
		lst.Entries = lst.Entries[:args.Num]
	}
	return lst, nil
}

// ListObjectsPage returns the next page of bucket objects.
// On success the function updates `lsmsg.ContinuationToken` which client then can reuse
// to fetch the next page.
func ListObjectsPage(bp BaseParams, bck cmn.Bck, lsmsg *apc.LsoMsg) (*cmn.LsoResult, error) {
	if lsmsg == nil {
		lsmsg = &apc.LsoMsg{}
	}
	reqParams := lsoReqParams(bp, &bck)
	reqParams.Body = cos.MustMarshal(apc.ActMsg{Action: apc.ActList, Value: lsmsg})

	// no need to preallocate bucket entries slice (msgpack does it)
	page := &cmn.LsoResult{}
	_, err := reqParams.DoReqAny(page)
	FreeRp(reqParams)
	if err != nil {
		return nil, err
	}
	lsmsg.UUID = page.UUID
	lsmsg.ContinuationToken = page.ContinuationToken
	return page, nil
}
