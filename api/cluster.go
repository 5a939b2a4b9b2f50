// Package api provides AIStore API over HTTP(S) for the dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"net/http"
	"net/url"

	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/core/meta"
)

// GetClusterMap retrieves AIStore cluster map (Smap) from the node at bp.URL
func GetClusterMap(bp BaseParams) (*meta.Smap, error) {
	bp.Method = http.MethodGet
	reqParams := AllocRp()
	{
		reqParams.BaseParams = bp
		reqParams.Path = apc.URLPathDaemon.S
		reqParams.Query = url.Values{apc.QparamWhat: []string{apc.WhatSmap}}
	}
	smap := &meta.Smap{}
	_, err := reqParams.DoReqAny(smap)
	FreeRp(reqParams)
	if err != nil {
		return nil, err
	}
	smap.Init()
	return smap, nil
}

// Health returns nil when the node at bp.URL is up and reachable
func Health(bp BaseParams) error {
	bp.Method = http.MethodGet
	reqParams := AllocRp()
	{
		reqParams.BaseParams = bp
		reqParams.Path = apc.URLPathHealth.S
	}
	err := reqParams.DoRequest()
	FreeRp(reqParams)
	return err
}

// HrwParams returns a copy of `bp` that points at the target storing the
// object, so that GET bypasses the gateway redirect
func HrwParams(bp BaseParams, smap *meta.Smap, bck cmn.Bck, objName string) (BaseParams, error) {
	tsi, err := smap.HrwName2T(bck.MakeUname(objName))
	if err != nil {
		return bp, err
	}
	bp.URL = tsi.DataURL()
	return bp, nil
}
