// Package api provides AIStore API over HTTP(S) for the dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"errors"
	"net/http"

	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/cmn/nlog"
)

// NewBaseParams makes BaseParams for the configured endpoint; the token,
// if any, comes from the config or the configured token file
func NewBaseParams(client *http.Client, config *cmn.Config) (BaseParams, error) {
	bp := BaseParams{Client: client, URL: config.Endpoint, Token: config.AuthToken}
	if bp.Token == "" && config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err != nil {
			return bp, err
		}
		bp.Token = token
	}
	if bp.Token != "" {
		if err := TokenExpired(bp.Token); err != nil {
			if errors.Is(err, ErrTokenExpired) {
				return bp, err
			}
			nlog.Warningf("failed to parse authentication token (%v), sending it as is", err)
		}
	}
	return bp, nil
}

// NewHTTPClient makes HTTP(S) client as per config
func NewHTTPClient(config *cmn.Config) (*http.Client, error) {
	cargs := config.TransportArgs()
	if cos.IsHTTPS(config.Endpoint) {
		sargs := config.TLSArgs()
		return cmn.NewClientTLS(cargs, sargs)
	}
	return cmn.NewClient(cargs), nil
}
