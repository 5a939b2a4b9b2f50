// Package cos provides common low-level types and utilities for the AIS dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

// standard HTTP headers
const (
	HdrContentType   = "Content-Type"
	HdrContentLength = "Content-Length"
	HdrAccept        = "Accept"
	HdrUserAgent     = "User-Agent"
	HdrAuthorization = "Authorization"
)

// Ref: https://www.iana.org/assignments/media-types/media-types.xhtml
const (
	ContentJSON    = "application/json"
	ContentMsgPack = "application/msgpack"
	ContentBinary  = "application/octet-stream"
)
