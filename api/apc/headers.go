// Package apc: API control messages and constants
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

// Authentication
const (
	HdrAuthorization         = "Authorization"
	AuthenticationTypeBearer = "Bearer"
)

// Object and error headers set by AIS nodes
const (
	HdrError        = "Ais-Error"
	HdrObjSize      = "Ais-Obj-Size"
	HdrObjCksumType = "Ais-Checksum-Type"
	HdrObjCksumVal  = "Ais-Checksum-Value"
	HdrNodeID       = "Ais-Node-Id"
)
