// Package apc: API control messages and constants
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

import "strings"

// LsoMsg flags
const (
	LsObjCached = 1 << iota
	LsNameOnly
	LsNoDirs
)

// List objects default page size
const DefaultPageSizeAIS = 10000

const (
	// Status
	LocOK = iota
	LocMisplacedNode
	LocMisplacedMountpath
	LocIsCopy
	LocIsCopyMissingObj

	// Flags
	EntryIsCached = 1 << (EntryStatusBits + 1)
	EntryInArch   = 1 << (EntryStatusBits + 2)
	EntryIsDir    = 1 << (EntryStatusBits + 3)
)

// LsoEntry.Flags field
const (
	EntryStatusBits = 5                          // N bits
	EntryStatusMask = (1 << EntryStatusBits) - 1 // mask for N low bits
)

// list-objects property names
const (
	GetPropsName     = "name"
	GetPropsSize     = "size"
	GetPropsChecksum = "checksum"
	GetPropsAtime    = "atime"
	GetPropsVersion  = "version"
)

var GetPropsMinimal = []string{GetPropsName, GetPropsSize}

type LsoMsg struct {
	UUID              string `json:"uuid"`               // ID to identify a single multi-page request
	Props             string `json:"props"`              // e.g. "checksum,size"
	Prefix            string `json:"prefix"`             // objname filter: return names starting with prefix
	StartAfter        string `json:"start_after"`        // start listing after (AIS buckets only)
	ContinuationToken string `json:"continuation_token"` // LsoResult.ContinuationToken
	Flags             uint64 `json:"flags,string"`       // enum {LsObjCached, ...}
	PageSize          uint   `json:"pagesize"`           // max entries returned by list objects call
}

func (lsmsg *LsoMsg) SetFlag(flag uint64) { lsmsg.Flags |= flag }

func (lsmsg *LsoMsg) IsFlagSet(flag uint64) bool { return lsmsg.Flags&flag == flag }

// WantProp returns true if the message requests property `name`
func (lsmsg *LsoMsg) WantProp(name string) bool {
	return strings.Contains(lsmsg.Props, name)
}

func (lsmsg *LsoMsg) AddProps(names ...string) {
	for _, name := range names {
		if lsmsg.WantProp(name) {
			continue
		}
		if lsmsg.Props != "" {
			lsmsg.Props += ","
		}
		lsmsg.Props += name
	}
}
