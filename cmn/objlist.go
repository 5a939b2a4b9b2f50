// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"github.com/NVIDIA/aisdataset/api/apc"
)

type (
	LsoEntry struct {
		Name     string `json:"name" msg:"n"`                            // object name
		Checksum string `json:"checksum,omitempty" msg:"cs,omitempty"`   // checksum
		Atime    string `json:"atime,omitempty" msg:"a,omitempty"`       // last access time
		Version  string `json:"version,omitempty" msg:"v,omitempty"`     // e.g., GCP int64 generation, AWS version (string), etc.
		Location string `json:"location,omitempty" msg:"t,omitempty"`    // [tnode:mountpath]
		Custom   string `json:"custom-md,omitempty" msg:"m,omitempty"`   // custom metadata: ETag, MD5, CRC, user-defined ...
		Size     int64  `json:"size,string,omitempty" msg:"s,omitempty"` // size in bytes
		Copies   int16  `json:"copies,omitempty" msg:"c,omitempty"`      // ## copies (NOTE: for non-replicated object copies == 1)
		Flags    uint16 `json:"flags,omitempty" msg:"f,omitempty"`
	}
	LsoEntries []*LsoEntry

	// LsoResult carries the results of `api.ListObjects` and `api.ListObjectsPage`
	LsoResult struct {
		UUID              string     `json:"uuid" msg:"uuid"`
		ContinuationToken string     `json:"continuation_token" msg:"continuation_token"`
		Entries           LsoEntries `json:"entries" msg:"entries"`
		Flags             uint32     `json:"flags" msg:"flags"`
	}
)

func (be *LsoEntry) IsPresent() bool    { return be.Flags&apc.EntryIsCached != 0 }
func (be *LsoEntry) IsStatusOK() bool   { return be.Flags&apc.EntryStatusMask == 0 }
func (be *LsoEntry) IsInsideArch() bool { return be.Flags&apc.EntryInArch != 0 }
func (be *LsoEntry) IsDir() bool        { return be.Flags&apc.EntryIsDir != 0 }

// Names returns object names in listed order
func (entries LsoEntries) Names() []string {
	names := make([]string, 0, len(entries))
	for _, en := range entries {
		names = append(names, en.Name)
	}
	return names
}
