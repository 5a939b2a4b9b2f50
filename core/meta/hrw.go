// Package meta: cluster map as seen by AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import (
	"fmt"

	"github.com/NVIDIA/aisdataset/cmn/cos"
	"github.com/NVIDIA/aisdataset/cmn/xoshiro256"

	"github.com/OneOfOne/xxhash"
)

// A variant of consistent hash based on rendezvous algorithm by Thaler and Ravishankar,
// aka highest random weight (HRW)

type ErrNoNodes struct {
	smap *Smap
	role string
}

func (e *ErrNoNodes) Error() string {
	return fmt.Sprintf("no available %ss, %s", e.role, e.smap)
}

// HrwName2T returns the target that stores the object with the given unique
// name (see cmn.Bck.MakeUname); targets in maintenance are skipped
func (m *Smap) HrwName2T(uname string) (si *Snode, err error) {
	var (
		maxH   uint64
		digest = xxhash.ChecksumString64S(uname, cos.MLCG32)
	)
	for _, tsi := range m.Tmap {
		if tsi.InMaint() {
			continue
		}
		cs := xoshiro256.Hash(tsi.Digest() ^ digest)
		if cs >= maxH {
			maxH = cs
			si = tsi
		}
	}
	if si == nil {
		err = &ErrNoNodes{smap: m, role: "target"}
	}
	return
}
