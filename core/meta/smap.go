// Package meta: cluster map as seen by AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/NVIDIA/aisdataset/api/apc"
	"github.com/NVIDIA/aisdataset/cmn/cos"

	"github.com/OneOfOne/xxhash"
)

type (
	// Snode's networking info
	NetInfo struct {
		Hostname string `json:"node_ip_addr"`
		Port     string `json:"daemon_port"`
		URL      string `json:"direct_url"`
	}

	// Snode - a node (gateway or target) in a cluster
	Snode struct {
		PubNet     NetInfo `json:"public_net"`
		DataNet    NetInfo `json:"intra_data_net"`
		ControlNet NetInfo `json:"intra_control_net"`
		DaeType    string  `json:"daemon_type"` // "target" or "proxy"
		DaeID      string  `json:"daemon_id"`
		Flags      uint64  `json:"flags"`
		idDigest   uint64
	}

	NodeMap map[string]*Snode // map of Snodes indexed by node ID (Pmap & Tmap below)

	// cluster map
	Smap struct {
		Pmap    NodeMap `json:"pmap"` // [pid => Snode]
		Primary *Snode  `json:"proxy_si"`
		Tmap    NodeMap `json:"tmap"` // [tid => Snode]
		UUID    string  `json:"uuid"`
		Version int64   `json:"version,string"`
	}

	Nodes []*Snode
)

// Snode.Flags: nodes in maintenance (or being decommissioned) do not own objects
const (
	SnodeMaint   = 1 << 2
	SnodeDecomm  = 1 << 3
	SnodeInMaint = SnodeMaint | SnodeDecomm
)

///////////
// Snode //
///////////

func NewSnode(id, daeType string, pubNet, dataNet NetInfo) *Snode {
	si := &Snode{DaeID: id, DaeType: daeType, PubNet: pubNet, DataNet: dataNet, ControlNet: pubNet}
	si.setDigest()
	return si
}

func (d *Snode) ID() string { return d.DaeID }

func (d *Snode) IsProxy() bool  { return d.DaeType == apc.Proxy }
func (d *Snode) IsTarget() bool { return d.DaeType == apc.Target }
func (d *Snode) InMaint() bool  { return d.Flags&SnodeInMaint != 0 }

func (d *Snode) Digest() uint64 {
	if d.idDigest == 0 {
		d.setDigest()
	}
	return d.idDigest
}

func (d *Snode) setDigest() {
	d.idDigest = xxhash.Checksum64S([]byte(d.DaeID), cos.MLCG32)
}

func (d *Snode) String() string {
	if d.IsProxy() {
		return "p[" + d.DaeID + "]"
	}
	return "t[" + d.DaeID + "]"
}

// DataURL returns the URL to read object data from: intra-data network if
// configured, public otherwise
func (d *Snode) DataURL() string {
	if d.DataNet.URL != "" {
		return d.DataNet.URL
	}
	return d.PubNet.URL
}

func (ni *NetInfo) String() string {
	if ni.URL != "" {
		return ni.URL
	}
	return ni.Hostname + ":" + ni.Port
}

//////////
// Smap //
//////////

// Init computes node digests; must be called once after the map is received
func (m *Smap) Init() {
	for id, si := range m.Tmap {
		if si.DaeID == "" {
			si.DaeID = id
		}
		if si.DaeType == "" {
			si.DaeType = apc.Target
		}
		si.setDigest()
	}
	for id, pi := range m.Pmap {
		if pi.DaeID == "" {
			pi.DaeID = id
		}
		if pi.DaeType == "" {
			pi.DaeType = apc.Proxy
		}
		pi.setDigest()
	}
}

func (m *Smap) CountTargets() int { return len(m.Tmap) }
func (m *Smap) CountProxies() int { return len(m.Pmap) }

func (m *Smap) GetTarget(tid string) *Snode { return m.Tmap[tid] }

// Targets returns all targets sorted by ID
func (m *Smap) Targets() Nodes {
	nodes := make(Nodes, 0, len(m.Tmap))
	for _, si := range m.Tmap {
		nodes = append(nodes, si)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].DaeID < nodes[j].DaeID })
	return nodes
}

func (m *Smap) String() string {
	if m == nil {
		return "Smap <nil>"
	}
	return "Smap v" + strconv.FormatInt(m.Version, 10) +
		fmt.Sprintf("[%s, t=%d, p=%d]", m.UUID, m.CountTargets(), m.CountProxies())
}
