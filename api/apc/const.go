// Package apc: API control messages and constants
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

import "strings"

// URL path elements
const (
	Version = "v1"
	Objects = "objects"
	Buckets = "buckets"
	Daemon  = "daemon"
	Cluster = "cluster"
	Health  = "health"
)

type URLPath struct {
	L []string
	S string
}

var (
	URLPathObjects = urpath(Version, Objects)
	URLPathBuckets = urpath(Version, Buckets)
	URLPathDaemon  = urpath(Version, Daemon)
	URLPathCluster = urpath(Version, Cluster)
	URLPathHealth  = urpath(Version, Health)
)

func urpath(words ...string) URLPath {
	return URLPath{L: words, S: JoinWords(words...)}
}

// Join appends URL-escaped-as-is path elements
func (u URLPath) Join(words ...string) string {
	return u.S + JoinWords(words...)
}

func JoinWords(words ...string) string {
	var sb strings.Builder
	for _, w := range words {
		sb.WriteByte('/')
		sb.WriteString(w)
	}
	return sb.String()
}

// Query parameters
const (
	QparamProvider = "provider"
	QparamETLName  = "etl_name"
	QparamWhat     = "what"
	QparamProps    = "props"
	QparamUUID     = "uuid"
)

// QparamWhat enum
const (
	WhatSmap     = "smap"
	WhatNodeInfo = "snode"
)

// Node types
const (
	Proxy  = "proxy"
	Target = "target"
)

// Actions
const (
	ActList = "list"
)

// ActMsg is the JSON body of control requests
type ActMsg struct {
	Value  any    `json:"value"`
	Action string `json:"action"`
	Name   string `json:"name"`
}
