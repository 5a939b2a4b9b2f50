// Package apc: API control messages and constants
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

import "strings"

// Backend providers
const (
	AIS   = "ais"
	AWS   = "aws"
	GCP   = "gcp"
	Azure = "azure"
	HT    = "ht"

	AllProviders = "ais, aws (s3://), gcp (gs://), azure (az://), ht://"
)

// Schemes accepted as aliases
const (
	S3Scheme  = "s3"
	GSScheme  = "gs"
	AZScheme  = "az"
	AISScheme = "ais"

	BckProviderSeparator = "://"
)

var Providers = map[string]struct{}{AIS: {}, AWS: {}, GCP: {}, Azure: {}, HT: {}}

func IsProvider(p string) bool {
	_, ok := Providers[p]
	return ok
}

// NormalizeProvider maps scheme aliases (s3, gs, az) onto provider names;
// unknown values are returned lowercased and left for the caller to validate
func NormalizeProvider(p string) string {
	p = strings.ToLower(p)
	switch p {
	case S3Scheme:
		return AWS
	case GSScheme, "google":
		return GCP
	case AZScheme:
		return Azure
	case "":
		return AIS
	}
	return p
}
