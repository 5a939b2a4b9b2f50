// Package cos provides common low-level types and utilities for the AIS dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"
	"strings"
)

type StrKVs map[string]string

func NonZero[T comparable](a, b T) T {
	var zero T
	if a != zero {
		return a
	}
	return b
}

// IsParseBool returns true if the string parses as true (and false otherwise)
func IsParseBool(s string) bool {
	yes, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && yes
}

// IsHTTPS returns true if the url starts with "https://"
func IsHTTPS(url string) bool { return strings.HasPrefix(url, "https://") }

const MLCG32 = 1103515245 // xxhash seed
