// Package cos provides common low-level types and utilities for the AIS dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
