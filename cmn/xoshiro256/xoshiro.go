// Package xoshiro256 implements the scrambler of xoshiro256** seeded via splitmix64
// (Blackman and Vigna, https://prng.di.unimi.it)
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package xoshiro256

import "math/bits"

// Hash mixes a 64-bit value; HRW weights are computed as Hash(nodeDigest ^ nameDigest)
func Hash(seed uint64) uint64 {
	s0 := splitmix64(seed)
	s1 := splitmix64(s0)
	return bits.RotateLeft64(s1*5, 7) * 9
}

func splitmix64(x uint64) uint64 {
	z := x + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
