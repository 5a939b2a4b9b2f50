// Package cos provides common low-level types and utilities for the AIS dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"io"
	"os"
	"path/filepath"
)

type (
	ReadCloseSizer interface {
		io.ReadCloser
		Size() int64
	}
	// counts bytes read through
	CountingReader struct {
		R io.Reader
		N int64
	}
)

func (cr *CountingReader) Read(b []byte) (n int, err error) {
	n, err = cr.R.Read(b)
	cr.N += int64(n)
	return
}

// POSIX permissions
const (
	PermRWRR  os.FileMode = 0o644
	PermRWXRX os.FileMode = 0o755
)

func DrainReader(r io.Reader) {
	io.Copy(io.Discard, r) //nolint:errcheck // best effort
}

func Close(closer io.Closer) {
	closer.Close() //nolint:errcheck // read-only
}

// CreateFile creates a new write-only (O_WRONLY) file with PermRWRR permissions.
// NOTE: if the file pathname doesn't exist it'll be created.
func CreateFile(fqn string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fqn), PermRWXRX); err != nil {
		return nil, err
	}
	return os.OpenFile(fqn, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, PermRWRR)
}

// Rename renames src to dst, falling back to removing src on failure
func Rename(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		os.Remove(src)
		return err
	}
	return nil
}
