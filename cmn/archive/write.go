// Package archive: streaming readers and writers of tar shards across all
// supported formats (plain and compressed)
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import (
	"archive/tar"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

type (
	Writer interface {
		// Write adds a regular file of the given size; safe for concurrent use
		// (one file at a time)
		Write(nameInArch string, size int64, reader io.Reader) error
		// Fini flushes and closes the archive (does not close the destination)
		Fini() error
	}
	tarWriter struct {
		tw    *tar.Writer
		outer io.WriteCloser // compressor, if any
		mu    sync.Mutex
	}
)

// interface guard
var _ Writer = (*tarWriter)(nil)

func NewWriter(mime string, w io.Writer) (Writer, error) {
	var (
		aw  = &tarWriter{}
		err error
	)
	switch mime {
	case ExtTar:
	case ExtTgz, ExtTarGz:
		aw.outer = gzip.NewWriter(w)
	case ExtTarLz4:
		aw.outer = lz4.NewWriter(w)
	case ExtTarXz:
		aw.outer, err = xz.NewWriter(w)
	case ExtTarZst:
		aw.outer, err = zstd.NewWriter(w)
	default:
		return nil, NewErrUnknownMime(mime)
	}
	if err != nil {
		return nil, err
	}
	if aw.outer != nil {
		w = aw.outer
	}
	aw.tw = tar.NewWriter(w)
	return aw, nil
}

func (aw *tarWriter) Write(fullname string, size int64, reader io.Reader) (err error) {
	hdr := tar.Header{
		Typeflag: tar.TypeReg,
		Name:     fullname,
		Size:     size,
		Mode:     0o644,
		ModTime:  time.Now().Truncate(time.Second),
		Format:   tar.FormatPAX,
	}
	aw.mu.Lock()
	if err = aw.tw.WriteHeader(&hdr); err == nil {
		_, err = io.CopyN(aw.tw, reader, size)
	}
	aw.mu.Unlock()
	return err
}

func (aw *tarWriter) Fini() error {
	err := aw.tw.Close()
	if aw.outer != nil {
		if erc := aw.outer.Close(); err == nil {
			err = erc
		}
	}
	return err
}
