// Package archive: streaming readers and writers of tar shards across all
// supported formats (plain and compressed)
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/NVIDIA/aisdataset/cmn/cos"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

const (
	_regexp = iota // default (and slow)
	_prefix
	_suffix
	_substr
	_wdskey
)

var MatchMode = [...]string{
	"regexp",
	"prefix",
	"suffix",
	"substr",
	"wdskey", // WebDataset convention - pathname without extension
}

// to use, construct (`NewReader`) and iterate (`ReadUntil`)
type (
	// ArchRCB is called with each matching regular file; returning stop=true
	// (or an error) ends the iteration; `reader` is valid only for the duration of the call
	ArchRCB interface {
		Call(filename string, reader cos.ReadCloseSizer, hdr *tar.Header) (stop bool, err error)
	}

	// ArchFunc is an ArchRCB adapter
	ArchFunc func(filename string, reader cos.ReadCloseSizer, hdr *tar.Header) (bool, error)

	Reader interface {
		// - call rcb (reader's callback) with each matching archived regular file, where
		//   `regex` is interpreted according to one of the enumerated "matching modes";
		//   an empty `regex` matches all
		// - directories, links, and other non-regular members are skipped
		// - stop upon EOF, or when rcb returns true (ie., stop) or any error
		ReadUntil(rcb ArchRCB, regex, mmode string) error

		// Close releases decompressor resources (does not close the source)
		Close() error

		// private
		init(fh io.Reader) error
	}

	ErrMatchMode struct{ mmode string }
)

func (f ArchFunc) Call(filename string, reader cos.ReadCloseSizer, hdr *tar.Header) (bool, error) {
	return f(filename, reader, hdr)
}

// private
type (
	matcher struct {
		re    *regexp.Regexp // when (and if) compiled
		regex string
		mmode string
	}
	tarReader struct {
		tr *tar.Reader
	}
	tgzReader struct {
		tarReader
		gzr *gzip.Reader
	}
	lz4Reader struct {
		tarReader
	}
	xzReader struct {
		tarReader
	}
	zstReader struct {
		tarReader
		zr *zstd.Decoder
	}
)

// interface guard
var (
	_ Reader = (*tarReader)(nil)
	_ Reader = (*tgzReader)(nil)
	_ Reader = (*lz4Reader)(nil)
	_ Reader = (*xzReader)(nil)
	_ Reader = (*zstReader)(nil)
)

// NewReader returns a streaming reader; `mime` is one of the FileExtensions
// (see Mime to normalize user input)
func NewReader(mime string, fh io.Reader) (ar Reader, err error) {
	switch mime {
	case ExtTar:
		ar = &tarReader{}
	case ExtTgz, ExtTarGz:
		ar = &tgzReader{}
	case ExtTarLz4:
		ar = &lz4Reader{}
	case ExtTarXz:
		ar = &xzReader{}
	case ExtTarZst:
		ar = &zstReader{}
	default:
		return nil, NewErrUnknownMime(mime)
	}
	if err = ar.init(fh); err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", mime, err)
	}
	return ar, nil
}

/////////////
// matcher //
/////////////

func (m *matcher) init() (err error) {
	if m.regex == "" || m.regex == "*" {
		m.regex, m.mmode = "", MatchMode[_prefix]
	}
	if m.mmode == "" {
		m.mmode = MatchMode[_regexp]
	}
	switch m.mmode {
	case MatchMode[_regexp]:
		m.re, err = regexp.Compile(m.regex)
	case MatchMode[_prefix], MatchMode[_suffix], MatchMode[_substr], MatchMode[_wdskey]:
		// do nothing
	default:
		err = &ErrMatchMode{m.mmode}
	}
	return err
}

func (m *matcher) do(filename string) bool {
	if m.regex == "" { // empty regex matches all archived filenames
		return true
	}
	if m.re != nil {
		return m.re.MatchString(filename)
	}
	switch m.mmode {
	case MatchMode[_prefix]:
		return strings.HasPrefix(filename, m.regex)
	case MatchMode[_suffix]:
		return strings.HasSuffix(filename, m.regex)
	case MatchMode[_substr]:
		return strings.Contains(filename, m.regex)
	default:
		return m.regex == WdsKey(filename)
	}
}

// WdsKey returns the sample key: pathname without the (last) extension
func WdsKey(filename string) string {
	ext := path.Ext(filename)
	return filename[:len(filename)-len(ext)]
}

func IsRegular(hdr *tar.Header) bool {
	return hdr.Typeflag == tar.TypeReg || hdr.Typeflag == tar.TypeRegA //nolint:staticcheck // old-style
}

///////////////
// tarReader //
///////////////

func (tr *tarReader) init(fh io.Reader) error {
	tr.tr = tar.NewReader(fh)
	return nil
}

func (*tarReader) Close() error { return nil }

func (tr *tarReader) ReadUntil(rcb ArchRCB, regex, mmode string) error {
	matcher := matcher{regex: regex, mmode: mmode}
	if err := matcher.init(); err != nil {
		return err
	}
	for {
		hdr, err := tr.tr.Next()
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			return err
		}
		if !IsRegular(hdr) || !matcher.do(hdr.Name) {
			continue
		}
		csl := &cslLimited{LimitedReader: io.LimitedReader{R: tr.tr, N: hdr.Size}}
		if stop, err := rcb.Call(hdr.Name, csl, hdr); stop || err != nil {
			return err
		}
	}
}

///////////////
// tgzReader //
///////////////

func (tgr *tgzReader) init(fh io.Reader) (err error) {
	if tgr.gzr, err = gzip.NewReader(fh); err != nil {
		return err
	}
	return tgr.tarReader.init(tgr.gzr)
}

func (tgr *tgzReader) Close() error { return tgr.gzr.Close() }

///////////////
// lz4Reader //
///////////////

func (lzr *lz4Reader) init(fh io.Reader) error {
	return lzr.tarReader.init(lz4.NewReader(fh))
}

//////////////
// xzReader //
//////////////

func (xzr *xzReader) init(fh io.Reader) error {
	r, err := xz.NewReader(fh)
	if err != nil {
		return err
	}
	return xzr.tarReader.init(r)
}

///////////////
// zstReader //
///////////////

func (zsr *zstReader) init(fh io.Reader) (err error) {
	if zsr.zr, err = zstd.NewReader(fh); err != nil {
		return err
	}
	return zsr.tarReader.init(zsr.zr)
}

func (zsr *zstReader) Close() error {
	zsr.zr.Close()
	return nil
}

//
// limited reader
//

type cslLimited struct {
	io.LimitedReader
}

func (csl *cslLimited) Size() int64 { return csl.N }
func (*cslLimited) Close() error    { return nil }

//////////////////
// ErrMatchMode //
//////////////////

func (e *ErrMatchMode) Error() string {
	return fmt.Sprintf("invalid matching mode %q, expecting one of: %v", e.mmode, MatchMode)
}

func ValidateMatchMode(mmode string) (string, error) {
	if mmode == "" || mmode == "*" {
		return MatchMode[_prefix], nil
	}
	for i := range MatchMode {
		if MatchMode[i] == mmode {
			return mmode, nil
		}
	}
	return "", &ErrMatchMode{mmode}
}
