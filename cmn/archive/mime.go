// Package archive: streaming readers and writers of tar shards across all
// supported formats (plain and compressed)
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// supported archive types (file extensions)
const (
	ExtTar    = ".tar"
	ExtTgz    = ".tgz"
	ExtTarGz  = ".tar.gz"
	ExtTarLz4 = ".tar.lz4"
	ExtTarXz  = ".tar.xz"
	ExtTarZst = ".tar.zst"
)

// NOTE: compound extensions first
var FileExtensions = []string{ExtTarGz, ExtTarLz4, ExtTarXz, ExtTarZst, ExtTgz, ExtTar}

// - here and elsewhere, mime (string) is "." + IANA mime or file extension
// - see https://en.wikipedia.org/wiki/List_of_file_signatures
type detect struct {
	mime   string
	sig    []byte
	offset int
}

var (
	magicTar  = detect{offset: 257, sig: []byte("ustar"), mime: ExtTar}
	magicGzip = detect{sig: []byte{0x1f, 0x8b}, mime: ExtTarGz}
	magicLz4  = detect{sig: []byte{0x04, 0x22, 0x4d, 0x18}, mime: ExtTarLz4}
	magicXz   = detect{sig: []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, mime: ExtTarXz}
	magicZstd = detect{sig: []byte{0x28, 0xb5, 0x2f, 0xfd}, mime: ExtTarZst}

	allMagics = []detect{magicTar, magicGzip, magicLz4, magicXz, magicZstd}
)

const sizeDetectMime = 512

// assorted errors
type (
	ErrUnknownMime    struct{ detail string }
	ErrUnknownFileExt struct{ detail string }
)

func NewErrUnknownMime(d string) *ErrUnknownMime { return &ErrUnknownMime{d} }
func (e *ErrUnknownMime) Error() string          { return "unknown mime type \"" + e.detail + "\"" }

func IsErrUnknownMime(err error) bool {
	var e *ErrUnknownMime
	return errors.As(err, &e)
}

func NewErrUnknownFileExt(d string) *ErrUnknownFileExt { return &ErrUnknownFileExt{d} }
func (e *ErrUnknownFileExt) Error() string             { return "unknown file extension \"" + e.detail + "\"" }

func IsErrUnknownFileExt(err error) bool {
	var e *ErrUnknownFileExt
	return errors.As(err, &e)
}

// Mime returns the normalized format: user-specified `mime` takes precedence
// over the filename's extension
func Mime(mime, filename string) (string, error) {
	if mime != "" {
		return normalize(mime)
	}
	return byExt(filename)
}

func normalize(mime string) (string, error) {
	switch {
	case strings.Contains(mime, ExtTarGz[1:]), strings.Contains(mime, "gzip"):
		return ExtTarGz, nil
	case strings.Contains(mime, "lz4"):
		return ExtTarLz4, nil
	case strings.Contains(mime, "xz"):
		return ExtTarXz, nil
	case strings.Contains(mime, "zst"):
		return ExtTarZst, nil
	default:
		for _, ext := range FileExtensions {
			if strings.Contains(mime, ext[1:]) {
				if ext == ExtTgz {
					return ExtTarGz, nil
				}
				return ext, nil
			}
		}
	}
	return "", NewErrUnknownMime(mime)
}

// by filename extension
func byExt(filename string) (string, error) {
	for _, ext := range FileExtensions {
		if strings.HasSuffix(filename, ext) {
			if ext == ExtTgz {
				return ExtTarGz, nil
			}
			return ext, nil
		}
	}
	return "", NewErrUnknownFileExt(filename)
}

// MimeReader determines the format by `mime` or filename and, failing that,
// by peeking at the stream's magic (the caller then reads from `br`)
func MimeReader(br *bufio.Reader, mime, filename string) (string, error) {
	m, err := Mime(mime, filename)
	if err == nil || IsErrUnknownMime(err) {
		return m, err
	}
	buf, _ := br.Peek(sizeDetectMime)
	for _, magic := range allMagics {
		if len(buf) > magic.offset && bytes.HasPrefix(buf[magic.offset:], magic.sig) {
			return magic.mime, nil
		}
	}
	return "", NewErrUnknownFileExt(filename + " (failed to detect file signature)")
}
