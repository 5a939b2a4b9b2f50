// Package tarrec assembles per-sample records from tar shards: member files
// sharing the same pathname-without-extension form one record
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tarrec

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"path"
	"slices"
	"strings"

	"github.com/NVIDIA/aisdataset/cmn/archive"
	"github.com/NVIDIA/aisdataset/cmn/cos"

	"github.com/cespare/xxhash/v2"
)

// KeyField selects the record's key (see Record.Get)
const KeyField = "__key__"

// DefaultExts are the extensions accepted unless Options.Exts says otherwise;
// in addition, any extension starting with "lab" or "cls" is accepted
var DefaultExts = []string{"jpg", "cls", "json", "png", "jpeg", "bmp"}

type (
	Record struct {
		Fields map[string][]byte
		Key    string
		exts   []string // in order of appearance
	}

	Options struct {
		// allowed extensions; nil - DefaultExts
		Exts []string
		// accept all extensions
		AllExts bool
		// select member files by name, see archive.MatchMode; empty Regex selects all
		Regex     string
		MatchMode string
		// shuffle records of a shard; deterministic given (ShardName, Seed)
		Shuffle   bool
		Seed      uint64
		ShardName string
	}
)

func NewRecord(key string) *Record {
	return &Record{Key: key, Fields: make(map[string][]byte, 2)}
}

// Set adds or overwrites the field; overwriting keeps the original position
func (r *Record) Set(ext string, b []byte) {
	if _, ok := r.Fields[ext]; !ok {
		r.exts = append(r.exts, ext)
	}
	r.Fields[ext] = b
}

// Get returns the field; KeyField returns the record's key
func (r *Record) Get(ext string) ([]byte, bool) {
	if b, ok := r.Fields[ext]; ok {
		return b, true
	}
	if ext == KeyField {
		return []byte(r.Key), true
	}
	return nil, false
}

// Exts returns extensions in the order they first appeared in the shard
func (r *Record) Exts() []string { return r.exts }

func (r *Record) String() string {
	return fmt.Sprintf("record[%s %v]", r.Key, r.exts)
}

// SplitName splits an archived pathname into the sample key and the
// extension (without the dot); leading dots of the basename do not start an extension
func SplitName(name string) (key, ext string) {
	base := path.Base(name)
	trimmed := strings.TrimLeft(base, ".")
	i := strings.LastIndexByte(trimmed, '.')
	if i < 0 {
		return name, ""
	}
	extLen := len(trimmed) - i
	return name[:len(name)-extLen], name[len(name)-extLen+1:]
}

// IsValidEntry returns true when the member belongs to a record: the extension
// is allowed (or starts with "lab" or "cls"), and the basename is not
// macOS metadata ("._*")
func IsValidEntry(key, ext string, exts []string) bool {
	if exts == nil {
		exts = DefaultExts
	}
	if !slices.Contains(exts, ext) && !strings.HasPrefix(ext, "lab") && !strings.HasPrefix(ext, "cls") {
		return false
	}
	return !strings.HasPrefix(path.Base(key), "._")
}

func (opts *Options) valid(key, ext string) bool {
	if opts.AllExts {
		return ext != "" && !strings.HasPrefix(path.Base(key), "._")
	}
	return IsValidEntry(key, ext, opts.Exts)
}

// Records reads the entire shard and returns its records in the order of
// first appearance of their keys; a repeated (key, ext) overwrites the earlier member
func Records(ar archive.Reader, opts *Options) ([]*Record, error) {
	if opts == nil {
		opts = &Options{}
	}
	var (
		recs  []*Record
		index = make(map[string]*Record, 64)
	)
	rcb := archive.ArchFunc(func(name string, reader cos.ReadCloseSizer, _ *tar.Header) (bool, error) {
		key, ext := SplitName(name)
		if !opts.valid(key, ext) {
			return false, nil
		}
		b, err := io.ReadAll(reader)
		if err != nil {
			return true, fmt.Errorf("failed to read %q: %w", name, err)
		}
		rec, ok := index[key]
		if !ok {
			rec = NewRecord(key)
			index[key] = rec
			recs = append(recs, rec)
		}
		rec.Set(ext, b)
		return false, nil
	})
	if err := ar.ReadUntil(rcb, opts.Regex, opts.MatchMode); err != nil {
		return nil, err
	}
	if opts.Shuffle {
		Shuffle(recs, opts.ShardName, opts.Seed)
	}
	return recs, nil
}

// ReadShard opens the shard stream and returns its records; the format is
// given by mime or shard name or, failing both, detected from the stream itself
func ReadShard(r io.Reader, mime, shardName string, opts *Options) ([]*Record, error) {
	br := bufio.NewReader(r)
	m, err := archive.MimeReader(br, mime, shardName)
	if err != nil {
		return nil, err
	}
	ar, err := archive.NewReader(m, br)
	if err != nil {
		return nil, fmt.Errorf("shard %q: %w", shardName, err)
	}
	recs, err := Records(ar, opts)
	if erc := ar.Close(); err == nil && erc != nil {
		err = erc
	}
	if err != nil {
		return nil, fmt.Errorf("shard %q: %w", shardName, err)
	}
	return recs, nil
}

// Shuffle permutes records deterministically for a given (shard name, seed)
func Shuffle(recs []*Record, shardName string, seed uint64) {
	h := xxhash.Sum64String(shardName)
	rnd := rand.New(rand.NewPCG(h^seed, seed))
	rnd.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
}
