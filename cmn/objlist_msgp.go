// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"github.com/tinylib/msgp/msgp"
)

// msgpack codecs for list-objects pages (see `msg` struct tags);
// unknown keys are skipped to remain compatible with newer clusters

// interface guard
var (
	_ msgp.Decodable = (*LsoResult)(nil)
	_ msgp.Encodable = (*LsoResult)(nil)
	_ msgp.Decodable = (*LsoEntry)(nil)
	_ msgp.Encodable = (*LsoEntry)(nil)
)

func (z *LsoResult) DecodeMsg(dc *msgp.Reader) (err error) {
	var (
		field []byte
		sz    uint32
	)
	if sz, err = dc.ReadMapHeader(); err != nil {
		return msgp.WrapError(err)
	}
	for ; sz > 0; sz-- {
		if field, err = dc.ReadMapKeyPtr(); err != nil {
			return msgp.WrapError(err)
		}
		switch msgp.UnsafeString(field) {
		case "uuid":
			z.UUID, err = dc.ReadString()
		case "continuation_token":
			z.ContinuationToken, err = dc.ReadString()
		case "flags":
			z.Flags, err = dc.ReadUint32()
		case "entries":
			err = z.decodeEntries(dc)
		default:
			err = dc.Skip()
		}
		if err != nil {
			return msgp.WrapError(err, string(field))
		}
	}
	return nil
}

func (z *LsoResult) decodeEntries(dc *msgp.Reader) error {
	if dc.IsNil() {
		z.Entries = nil
		return dc.ReadNil()
	}
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	if cap(z.Entries) >= int(n) {
		z.Entries = z.Entries[:n]
	} else {
		z.Entries = make(LsoEntries, n)
	}
	for i := range z.Entries {
		if dc.IsNil() {
			if err := dc.ReadNil(); err != nil {
				return err
			}
			z.Entries[i] = nil
			continue
		}
		if z.Entries[i] == nil {
			z.Entries[i] = new(LsoEntry)
		}
		if err := z.Entries[i].DecodeMsg(dc); err != nil {
			return msgp.WrapError(err, i)
		}
	}
	return nil
}

func (z *LsoResult) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(4); err != nil {
		return
	}
	if err = en.WriteString("uuid"); err != nil {
		return
	}
	if err = en.WriteString(z.UUID); err != nil {
		return
	}
	if err = en.WriteString("continuation_token"); err != nil {
		return
	}
	if err = en.WriteString(z.ContinuationToken); err != nil {
		return
	}
	if err = en.WriteString("entries"); err != nil {
		return
	}
	if err = en.WriteArrayHeader(uint32(len(z.Entries))); err != nil {
		return
	}
	for _, e := range z.Entries {
		if e == nil {
			err = en.WriteNil()
		} else {
			err = e.EncodeMsg(en)
		}
		if err != nil {
			return
		}
	}
	if err = en.WriteString("flags"); err != nil {
		return
	}
	return en.WriteUint32(z.Flags)
}

func (z *LsoEntry) DecodeMsg(dc *msgp.Reader) (err error) {
	var (
		field []byte
		sz    uint32
	)
	if sz, err = dc.ReadMapHeader(); err != nil {
		return msgp.WrapError(err)
	}
	for ; sz > 0; sz-- {
		if field, err = dc.ReadMapKeyPtr(); err != nil {
			return msgp.WrapError(err)
		}
		switch msgp.UnsafeString(field) {
		case "n":
			z.Name, err = dc.ReadString()
		case "cs":
			z.Checksum, err = dc.ReadString()
		case "a":
			z.Atime, err = dc.ReadString()
		case "v":
			z.Version, err = dc.ReadString()
		case "t":
			z.Location, err = dc.ReadString()
		case "m":
			z.Custom, err = dc.ReadString()
		case "s":
			z.Size, err = dc.ReadInt64()
		case "c":
			z.Copies, err = dc.ReadInt16()
		case "f":
			z.Flags, err = dc.ReadUint16()
		default:
			err = dc.Skip()
		}
		if err != nil {
			return msgp.WrapError(err, string(field))
		}
	}
	return nil
}

// omitempty: only non-zero fields go on the wire (name always does)
func (z *LsoEntry) EncodeMsg(en *msgp.Writer) (err error) {
	type kv struct {
		key string
		set bool
		put func() error
	}
	fields := [...]kv{
		{"n", true, func() error { return en.WriteString(z.Name) }},
		{"cs", z.Checksum != "", func() error { return en.WriteString(z.Checksum) }},
		{"a", z.Atime != "", func() error { return en.WriteString(z.Atime) }},
		{"v", z.Version != "", func() error { return en.WriteString(z.Version) }},
		{"t", z.Location != "", func() error { return en.WriteString(z.Location) }},
		{"m", z.Custom != "", func() error { return en.WriteString(z.Custom) }},
		{"s", z.Size != 0, func() error { return en.WriteInt64(z.Size) }},
		{"c", z.Copies != 0, func() error { return en.WriteInt16(z.Copies) }},
		{"f", z.Flags != 0, func() error { return en.WriteUint16(z.Flags) }},
	}
	var cnt uint32
	for i := range fields {
		if fields[i].set {
			cnt++
		}
	}
	if err = en.WriteMapHeader(cnt); err != nil {
		return
	}
	for i := range fields {
		if !fields[i].set {
			continue
		}
		if err = en.WriteString(fields[i].key); err != nil {
			return
		}
		if err = fields[i].put(); err != nil {
			return
		}
	}
	return nil
}
