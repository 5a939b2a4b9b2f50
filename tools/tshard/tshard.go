// Package tshard generates tar shards and images for tests
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tshard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/NVIDIA/aisdataset/cmn/archive"
)

type Member struct {
	Name string
	Data []byte
}

// Make returns a shard of the given format (archive.ExtTar, etc.) containing the members, in order
func Make(mime string, members ...Member) ([]byte, error) {
	var buf bytes.Buffer
	aw, err := archive.NewWriter(mime, &buf)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if err := aw.Write(m.Name, int64(len(m.Data)), bytes.NewReader(m.Data)); err != nil {
			return nil, err
		}
	}
	if err := aw.Fini(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Samples makes `n` image-classification members: <prefix>NNNN.jpg and <prefix>NNNN.cls
// where the label of the i-th sample is (labelBase + i)
func Samples(prefix string, n, labelBase, w, h int) []Member {
	members := make([]Member, 0, 2*n)
	for i := range n {
		key := fmt.Sprintf("%s%04d", prefix, i)
		members = append(members,
			Member{Name: key + ".jpg", Data: JPEG(w, h, color.RGBA{R: uint8(10 * i), G: 128, B: 200, A: 255})},
			Member{Name: key + ".cls", Data: fmt.Appendf(nil, "%d", labelBase+i)},
		)
	}
	return members
}

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

// JPEG encodes a solid-color image
func JPEG(w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fill(w, h, c), &jpeg.Options{Quality: 95}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG encodes a solid-color image
func PNG(w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, fill(w, h, c)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
