// Package ops implements per-field operations that turn tar records into
// training values and labels
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register
	_ "image/jpeg" // register
	_ "image/png"  // register
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp" // register
)

// DecodeImage decodes jpeg, png, gif, or bmp into uint8 [height, width, channels],
// where channels is 1 for grayscale images and 3 otherwise (alpha is dropped)
func DecodeImage(b []byte) (*Tensor, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var (
		bounds = img.Bounds()
		h, w   = bounds.Dy(), bounds.Dx()
	)
	switch src := img.(type) {
	case *image.Gray:
		t := NewTensor(Uint8, h, w, 1)
		data := t.Data.([]uint8)
		for y := range h {
			off := (y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride + (bounds.Min.X - src.Rect.Min.X)
			copy(data[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return t, nil
	case *image.Gray16:
		t := NewTensor(Uint8, h, w, 1)
		data := t.Data.([]uint8)
		for y := range h {
			for x := range w {
				data[y*w+x] = uint8(src.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y >> 8)
			}
		}
		return t, nil
	case *image.YCbCr:
		t := NewTensor(Uint8, h, w, 3)
		data := t.Data.([]uint8)
		for y := range h {
			for x := range w {
				c := src.YCbCrAt(x+bounds.Min.X, y+bounds.Min.Y)
				i := (y*w + x) * 3
				data[i], data[i+1], data[i+2] = color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
			}
		}
		return t, nil
	}
	t := NewTensor(Uint8, h, w, 3)
	data := t.Data.([]uint8)
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.NRGBA)
			i := (y*w + x) * 3
			data[i], data[i+1], data[i+2] = c.R, c.G, c.B
		}
	}
	return t, nil
}

// ResizeImage resizes [H, W, C] (C = 1 or 3) or [H, W] to the given height
// and width using bilinear interpolation; returns float32 in the value range
// of the input (e.g., [0, 255] for uint8)
func ResizeImage(t *Tensor, height, width int) (*Tensor, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid size (%d, %d)", height, width)
	}
	var (
		rank     = len(t.Shape)
		channels = 1
	)
	switch {
	case rank == 3 && (t.Shape[2] == 1 || t.Shape[2] == 3):
		channels = t.Shape[2]
	case rank == 2:
	default:
		return nil, fmt.Errorf("expected image of shape [H, W, 1|3] or [H, W], got %v", t.Shape)
	}
	h, w := t.Shape[0], t.Shape[1]
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("empty image %v", t.Shape)
	}
	outShape := []int{height, width}
	if rank == 3 {
		outShape = append(outShape, channels)
	}
	if h == height && w == width {
		return Cast(t, Float32), nil
	}

	lo, hi := valueRange(t)
	var (
		src   image.Image
		scale = 0.0
	)
	if hi > lo {
		scale = math.MaxUint16 / (hi - lo)
	}
	norm := func(i int) uint16 { return uint16(math.Round((t.At(i) - lo) * scale)) }
	if channels == 1 {
		gray := image.NewGray16(image.Rect(0, 0, w, h))
		for i := range h * w {
			gray.SetGray16(i%w, i/w, color.Gray16{Y: norm(i)})
		}
		src = gray
	} else {
		rgb := image.NewRGBA64(image.Rect(0, 0, w, h))
		for i := range h * w {
			rgb.SetRGBA64(i%w, i/w, color.RGBA64{R: norm(3 * i), G: norm(3*i + 1), B: norm(3*i + 2), A: math.MaxUint16})
		}
		src = rgb
	}

	var (
		dst    = resize.Resize(uint(width), uint(height), src, resize.Bilinear)
		bounds = dst.Bounds()
		out    = NewTensor(Float32, outShape...)
		data   = out.Data.([]float32)
		inv    = 0.0
	)
	if scale > 0 {
		inv = 1 / scale
	}
	for y := range height {
		for x := range width {
			r, g, b, _ := dst.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			i := (y*width + x) * channels
			data[i] = float32(lo + float64(r)*inv)
			if channels == 3 {
				data[i+1] = float32(lo + float64(g)*inv)
				data[i+2] = float32(lo + float64(b)*inv)
			}
		}
	}
	return out, nil
}

// integer images span the full range of their dtype (uint8: [0, 255]);
// for the rest the range is taken from the data
func valueRange(t *Tensor) (lo, hi float64) {
	if t.DType == Uint8 {
		return 0, math.MaxUint8
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range t.Len() {
		v := t.At(i)
		lo, hi = min(lo, v), max(hi, v)
	}
	return lo, hi
}

// ImageShape returns [height, width, channels] of the encoded image (as
// DecodeImage would produce) reading only its header
func ImageShape(b []byte) ([]int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	channels := 3
	if cfg.ColorModel == color.GrayModel || cfg.ColorModel == color.Gray16Model {
		channels = 1
	}
	return []int{cfg.Height, cfg.Width, channels}, nil
}
