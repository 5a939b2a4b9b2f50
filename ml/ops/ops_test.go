// Package ops_test: unit tests
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"

	"github.com/NVIDIA/aisdataset/ml/ops"
	"github.com/NVIDIA/aisdataset/ml/tarrec"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type customOp struct{}

func (customOp) Do(*tarrec.Record) (any, error) { return nil, nil }
func (customOp) ExtName() string                { return "custom" }
func (customOp) String() string                 { return "custom" }

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func rgbPNG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return encodePNG(img)
}

func newRecord(kvs ...string) *tarrec.Record {
	rec := tarrec.NewRecord("train/0001")
	for i := 0; i < len(kvs); i += 2 {
		rec.Set(kvs[i], []byte(kvs[i+1]))
	}
	return rec
}

var _ = Describe("Validate", func() {
	DescribeTable("should accept known operations",
		func(op ops.Op) {
			Expect(ops.Validate(op)).To(Succeed())
		},
		Entry("select", ops.NewSelect("cls")),
		Entry("select-json", ops.NewSelectJSON("json", "label")),
		Entry("decode", ops.NewDecode("jpg")),
		Entry("default value", ops.NewResize(ops.NewConvert(ops.NewDecode("jpg"), ops.Float32), 224, 224)),
		Entry("func", ops.NewFunc("f", func(*tarrec.Record) (any, error) { return 1, nil })),
		Entry("list", ops.List{ops.NewSelect("cls"), ops.NewDecode("jpg")}),
	)

	It("should reject a list inside a list", func() {
		err := ops.Validate(ops.List{ops.NewSelect("cls"), ops.List{ops.NewSelect("jpg")}})
		Expect(err).To(MatchError("list of operations can't contain another list"))
	})

	It("should reject unknown operation types", func() {
		err := ops.Validate(customOp{})
		Expect(ops.IsErrUnknownOp(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("unknown operation type"))

		err = ops.Validate(ops.List{ops.NewSelect("cls"), customOp{}})
		Expect(ops.IsErrUnknownOp(err)).To(BeTrue())

		err = ops.Validate(ops.NewConvert(customOp{}, ops.Float32))
		Expect(ops.IsErrUnknownOp(err)).To(BeTrue())

		err = ops.Validate(ops.List{nil})
		Expect(ops.IsErrUnknownOp(err)).To(BeTrue())
	})

	It("should reject invalid arguments", func() {
		Expect(ops.Validate(ops.NewSelect(""))).NotTo(Succeed())
		Expect(ops.Validate(ops.NewResize(ops.NewDecode("jpg"), 0, 224))).NotTo(Succeed())
		Expect(ops.Validate(ops.NewConvert(ops.NewDecode("jpg"), ops.Invalid))).NotTo(Succeed())
		Expect(ops.Validate(ops.NewConvert(nil, ops.Float32))).NotTo(Succeed())
		Expect(ops.Validate(ops.NewFunc("f", nil))).NotTo(Succeed())
	})
})

var _ = Describe("Apply", func() {
	It("should apply operations in list order", func() {
		var (
			order []string
			rec   = newRecord("cls", "1")
			mk    = func(name string) ops.Op {
				return ops.NewFunc(name, func(*tarrec.Record) (any, error) {
					order = append(order, name)
					return name + "-value", nil
				})
			}
			list = ops.List{mk("c"), mk("a"), mk("b")}
		)
		v, err := ops.Apply(list, rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(Equal([]string{"c", "a", "b"}))

		fields := v.(ops.Fields)
		Expect(fields).To(HaveLen(3))
		Expect(fields[0].Name).To(Equal("c"))
		Expect(fields[2].Value).To(Equal("b-value"))
		a, ok := fields.Get("a")
		Expect(ok).To(BeTrue())
		Expect(a).To(Equal("a-value"))
	})

	It("should require ext_name for operations in a list", func() {
		list := ops.List{ops.NewSelect("cls"), ops.NewFunc("", func(*tarrec.Record) (any, error) { return 0, nil })}
		_, err := ops.Apply(list, newRecord("cls", "1"))
		Expect(err).To(MatchError(ContainSubstring("required ext_name")))
	})

	It("should stop at the first failing operation", func() {
		calls := 0
		f := ops.NewFunc("f", func(*tarrec.Record) (any, error) { calls++; return nil, nil })
		_, err := ops.Apply(ops.List{ops.NewSelect("jpg"), f}, newRecord("cls", "1"))
		Expect(ops.IsErrMissingField(err)).To(BeTrue())
		Expect(calls).To(BeZero())
	})

	It("should return single operation value as is", func() {
		v, err := ops.Apply(ops.NewSelect("cls"), newRecord("cls", "7"))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]byte("7")))

		v, err = ops.Apply(ops.NewSelect(tarrec.KeyField), newRecord())
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]byte("train/0001")))
	})

	It("should name results after inputs unless overridden", func() {
		op := ops.NewResize(ops.NewConvert(ops.NewDecode("png"), ops.Float32), 8, 8)
		Expect(op.ExtName()).To(Equal("png"))
		op.As = "image"
		Expect(op.ExtName()).To(Equal("image"))
		Expect(op.String()).To(Equal("resize(convert(decode(png), float32), 8, 8)"))
	})

	It("should wrap function errors", func() {
		boom := errors.New("boom")
		_, err := ops.Apply(ops.NewFunc("f", func(*tarrec.Record) (any, error) { return nil, boom }), newRecord())
		Expect(errors.Is(err, boom)).To(BeTrue())
	})
})

var _ = Describe("SelectJSON", func() {
	rec := newRecord("json", `{"label": 3, "boxes": [[1, 2], [3, 4]], "meta": {"name": "cat"}}`)

	DescribeTable("should walk the path",
		func(path []string, expected any) {
			v, err := ops.NewSelectJSON("json", path...).Do(rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(expected))
		},
		Entry("number", []string{"label"}, float64(3)),
		Entry("nested object", []string{"meta", "name"}, "cat"),
		Entry("array index", []string{"boxes", "1", "0"}, float64(3)),
	)

	DescribeTable("should fail on invalid path",
		func(path []string) {
			_, err := ops.NewSelectJSON("json", path...).Do(rec)
			Expect(err).To(HaveOccurred())
		},
		Entry("missing key", []string{"nope"}),
		Entry("index out of range", []string{"boxes", "2"}),
		Entry("not a container", []string{"label", "x"}),
	)

	It("should convert JSON numbers", func() {
		op := ops.NewConvert(ops.NewSelectJSON("json", "label"), ops.Int32)
		v, err := op.Do(rec)
		Expect(err).NotTo(HaveOccurred())
		t := v.(*ops.Tensor)
		Expect(t.IsScalar()).To(BeTrue())
		Expect(t.Data).To(Equal([]int32{3}))
	})
})

var _ = Describe("Decode", func() {
	It("should decode RGB images", func() {
		rec := newRecord("png", string(rgbPNG(4, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})))
		v, err := ops.NewDecode("png").Do(rec)
		Expect(err).NotTo(HaveOccurred())
		t := v.(*ops.Tensor)
		Expect(t.DType).To(Equal(ops.Uint8))
		Expect(t.Shape).To(Equal([]int{2, 4, 3}))
		data := t.Data.([]uint8)
		Expect(data[:3]).To(Equal([]uint8{10, 20, 30}))
		Expect(data[len(data)-3:]).To(Equal([]uint8{10, 20, 30}))
	})

	It("should decode grayscale images", func() {
		img := image.NewGray(image.Rect(0, 0, 3, 2))
		img.SetGray(2, 1, color.Gray{Y: 200})
		v, err := ops.NewDecode("png").Do(newRecord("png", string(encodePNG(img))))
		Expect(err).NotTo(HaveOccurred())
		t := v.(*ops.Tensor)
		Expect(t.Shape).To(Equal([]int{2, 3, 1}))
		Expect(t.Data.([]uint8)[5]).To(Equal(uint8(200)))
	})

	It("should fail on garbage", func() {
		_, err := ops.NewDecode("jpg").Do(newRecord("jpg", "not an image"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("train/0001"))
	})
})

var _ = Describe("Convert", func() {
	DescribeTable("should follow image dtype conventions",
		func(src *ops.Tensor, dt ops.DType, expected any) {
			Expect(ops.ConvertTensor(src, dt).Data).To(Equal(expected))
		},
		Entry("uint8 => float32", &ops.Tensor{DType: ops.Uint8, Shape: []int{3}, Data: []uint8{0, 51, 255}},
			ops.Float32, []float32{0, 0.2, 1}),
		Entry("float32 => uint8 saturates", &ops.Tensor{DType: ops.Float32, Shape: []int{4}, Data: []float32{-1, 0, 0.5, 2}},
			ops.Uint8, []uint8{0, 0, 127, 255}),
		Entry("float32 => float64", &ops.Tensor{DType: ops.Float32, Shape: []int{1}, Data: []float32{0.5}},
			ops.Float64, []float64{0.5}),
		Entry("int32 => uint8", &ops.Tensor{DType: ops.Int32, Shape: []int{2}, Data: []int32{1 << 30, 1 << 23}},
			ops.Uint8, []uint8{128, 1}),
		Entry("uint8 => int32", &ops.Tensor{DType: ops.Uint8, Shape: []int{1}, Data: []uint8{1}},
			ops.Int32, []int32{1 << 23}),
	)

	DescribeTable("should parse raw bytes as a number",
		func(raw string, dt ops.DType, expected any) {
			v, err := ops.NewConvert(ops.NewSelect("cls"), dt).Do(newRecord("cls", raw))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.(*ops.Tensor).Data).To(Equal(expected))
		},
		Entry("int", "3", ops.Int32, []int32{3}),
		Entry("int with newline", "42\n", ops.Int64, []int64{42}),
		Entry("float", " 2.5 ", ops.Float32, []float32{2.5}),
		Entry("int to float", "7", ops.Float64, []float64{7}),
		Entry("saturate", "300", ops.Uint8, []uint8{255}),
	)

	It("should fail on non-numeric bytes", func() {
		_, err := ops.NewConvert(ops.NewSelect("cls"), ops.Int32).Do(newRecord("cls", "cat"))
		Expect(err).To(MatchError(ContainSubstring("failed to parse")))
	})
})

var _ = Describe("Resize", func() {
	It("should resize and return float32", func() {
		rec := newRecord("png", string(rgbPNG(8, 6, color.RGBA{R: 255, G: 128, B: 0, A: 255})))
		v, err := ops.NewResize(ops.NewDecode("png"), 3, 4).Do(rec)
		Expect(err).NotTo(HaveOccurred())
		t := v.(*ops.Tensor)
		Expect(t.DType).To(Equal(ops.Float32))
		Expect(t.Shape).To(Equal([]int{3, 4, 3}))
		data := t.Data.([]float32)
		for i := 0; i < len(data); i += 3 {
			Expect(data[i]).To(BeNumerically("~", 255, 0.5))
			Expect(data[i+1]).To(BeNumerically("~", 128, 0.5))
			Expect(data[i+2]).To(BeNumerically("~", 0, 0.5))
		}
	})

	It("should preserve the value range of converted images", func() {
		rec := newRecord("png", string(rgbPNG(10, 10, color.RGBA{R: 51, G: 51, B: 51, A: 255})))
		op := ops.NewResize(ops.NewConvert(ops.NewDecode("png"), ops.Float32), 5, 5)
		v, err := op.Do(rec)
		Expect(err).NotTo(HaveOccurred())
		for _, f := range v.(*ops.Tensor).Data.([]float32) {
			Expect(f).To(BeNumerically("~", 0.2, 1e-3))
		}
	})

	It("should interpolate between values", func() {
		src := &ops.Tensor{DType: ops.Float32, Shape: []int{1, 2, 1}, Data: []float32{0, 1}}
		t, err := ops.ResizeImage(src, 1, 8)
		Expect(err).NotTo(HaveOccurred())
		data := t.Data.([]float32)
		Expect(data).To(HaveLen(8))
		for i := 1; i < len(data); i++ {
			Expect(data[i]).To(BeNumerically(">=", data[i-1]-1e-4))
		}
		Expect(data[0]).To(BeNumerically(">=", 0))
		Expect(data[7]).To(BeNumerically("<=", 1))
	})

	It("should reject non-images", func() {
		_, err := ops.NewResize(ops.NewSelect("cls"), 2, 2).Do(newRecord("cls", "1"))
		Expect(err).To(MatchError(ContainSubstring("expected image tensor")))

		_, err = ops.ResizeImage(&ops.Tensor{DType: ops.Uint8, Shape: []int{4}, Data: make([]uint8, 4)}, 2, 2)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Parse", func() {
	DescribeTable("should parse operations",
		func(s, expected string) {
			op, err := ops.Parse(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(op.String()).To(Equal(expected))
		},
		Entry("bare extension", "cls", "cls"),
		Entry("select", "select(cls)", "cls"),
		Entry("default value", "Resize(Convert(Decode(jpg), tf.float32), 224, 224)", "resize(convert(decode(jpg), float32), 224, 224)"),
		Entry("select-json", `select_json(json, "boxes", 0)`, "select_json(json, boxes, 0)"),
		Entry("list", "[decode(jpg), cls]", "[decode(jpg), cls]"),
		Entry("convert bare", "convert(cls, int32)", "convert(cls, int32)"),
	)

	DescribeTable("should reject invalid input",
		func(s, errSubstr string) {
			_, err := ops.Parse(s)
			Expect(err).To(MatchError(ContainSubstring(errSubstr)))
		},
		Entry("unknown op", "rotate(jpg, 90)", "unknown operation"),
		Entry("nested list", "[cls, [jpg]]", "list of operations can't contain another list"),
		Entry("func", "func(f)", "func can't be specified"),
		Entry("bad dtype", "convert(cls, complex64)", "invalid dtype"),
		Entry("bad size", "resize(decode(jpg), 0, 1)", "invalid size"),
		Entry("unbalanced", "decode(jpg", "expecting ')'"),
		Entry("trailing", "cls jpg", "unexpected trailing input"),
	)
})
