// Package cos_test provides tests for common low-level types and utilities
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos_test

import (
	"math"
	"sync"

	"github.com/NVIDIA/aisdataset/cmn/cos"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Template", func() {
	Context("ParseFmtTemplate", func() {
		DescribeTable("parse fmt template without error",
			func(template string, expectedPt cos.ParsedTemplate) {
				pt, err := cos.ParseFmtTemplate(template)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(pt).To(Equal(expectedPt))
			},
			Entry("simple", "%d", cos.ParsedTemplate{
				Ranges: []cos.TemplateRange{{End: math.MaxInt64 - 1, Step: 1}},
			}),
			Entry("with prefix and suffix", "prefix-%06d-suffix", cos.ParsedTemplate{
				Prefix: "prefix-",
				Ranges: []cos.TemplateRange{{End: math.MaxInt64 - 1, Step: 1, DigitCount: 6, Gap: "-suffix"}},
			}),
		)

		DescribeTable("parse fmt template with error",
			func(template string) {
				_, err := cos.ParseFmtTemplate(template)
				Expect(err).Should(HaveOccurred())
			},
			Entry("no percent", "prefix-suffix"),
			Entry("two percents", "%d-%d"),
			Entry("no 'd'", "prefix-%06"),
			Entry("missing leading zero", "prefix-%6d"),
		)
	})

	Context("ParseBashTemplate", func() {
		DescribeTable("parse bash template without error",
			func(template string, expectedPt cos.ParsedTemplate) {
				pt, err := cos.ParseBashTemplate(template)
				Expect(err).NotTo(HaveOccurred())
				Expect(pt).To(Equal(expectedPt))
			},
			Entry("with step", "prefix-{0010..0111..2}-suffix", cos.ParsedTemplate{
				Prefix: "prefix-",
				Ranges: []cos.TemplateRange{{Start: 10, End: 111, Step: 2, DigitCount: 4, Gap: "-suffix"}},
			}),
			Entry("without step", "train-{0..5}.tar.xz", cos.ParsedTemplate{
				Prefix: "train-",
				Ranges: []cos.TemplateRange{{Start: 0, End: 5, Step: 1, DigitCount: 1, Gap: ".tar.xz"}},
			}),
			Entry("multi-range", "a-{1..2}-b-{3..4}", cos.ParsedTemplate{
				Prefix: "a-",
				Ranges: []cos.TemplateRange{
					{Start: 1, End: 2, Step: 1, DigitCount: 1, Gap: "-b-"},
					{Start: 3, End: 4, Step: 1, DigitCount: 1, Gap: ""},
				},
			}),
		)

		DescribeTable("parse bash template with error",
			func(template string) {
				_, err := cos.ParseBashTemplate(template)
				Expect(err).Should(HaveOccurred())
			},
			Entry("start after end", "prefix-{10..0}"),
			Entry("negative start", "prefix-{-1..5}"),
			Entry("zero step", "prefix-{0..5..0}"),
			Entry("too many dots", "prefix-{0..5..1..2}"),
			Entry("unbalanced", "prefix-}0..5{"),
		)
	})

	Context("ParseAtTemplate", func() {
		It("parses multi-range", func() {
			pt, err := cos.ParseAtTemplate("prefix-@00001-gap-@100-suffix")
			Expect(err).NotTo(HaveOccurred())
			Expect(pt).To(Equal(cos.ParsedTemplate{
				Prefix: "prefix-",
				Ranges: []cos.TemplateRange{
					{Start: 0, End: 1, Step: 1, DigitCount: 5, Gap: "-gap-"},
					{Start: 0, End: 100, Step: 1, DigitCount: 3, Gap: "-suffix"},
				},
			}))
		})
	})

	Context("NewParsedTemplate", func() {
		It("falls back to prefix-only", func() {
			pt, err := cos.NewParsedTemplate("just-a-prefix/")
			Expect(err).NotTo(HaveOccurred())
			Expect(pt.IsRange()).To(BeFalse())
			Expect(pt.Prefix).To(Equal("just-a-prefix/"))
			Expect(pt.ToSlice(-1)).To(Equal([]string{"just-a-prefix/"}))
		})
		It("fails on empty", func() {
			_, err := cos.NewParsedTemplate("")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Iter", func() {
		DescribeTable("expands",
			func(template string, expected []string) {
				pt, err := cos.NewParsedTemplate(template)
				Expect(err).NotTo(HaveOccurred())
				Expect(pt.Count()).To(BeEquivalentTo(len(expected)))
				Expect(pt.ToSlice(-1)).To(Equal(expected))
			},
			Entry("single range", "train-{0..3}.tar", []string{"train-0.tar", "train-1.tar", "train-2.tar", "train-3.tar"}),
			Entry("padded with step", "s-{001..007..3}", []string{"s-001", "s-004", "s-007"}),
			Entry("step not landing on end", "s-{0..5..2}", []string{"s-0", "s-2", "s-4"}),
			Entry("multi-range", "a{1..2}b{0..1}", []string{"a1b0", "a1b1", "a2b0", "a2b1"}),
		)

		It("stops early", func() {
			pt, err := cos.NewParsedTemplate("prefix-%04d.tar")
			Expect(err).NotTo(HaveOccurred())
			Expect(pt.ToSlice(3)).To(Equal([]string{"prefix-0000.tar", "prefix-0001.tar", "prefix-0002.tar"}))
		})
	})

	Context("Match", func() {
		DescribeTable("matches exactly the expanded names",
			func(template, name string, expected bool) {
				pt, err := cos.NewParsedTemplate(template)
				Expect(err).NotTo(HaveOccurred())
				Expect(pt.Match(name)).To(Equal(expected))
			},
			Entry("in range", "train-{0..5}.tar.xz", "train-3.tar.xz", true),
			Entry("above range", "train-{0..5}.tar.xz", "train-6.tar.xz", false),
			Entry("wrong suffix", "train-{0..5}.tar.xz", "train-3.tar", false),
			Entry("wrong prefix", "train-{0..5}.tar.xz", "test-3.tar.xz", false),
			Entry("off-step", "s-{000..010..5}", "s-003", false),
			Entry("on-step", "s-{000..010..5}", "s-005", true),
			Entry("padding required", "s-{000..010}", "s-5", false),
			Entry("fmt unbounded", "shard-%06d.tar", "shard-123456.tar", true),
			Entry("fmt short", "shard-%06d.tar", "shard-12345.tar", false),
			Entry("fmt wider", "shard-%06d.tar", "shard-1234567.tar", true),
			Entry("prefix-only", "a/b/c.tar", "a/b/c.tar", true),
			Entry("regex meta in prefix", "a.b-{0..1}", "aXb-1", false),
			Entry("adjacent ranges", "s-{0..5}{00..20}.tar", "s-520.tar", true),
			Entry("adjacent ranges, out of range", "s-{0..5}{00..20}.tar", "s-621.tar", false),
			Entry("adjacent ranges, too long", "s-{0..5}{00..20}.tar", "s-0021.tar", false),
			Entry("adjacent unpadded ranges", "a{0..10}{0..5}b", "a105b", true),
			Entry("adjacent unpadded ranges, no split", "a{0..10}{0..5}b", "a116b", false),
			Entry("sign is not a digit", "s-{0..5}", "s-+1", false),
		)

		DescribeTable("matches every name it expands to, and nothing else",
			func(template string, others ...string) {
				pt, err := cos.NewParsedTemplate(template)
				Expect(err).NotTo(HaveOccurred())
				names := pt.ToSlice(500)
				Expect(names).NotTo(BeEmpty())
				expanded := make(map[string]bool, len(names))
				for _, name := range names {
					Expect(pt.Match(name)).To(BeTrue(), "expanded %q", name)
					expanded[name] = true
				}
				for _, name := range others {
					Expect(pt.Match(name)).To(Equal(expanded[name]), "other %q", name)
				}
			},
			Entry("single range", "train-{0..3}.tar", "train-4.tar", "train-00.tar"),
			Entry("adjacent padded ranges", "s-{0..5}{00..20}.tar", "s-000.tar", "s-60.tar", "s-021.tar"),
			Entry("adjacent unpadded ranges", "a{0..10}{0..5}b", "a15b", "a100b", "a106b", "a0b"),
			Entry("ranges with gap and step", "shard-{001..100..3}-{0..9}.tgz", "shard-002-1.tgz", "shard-100-9.tgz"),
			Entry("at style", "x@0099y@3", "x0099y3", "x099y3"),
			Entry("fmt style", "x-%03d.tar", "x-042.tar", "x-42.tar"),
		)

		It("is safe for concurrent use", func() {
			pt, err := cos.NewParsedTemplate("s-{0..5}{00..20}.tar")
			Expect(err).NotTo(HaveOccurred())
			var (
				wg      sync.WaitGroup
				matched = make([]int, 4)
			)
			for i := range matched {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for name := range pt.Iter() {
						if pt.Match(name) {
							matched[i]++
						}
					}
				}()
			}
			wg.Wait()
			for _, n := range matched {
				Expect(n).To(Equal(int(pt.Count())))
			}
		})
	})
})
