// Package cos provides common low-level types and utilities for the AIS dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"iter"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Supported syntax includes 3 standalone variations, 3 alternative formats:
// 1. bash (or shell) brace expansion:
//    * `prefix-{0..100}-suffix`
//    * `prefix-{00001..00010..2}-gap-{001..100..2}-suffix`
// 2. at style:
//    * `prefix-@100-suffix`
//    * `prefix-@00001-gap-@100-suffix`
// 3. fmt style:
//    * `prefix-%06d-suffix`
// In all cases, prefix and/or suffix are optional.
//
// NOTE: if none of the above applies, `NewParsedTemplate()` simply returns
//       `ParsedTemplate{Prefix = original template string}` with nil Ranges

type (
	TemplateRange struct {
		Start      int64
		End        int64
		Step       int64
		DigitCount int
		Gap        string // characters after range (either to next range or end of string)
	}
	ParsedTemplate struct {
		Prefix string
		Ranges []TemplateRange
	}
	ErrTemplate struct {
		msg string
	}
)

const (
	templateInvalidFmt      = "input 'fmt' format is invalid, expecting 'prefix-%06d-suffix"
	templateInvalidBash     = "input 'bash' format is invalid, expecting 'prefix-{0001..0010..1}-suffix'"
	templateInvalidAt       = "input 'at' format is invalid, expecting 'prefix-@00100-suffix'"
	templateStartAfterEnd   = "'start' cannot be greater than 'end'"
	templateNegativeStart   = "'start' is negative"
	templateNonPositiveStep = "'step' is non-positive"
)

func newErrTemplate(msg, template string) error {
	return &ErrTemplate{msg: "\"" + template + "\": " + msg}
}

func (e *ErrTemplate) Error() string { return e.msg }

////////////////////
// ParsedTemplate //
////////////////////

func NewParsedTemplate(template string) (ParsedTemplate, error) {
	if template == "" {
		return ParsedTemplate{}, errors.New("empty range template")
	}
	if parsed, err := ParseBashTemplate(template); err == nil {
		return parsed, nil
	}
	if parsed, err := ParseAtTemplate(template); err == nil {
		return parsed, nil
	}
	if parsed, err := ParseFmtTemplate(template); err == nil {
		return parsed, nil
	}
	// NOTE: prefix can be _anything_, and so given a certain ambiguity here,
	//       we simply fall back to returning no-ranges prefix-only template
	return ParsedTemplate{Prefix: template}, nil
}

func (pt *ParsedTemplate) IsRange() bool { return len(pt.Ranges) > 0 }

// Count returns the number of names the template expands to (saturating).
func (pt *ParsedTemplate) Count() int64 {
	count := int64(1)
	for _, tr := range pt.Ranges {
		n := (tr.End-tr.Start)/tr.Step + 1
		if count > math.MaxInt64/n {
			return math.MaxInt64
		}
		count *= n
	}
	return count
}

// Iter yields expanded names in order; the rightmost range varies fastest.
// A template without ranges yields its prefix, once.
func (pt *ParsedTemplate) Iter() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !pt.IsRange() {
			yield(pt.Prefix)
			return
		}
		at := make([]int64, len(pt.Ranges))
		for i, tr := range pt.Ranges {
			at[i] = tr.Start
		}
		var sb strings.Builder
		for {
			sb.Reset()
			sb.WriteString(pt.Prefix)
			for i, tr := range pt.Ranges {
				writePadded(&sb, at[i], tr.DigitCount)
				sb.WriteString(tr.Gap)
			}
			if !yield(sb.String()) {
				return
			}
			// advance, odometer-style
			i := len(at) - 1
			for ; i >= 0; i-- {
				tr := &pt.Ranges[i]
				if at[i] <= tr.End-tr.Step {
					at[i] += tr.Step
					break
				}
				at[i] = tr.Start
			}
			if i < 0 {
				return
			}
		}
	}
}

// ToSlice returns up to maxLen expanded names (all of them when maxLen < 0).
func (pt *ParsedTemplate) ToSlice(maxLen int) []string {
	capacity := pt.Count()
	if maxLen >= 0 && int64(maxLen) < capacity {
		capacity = int64(maxLen)
	}
	objs := make([]string, 0, min(capacity, 1024))
	for name := range pt.Iter() {
		if maxLen >= 0 && len(objs) >= maxLen {
			break
		}
		objs = append(objs, name)
	}
	return objs
}

// Match returns true if `name` is one of the names this template expands to.
// Adjacent ranges may split the digits in more than one way; all splits are tried.
func (pt *ParsedTemplate) Match(name string) bool {
	if !pt.IsRange() {
		return name == pt.Prefix
	}
	rest, ok := strings.CutPrefix(name, pt.Prefix)
	return ok && pt.matchFrom(rest, 0)
}

func (pt *ParsedTemplate) matchFrom(s string, i int) bool {
	if i == len(pt.Ranges) {
		return s == ""
	}
	tr := &pt.Ranges[i]
	lo, hi := paddedLen(tr.Start, tr.DigitCount), paddedLen(tr.End, tr.DigitCount)
	for l := lo; l <= hi && l <= len(s); l++ {
		if !tr.match(s[:l]) {
			continue
		}
		if rest, ok := strings.CutPrefix(s[l:], tr.Gap); ok && pt.matchFrom(rest, i+1) {
			return true
		}
	}
	return false
}

// match returns true if `digits` is exactly what the range would have produced
func (tr *TemplateRange) match(digits string) bool {
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return false
	}
	if n < tr.Start || n > tr.End || (n-tr.Start)%tr.Step != 0 {
		return false
	}
	return len(digits) == paddedLen(n, tr.DigitCount)
}

func writePadded(sb *strings.Builder, n int64, width int) {
	s := strconv.FormatInt(n, 10)
	for i := len(s); i < width; i++ {
		sb.WriteByte('0')
	}
	sb.WriteString(s)
}

func paddedLen(n int64, width int) int {
	return max(len(strconv.FormatInt(n, 10)), width)
}

//
// parsing --- parsing --- parsing
//

// template: "prefix-%06d-suffix"
// (both prefix and suffix are optional, here and elsewhere)
func ParseFmtTemplate(template string) (pt ParsedTemplate, err error) {
	percent := strings.IndexByte(template, '%')
	if percent == -1 {
		err = newErrTemplate(templateInvalidFmt, template)
		return
	}
	if idx := strings.IndexByte(template[percent+1:], '%'); idx != -1 {
		err = newErrTemplate(templateInvalidFmt, template)
		return
	}

	d := strings.IndexByte(template[percent:], 'd')
	if d == -1 {
		err = newErrTemplate(templateInvalidFmt, template)
		return
	}
	d += percent

	digitCount := 0
	if d-percent > 1 {
		s := template[percent+1 : d]
		if len(s) == 1 || s[0] != '0' {
			err = newErrTemplate(templateInvalidFmt, template)
			return
		}
		i, errN := strconv.ParseInt(s[1:], 10, 64)
		if errN != nil || i < 0 {
			return pt, newErrTemplate(templateInvalidFmt, template)
		}
		digitCount = int(i)
	}

	return ParsedTemplate{
		Prefix: template[:percent],
		Ranges: []TemplateRange{{
			Start:      0,
			End:        math.MaxInt64 - 1,
			Step:       1,
			DigitCount: digitCount,
			Gap:        template[d+1:],
		}},
	}, nil
}

// e.g. single-range template: "prefix{0001..0010}suffix"
//
//	multi-range:           "prefix-{00001..00010..2}-gap-{001..100..2}-suffix"
func ParseBashTemplate(template string) (pt ParsedTemplate, err error) {
	left := strings.IndexByte(template, '{')
	if left == -1 {
		err = newErrTemplate(templateInvalidBash, template)
		return
	}
	right := strings.LastIndexByte(template, '}')
	if right == -1 || right < left {
		err = newErrTemplate(templateInvalidBash, template)
		return
	}
	pt.Prefix = template[:left]
	orig := template

	for {
		tr := TemplateRange{}

		left := strings.IndexByte(template, '{')
		if left == -1 {
			break
		}
		right := strings.IndexByte(template, '}')
		if right == -1 || right < left {
			err = newErrTemplate(templateInvalidBash, orig)
			return
		}
		numbers := strings.Split(template[left+1:right], "..")
		switch len(numbers) {
		case 2, 3:
			if tr.Start, err = strconv.ParseInt(numbers[0], 10, 64); err != nil {
				return
			}
			if tr.End, err = strconv.ParseInt(numbers[1], 10, 64); err != nil {
				return
			}
			tr.Step = 1
			if len(numbers) == 3 {
				if tr.Step, err = strconv.ParseInt(numbers[2], 10, 64); err != nil {
					return
				}
			}
			tr.DigitCount = min(len(numbers[0]), len(numbers[1]))
		default:
			err = newErrTemplate(templateInvalidBash, orig)
			return
		}
		if err = validateBoundaries(orig, tr.Start, tr.End, tr.Step); err != nil {
			return
		}

		// apply gap (either to next range or end of the template)
		template = template[right+1:]
		if next := strings.IndexByte(template, '{'); next >= 0 {
			tr.Gap = template[:next]
		} else {
			tr.Gap = template
		}
		pt.Ranges = append(pt.Ranges, tr)
	}
	return
}

// e.g. multi-range template: "prefix-@00001-gap-@100-suffix"
//
//	single range:         "prefix@00100suffix"
func ParseAtTemplate(template string) (pt ParsedTemplate, err error) {
	left := strings.IndexByte(template, '@')
	if left == -1 {
		err = newErrTemplate(templateInvalidAt, template)
		return
	}
	pt.Prefix = template[:left]
	orig := template

	for {
		tr := TemplateRange{}

		left := strings.IndexByte(template, '@')
		if left == -1 {
			break
		}
		number := ""
		for left++; len(template) > left && unicode.IsDigit(rune(template[left])); left++ {
			number += string(template[left])
		}
		if tr.End, err = strconv.ParseInt(number, 10, 64); err != nil {
			return
		}
		tr.Step = 1
		tr.DigitCount = len(number)
		if err = validateBoundaries(orig, tr.Start, tr.End, tr.Step); err != nil {
			return
		}

		template = template[left:]
		if next := strings.IndexByte(template, '@'); next >= 0 {
			tr.Gap = template[:next]
		} else {
			tr.Gap = template
		}
		pt.Ranges = append(pt.Ranges, tr)
	}
	return
}

func validateBoundaries(template string, start, end, step int64) error {
	if start > end {
		return newErrTemplate(templateStartAfterEnd, template)
	}
	if start < 0 {
		return newErrTemplate(templateNegativeStart, template)
	}
	if step <= 0 {
		return newErrTemplate(templateNonPositiveStep, template)
	}
	return nil
}
