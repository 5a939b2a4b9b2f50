// Package ops implements per-field operations that turn tar records into
// training values and labels
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Parse builds an operation from its textual form, e.g.:
//
//	resize(convert(decode(jpg), float32), 224, 224)
//	[select(cls), select_json(json, labels, 0)]
//
// a bare extension (e.g. `cls`) is Select; Func can't be expressed as text
func Parse(s string) (Op, error) {
	p := &parser{s: s}
	op, err := p.top()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid operation %q", s)
	}
	if err := Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) top() (Op, error) {
	var (
		op  Op
		err error
	)
	p.skipSpace()
	if p.peek() == '[' {
		p.pos++
		var l List
		for {
			o, err := p.expr()
			if err != nil {
				return nil, err
			}
			l = append(l, o)
			if p.accept(']') {
				break
			}
			if !p.accept(',') {
				return nil, p.errorf("expecting ',' or ']'")
			}
		}
		op = l
	} else if op, err = p.expr(); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.s) {
		return nil, p.errorf("unexpected trailing input")
	}
	return op, nil
}

func (p *parser) expr() (Op, error) {
	name := p.word()
	if name == "" {
		if p.peek() == '[' {
			return nil, p.errorf("list of operations can't contain another list")
		}
		return nil, p.errorf("expecting operation or extension")
	}
	if !p.accept('(') {
		return NewSelect(name), nil
	}
	switch strings.ToLower(name) {
	case "select":
		ext, err := p.lastArg()
		return NewSelect(ext), err
	case "select_json", "selectjson":
		ext, err := p.arg()
		if err != nil {
			return nil, err
		}
		op := NewSelectJSON(ext)
		for !p.accept(')') {
			if !p.accept(',') {
				return nil, p.errorf("expecting ',' or ')'")
			}
			key, err := p.arg()
			if err != nil {
				return nil, err
			}
			op.Path = append(op.Path, key)
		}
		return op, nil
	case "decode":
		ext, err := p.lastArg()
		return NewDecode(ext), err
	case "convert":
		input, err := p.expr()
		if err != nil {
			return nil, err
		}
		if !p.accept(',') {
			return nil, p.errorf("convert: expecting dtype")
		}
		s, err := p.lastArg()
		if err != nil {
			return nil, err
		}
		dt, err := ParseDType(s)
		if err != nil {
			return nil, err
		}
		return NewConvert(input, dt), nil
	case "resize":
		input, err := p.expr()
		if err != nil {
			return nil, err
		}
		var size [2]int
		for i := range size {
			if !p.accept(',') {
				return nil, p.errorf("resize: expecting height and width")
			}
			s, err := p.arg()
			if err != nil {
				return nil, err
			}
			if size[i], err = strconv.Atoi(s); err != nil {
				return nil, p.errorf("resize: invalid dimension %q", s)
			}
		}
		if !p.accept(')') {
			return nil, p.errorf("expecting ')'")
		}
		return NewResize(input, size[0], size[1]), nil
	case "func":
		return nil, p.errorf("func can't be specified as text")
	}
	return nil, &ErrUnknownOp{op: name}
}

// single argument followed by ')'
func (p *parser) lastArg() (string, error) {
	s, err := p.arg()
	if err != nil {
		return "", err
	}
	if !p.accept(')') {
		return "", p.errorf("expecting ')'")
	}
	return s, nil
}

func (p *parser) arg() (string, error) {
	p.skipSpace()
	if q := p.peek(); q == '"' || q == '\'' {
		end := strings.IndexByte(p.s[p.pos+1:], q)
		if end < 0 {
			return "", p.errorf("unterminated string")
		}
		s := p.s[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return s, nil
	}
	if s := p.word(); s != "" {
		return s, nil
	}
	return "", p.errorf("expecting argument")
}

func (p *parser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) {
		c := rune(p.s[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '.' && c != '-' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) accept(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) errorf(format string, a ...any) error {
	return errors.Errorf("at %d: "+format, append([]any{p.pos}, a...)...)
}
