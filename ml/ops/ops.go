// Package ops implements per-field operations that turn tar records into
// training values and labels
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"fmt"
	"strings"

	"github.com/NVIDIA/aisdataset/ml/tarrec"

	"github.com/pkg/errors"
)

type (
	// Op produces a value from a record; the set of supported operations is
	// closed (see Validate)
	Op interface {
		Do(rec *tarrec.Record) (any, error)
		// ExtName names the produced field (required for operations in a List)
		ExtName() string
		String() string
	}

	// Select returns the raw bytes of the field
	Select struct {
		Ext string
		As  string // overrides ExtName
	}
	// SelectJSON parses the field as JSON and walks the path: object keys
	// and array indices; an empty path returns the whole document
	SelectJSON struct {
		Ext  string
		As   string
		Path []string
	}
	// Decode decodes the field as an image (jpeg, png, gif, bmp) into
	// a uint8 tensor [height, width, channels] with 1 (gray) or 3 (RGB) channels
	Decode struct {
		Ext string
		As  string
	}
	// Convert changes the dtype of the input (see ConvertTensor);
	// raw bytes are parsed as a numeric scalar
	Convert struct {
		Input Op
		As    string
		DType DType
	}
	// Resize scales an image tensor [H, W, C] (or [H, W]) to [Height, Width, C]
	// with bilinear interpolation; the result is float32
	Resize struct {
		Input  Op
		As     string
		Height int
		Width  int
	}
	// Func wraps a user-defined operation
	Func struct {
		Fn   func(rec *tarrec.Record) (any, error)
		Name string
	}

	// List applies operations in order, producing named Fields
	List []Op

	// Fields is the ordered result of applying a List
	Fields []Field
	Field  struct {
		Value any
		Name  string
	}
)

// interface guard
var (
	_ Op = (*Select)(nil)
	_ Op = (*SelectJSON)(nil)
	_ Op = (*Decode)(nil)
	_ Op = (*Convert)(nil)
	_ Op = (*Resize)(nil)
	_ Op = (*Func)(nil)
	_ Op = (List)(nil)
)

// KnownOps enumerates supported operations (used in error messages)
const KnownOps = "[Select SelectJSON Decode Convert Resize Func]"

type (
	ErrUnknownOp struct {
		op any
	}
	ErrMissingField struct {
		Key string
		Ext string
	}
)

func (e *ErrUnknownOp) Error() string {
	if name, ok := e.op.(string); ok {
		return fmt.Sprintf("unknown operation %q, expected one of %s", name, KnownOps)
	}
	return fmt.Sprintf("unknown operation type %T, expected one of %s", e.op, KnownOps)
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("record %q has no %q field", e.Key, e.Ext)
}

func IsErrUnknownOp(err error) bool {
	var e *ErrUnknownOp
	return errors.As(err, &e)
}

func IsErrMissingField(err error) bool {
	var e *ErrMissingField
	return errors.As(err, &e)
}

// constructors

func NewSelect(ext string) *Select                         { return &Select{Ext: ext} }
func NewSelectJSON(ext string, path ...string) *SelectJSON { return &SelectJSON{Ext: ext, Path: path} }
func NewDecode(ext string) *Decode                         { return &Decode{Ext: ext} }
func NewConvert(input Op, dt DType) *Convert               { return &Convert{Input: input, DType: dt} }
func NewResize(input Op, height, width int) *Resize {
	return &Resize{Input: input, Height: height, Width: width}
}
func NewFunc(name string, fn func(*tarrec.Record) (any, error)) *Func {
	return &Func{Name: name, Fn: fn}
}

//////////////
// Validate //
//////////////

// Validate accepts any of the known operations (including their inputs) or
// a List of them; a List inside a List is an error
func Validate(op Op) error {
	if l, ok := op.(List); ok {
		for _, o := range l {
			if _, ok := o.(List); ok {
				return errors.New("list of operations can't contain another list")
			}
			if err := validate(o); err != nil {
				return err
			}
		}
		return nil
	}
	return validate(op)
}

func validate(op Op) error {
	switch o := op.(type) {
	case *Select:
		if o == nil || o.Ext == "" {
			return errors.New("select: extension is required")
		}
	case *SelectJSON:
		if o == nil || o.Ext == "" {
			return errors.New("select-json: extension is required")
		}
	case *Decode:
		if o == nil || o.Ext == "" {
			return errors.New("decode: extension is required")
		}
	case *Convert:
		if o == nil || o.Input == nil {
			return errors.New("convert: input is required")
		}
		if o.DType <= Invalid || o.DType > Float64 {
			return errors.Errorf("convert: invalid dtype %s", o.DType)
		}
		return errors.Wrap(validateInput(o.Input), "convert")
	case *Resize:
		if o == nil || o.Input == nil {
			return errors.New("resize: input is required")
		}
		if o.Height <= 0 || o.Width <= 0 {
			return errors.Errorf("resize: invalid size (%d, %d)", o.Height, o.Width)
		}
		return errors.Wrap(validateInput(o.Input), "resize")
	case *Func:
		if o == nil || o.Fn == nil {
			return errors.New("func: function is required")
		}
	default:
		return &ErrUnknownOp{op}
	}
	return nil
}

func validateInput(op Op) error {
	if _, ok := op.(List); ok {
		return errors.New("operation input can't be a list")
	}
	return validate(op)
}

///////////
// Apply //
///////////

// Apply evaluates the operation: a single operation returns its value;
// a List returns Fields in list order
func Apply(op Op, rec *tarrec.Record) (any, error) {
	if l, ok := op.(List); ok {
		return l.apply(rec)
	}
	return op.Do(rec)
}

func (l List) Do(rec *tarrec.Record) (any, error) { return l.apply(rec) }

func (l List) apply(rec *tarrec.Record) (Fields, error) {
	fields := make(Fields, 0, len(l))
	for _, op := range l {
		name := op.ExtName()
		if name == "" {
			return nil, errors.Errorf("required ext_name, but none found in %s", op)
		}
		v, err := op.Do(rec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return fields, nil
}

func (List) ExtName() string { return "" }

func (l List) String() string {
	s := make([]string, len(l))
	for i, op := range l {
		s[i] = op.String()
	}
	return "[" + strings.Join(s, ", ") + "]"
}

// Get returns the value of the named field
func (fs Fields) Get(name string) (any, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func field(rec *tarrec.Record, ext string) ([]byte, error) {
	b, ok := rec.Get(ext)
	if !ok {
		return nil, &ErrMissingField{Key: rec.Key, Ext: ext}
	}
	return b, nil
}

////////////
// Select //
////////////

func (op *Select) Do(rec *tarrec.Record) (any, error) { return field(rec, op.Ext) }
func (op *Select) ExtName() string                    { return nameOr(op.As, op.Ext) }
func (op *Select) String() string                     { return op.Ext }

////////////////
// SelectJSON //
////////////////

func (op *SelectJSON) Do(rec *tarrec.Record) (any, error) {
	b, err := field(rec, op.Ext)
	if err != nil {
		return nil, err
	}
	v, err := walkJSON(b, op.Path)
	return v, errors.Wrapf(err, "select-json %q of %q", op.Ext, rec.Key)
}

func (op *SelectJSON) ExtName() string { return nameOr(op.As, op.Ext) }

func (op *SelectJSON) String() string {
	args := append([]string{op.Ext}, op.Path...)
	return "select_json(" + strings.Join(args, ", ") + ")"
}

////////////
// Decode //
////////////

func (op *Decode) Do(rec *tarrec.Record) (any, error) {
	b, err := field(rec, op.Ext)
	if err != nil {
		return nil, err
	}
	t, err := DecodeImage(b)
	return t, errors.Wrapf(err, "decode %q of %q", op.Ext, rec.Key)
}

func (op *Decode) ExtName() string { return nameOr(op.As, op.Ext) }
func (op *Decode) String() string  { return "decode(" + op.Ext + ")" }

/////////////
// Convert //
/////////////

func (op *Convert) Do(rec *tarrec.Record) (any, error) {
	v, err := op.Input.Do(rec)
	if err != nil {
		return nil, err
	}
	t, err := ToTensor(v, op.DType)
	if err != nil {
		return nil, errors.Wrapf(err, "convert %q to %s", rec.Key, op.DType)
	}
	return ConvertTensor(t, op.DType), nil
}

func (op *Convert) ExtName() string { return nameOr(op.As, op.Input.ExtName()) }

func (op *Convert) String() string {
	return "convert(" + op.Input.String() + ", " + op.DType.String() + ")"
}

////////////
// Resize //
////////////

func (op *Resize) Do(rec *tarrec.Record) (any, error) {
	v, err := op.Input.Do(rec)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*Tensor)
	if !ok {
		return nil, errors.Errorf("resize %q: expected image tensor, got %T", rec.Key, v)
	}
	t, err = ResizeImage(t, op.Height, op.Width)
	return t, errors.Wrapf(err, "resize %q", rec.Key)
}

func (op *Resize) ExtName() string { return nameOr(op.As, op.Input.ExtName()) }

func (op *Resize) String() string {
	return fmt.Sprintf("resize(%s, %d, %d)", op.Input, op.Height, op.Width)
}

//////////
// Func //
//////////

func (op *Func) Do(rec *tarrec.Record) (any, error) {
	v, err := op.Fn(rec)
	return v, errors.Wrapf(err, "func %q", op.Name)
}

func (op *Func) ExtName() string { return op.Name }

func (op *Func) String() string {
	if op.Name == "" {
		return "func()"
	}
	return "func(" + op.Name + ")"
}

func nameOr(as, name string) string {
	if as != "" {
		return as
	}
	return name
}
