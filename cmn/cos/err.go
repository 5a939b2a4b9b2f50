// Package cos provides common low-level types and utilities for the AIS dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a missing object or shard; it wraps the underlying
// error (e.g., HTTP 404) when there is one
type ErrNotFound struct {
	where fmt.Stringer
	err   error
	what  string
}

func NewErrNotFound(where fmt.Stringer, what string, err error) *ErrNotFound {
	return &ErrNotFound{where: where, what: what, err: err}
}

func (e *ErrNotFound) Error() string {
	s := e.what
	if !strings.Contains(s, "not exist") && !strings.Contains(s, "not found") {
		s += " does not exist"
	}
	if e.where == nil {
		return s
	}
	return e.where.String() + ": " + s
}

func (e *ErrNotFound) Unwrap() error { return e.err }

func IsErrNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}
