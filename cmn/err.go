// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrHTTP is the error returned by the cluster (or constructed by the client)
// whenever an HTTP request fails with status >= 400
type ErrHTTP struct {
	TypeCode string `json:"tcode,omitempty"`
	Message  string `json:"message"`
	Method   string `json:"method"`
	URLPath  string `json:"url_path"`
	RemAddr  string `json:"remote_addr"`
	Caller   string `json:"caller"`
	Node     string `json:"node"`
	Status   int    `json:"status"`
}

func NewErrHTTP(r *http.Request, msg string, status int) *ErrHTTP {
	e := &ErrHTTP{Message: msg, Status: status}
	if r != nil {
		e.Method = r.Method
		if r.URL != nil {
			e.URLPath = r.URL.Path
		}
		e.RemAddr = r.RemoteAddr
	}
	return e
}

func (e *ErrHTTP) Error() string {
	var sb strings.Builder
	if e.Node != "" {
		sb.WriteString(e.Node)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Method != "" || e.URLPath != "" {
		fmt.Fprintf(&sb, " (%s %s)", e.Method, e.URLPath)
	}
	if e.Status != 0 {
		fmt.Fprintf(&sb, ", status %d", e.Status)
	}
	return sb.String()
}

// Err2HTTPErr unwraps and returns *ErrHTTP if present, nil otherwise
func Err2HTTPErr(err error) *ErrHTTP {
	var herr *ErrHTTP
	if errors.As(err, &herr) {
		return herr
	}
	return nil
}

func IsStatusNotFound(err error) bool {
	herr := Err2HTTPErr(err)
	return herr != nil && herr.Status == http.StatusNotFound
}
