// Package nlog - leveled logger: timestamping, buffering, and writing
// to stderr and (optionally) a log file
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"flag"
	"io"
)

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", true, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

// SetLogDir makes subsequent logs go to a file under `dir` (in addition to
// stderr when `alsologtostderr` is set)
func SetLogDir(dir string) error { return setLogDir(dir) }

// SetOutput redirects all logging to w (tests and tools)
func SetOutput(w io.Writer) { setOutput(w) }

// SetVerbose enables (or disables) Info-level logging
func SetVerbose(v bool) { verbose.Store(v) }

func Flush() { flush() }
