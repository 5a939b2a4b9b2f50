// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/NVIDIA/aisdataset/cmn/nlog"
)

const (
	RetryLogVerbose = iota
	RetryLogQuiet
	RetryLogOff
)

type (
	RetryArgs struct {
		Call      func() (int, error)
		IsFatal   func(error) bool
		Action    string
		Caller    string
		SoftErr   int // How many retries on ConnectionRefused or ConnectionReset error.
		HardErr   int // How many retries on any other error.
		Sleep     time.Duration
		Verbosity int  // Determine the verbosity level.
		BackOff   bool // If requests should be retried less and less often.
		IsClient  bool // true: client (e.g. dev tools, etc.)
	}
)

// IsErrConnectionRefused, IsErrConnectionReset: retriable network errors
func IsErrConnectionRefused(err error) bool { return errors.Is(err, syscall.ECONNREFUSED) }

func IsErrConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}

// (io.EOF: server closed a kept-alive connection)
func IsRetriableConnErr(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return false
	}
	return IsErrConnectionRefused(err) || IsErrConnectionReset(err) || errors.Is(err, io.EOF)
}

// NetworkCallWithRetry executes `args.Call` and retries: up to SoftErr times on
// connection refused/reset and service-unavailable, and up to HardErr times on
// anything else. Context cancellation is never retried.
func NetworkCallWithRetry(args *RetryArgs) (err error) {
	_, err = args.Do()
	return
}

func (args *RetryArgs) Do() (ecode int, err error) {
	var (
		hardErrCnt, softErrCnt, iter int
		sleep                        = args.Sleep
		callerStr                    string
	)
	if args.Sleep == 0 {
		if args.IsClient {
			sleep = time.Second / 2
		} else {
			sleep = 2 * time.Second
		}
	}
	if args.Caller != "" {
		callerStr = args.Caller + ": "
	}
	if args.Action == "" {
		args.Action = "call"
	}
	for hardErrCnt, softErrCnt, iter = 0, 0, 1; ; iter++ {
		if ecode, err = args.Call(); err == nil {
			if args.Verbosity == RetryLogVerbose && (hardErrCnt+softErrCnt) > 0 {
				nlog.Warningf("%s Successful %s after %d attempt(s)", callerStr, args.Action, hardErrCnt+softErrCnt+1)
			}
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		if args.IsFatal != nil && args.IsFatal(err) {
			return
		}
		if IsRetriableConnErr(err) || ecode == http.StatusServiceUnavailable {
			softErrCnt++
		} else {
			hardErrCnt++
		}
		if args.BackOff && iter > 1 {
			sleep = min(sleep+args.Sleep/2, 4*args.Sleep+time.Second)
		}
		if hardErrCnt > args.HardErr || softErrCnt > args.SoftErr {
			break
		}
		if args.Verbosity == RetryLogVerbose {
			nlog.Errorf("%sFailed to %s, iter %d, err: %v(%d)", callerStr, args.Action, iter, err, ecode)
		}
		time.Sleep(sleep)
	}
	if args.Verbosity != RetryLogOff {
		nlog.Errorf("%sFailed to %s (%d attempt(s)): %v", callerStr, args.Action, iter, err)
	}
	return ecode, fmt.Errorf("%s: %w", args.Action, err)
}
