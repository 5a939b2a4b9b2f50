// Package tassert provides common asserts for tests
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tassert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"
)

func CheckFatal(tb testing.TB, err error) {
	if err != nil {
		tb.Helper()
		printStack()
		tb.Fatal(now(), err)
	}
}

func CheckError(tb testing.TB, err error) {
	if err != nil {
		tb.Helper()
		printStack()
		tb.Error(now(), err)
	}
}

func Fatal(tb testing.TB, cond bool, msg string) {
	if !cond {
		tb.Helper()
		printStack()
		tb.Fatal(msg)
	}
}

func Fatalf(tb testing.TB, cond bool, format string, args ...any) {
	if !cond {
		tb.Helper()
		printStack()
		tb.Fatalf(format, args...)
	}
}

func Errorf(tb testing.TB, cond bool, format string, args ...any) {
	if !cond {
		tb.Helper()
		printStack()
		tb.Errorf(format, args...)
	}
}

// ErrorIs fails the test unless errors.Is(err, target)
func ErrorIs(tb testing.TB, err, target error) {
	if !errors.Is(err, target) {
		tb.Helper()
		printStack()
		tb.Fatalf("%s expected error %v, got %v", now(), target, err)
	}
}

// ErrorContains fails the test unless err is non-nil and its message contains substr
func ErrorContains(tb testing.TB, err error, substr string) {
	if err == nil || !strings.Contains(err.Error(), substr) {
		tb.Helper()
		printStack()
		tb.Fatalf("%s expected error containing %q, got %v", now(), substr, err)
	}
}

func now() string { return fmt.Sprintf("[%s]", time.Now().Format("15:04:05.000000")) }

func printStack() {
	var buffer bytes.Buffer
	fmt.Fprintln(os.Stderr, "    tassert.printStack:")
	for i := 1; i < 9; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		i := strings.Index(file, "aisdataset/")
		if i < 0 {
			break
		}
		if strings.Contains(file, "tassert") {
			continue
		}
		fmt.Fprintf(&buffer, "\t%s:%d\n", file[i+len("aisdataset/"):], line)
	}
	os.Stderr.Write(buffer.Bytes())
}
