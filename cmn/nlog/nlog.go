// Package nlog - leveled logger: timestamping, buffering, and writing
// to stderr and (optionally) a log file
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	nlogBufSize  = 64 * 1024
	nlogLineSize = 4 * 1024
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var (
	toStderr     = true
	alsoToStderr bool

	verbose atomic.Bool

	mu   sync.Mutex
	out  io.Writer = os.Stderr
	file *os.File
	bw   *bufio.Writer

	pool = sync.Pool{
		New: func() any {
			b := make([]byte, 0, nlogLineSize)
			return &b
		},
	}
)

func init() { verbose.Store(true) }

// main function
func log(sev severity, depth int, format string, args ...any) {
	if sev == sevInfo && !verbose.Load() {
		return
	}
	bp := pool.Get().(*[]byte)
	line := sprintf((*bp)[:0], sev, depth+1, format, args...)

	mu.Lock()
	switch {
	case bw == nil || toStderr:
		out.Write(line)
	default:
		bw.Write(line)
		if alsoToStderr || sev >= sevErr {
			out.Write(line)
		}
		if sev >= sevWarn || bw.Buffered() > nlogBufSize/2 {
			bw.Flush()
		}
	}
	mu.Unlock()

	*bp = line
	pool.Put(bp)
}

func formatHdr(b []byte, s severity, depth int) []byte {
	const char = "IWE"
	b = append(b, char[s], ' ')
	b = time.Now().AppendFormat(b, "15:04:05.000000")
	b = append(b, ' ')
	_, fn, ln, ok := runtime.Caller(3 + depth)
	if !ok {
		return b
	}
	if idx := strings.LastIndexByte(fn, filepath.Separator); idx > 0 {
		fn = fn[idx+1:]
	}
	fn = strings.TrimSuffix(fn, ".go")
	b = append(b, fn...)
	b = append(b, ':')
	b = strconv.AppendInt(b, int64(ln), 10)
	return append(b, ' ')
}

func sprintf(b []byte, sev severity, depth int, format string, args ...any) []byte {
	b = formatHdr(b, sev, depth)
	if format == "" {
		b = fmt.Append(b, args...)
	} else {
		b = fmt.Appendf(b, format, args...)
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	return b
}

func setLogDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	now := time.Now()
	name := fmt.Sprintf("%s.%02d%02d-%02d%02d%02d.%d.log", filepath.Base(os.Args[0]),
		now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), os.Getpid())
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	mu.Lock()
	if bw != nil {
		bw.Flush()
		file.Close()
	}
	file, bw = f, bufio.NewWriterSize(f, nlogBufSize)
	toStderr = false
	mu.Unlock()
	return nil
}

func setOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func flush() {
	mu.Lock()
	if bw != nil {
		bw.Flush()
		file.Sync()
	}
	mu.Unlock()
}
