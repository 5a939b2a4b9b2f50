// Package main is the `aisdata` executable: AIStore datasets from the command line
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"os"
	"os/signal"
	"syscall"
)

var (
	build   string
	version = "1.0"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopCh
		a.cancel()
	}()
	if err := a.run(os.Args); err != nil {
		os.Exit(1)
	}
}
