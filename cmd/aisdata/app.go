// Package main is the `aisdata` executable: AIStore datasets from the command line
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/aisdataset/api"
	"github.com/NVIDIA/aisdataset/cmn"
	"github.com/NVIDIA/aisdataset/cmn/nlog"
	"github.com/NVIDIA/aisdataset/stats"
	"github.com/NVIDIA/aisdataset/tracing"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
)

const cliName = "aisdata"

type acli struct {
	app     *cli.App
	ctx     context.Context
	cancel  context.CancelFunc
	config  *cmn.Config
	stats   *stats.Tracker
	metrics *http.Server
	bp      api.BaseParams
	out     io.Writer
	errOut  io.Writer
}

var (
	fcyan = color.New(color.FgHiCyan).SprintFunc()
	fred  = color.New(color.FgHiRed).SprintFunc()
)

// global flags
var (
	configFlag   = cli.StringFlag{Name: "config,c", Usage: "configuration file (YAML or JSON)"}
	endpointFlag = cli.StringFlag{Name: "endpoint,e", Usage: "AIS endpoint, e.g. http://localhost:8080 (overrides config and environment)"}
	tokenFlag    = cli.StringFlag{Name: "token-file", Usage: "file containing authentication token"}
	workersFlag  = cli.IntFlag{Name: "workers,w", Usage: "number of shards loaded concurrently"}
	directFlag   = cli.BoolFlag{Name: "direct", Usage: "read objects directly from the targets that store them"}
	verboseFlag  = cli.BoolFlag{Name: "verbose,v", Usage: "verbose logging"}
	logDirFlag   = cli.StringFlag{Name: "log-dir", Usage: "log directory (default: stderr only)"}
	metricsFlag  = cli.StringFlag{Name: "metrics", Usage: "serve Prometheus metrics at this address, e.g. ':9100'"}
	noColorFlag  = cli.BoolFlag{Name: "no-color", Usage: "disable colored output"}
)

func newApp(out, errOut io.Writer) *acli {
	a := &acli{app: cli.NewApp(), out: out, errOut: errOut}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.init()
	return a
}

func (a *acli) init() {
	app := a.app
	app.Name = cliName
	app.Usage = "AIStore datasets: list, read, and convert tar shards"
	app.Version = version
	if build != "" {
		app.Version = fmt.Sprintf("%s (build %s)", version, build)
	}
	app.Writer = a.out
	app.ErrWriter = a.errOut
	app.Flags = []cli.Flag{
		configFlag,
		endpointFlag,
		tokenFlag,
		workersFlag,
		directFlag,
		verboseFlag,
		logDirFlag,
		metricsFlag,
		noColorFlag,
	}
	app.Before = a.before
	app.After = a.after
	app.Commands = a.commands()
}

func (a *acli) run(args []string) error {
	err := a.app.Run(args)
	if err != nil {
		fmt.Fprintln(a.errOut, fred("Error:"), err)
	}
	nlog.Flush()
	return err
}

// (defaults) <= (config file) <= (environment) <= (command line)
func (a *acli) before(c *cli.Context) (err error) {
	if c.GlobalBool(noColorFlag.Name) {
		color.NoColor = true
	}
	if a.config, err = cmn.LoadConfig(c.GlobalString(cleanFlag(configFlag))); err != nil {
		return err
	}
	if s := c.GlobalString(cleanFlag(endpointFlag)); s != "" {
		a.config.Endpoint = s
	}
	if s := c.GlobalString(tokenFlag.Name); s != "" {
		a.config.TokenFile = s
	}
	if c.GlobalIsSet(cleanFlag(workersFlag)) {
		a.config.NumWorkers = c.GlobalInt(cleanFlag(workersFlag))
	}
	if c.GlobalBool(directFlag.Name) {
		a.config.Direct = true
	}
	if c.GlobalBool(cleanFlag(verboseFlag)) {
		a.config.Log.Verbose = true
	}
	if s := c.GlobalString(logDirFlag.Name); s != "" {
		a.config.Log.Dir = s
	}
	if s := c.GlobalString(metricsFlag.Name); s != "" {
		a.config.Metrics.Listen = s
	}
	if err := a.config.Validate(); err != nil {
		return err
	}

	nlog.SetVerbose(a.config.Log.Verbose)
	if a.config.Log.Dir != "" {
		if err := nlog.SetLogDir(a.config.Log.Dir); err != nil {
			return err
		}
	}
	if err := tracing.Init(&a.config.Tracing, version); err != nil {
		return err
	}

	client, err := api.NewHTTPClient(a.config)
	if err != nil {
		return err
	}
	if a.bp, err = api.NewBaseParams(tracing.NewTraceableClient(client), a.config); err != nil {
		return err
	}
	a.bp.Ctx = a.ctx

	a.stats = stats.New(a.config.Metrics.Namespace)
	if a.config.Metrics.Listen != "" {
		return a.serveMetrics(a.config.Metrics.Listen)
	}
	return nil
}

func (a *acli) after(*cli.Context) error {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.stats != nil {
		snap := a.stats.Snapshot()
		nlog.Infof("objects: %d, bytes: %d, records: %d, avg GET latency: %v",
			snap[stats.GetCount], snap[stats.GetSize], snap[stats.RecordCount], snap.AvgGetLatency())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return tracing.Shutdown(ctx)
}

func (a *acli) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	if err := a.stats.Register(reg); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			nlog.Errorf("metrics server: %v", err)
		}
	}()
	nlog.Infof("serving metrics at %s/metrics", ln.Addr())
	return nil
}
