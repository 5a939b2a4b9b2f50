// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/NVIDIA/aisdataset/cmn/cos"
)

// Shards are large and read sequentially, often by many workers at once
// (net/http defaults: 2 idle conns per host, 4KB buffers, 90s idle timeout).
const (
	dfltDialTimeout       = 10 * time.Second
	dfltKeepaliveTCP      = 30 * time.Second
	dfltIdleConnsPerHost  = 32
	dfltIdleConnTimeout   = 6 * time.Second
	dfltReadBufferSize    = 128 * cos.KiB
	dfltWriteBufferSize   = 16 * cos.KiB
	dfltTLSHandshakeTout  = 10 * time.Second
	dfltExpectContinueOut = time.Second
)

type (
	TransportArgs struct {
		DialTimeout      time.Duration
		Timeout          time.Duration // overall request timeout, including reading the body; 0 - none
		IdleConnTimeout  time.Duration
		IdleConnsPerHost int
		ReadBufferSize   int
		UseHTTPProxyEnv  bool
	}
	TLSArgs struct {
		ClientCA    string
		Certificate string
		Key         string
		SkipVerify  bool
	}
)

func newTransport(cargs *TransportArgs) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cos.NonZero(cargs.DialTimeout, dfltDialTimeout),
		KeepAlive: dfltKeepaliveTCP,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   dfltTLSHandshakeTout,
		ExpectContinueTimeout: dfltExpectContinueOut,
		IdleConnTimeout:       cos.NonZero(cargs.IdleConnTimeout, dfltIdleConnTimeout),
		MaxIdleConnsPerHost:   cos.NonZero(cargs.IdleConnsPerHost, dfltIdleConnsPerHost),
		ReadBufferSize:        cos.NonZero(cargs.ReadBufferSize, dfltReadBufferSize),
		WriteBufferSize:       dfltWriteBufferSize,
		DisableCompression:    true, // shards are archives
	}
	if cargs.UseHTTPProxyEnv {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return transport
}

func newTLS(sargs *TLSArgs) (*tls.Config, error) {
	conf := &tls.Config{InsecureSkipVerify: sargs.SkipVerify} //nolint:gosec // user's choice
	if sargs.ClientCA != "" {
		pem, err := os.ReadFile(sargs.ClientCA)
		if err != nil {
			return nil, err
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("client tls: failed to load system cert pool: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("client tls: no CA certificates in %q", sargs.ClientCA)
		}
		conf.RootCAs = pool
	}
	if sargs.Certificate == "" && sargs.Key == "" {
		return conf, nil
	}
	cert, err := tls.LoadX509KeyPair(sargs.Certificate, sargs.Key)
	if err != nil {
		return nil, fmt.Errorf("client tls: failed to load key pair (%q, %q): %w", sargs.Certificate, sargs.Key, err)
	}
	conf.Certificates = []tls.Certificate{cert}
	return conf, nil
}

func NewClient(cargs TransportArgs) *http.Client {
	return &http.Client{Transport: newTransport(&cargs), Timeout: cargs.Timeout}
}

func NewClientTLS(cargs TransportArgs, sargs TLSArgs) (*http.Client, error) {
	conf, err := newTLS(&sargs)
	if err != nil {
		return nil, err
	}
	transport := newTransport(&cargs)
	transport.TLSClientConfig = conf
	return &http.Client{Transport: transport, Timeout: cargs.Timeout}, nil
}
