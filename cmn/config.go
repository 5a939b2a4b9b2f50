// Package cmn provides common constants, types, and utilities for AIS clients
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/aisdataset/api/env"
	"github.com/NVIDIA/aisdataset/cmn/cos"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint   = "http://localhost:8080"
	DefaultTimeout    = 2 * time.Minute
	DefaultNumWorkers = 4
)

type (
	// Config is the client-side configuration of the dataset tools:
	// (defaults) <= (config file: YAML or JSON) <= (environment) <= (command line)
	Config struct {
		Endpoint   string       `json:"endpoint" yaml:"endpoint"`
		AuthToken  string       `json:"-" yaml:"-"`
		TokenFile  string       `json:"token_file,omitempty" yaml:"token_file,omitempty"`
		Timeout    DurationJSON `json:"timeout" yaml:"timeout"`
		NumWorkers int          `json:"num_workers" yaml:"num_workers"`
		Direct     bool         `json:"direct" yaml:"direct"` // GET objects directly from the HRW target
		TLS        TLSConf      `json:"tls" yaml:"tls"`
		Log        LogConf      `json:"log" yaml:"log"`
		Tracing    TracingConf  `json:"tracing" yaml:"tracing"`
		Metrics    MetricsConf  `json:"metrics" yaml:"metrics"`
	}
	TLSConf struct {
		Certificate string `json:"certificate,omitempty" yaml:"certificate,omitempty"`
		Key         string `json:"key,omitempty" yaml:"key,omitempty"`
		ClientCA    string `json:"client_ca,omitempty" yaml:"client_ca,omitempty"`
		SkipVerify  bool   `json:"skip_verify" yaml:"skip_verify"`
	}
	LogConf struct {
		Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
		Verbose bool   `json:"verbose" yaml:"verbose"`
	}
	TracingConf struct {
		ExporterEndpoint  string  `json:"exporter_endpoint" yaml:"exporter_endpoint"`
		ServiceName       string  `json:"service_name,omitempty" yaml:"service_name,omitempty"`
		SamplerProbablity float64 `json:"sampler_probability" yaml:"sampler_probability"`
		Enabled           bool    `json:"enabled" yaml:"enabled"`
		SkipVerify        bool    `json:"skip_verify" yaml:"skip_verify"`
	}
	MetricsConf struct {
		Listen    string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9100"; empty - not exposed
		Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	}

	// DurationJSON is time.Duration that (un)marshals as a string, e.g. "90s"
	DurationJSON time.Duration
)

func DefaultConfig() *Config {
	return &Config{
		Endpoint:   DefaultEndpoint,
		Timeout:    DurationJSON(DefaultTimeout),
		NumWorkers: DefaultNumWorkers,
		Tracing:    TracingConf{SamplerProbablity: 1},
		Metrics:    MetricsConf{Namespace: "ais_dataset"},
	}
}

// LoadConfig reads YAML or JSON (by extension) over the defaults and
// then applies environment overrides; empty `path` - defaults and env only
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			err = cos.JSON.Unmarshal(b, config)
		default:
			err = yaml.Unmarshal(b, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

func (c *Config) ApplyEnv() error {
	if s := os.Getenv(env.AIS.Endpoint); s != "" {
		c.Endpoint = s
	}
	if s := os.Getenv(env.AIS.AuthTokenFile); s != "" {
		c.TokenFile = s
	}
	if s := os.Getenv(env.AIS.AuthToken); s != "" {
		c.AuthToken = s
	}
	if s := os.Getenv(env.AIS.NumWorkers); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env.AIS.NumWorkers, s, err)
		}
		c.NumWorkers = n
	}
	if s := os.Getenv(env.AIS.Certificate); s != "" {
		c.TLS.Certificate = s
	}
	if s := os.Getenv(env.AIS.CertKey); s != "" {
		c.TLS.Key = s
	}
	if s := os.Getenv(env.AIS.ClientCA); s != "" {
		c.TLS.ClientCA = s
	}
	if s := os.Getenv(env.AIS.SkipVerifyCrt); s != "" {
		c.TLS.SkipVerify = cos.IsParseBool(s)
	}
	if s := os.Getenv(env.AIS.TracingEndpoint); s != "" {
		c.Tracing.ExporterEndpoint = s
		c.Tracing.Enabled = true
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is not defined")
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("invalid endpoint %q: expecting http:// or https:// scheme", c.Endpoint)
	}
	c.Endpoint = strings.TrimSuffix(c.Endpoint, "/")
	if c.NumWorkers < 0 {
		return fmt.Errorf("invalid num_workers %d", c.NumWorkers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %v", time.Duration(c.Timeout))
	}
	if c.Tracing.Enabled && c.Tracing.ExporterEndpoint == "" {
		return errors.New("tracing enabled but exporter endpoint is not defined")
	}
	return nil
}

func (c *Config) TransportArgs() TransportArgs {
	return TransportArgs{Timeout: time.Duration(c.Timeout), UseHTTPProxyEnv: true}
}

func (c *Config) TLSArgs() TLSArgs {
	return TLSArgs{
		Certificate: c.TLS.Certificate,
		Key:         c.TLS.Key,
		ClientCA:    c.TLS.ClientCA,
		SkipVerify:  c.TLS.SkipVerify,
	}
}

//////////////////
// DurationJSON //
//////////////////

func (d DurationJSON) D() time.Duration { return time.Duration(d) }
func (d DurationJSON) String() string   { return time.Duration(d).String() }
func (d DurationJSON) MarshalJSON() ([]byte, error) {
	return cos.JSON.Marshal(time.Duration(d).String())
}

func (d *DurationJSON) UnmarshalJSON(b []byte) error {
	var s string
	if err := cos.JSON.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d DurationJSON) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d *DurationJSON) UnmarshalYAML(node *yaml.Node) error { return d.parse(node.Value) }

func (d *DurationJSON) parse(s string) error {
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = DurationJSON(dur)
	return nil
}
