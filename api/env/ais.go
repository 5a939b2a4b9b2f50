// Package env contains environment variables
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package env

var (
	AIS = struct {
		Endpoint string
		// authentication
		AuthToken     string
		AuthTokenFile string
		// datasets
		NumWorkers string
		// TLS: client side
		Certificate   string
		CertKey       string
		ClientCA      string
		SkipVerifyCrt string
		// tracing
		TracingEndpoint string
		// tests, CI
		TestEndpoint string
	}{
		Endpoint: "AIS_ENDPOINT",

		AuthToken:     "AIS_AUTHN_TOKEN",
		AuthTokenFile: "AIS_AUTHN_TOKEN_FILE",

		NumWorkers: "AIS_NUM_WORKERS",

		// TLS: client side
		Certificate:   "AIS_CRT",
		CertKey:       "AIS_CRT_KEY",
		ClientCA:      "AIS_CLIENT_CA",
		SkipVerifyCrt: "AIS_SKIP_VERIFY_CRT",

		TracingEndpoint: "AIS_TRACING_ENDPOINT",

		// Env variables used for tests or CI
		TestEndpoint: "AIS_TEST_ENDPOINT",
	}
)
