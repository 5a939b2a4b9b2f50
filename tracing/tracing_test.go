// Package tracing offers support for distributed tracing utilizing OpenTelemetry (OTEL).
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tracing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/NVIDIA/aisdataset/cmn"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var _ = Describe("Tracing", func() {
	const version = "v1.2.3"

	var (
		exporter *tracetest.InMemoryExporter

		origExporter = newExporter

		testHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("-"))
		})

		enabledConf = &cmn.TracingConf{
			ExporterEndpoint:  "dummy",
			Enabled:           true,
			SamplerProbablity: 1.0,
		}

		expectResourceAttrs = func(attrs []attribute.KeyValue, serviceName string) {
			expected := map[string]string{
				"service.name": serviceName,
				"version":      version,
			}
			matched := 0
			for _, attr := range attrs {
				value, ok := expected[string(attr.Key)]
				if !ok {
					continue
				}
				Expect(attr.Value.AsString()).To(Equal(value))
				matched++
			}
			Expect(matched).To(Equal(len(expected)))
		}
	)

	BeforeEach(func() {
		exporter = tracetest.NewInMemoryExporter()
		newExporter = func(*cmn.TracingConf) (sdktrace.SpanExporter, error) {
			return exporter, nil
		}
	})

	AfterEach(func() {
		Expect(Shutdown(context.Background())).To(Succeed())
		newExporter = origExporter
	})

	It("should export client trace when tracing enabled", func() {
		Expect(Init(enabledConf, version)).To(Succeed())
		Expect(IsEnabled()).To(BeTrue())

		server := httptest.NewServer(testHandler)
		defer server.Close()

		client := NewTraceableClient(&http.Client{})
		_, isOtelType := client.Transport.(*otelhttp.Transport)
		Expect(isOtelType).To(BeTrue())

		resp, err := client.Get(server.URL)
		Expect(err).NotTo(HaveOccurred())
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		Expect(ForceFlush(context.Background())).To(Succeed())
		spans := exporter.GetSpans()
		Expect(spans).To(HaveLen(1))
		expectResourceAttrs(spans[0].Resource.Attributes(), DefaultServiceName)
	})

	It("should record spans and errors", func() {
		conf := *enabledConf
		conf.ServiceName = "loader"
		Expect(Init(&conf, version)).To(Succeed())

		_, span := StartSpan(context.Background(), "read-shard", attribute.String("shard", "train-0.tar"))
		EndSpan(span, errors.New("boom"))
		Expect(ForceFlush(context.Background())).To(Succeed())

		spans := exporter.GetSpans()
		Expect(spans).To(HaveLen(1))
		Expect(spans[0].Name).To(Equal("read-shard"))
		Expect(spans[0].Status.Code).To(Equal(codes.Error))
		Expect(spans[0].Attributes).To(ContainElement(attribute.String("shard", "train-0.tar")))
		expectResourceAttrs(spans[0].Resource.Attributes(), "loader")
	})

	It("should do nothing when tracing disabled", func() {
		Expect(Init(&cmn.TracingConf{}, version)).To(Succeed())
		Expect(IsEnabled()).To(BeFalse())

		client := NewTraceableClient(&http.Client{})
		Expect(client.Transport).To(BeNil())
		Expect(Init(nil, version)).To(Succeed())
		Expect(IsEnabled()).To(BeFalse())
	})

	It("should require exporter endpoint", func() {
		Expect(Init(&cmn.TracingConf{Enabled: true}, version)).NotTo(Succeed())
		Expect(IsEnabled()).To(BeFalse())
	})
})
