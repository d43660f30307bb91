/*
 *    Copyright 2021 chenquan
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package xtrace centralizes the broker's otel tracer provider setup, so
// internal/processor and internal/server can both pull
// otel.GetTracerProvider().Tracer(xtrace.Name) the way
// internal/server/server.go already does.
package xtrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
)

// Name is the tracer name the broker registers spans under.
const Name = "github.com/lighthousemq/core"

// Exporter selects which tracing backend Init connects to.
type Exporter string

const (
	// ExporterNone disables span export; spans are still created and can
	// be inspected in-process by tests, but nothing leaves the broker.
	ExporterNone Exporter = "none"
	// ExporterJaeger exports spans via the Jaeger collector HTTP endpoint.
	ExporterJaeger Exporter = "jaeger"
	// ExporterZipkin exports spans via the Zipkin HTTP endpoint.
	ExporterZipkin Exporter = "zipkin"
)

// Init builds and installs the process-wide TracerProvider. endpoint is
// the collector URL for the chosen exporter; it is ignored for
// ExporterNone.
func Init(serviceName string, exporter Exporter, endpoint string) (func(context.Context) error, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	switch exporter {
	case ExporterJaeger:
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case ExporterZipkin:
		exp, err := zipkin.New(endpoint)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case ExporterNone, "":
		// spans created but not exported anywhere
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
