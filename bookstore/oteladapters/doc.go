// Package oteladapters implements the bookstore observability interfaces on top of OpenTelemetry.
//
// The store engines only depend on the small interfaces in package bookstore. Wire these adapters
// in to export logs, metrics, and traces through whatever OpenTelemetry providers the process
// has configured:
//
//	store, err := mongoengine.Connect(ctx, uri, "plp_bookstore",
//		mongoengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("bookstore")),
//		mongoengine.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("bookstore"))),
//		mongoengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("bookstore"))),
//	)
package oteladapters
