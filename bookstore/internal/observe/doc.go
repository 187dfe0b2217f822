// Package observe provides the logging, metrics, and tracing instrumentation shared by the store engines.
//
// Every store operation is wrapped in an Operation which starts a tracing span, measures its duration,
// and on completion logs the outcome, records metrics, and finishes the span. All collectors are optional;
// an Observer without any collector does nothing.
package observe
