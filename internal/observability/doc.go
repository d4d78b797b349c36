// Package observability provides structured logging, metrics, and tracing
// for the property listings API.
//
// Logging is zap-based, metrics are Prometheus collectors registered on the
// default registry, and traces are exported over OTLP/gRPC when enabled.
package observability
