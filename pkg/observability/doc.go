// Package observability provides structured logging, Prometheus
// metrics, and health probes.
//
// Logging is JSON-structured via log/slog. Metrics cover HTTP traffic
// and the authorization pipeline (decision outcomes per capability,
// club switches). Health checks ping postgres and redis.
package observability
