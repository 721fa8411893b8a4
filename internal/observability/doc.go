// Package observability provides structured logging for the cascade
// dispatcher.
//
// This package implements:
//   - Structured logging with contextual fields (zap-based)
//   - Log level and format selection from configuration
//
// Every dispatch step logs through one shared logger so attempt trails can
// be correlated by dispatch ID and request ID.
package observability
