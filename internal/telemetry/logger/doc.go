// Package logger provides structured logging for radixkv.
//
// It wraps log/slog with JSON or text handlers, a dynamically adjustable
// global level, and a process-wide default logger.
package logger
