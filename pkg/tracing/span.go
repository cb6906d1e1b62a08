// Package tracing times scoped operations and reports their duration through
// slog when the scope ends:
//
//	defer tracing.Start("load corpus", "path", path).End()
//
// Spans are purely observational.
package tracing

import (
	"log/slog"
	"sync"
	"time"
)

// Span represents one timed operation.
type Span struct {
	name   string
	start  time.Time
	logger *slog.Logger

	mu       sync.Mutex
	attrs    []any
	duration time.Duration
	ended    bool
}

// Start begins a span logged through slog.Default. attrs are slog key/value
// pairs attached to the report.
func Start(name string, attrs ...any) *Span {
	return StartWith(slog.Default(), name, attrs...)
}

// StartWith begins a span reported through logger.
func StartWith(logger *slog.Logger, name string, attrs ...any) *Span {
	if logger == nil {
		logger = slog.Default()
	}
	return &Span{
		name:   name,
		start:  time.Now(),
		logger: logger,
		attrs:  attrs,
	}
}

// SetAttr attaches a key-value attribute to the span report.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// End stops the clock and logs the elapsed time. Only the first call logs;
// every call returns the recorded duration.
func (s *Span) End() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return s.duration
	}
	s.ended = true
	s.duration = time.Since(s.start)

	attrs := make([]any, 0, len(s.attrs)+4)
	attrs = append(attrs,
		"operation", s.name,
		"duration_ms", s.duration.Milliseconds(),
	)
	attrs = append(attrs, s.attrs...)
	s.logger.Info("operation time", attrs...)
	return s.duration
}

// Elapsed returns the time since the span started, or its final duration once
// it has ended.
func (s *Span) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return s.duration
	}
	return time.Since(s.start)
}
