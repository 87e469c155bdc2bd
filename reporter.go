package spanz

import (
	"context"
	"sync"
)

// Reporter consumes the report of a stopped span.
// Report may block; Span.Stop does not return until it does.
type Reporter interface {
	Report(ctx context.Context, report SpanReport) error
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(ctx context.Context, report SpanReport) error

// Report calls f(ctx, report).
func (f ReporterFunc) Report(ctx context.Context, report SpanReport) error {
	return f(ctx, report)
}

// Registry holds a single default Reporter.
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	fallback func() Reporter
	reporter Reporter
	mu       sync.Mutex
}

// NewRegistry creates a registry that lazily builds its reporter with
// fallback the first time one is needed and none has been set.
func NewRegistry(fallback func() Reporter) *Registry {
	return &Registry{fallback: fallback}
}

// Reporter returns the current reporter, constructing the fallback once if
// nothing has been set.
func (r *Registry) Reporter() Reporter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reporter == nil && r.fallback != nil {
		r.reporter = r.fallback()
	}
	return r.reporter
}

// Set replaces the current reporter. Spans constructed afterwards without an
// explicit reporter use it. Passing nil restores the lazy fallback.
func (r *Registry) Set(reporter Reporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reporter = reporter
}

// Report hands report to whichever reporter is current at call time.
func (r *Registry) Report(ctx context.Context, report SpanReport) error {
	reporter := r.Reporter()
	if reporter == nil {
		return nil
	}
	return reporter.Report(ctx, report)
}

var shared = NewRegistry(func() Reporter {
	return NewConsoleReporter(nil)
})

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return shared
}

// DefaultReporter returns the process-wide default reporter.
// A ConsoleReporter is created on first use unless one was set.
func DefaultReporter() Reporter {
	return shared.Reporter()
}

// SetDefaultReporter overrides the process-wide default reporter.
func SetDefaultReporter(reporter Reporter) {
	shared.Set(reporter)
}

// Report sends report to the process-wide default reporter.
func Report(ctx context.Context, report SpanReport) error {
	return shared.Report(ctx, report)
}
