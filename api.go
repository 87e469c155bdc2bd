// Package spanz provides minimal hierarchical tracing.
//
// Callers mark the start and end of nested units of work (spans). A stopped
// span produces a SpanReport carrying its ID, name, attributes, timestamps
// and the full root-to-span stack, and hands it to a Reporter.
//
// Core Components:
//   - Span: a timed unit of work with an optional parent.
//   - Reporter: consumes SpanReports.
//   - Registry: holds the default Reporter used when none is given.
//   - Collector: buffers reports in memory.
//   - Dispatcher: fans reports out to registered handlers.
//   - ConsoleReporter: the baseline reporter, logging through zap.
//
// Basic Usage:
//
//	func build(ctx context.Context) (err error) {
//		root := spanz.New("build", spanz.WithAttributes(map[string]string{"target": "web"}))
//		defer root.Release(ctx, &err)
//
//		compile := root.Start("compile", nil)
//		defer compile.Release(ctx, &err)
//		...
//	}
//
// Children inherit their parent's reporter. Deferred calls run last-in
// first-out, so children report before their parents.
//
// Stopping:
//
// Stop blocks until the reporter returns and passes its error through
// unchanged. Only the first Stop reports; later calls, including a deferred
// Release after a manual Stop, are no-ops.
//
// Thread Safety:
//
// Registry, Collector and Dispatcher are safe for concurrent use. A span is
// owned by the goroutine that started it, but sibling spans may be started
// and stopped concurrently from the same parent.
package spanz

// Attributes are string key/value pairs fixed at span construction.
type Attributes = map[string]string
