package spanz

import (
	"context"
	"slices"
)

// spanKeyType is a private type for context keys to avoid collisions.
type spanKeyType string

const spanKey spanKeyType = "spanz"

// ContextWithSpan returns a copy of parent carrying span.
func ContextWithSpan(parent context.Context, span *Span) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, spanKey, span)
}

// FromContext extracts the current span from a context.
// Returns nil if no span is present.
func FromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	if span, ok := ctx.Value(spanKey).(*Span); ok {
		return span
	}
	return nil
}

// StartSpan starts a child of the span carried by ctx, or a root span built
// with opts when ctx carries none, and returns a context carrying the new span.
//
// opts only apply to a new root. A child always takes its parent's reporter
// and clock, so opts are ignored when ctx already carries a span.
func StartSpan(ctx context.Context, name string, attributes Attributes, opts ...Option) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	var span *Span
	if parent := FromContext(ctx); parent != nil {
		span = parent.Start(name, attributes)
	} else {
		span = New(name, slices.Concat(opts, []Option{WithAttributes(attributes)})...)
	}

	return ContextWithSpan(ctx, span), span
}
