package spanz

import "time"

// StackEntry identifies one span on the path from the root to a reported span.
type StackEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpanStack is the ordered path of spans from the root (first) down to and
// including the current span (last).
type SpanStack []StackEntry

// SpanReport is the immutable snapshot of a stopped span handed to a Reporter.
// Timestamps are milliseconds since the Unix epoch.
//
//nolint:govet // Field order follows the JSON wire shape
type SpanReport struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Stack      SpanStack         `json:"stack"`
	Attributes map[string]string `json:"attributes,omitempty"`
	StartedAt  int64             `json:"startedAt"`
	StoppedAt  int64             `json:"stoppedAt"`
}

// Duration returns how long the span ran.
func (r SpanReport) Duration() time.Duration {
	return time.Duration(r.StoppedAt-r.StartedAt) * time.Millisecond
}

// Root returns the first entry of the stack, the span that started the chain.
func (r SpanReport) Root() StackEntry {
	if len(r.Stack) == 0 {
		return StackEntry{ID: r.ID, Name: r.Name}
	}
	return r.Stack[0]
}

// clone returns a deep copy so buffered reports cannot be mutated by the caller.
func (r SpanReport) clone() SpanReport {
	c := r
	if r.Stack != nil {
		c.Stack = make(SpanStack, len(r.Stack))
		copy(c.Stack, r.Stack)
	}
	if r.Attributes != nil {
		c.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}
