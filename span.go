package spanz

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
)

// ErrNotStopped is returned when a report is assembled for a span that has
// no stop time yet.
var ErrNotStopped = errors.New("span is not stopped yet")

// lastID is the most recently assigned span ID. IDs start at 1.
var lastID atomic.Uint64

func nextID() uint64 {
	return lastID.Add(1)
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Option configures a span created with New.
type Option func(*spanOptions)

type spanOptions struct {
	attributes map[string]string
	parent     *Span
	reporter   Reporter
	registry   *Registry
	clock      clockz.Clock
}

// WithParent makes the new span a child of parent.
func WithParent(parent *Span) Option {
	return func(o *spanOptions) {
		o.parent = parent
	}
}

// WithReporter sets the reporter for the span and every child started from it.
func WithReporter(reporter Reporter) Option {
	return func(o *spanOptions) {
		o.reporter = reporter
	}
}

// WithAttributes attaches attributes to the span. The map is copied.
func WithAttributes(attributes map[string]string) Option {
	return func(o *spanOptions) {
		o.attributes = attributes
	}
}

// WithClock sets the clock used for timestamps.
// Enables clock injection for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(o *spanOptions) {
		o.clock = clock
	}
}

// WithRegistry resolves the default reporter from registry instead of the
// process-wide one. Ignored when WithReporter is also given.
func WithRegistry(registry *Registry) Option {
	return func(o *spanOptions) {
		o.registry = registry
	}
}

// Span is a timed unit of work.
// A span is owned by the goroutine that created it; Stop is the only method
// guarded against concurrent calls.
//
//nolint:govet // Field order follows lifecycle rather than alignment
type Span struct {
	startedAt  time.Time
	stoppedAt  time.Time
	clock      clockz.Clock
	reporter   Reporter
	parent     *Span
	attributes map[string]string
	name       string
	id         uint64
	mu         sync.Mutex
	stopped    bool
}

// New creates and starts a span. Without WithParent it is a root span;
// without WithReporter it reports to the registry's current reporter.
func New(name string, opts ...Option) *Span {
	var o spanOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.clock == nil && o.parent != nil {
		o.clock = o.parent.clock
	}
	if o.clock == nil {
		o.clock = clockz.RealClock
	}

	if o.reporter == nil {
		registry := o.registry
		if registry == nil {
			registry = shared
		}
		o.reporter = registry.Reporter()
	}

	return &Span{
		id:         nextID(),
		name:       name,
		parent:     o.parent,
		reporter:   o.reporter,
		attributes: copyAttributes(o.attributes),
		clock:      o.clock,
		startedAt:  o.clock.Now(),
	}
}

// Start creates a child span that reports to the same reporter as s.
// s is not modified.
func (s *Span) Start(name string, attributes Attributes) *Span {
	return New(name,
		WithParent(s),
		WithReporter(s.reporter),
		WithClock(s.clock),
		WithAttributes(attributes),
	)
}

// Stop records the stop time and reports the span, returning once the
// reporter has returned. Reporter errors are returned as is.
// Only the first call reports; later calls return nil.
func (s *Span) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	stoppedAt := s.clock.Now()
	// Wall clock steps backwards must not produce negative durations.
	if stoppedAt.Before(s.startedAt) {
		stoppedAt = s.startedAt
	}
	s.stoppedAt = stoppedAt
	s.stopped = true
	s.mu.Unlock()

	report, err := s.report()
	if err != nil {
		return err
	}
	if s.reporter == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return s.reporter.Report(ctx, report)
}

// Release stops the span and joins any reporter error into *errp.
// It is meant to be deferred with a named error result:
//
//	func build(ctx context.Context) (err error) {
//		span := spanz.New("build")
//		defer span.Release(ctx, &err)
//		...
//	}
func (s *Span) Release(ctx context.Context, errp *error) {
	if err := s.Stop(ctx); err != nil && errp != nil {
		*errp = errors.Join(*errp, err)
	}
}

// Run executes fn inside a child span of s. The child is stopped on every
// exit path, panics included.
func (s *Span) Run(ctx context.Context, name string, attributes Attributes, fn func(context.Context, *Span) error) (err error) {
	child := s.Start(name, attributes)
	defer child.Release(ctx, &err)
	return fn(ContextWithSpan(ctx, child), child)
}

// Run executes fn inside a new span built from name and opts. The span is
// stopped on every exit path, panics included.
func Run(ctx context.Context, name string, fn func(context.Context, *Span) error, opts ...Option) (err error) {
	span := New(name, opts...)
	defer span.Release(ctx, &err)
	return fn(ContextWithSpan(ctx, span), span)
}

// Stack returns the path from the root span down to s.
// It is recomputed on every call.
func (s *Span) Stack() SpanStack {
	depth := 0
	for p := s; p != nil; p = p.parent {
		depth++
	}

	stack := make(SpanStack, depth)
	for p := s; p != nil; p = p.parent {
		depth--
		stack[depth] = StackEntry{ID: formatID(p.id), Name: p.name}
	}
	return stack
}

// report assembles the span's report. Fails with ErrNotStopped before Stop.
func (s *Span) report() (SpanReport, error) {
	s.mu.Lock()
	stopped, stoppedAt := s.stopped, s.stoppedAt
	s.mu.Unlock()

	if !stopped {
		return SpanReport{}, ErrNotStopped
	}

	return SpanReport{
		ID:         formatID(s.id),
		Name:       s.name,
		Stack:      s.Stack(),
		Attributes: copyAttributes(s.attributes),
		StartedAt:  s.startedAt.UnixMilli(),
		StoppedAt:  stoppedAt.UnixMilli(),
	}, nil
}

// ID returns the span's process-unique identifier.
func (s *Span) ID() uint64 {
	return s.id
}

// Name returns the span's name.
func (s *Span) Name() string {
	return s.name
}

// Parent returns the span that created s, or nil for a root span.
func (s *Span) Parent() *Span {
	return s.parent
}

// StartedAt returns the time the span was created.
func (s *Span) StartedAt() time.Time {
	return s.startedAt
}

// Stopped reports whether Stop has been called.
func (s *Span) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func copyAttributes(attributes map[string]string) map[string]string {
	if len(attributes) == 0 {
		return nil
	}
	c := make(map[string]string, len(attributes))
	for k, v := range attributes {
		c[k] = v
	}
	return c
}
