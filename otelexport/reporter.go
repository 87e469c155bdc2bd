// Package otelexport forwards span reports to OpenTelemetry span exporters.
//
// Each SpanReport becomes one OpenTelemetry span. The numeric span ID is
// encoded big-endian into the 8-byte span ID, the trace ID is derived from
// the root of the report's stack, and the previous stack entry becomes the
// parent span context. Attributes are exported as string attributes.
package otelexport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoobzio/spanz"
)

// ScopeName is the default instrumentation scope of exported spans.
const ScopeName = "github.com/zoobzio/spanz"

// ErrInvalidID is returned when a report carries an ID that is not a
// positive decimal integer.
var ErrInvalidID = errors.New("invalid span id")

// Reporter converts span reports to OpenTelemetry spans and exports them.
// Safe for concurrent use when the underlying exporter is.
type Reporter struct {
	exporter sdktrace.SpanExporter
	resource *resource.Resource
	scope    instrumentation.Scope
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithResource sets the resource attached to every exported span.
func WithResource(res *resource.Resource) Option {
	return func(r *Reporter) {
		r.resource = res
	}
}

// WithScope sets the instrumentation scope of exported spans.
func WithScope(scope instrumentation.Scope) Option {
	return func(r *Reporter) {
		r.scope = scope
	}
}

// New creates a reporter exporting through exporter.
func New(exporter sdktrace.SpanExporter, opts ...Option) *Reporter {
	r := &Reporter{
		exporter: exporter,
		resource: resource.Empty(),
		scope:    instrumentation.Scope{Name: ScopeName},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config configures the OTLP/HTTP exporter built by NewOTLP.
type Config struct {
	// Endpoint is host[:port] of the collector. Empty means the exporter default.
	Endpoint string `yaml:"endpoint"`
	// URLPath overrides the default /v1/traces path.
	URLPath string `yaml:"url_path"`
	// Insecure disables TLS.
	Insecure bool `yaml:"insecure"`
	// ServiceName is set as the service.name resource attribute.
	ServiceName string `yaml:"service_name"`
}

// NewOTLP creates a reporter backed by an OTLP/HTTP trace exporter.
func NewOTLP(ctx context.Context, cfg Config) (*Reporter, error) {
	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.URLPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(cfg.URLPath))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("cannot create otlp exporter: %w", err)
	}

	var attrs []attribute.KeyValue
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("service.name", cfg.ServiceName))
	}

	return New(exporter, WithResource(resource.NewSchemaless(attrs...))), nil
}

// Report converts report and hands it to the exporter.
func (r *Reporter) Report(ctx context.Context, report spanz.SpanReport) error {
	stub, err := r.convert(report)
	if err != nil {
		return err
	}
	return r.exporter.ExportSpans(ctx, []sdktrace.ReadOnlySpan{stub.Snapshot()})
}

// Shutdown flushes and stops the underlying exporter.
func (r *Reporter) Shutdown(ctx context.Context) error {
	return r.exporter.Shutdown(ctx)
}

func (r *Reporter) convert(report spanz.SpanReport) (tracetest.SpanStub, error) {
	sid, err := spanID(report.ID)
	if err != nil {
		return tracetest.SpanStub{}, err
	}
	tid, err := traceID(report.Root().ID)
	if err != nil {
		return tracetest.SpanStub{}, err
	}

	stub := tracetest.SpanStub{
		Name: report.Name,
		SpanContext: trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    tid,
			SpanID:     sid,
			TraceFlags: trace.FlagsSampled,
		}),
		SpanKind:             trace.SpanKindInternal,
		StartTime:            time.UnixMilli(report.StartedAt),
		EndTime:              time.UnixMilli(report.StoppedAt),
		Resource:             r.resource,
		InstrumentationScope: r.scope,
	}

	if n := len(report.Stack); n > 1 {
		pid, err := spanID(report.Stack[n-2].ID)
		if err != nil {
			return tracetest.SpanStub{}, err
		}
		stub.Parent = trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    tid,
			SpanID:     pid,
			TraceFlags: trace.FlagsSampled,
		})
	}

	if len(report.Attributes) > 0 {
		stub.Attributes = make([]attribute.KeyValue, 0, len(report.Attributes))
		for k, v := range report.Attributes {
			stub.Attributes = append(stub.Attributes, attribute.String(k, v))
		}
	}

	return stub, nil
}

func parseID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return n, nil
}

func spanID(id string) (trace.SpanID, error) {
	var sid trace.SpanID
	n, err := parseID(id)
	if err != nil {
		return sid, err
	}
	binary.BigEndian.PutUint64(sid[:], n)
	return sid, nil
}

// traceID places the root span's ID in the low half of the trace ID.
func traceID(rootID string) (trace.TraceID, error) {
	var tid trace.TraceID
	n, err := parseID(rootID)
	if err != nil {
		return tid, err
	}
	binary.BigEndian.PutUint64(tid[8:], n)
	return tid, nil
}
