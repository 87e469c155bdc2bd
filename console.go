package spanz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ConsoleReporter writes one line per report to a zap logger.
// It is the baseline default reporter.
type ConsoleReporter struct {
	logger *zap.Logger
}

// NewConsoleReporter creates a console reporter. A nil logger means one built
// from the zero LoggerConfig.
func NewConsoleReporter(logger *zap.Logger) *ConsoleReporter {
	if logger == nil {
		var err error
		if logger, err = NewLogger(LoggerConfig{}); err != nil {
			logger = zap.NewNop()
		}
	}
	return &ConsoleReporter{logger: logger}
}

// Report logs the formatted report at info level.
func (c *ConsoleReporter) Report(_ context.Context, report SpanReport) error {
	fields := make([]zap.Field, 0, 3+len(report.Attributes))
	fields = append(fields,
		zap.String("span.id", report.ID),
		zap.String("span.name", report.Name),
		zap.Int64("duration_ms", report.StoppedAt-report.StartedAt),
	)

	keys := make([]string, 0, len(report.Attributes))
	for k := range report.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String("attr."+k, report.Attributes[k]))
	}

	c.logger.Info(FormatReport(report), fields...)
	return nil
}

// FormatReport renders a report as "root(1)-child(2) - child took 5ms to complete.".
func FormatReport(report SpanReport) string {
	var b strings.Builder
	for i, e := range report.Stack {
		if i > 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "%s(%s)", e.Name, e.ID)
	}
	fmt.Fprintf(&b, " - %s took %dms to complete.", report.Name, report.StoppedAt-report.StartedAt)
	return b.String()
}
