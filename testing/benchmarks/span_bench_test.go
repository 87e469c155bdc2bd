package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zoobzio/spanz"
)

var discard = spanz.ReporterFunc(func(context.Context, spanz.SpanReport) error { return nil })

// BenchmarkSpanLifecycle measures raw start/stop throughput.
func BenchmarkSpanLifecycle(b *testing.B) {
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	start := time.Now()

	for i := 0; i < b.N; i++ {
		_ = spanz.New("op", spanz.WithReporter(discard)).Stop(ctx)
	}

	b.ReportMetric(float64(b.N)/time.Since(start).Seconds(), "spans/sec")
}

// BenchmarkSpanLifecycleParallel measures throughput with spans created from
// many goroutines at once.
func BenchmarkSpanLifecycleParallel(b *testing.B) {
	ctx := context.Background()
	root := spanz.New("root", spanz.WithReporter(discard))

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = root.Start("child", nil).Stop(ctx)
		}
	})
}

// BenchmarkStackDepth shows the O(depth) cost of rebuilding the stack on stop.
func BenchmarkStackDepth(b *testing.B) {
	ctx := context.Background()

	for _, depth := range []int{1, 8, 64} {
		b.Run(fmt.Sprintf("depth-%d", depth), func(b *testing.B) {
			span := spanz.New("level-0", spanz.WithReporter(discard))
			for i := 1; i < depth; i++ {
				span = span.Start(fmt.Sprintf("level-%d", i), nil)
			}
			parent := span

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = parent.Start("leaf", nil).Stop(ctx)
			}
		})
	}
}

// BenchmarkCollector measures buffering cost including the report copy.
func BenchmarkCollector(b *testing.B) {
	ctx := context.Background()
	collector := spanz.NewCollector(0)
	root := spanz.New("root", spanz.WithReporter(collector))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = root.Start("child", spanz.Attributes{"i": "x"}).Stop(ctx)
		if i%1024 == 0 {
			collector.Export()
		}
	}
}
