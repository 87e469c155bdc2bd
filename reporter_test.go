package spanz

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryLazyFallback(t *testing.T) {
	var built atomic.Int32
	fallback := NewCollector(0)
	registry := NewRegistry(func() Reporter {
		built.Add(1)
		return fallback
	})

	if built.Load() != 0 {
		t.Fatal("Expected fallback not to be built before first use")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if registry.Reporter() != Reporter(fallback) {
				t.Error("Expected fallback reporter")
			}
		}()
	}
	wg.Wait()

	if n := built.Load(); n != 1 {
		t.Errorf("Expected fallback built once, got %d", n)
	}
}

func TestRegistrySetOverridesFallback(t *testing.T) {
	fallback := NewCollector(0)
	custom := NewCollector(0)
	registry := NewRegistry(func() Reporter { return fallback })

	registry.Set(custom)
	span := New("op", WithRegistry(registry))
	if err := span.Stop(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if custom.Count() != 1 {
		t.Errorf("Expected custom reporter to receive 1 report, got %d", custom.Count())
	}
	if fallback.Count() != 0 {
		t.Errorf("Expected fallback to receive nothing, got %d", fallback.Count())
	}

	registry.Set(nil)
	if registry.Reporter() != Reporter(fallback) {
		t.Error("Expected Set(nil) to restore the fallback")
	}
}

func TestRegistryReportPassThrough(t *testing.T) {
	first := NewCollector(0)
	second := NewCollector(0)
	registry := NewRegistry(nil)
	ctx := context.Background()

	if err := registry.Report(ctx, SpanReport{ID: "1", Name: "none"}); err != nil {
		t.Fatalf("Expected no error without a reporter, got %v", err)
	}

	registry.Set(first)
	_ = registry.Report(ctx, SpanReport{ID: "1", Name: "a"})
	registry.Set(second)
	_ = registry.Report(ctx, SpanReport{ID: "2", Name: "b"})

	if first.Count() != 1 || second.Count() != 1 {
		t.Errorf("Expected one report each, got %d and %d", first.Count(), second.Count())
	}
}

func TestRegistryResolvedAtConstruction(t *testing.T) {
	before := NewCollector(0)
	after := NewCollector(0)
	registry := NewRegistry(nil)

	registry.Set(before)
	span := New("op", WithRegistry(registry))
	registry.Set(after)

	if err := span.Stop(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if before.Count() != 1 || after.Count() != 0 {
		t.Errorf("Expected span to keep the reporter it was built with, got before=%d after=%d",
			before.Count(), after.Count())
	}
}

func TestDefaultReporter(t *testing.T) {
	t.Cleanup(func() { SetDefaultReporter(nil) })

	collector := NewCollector(0)
	SetDefaultReporter(collector)

	if DefaultReporter() != Reporter(collector) {
		t.Fatal("Expected DefaultReporter to return the configured reporter")
	}
	if DefaultRegistry().Reporter() != Reporter(collector) {
		t.Fatal("Expected DefaultRegistry to hold the configured reporter")
	}

	ctx := context.Background()
	root := New("root")
	child := root.Start("child", nil)
	if err := child.Stop(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := root.Stop(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := Report(ctx, SpanReport{ID: "0", Name: "direct"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	reports := collector.Export()
	if len(reports) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reports))
	}
	if reports[2].Name != "direct" {
		t.Errorf("Expected pass-through report last, got %s", reports[2].Name)
	}
}

func TestDefaultReporterIsConsole(t *testing.T) {
	SetDefaultReporter(nil)
	t.Cleanup(func() { SetDefaultReporter(nil) })

	if _, ok := DefaultReporter().(*ConsoleReporter); !ok {
		t.Errorf("Expected *ConsoleReporter, got %T", DefaultReporter())
	}
}

func TestReporterFunc(t *testing.T) {
	var got SpanReport
	reporter := ReporterFunc(func(_ context.Context, r SpanReport) error {
		got = r
		return nil
	})

	span := New("fn", WithReporter(reporter))
	if err := span.Stop(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Name != "fn" {
		t.Errorf("Expected report for fn, got %+v", got)
	}
}
