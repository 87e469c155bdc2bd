package spanz

import (
	"context"
	"sync"
	"sync/atomic"
)

// Collector buffers span reports in memory for batch export.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	reports      []SpanReport
	capacity     int
	droppedCount atomic.Int64
	mu           sync.Mutex
}

// NewCollector creates a collector holding at most capacity reports.
// A capacity of zero or less means unbounded.
func NewCollector(capacity int) *Collector {
	initial := 8 // Start with small capacity.
	if capacity > 0 && capacity < initial {
		initial = capacity
	}
	return &Collector{
		reports:  make([]SpanReport, 0, initial),
		capacity: capacity,
	}
}

// Report buffers a deep copy of report. It never blocks; when the buffer is
// full the report is dropped and the drop counter is incremented.
func (c *Collector) Report(_ context.Context, report SpanReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity > 0 && len(c.reports) >= c.capacity {
		c.droppedCount.Add(1)
		return nil
	}
	c.reports = append(c.reports, report.clone())
	return nil
}

// Export returns all buffered reports and clears the buffer.
// The returned slice is safe to modify without affecting the collector.
func (c *Collector) Export() []SpanReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.reports) == 0 {
		return nil
	}

	result := c.reports
	// Only shrink if the buffer grew very large.
	if cap(result) > 256 {
		c.reports = make([]SpanReport, 0, 32)
	} else {
		c.reports = make([]SpanReport, 0, cap(result))
	}
	return result
}

// Reports returns a copy of the buffered reports without clearing them.
func (c *Collector) Reports() []SpanReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]SpanReport, len(c.reports))
	for i := range c.reports {
		result[i] = c.reports[i].clone()
	}
	return result
}

// Count returns the current number of buffered reports.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}

// DroppedCount returns the total number of reports dropped because the
// buffer was full.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// Reset clears all buffered reports and resets the drop counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports = c.reports[:0]
	c.droppedCount.Store(0)
}
