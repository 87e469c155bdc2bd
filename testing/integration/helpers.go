package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/spanz"
)

// MockReporter wraps a collector with assertion helpers.
type MockReporter struct {
	*spanz.Collector
	t *testing.T
}

// NewMockReporter creates an unbounded reporter for testing.
func NewMockReporter(t *testing.T) *MockReporter {
	return &MockReporter{
		Collector: spanz.NewCollector(0),
		t:         t,
	}
}

// AssertCount verifies the exact number of buffered reports.
func (m *MockReporter) AssertCount(expected int) {
	m.t.Helper()
	assert.Equal(m.t, expected, m.Count(), "report count")
}

// Named returns every buffered report with the given name.
func (m *MockReporter) Named(name string) []spanz.SpanReport {
	var out []spanz.SpanReport
	for _, r := range m.Reports() {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// MustFind returns the single buffered report with the given name.
func (m *MockReporter) MustFind(name string) spanz.SpanReport {
	m.t.Helper()
	reports := m.Named(name)
	require.Len(m.t, reports, 1, "reports named %q", name)
	return reports[0]
}

// AssertParentChild verifies that child's stack ends with [parent, child].
func AssertParentChild(t *testing.T, parent, child spanz.SpanReport) {
	t.Helper()
	require.GreaterOrEqual(t, len(child.Stack), 2, "child stack too short")

	n := len(child.Stack)
	assert.Equal(t, parent.ID, child.Stack[n-2].ID, "parent entry")
	assert.Equal(t, child.ID, child.Stack[n-1].ID, "self entry")
	assert.Equal(t, parent.Stack, child.Stack[:n-1], "child stack must extend parent stack")
}
