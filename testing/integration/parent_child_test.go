package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/spanz"
)

// TestDeepNestingChain verifies a 100-level deep span hierarchy.
func TestDeepNestingChain(t *testing.T) {
	reporter := NewMockReporter(t)
	ctx := context.Background()

	const depth = 100
	spans := make([]*spanz.Span, 0, depth)
	spans = append(spans, spanz.New("level-000", spanz.WithReporter(reporter)))
	for i := 1; i < depth; i++ {
		spans = append(spans, spans[i-1].Start(fmt.Sprintf("level-%03d", i), spanz.Attributes{
			"depth": fmt.Sprint(i),
		}))
	}

	// Stop deepest first.
	for i := len(spans) - 1; i >= 0; i-- {
		require.NoError(t, spans[i].Stop(ctx))
	}

	reports := reporter.Export()
	require.Len(t, reports, depth)

	deepest := reports[0]
	require.Len(t, deepest.Stack, depth)
	for i, e := range deepest.Stack {
		assert.Equal(t, fmt.Sprintf("level-%03d", i), e.Name)
		assert.Equal(t, fmt.Sprint(spans[i].ID()), e.ID)
	}

	for i := 0; i < depth-1; i++ {
		AssertParentChild(t, reports[i+1], reports[i])
	}
}

// TestParentStoppedBeforeChild verifies a child may outlive its parent's stop.
func TestParentStoppedBeforeChild(t *testing.T) {
	reporter := NewMockReporter(t)
	ctx := context.Background()

	root := spanz.New("root", spanz.WithReporter(reporter))
	child := root.Start("child", nil)

	require.NoError(t, root.Stop(ctx))
	require.NoError(t, child.Stop(ctx))

	reporter.AssertCount(2)
	AssertParentChild(t, reporter.MustFind("root"), reporter.MustFind("child"))
}

// TestScopedTree mirrors nested scopes released in reverse order.
func TestScopedTree(t *testing.T) {
	reporter := NewMockReporter(t)
	ctx := context.Background()

	err := spanz.Run(ctx, "build", func(ctx context.Context, build *spanz.Span) error {
		if err := build.Run(ctx, "detect", nil, func(context.Context, *spanz.Span) error {
			return nil
		}); err != nil {
			return err
		}
		return build.Run(ctx, "generate", nil, func(ctx context.Context, generate *spanz.Span) error {
			_, params := spanz.StartSpan(ctx, "get-static-params", nil)
			return params.Stop(ctx)
		})
	}, spanz.WithReporter(reporter))
	require.NoError(t, err)

	names := make([]string, 0, 4)
	for _, r := range reporter.Reports() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"detect", "get-static-params", "generate", "build"}, names)

	AssertParentChild(t, reporter.MustFind("build"), reporter.MustFind("detect"))
	AssertParentChild(t, reporter.MustFind("generate"), reporter.MustFind("get-static-params"))
}
