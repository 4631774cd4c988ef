package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTraceDataFlowBothDirections(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.TraceDataFlow(DataFlowRequest{NameOrQualified: "helper", MaxDepth: 3})
	require.NoError(t, err)
	require.Equal(t, "helper", resp.Target.Name)

	var sawForward, sawReverse bool
	for _, n := range resp.Nodes {
		switch n.Symbol.Name {
		case "util":
			sawForward = sawForward || n.Direction == "forward"
		case "main":
			sawReverse = sawReverse || n.Direction == "reverse"
		}
	}
	require.True(t, sawForward, "util should be reachable forward from helper")
	require.True(t, sawReverse, "main should be reachable in reverse from helper")
}

func TestTraceDataFlowMissingTargetIsEmpty(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.TraceDataFlow(DataFlowRequest{NameOrQualified: "nope", MaxDepth: 2})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.Target.ID)
	require.Empty(t, resp.Nodes)
}
