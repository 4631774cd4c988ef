package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBlastRadiusDirectAndTransitive(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetBlastRadius(BlastRequest{NameOrQualified: "util", ChangeKind: ChangeSignature, MaxDepth: 3})
	require.NoError(t, err)
	require.Equal(t, "util", resp.Target.Name)
	require.Len(t, resp.Direct, 1)
	require.Equal(t, "helper", resp.Direct[0].Symbol.Name)
	require.Len(t, resp.Transitive, 1)
	require.Equal(t, "main", resp.Transitive[0].Symbol.Name)
}

func TestGetBlastRadiusDeleteEscalatesRisk(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	behavior, err := e.GetBlastRadius(BlastRequest{NameOrQualified: "util", ChangeKind: ChangeBehavior, MaxDepth: 3})
	require.NoError(t, err)
	del, err := e.GetBlastRadius(BlastRequest{NameOrQualified: "util", ChangeKind: ChangeDelete, MaxDepth: 3})
	require.NoError(t, err)

	order := map[RiskBucket]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskCritical: 3}
	require.GreaterOrEqual(t, order[del.Risk], order[behavior.Risk])
}

func TestGetBlastRadiusMissingTargetIsEmpty(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetBlastRadius(BlastRequest{NameOrQualified: "nope", MaxDepth: 2})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.Target.ID)
}

func TestLooksLikeTestPath(t *testing.T) {
	require.True(t, looksLikeTestPath("internal/store/store_test.go"))
	require.True(t, looksLikeTestPath("a/tests/fixtures.py"))
	require.False(t, looksLikeTestPath("internal/store/store.go"))
}
