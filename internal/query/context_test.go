package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetContextSeedsFromEntryPointsAndQuery(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetContext(ContextRequest{
		Query:          "helper",
		EntryPoints:    []string{"main"},
		TokenBudget:    4000,
		ExpansionDepth: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Files)

	var names []string
	for _, fg := range resp.Files {
		for _, s := range fg.Symbols {
			names = append(names, s.Symbol.Name)
		}
	}
	require.Contains(t, names, "main")
}

func TestGetContextNoSeedsReturnsEmptyNotError(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetContext(ContextRequest{TokenBudget: 1000})
	require.NoError(t, err)
	require.Empty(t, resp.Files)
}

func TestGetContextQualityMetricsBounded(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetContext(ContextRequest{
		EntryPoints:    []string{"main", "util"},
		TokenBudget:    4000,
		ExpansionDepth: 2,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, resp.Quality.SeedHitRate, 0.0)
	require.LessOrEqual(t, resp.Quality.SeedHitRate, 1.0)
	require.LessOrEqual(t, resp.TokensUsed, resp.TokenBudget)
}

func TestGetContextRelationshipsAmongIncluded(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetContext(ContextRequest{
		EntryPoints:    []string{"main"},
		TokenBudget:    8000,
		ExpansionDepth: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Relationships)
}
