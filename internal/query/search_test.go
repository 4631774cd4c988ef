package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

func TestSearchSymbolsFindsExactName(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.SearchSymbols(SearchRequest{Query: "helper", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results.Items)
	require.Equal(t, "helper", resp.Results.Items[0].Symbol.Name)
}

func TestSearchSymbolsRespectsKindFilter(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.SearchSymbols(SearchRequest{Query: "a", Limit: 10, Kind: store.KindInterface})
	require.NoError(t, err)
	for _, r := range resp.Results.Items {
		require.Equal(t, store.KindInterface, r.Symbol.Kind)
	}
}

func TestSearchSymbolsZeroLimitReturnsEmpty(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.SearchSymbols(SearchRequest{Query: "helper", Limit: 0})
	require.NoError(t, err)
	require.Empty(t, resp.Results.Items)
}

func TestSearchSymbolsClampsOversizedLimit(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.SearchSymbols(SearchRequest{Query: "util", Limit: 1_000_000, WithTrace: true})
	require.NoError(t, err)
	require.NotNil(t, resp.Trace)
	require.Contains(t, resp.Trace.ClampedKeys, "limit")
}

func TestSearchSymbolsExplanationsOptIn(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	plain, err := e.SearchSymbols(SearchRequest{Query: "helper", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, plain.Results.Items)
	require.Empty(t, plain.Results.Items[0].Explanation)

	explained, err := e.SearchSymbols(SearchRequest{Query: "helper", Limit: 5, WithExplanations: true})
	require.NoError(t, err)
	require.NotEmpty(t, explained.Results.Items)
	require.Contains(t, explained.Results.Items[0].Explanation, "lexical")
}

func TestSearchSymbolsPagination(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	all, err := e.SearchSymbols(SearchRequest{Query: "a", Limit: 10})
	require.NoError(t, err)
	require.Greater(t, len(all.Results.Items), 1)

	paged, err := e.SearchSymbols(SearchRequest{Query: "a", Limit: 10, Page: Pagination{Offset: 1}})
	require.NoError(t, err)
	require.Equal(t, all.Results.TotalCount, paged.Results.TotalCount)
	if len(all.Results.Items) > 1 {
		require.Equal(t, all.Results.Items[1].Symbol.ID, paged.Results.Items[0].Symbol.ID)
	}
}

func TestSearchSymbolsUnusedPseudoKind(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	// main and Circle have no inbound edges; helper, util, and Shape do.
	resp, err := e.SearchSymbols(SearchRequest{Kind: KindUnused, Limit: 10})
	require.NoError(t, err)
	names := map[string]bool{}
	for _, r := range resp.Results.Items {
		require.Zero(t, r.InboundCount)
		names[r.Symbol.Name] = true
	}
	require.True(t, names["main"])
	require.True(t, names["Circle"])
	require.False(t, names["helper"])
}

func TestSearchSymbolsHotspotSort(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.SearchSymbols(SearchRequest{Sort: Sort{Field: SortHotspot}, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results.Items)
	for i := 1; i < len(resp.Results.Items); i++ {
		require.GreaterOrEqual(t, resp.Results.Items[i-1].InboundCount, resp.Results.Items[i].InboundCount)
	}
	// Every hotspot has at least one dependent.
	for _, r := range resp.Results.Items {
		require.Positive(t, r.InboundCount)
	}
}
