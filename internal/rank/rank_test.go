package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageRankConvergesAndSumsToOne(t *testing.T) {
	// f0 -> f1 -> f2 -> f0 (cycle) plus f3 pointing into the cycle.
	g := NewGraph([]int64{0, 1, 2, 3}, [][2]int64{
		{0, 1}, {1, 2}, {2, 0}, {3, 0},
	})
	scores := PageRank(g)
	require.Len(t, scores, 4)

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	require.InDelta(t, 1.0, sum, 1e-6)

	// Node 0 receives rank from both the cycle and node 3, so it should
	// outrank node 3 (which receives nothing).
	require.Greater(t, scores[0], scores[3])
}

func TestPageRankHandlesDanglingNodes(t *testing.T) {
	g := NewGraph([]int64{0, 1}, [][2]int64{{0, 1}})
	scores := PageRank(g)
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestPersonalizedPageRankFavorsSeeds(t *testing.T) {
	g := NewGraph([]int64{0, 1, 2}, [][2]int64{{0, 1}, {1, 2}})
	scores := PersonalizedPageRank(g, []int64{0})
	require.Greater(t, scores[0], scores[2])
}

func TestProximityBonusDecaysAsSpecified(t *testing.T) {
	require.Equal(t, 1.0, ProximityBonus(0))
	require.Equal(t, 0.7, ProximityBonus(1))
	require.Equal(t, 0.4, ProximityBonus(2))
	require.InDelta(t, 0.2, ProximityBonus(3), 1e-9)
	require.InDelta(t, 0.1, ProximityBonus(4), 1e-9)
}
