package tokenest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedTokenizer struct{ tokens int }

func (f fixedTokenizer) CountTokens(string) int { return f.tokens }

func TestCharsOverPointFiveRoundsUp(t *testing.T) {
	require.Equal(t, 0, CharsOverPointFive(""))
	require.Equal(t, 1, CharsOverPointFive("ab"))
	require.Equal(t, 2, CharsOverPointFive("1234567"))
}

func TestEstimatorPrefersConfiguredTokenizer(t *testing.T) {
	e := NewEstimator(fixedTokenizer{tokens: 42})
	require.Equal(t, 42, e.Count("anything"))
}

func TestEstimatorFallsBackWithoutTokenizer(t *testing.T) {
	e := NewEstimator(nil)
	require.Equal(t, CharsOverPointFive("hello world"), e.Count("hello world"))
}
