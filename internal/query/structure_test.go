package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetStructureGroupsBySubPath(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetStructure(StructureRequest{TokenBudget: 32000, IncludeSignatures: true})
	require.NoError(t, err)
	require.Len(t, resp.Files, 4)

	resp, err = e.GetStructure(StructureRequest{SubPath: "shapes", TokenBudget: 32000})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	require.Equal(t, "shapes.py", resp.Files[0].Path)
}

func TestGetStructureStopsAtTokenBudget(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetStructure(StructureRequest{TokenBudget: 256})
	require.NoError(t, err)
	require.LessOrEqual(t, resp.TokensUsed, 256)
}

func TestGetStructureTopPerFileCap(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetStructure(StructureRequest{SubPath: "shapes", TokenBudget: 32000, TopPerFile: 1})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	require.Len(t, resp.Files[0].Symbols, 1)
}
