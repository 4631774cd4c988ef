package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReferencesCallersAndCallees(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetReferences(ReferenceRequest{NameOrQualified: "helper", Direction: DirBoth, Depth: 3})
	require.NoError(t, err)
	require.Equal(t, "helper", resp.Target.Name)
	require.Len(t, resp.Callers, 1)
	require.Equal(t, "main", resp.Callers[0].Symbol.Name)
	require.Len(t, resp.Callees, 1)
	require.Equal(t, "util", resp.Callees[0].Symbol.Name)
}

func TestGetReferencesImplementors(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetReferences(ReferenceRequest{NameOrQualified: "Shape", Direction: DirImplementors, Depth: 2})
	require.NoError(t, err)
	require.Len(t, resp.Implementors, 1)
	require.Equal(t, "Circle", resp.Implementors[0].Symbol.Name)
}

func TestGetReferencesMissingTargetIsEmptyNotError(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetReferences(ReferenceRequest{NameOrQualified: "does_not_exist", Direction: DirBoth, Depth: 2})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.Target.ID)
}

func TestGetReferencesIncludesSource(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.GetReferences(ReferenceRequest{NameOrQualified: "main", Direction: DirCallees, Depth: 1, IncludeSource: true})
	require.NoError(t, err)
	require.Len(t, resp.Callees, 1)
	require.Contains(t, resp.Callees[0].Source, "def helper")
}
