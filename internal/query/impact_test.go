package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeImpactSurfacesTypeDependents(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.ChangeImpact(ChangeImpactRequest{NameOrQualified: "Shape", ChangeKind: ChangeSignature, MaxDepth: 3})
	require.NoError(t, err)
	require.Equal(t, "Shape", resp.Target.Name)
	require.Len(t, resp.TypeDependents, 1)
	require.Equal(t, "Circle", resp.TypeDependents[0].Symbol.Name)
}

func TestChangeImpactMissingTargetIsEmpty(t *testing.T) {
	f := buildFixture(t)
	e := f.engines(t)

	resp, err := e.ChangeImpact(ChangeImpactRequest{NameOrQualified: "nope", MaxDepth: 2})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.Target.ID)
}
