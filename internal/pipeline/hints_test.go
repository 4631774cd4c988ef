package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/extract"
)

func TestLoadSemanticHintsParsesFileLineKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hints.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"a.py:4": ["Dog"],
		"pkg/b.py:10": ["Cat", "Animal"],
		"malformed-key": ["ignored"]
	}`), 0o644))

	hints, err := LoadSemanticHints(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Dog"}, hints["a.py"][4])
	require.Equal(t, []string{"Cat", "Animal"}, hints["pkg/b.py"][10])
	require.NotContains(t, hints, "malformed-key")
}

func TestSemanticHintsFillOnlyMissingReceivers(t *testing.T) {
	hints := SemanticHints{"a.py": {4: {"Dog"}, 7: {"Cat"}}}
	sites := []extract.CallSite{
		{Callee: "bark", Line: 4},
		{Callee: "meow", Line: 7, ReceiverHint: "Tiger"},
		{Callee: "free", Line: 9},
	}
	hints.apply("a.py", sites)
	require.Equal(t, "Dog", sites[0].ReceiverHint)
	require.Equal(t, "Tiger", sites[1].ReceiverHint)
	require.Empty(t, sites[2].ReceiverHint)
}
