package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pgtgrly/bombe-mcp/internal/scanner"
)

// TestWatchIndexesNewFile confirms Watch folds a filesystem create event
// into an incremental reindex without the caller ever calling
// IncrementalIndex directly.
func TestWatchIndexesNewFile(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	p, _ := newTestPipeline(t)
	root := t.TempDir()
	policy, err := scanner.NewIgnorePolicy(root, nil, nil, true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, root, policy, 50*time.Millisecond) }()

	// Give the watcher a moment to register root before the write lands.
	time.Sleep(100 * time.Millisecond)
	writeSourceFile(t, root, "new.go", "package main\n\nfunc Created() {}\n")

	require.Eventually(t, func() bool {
		_, err := p.Store.FileByPath("new.go")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond, "expected Watch to incrementally index the new file")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}
}
