package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pgtgrly/bombe-mcp/internal/scanner"
)

// Watch runs an fsnotify loop over root and folds filesystem events into
// incremental reindex runs, so a caller that wants live reindexing never
// has to poll. Bursts of events (an editor's save-via-rename, a bulk git
// checkout) are coalesced by debounce into one IncrementalIndex call per
// quiet period rather than one per event. Watch blocks until ctx is
// cancelled, the watcher's channels close, or the watcher reports an
// error. In the first two cases it flushes any pending changeset before
// returning; a watcher error is returned without flushing.
func (p *Pipeline) Watch(ctx context.Context, root string, policy *scanner.IgnorePolicy, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root, policy); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	pending := make(map[string]Change)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	stopped := true

	flush := func(indexCtx context.Context) error {
		if len(pending) == 0 {
			return nil
		}
		changes := make([]Change, 0, len(pending))
		for _, c := range pending {
			changes = append(changes, c)
		}
		pending = make(map[string]Change)
		_, err := p.IncrementalIndex(indexCtx, root, changes)
		return err
	}

	for {
		select {
		case <-ctx.Done():
			// ctx is already cancelled; run the closing flush against a
			// fresh context so a pending changeset still gets indexed
			// instead of failing on an already-done context.
			return flush(context.Background())

		case ev, ok := <-watcher.Events:
			if !ok {
				return flush(ctx)
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || policy.Excluded(rel) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					addRecursive(watcher, ev.Name, policy)
					continue
				}
				pending[rel] = Change{Kind: ChangeAdded, Path: rel}
			case ev.Op&fsnotify.Write != 0:
				pending[rel] = Change{Kind: ChangeModified, Path: rel}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pending[rel] = Change{Kind: ChangeDeleted, Path: rel}
			default:
				continue
			}

			if !stopped && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			stopped = false

		case <-timer.C:
			stopped = true
			if err := flush(ctx); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return flush(ctx)
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

// addRecursive registers every non-excluded directory under dir with the
// watcher; fsnotify only watches the directories it's told about, not
// their future children, so newly created directories are added as
// fsnotify.Create events for them arrive.
func addRecursive(w *fsnotify.Watcher, dir string, policy *scanner.IgnorePolicy) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr == nil && rel != "." && policy.Excluded(rel) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
