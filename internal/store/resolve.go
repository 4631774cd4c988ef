package store

import "fmt"

// InsertResolvedEdges bulk-inserts edges produced by the pipeline's edge
// resolution stage (CALLS, IMPORTS, IMPORTS_SYMBOL, EXTENDS and IMPLEMENTS
// edges whose endpoints were only
// known after all of a run's symbols existed). This is the pipeline's own
// whole-graph mutator for the resolution stage, distinct from the
// per-file mutators the store exposes to other callers; it runs in one
// transaction and bumps the cache epoch once for the whole batch.
func (s *Store) InsertResolvedEdges(edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStoreError, err)
	}
	defer tx.Rollback()

	for _, e := range edges {
		if err := insertEdgeTx(tx, e); err != nil {
			return fmt.Errorf("%w: insert resolved edge: %v", ErrStoreError, err)
		}
	}
	if err := bumpEpochTx(tx); err != nil {
		return fmt.Errorf("%w: bump epoch: %v", ErrStoreError, err)
	}
	return tx.Commit()
}

// DeleteResolvedEdgesForFiles removes previously resolved edges (every
// relationship the resolve stage creates — not the batch-created DEFINES
// and HAS_METHOD rows) whose home file is one of fileIDs, used before
// re-resolving an incrementally changed set of files so stale ambiguous
// resolutions don't linger alongside fresh ones.
func (s *Store) DeleteResolvedEdgesForFiles(fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	placeholders, args := placeholderList(fileIDs)
	for _, rel := range []Relationship{RelCalls, RelImports, RelImportsSymbol, RelExtends, RelImplements} {
		args = append(args, string(rel))
	}
	_, err := s.db.Exec(`DELETE FROM edges WHERE file_id IN (`+placeholders+`) AND relationship IN (?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}
