package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReplaceFileGraph is the single whole-file mutator the pipeline calls per
// file during the deterministic merge stage. It atomically: upserts the
// file row, deletes the file's previous symbols/parameters/edges/external
// deps (explicit DELETEs in deleteFileGraphTx), inserts the batch's records with fake
// ids remapped to real ones, and bumps the cache epoch. Symbols and edges
// are never mutated piecewise outside of this path, which is what keeps
// re-indexing idempotent under concurrent readers.
func (s *Store) ReplaceFileGraph(f File, batch *Batch) (fileID int64, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrStoreError, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	fileID, err = upsertFileTx(tx, f)
	if err != nil {
		return 0, fmt.Errorf("%w: upsert file: %v", ErrStoreError, err)
	}

	// Reverse edges from other files into this file's old symbol set are
	// cleaned with the symbols they point at; the pipeline's resolve stage
	// re-creates the ones that still hold against the new symbols.
	if err = deleteReverseEdgesIntoFileTx(tx, fileID); err != nil {
		return 0, fmt.Errorf("%w: clear reverse edges: %v", ErrStoreError, err)
	}
	if err = deleteFileGraphTx(tx, fileID); err != nil {
		return 0, fmt.Errorf("%w: clear previous graph: %v", ErrStoreError, err)
	}

	fakeToReal := make(map[int64]int64, len(batch.Symbols))
	for _, sym := range batch.Symbols {
		fake := sym.ID
		sym.FileID = fileID
		if sym.ParentSymbolID != nil {
			if real, ok := fakeToReal[*sym.ParentSymbolID]; ok {
				sym.ParentSymbolID = &real
			}
		}
		realID, ierr := insertSymbolTx(tx, sym)
		if ierr != nil {
			return 0, fmt.Errorf("%w: insert symbol %s: %v", ErrStoreError, sym.Name, ierr)
		}
		fakeToReal[fake] = realID
	}

	for _, p := range batch.Parameters {
		if real, ok := fakeToReal[p.SymbolID]; ok {
			p.SymbolID = real
		}
		if err = insertParameterTx(tx, p); err != nil {
			return 0, fmt.Errorf("%w: insert parameter: %v", ErrStoreError, err)
		}
	}

	for _, pe := range batch.Edges {
		e := Edge{
			SourceID:     resolveEndpoint(pe.SourceID, pe.SourceType, fileID, fakeToReal),
			SourceType:   pe.SourceType,
			TargetID:     resolveEndpoint(pe.TargetID, pe.TargetType, fileID, fakeToReal),
			TargetType:   pe.TargetType,
			Relationship: pe.Relationship,
			FileID:       fileID,
			Line:         pe.Line,
			Confidence:   pe.Confidence,
		}
		if err = insertEdgeTx(tx, e); err != nil {
			return 0, fmt.Errorf("%w: insert edge: %v", ErrStoreError, err)
		}
	}

	for _, dep := range batch.External {
		dep.FileID = fileID
		if err = insertExternalTx(tx, dep); err != nil {
			return 0, fmt.Errorf("%w: insert external dep: %v", ErrStoreError, err)
		}
	}

	if err = bumpEpochTx(tx); err != nil {
		return 0, fmt.Errorf("%w: bump epoch: %v", ErrStoreError, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrStoreError, err)
	}
	return fileID, nil
}

// resolveEndpoint maps a pending edge endpoint onto a committed id: fake
// (negative) symbol ids remap through the batch's insert results, and the
// zero file endpoint resolves to the batch's own file.
func resolveEndpoint(id int64, typ EndpointType, fileID int64, fakeToReal map[int64]int64) int64 {
	if typ == EndpointFile && id == 0 {
		return fileID
	}
	if id < 0 {
		if real, ok := fakeToReal[id]; ok {
			return real
		}
	}
	return id
}

// DeleteFileGraph removes a file and every symbol/parameter/edge/external
// dependency that depends on it, transactionally, and bumps the cache
// epoch. deleteFileGraphTx deletes the symbols/parameters/edges/external_deps
// scoped to the file before the file row itself goes; edges from OTHER
// files pointing at this file's symbols are removed explicitly first since
// they are not scoped to it.
func (s *Store) DeleteFileGraph(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStoreError, err)
	}
	var rollback = true
	defer func() {
		if rollback {
			tx.Rollback()
		}
	}()

	var fileID int64
	err = tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&fileID)
	if err == sql.ErrNoRows {
		rollback = false
		tx.Rollback()
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: lookup file: %v", ErrStoreError, err)
	}

	if err = deleteReverseEdgesIntoFileTx(tx, fileID); err != nil {
		return fmt.Errorf("%w: clear reverse edges: %v", ErrStoreError, err)
	}
	if err = deleteFileGraphTx(tx, fileID); err != nil {
		return fmt.Errorf("%w: delete file graph: %v", ErrStoreError, err)
	}
	if _, err = tx.Exec(`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return fmt.Errorf("%w: delete file row: %v", ErrStoreError, err)
	}
	if err = bumpEpochTx(tx); err != nil {
		return fmt.Errorf("%w: bump epoch: %v", ErrStoreError, err)
	}

	rollback = false
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStoreError, err)
	}
	return nil
}

// RenameFile migrates a file's row (and hence all FK-scoped symbol rows) to
// a new path. Qualified names that encode the path are left for the
// pipeline's re-extraction pass to recompute; this call only updates the
// path itself, atomically, bumping the cache epoch.
func (s *Store) RenameFile(oldPath, newPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStoreError, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE files SET path = ? WHERE path = ?`, newPath, oldPath)
	if err != nil {
		return fmt.Errorf("%w: rename: %v", ErrStoreError, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: file %s", ErrNotFound, oldPath)
	}
	if err = bumpEpochTx(tx); err != nil {
		return fmt.Errorf("%w: bump epoch: %v", ErrStoreError, err)
	}
	return tx.Commit()
}

// ReplaceExternalDeps atomically replaces a file's external dependency
// records, independent of its symbol/edge graph (called by the pipeline's
// merge stage for each file that has imports).
func (s *Store) ReplaceExternalDeps(path string, deps []ExternalDependency) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStoreError, err)
	}
	defer tx.Rollback()

	var fileID int64
	if err = tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&fileID); err != nil {
		return fmt.Errorf("%w: lookup file %s: %v", ErrStoreError, path, err)
	}
	if _, err = tx.Exec(`DELETE FROM external_deps WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("%w: clear external deps: %v", ErrStoreError, err)
	}
	for _, dep := range deps {
		dep.FileID = fileID
		if err = insertExternalTx(tx, dep); err != nil {
			return fmt.Errorf("%w: insert external dep: %v", ErrStoreError, err)
		}
	}
	if err = bumpEpochTx(tx); err != nil {
		return fmt.Errorf("%w: bump epoch: %v", ErrStoreError, err)
	}
	return tx.Commit()
}

func upsertFileTx(tx *sql.Tx, f File) (int64, error) {
	now := time.Now().UTC()
	_, err := tx.Exec(`
		INSERT INTO files (path, language, content_hash, size_bytes, last_indexed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			last_indexed = excluded.last_indexed
	`, f.Path, string(f.Language), f.ContentHash, f.SizeBytes, now)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM files WHERE path = ?`, f.Path).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func deleteFileGraphTx(tx *sql.Tx, fileID int64) error {
	// Edges scoped to this file (as the edge's home file) go first, then
	// the symbol_fts rows (symbol_fts isn't FK-linked, so it needs its own
	// delete while the symbol ids are still known), then parameters (FK to
	// symbols), then symbols, then external deps.
	if _, err := tx.Exec(`DELETE FROM edges WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM symbol_fts WHERE rowid IN (SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM parameters WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM external_deps WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	return nil
}

func deleteReverseEdgesIntoFileTx(tx *sql.Tx, fileID int64) error {
	_, err := tx.Exec(`
		DELETE FROM edges WHERE
			(target_type = 'symbol' AND target_id IN (SELECT id FROM symbols WHERE file_id = ?))
			OR (target_type = 'file' AND target_id = ?)
	`, fileID, fileID)
	return err
}

func insertSymbolTx(tx *sql.Tx, sym Symbol) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO symbols (name, qualified_name, kind, file_id, start_line, end_line,
			signature, signature_hash, return_type, visibility, async, static,
			parent_symbol_id, docstring, page_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sym.Name, sym.QualifiedName, string(sym.Kind), sym.FileID, sym.StartLine, sym.EndLine,
		sym.Signature, sym.SignatureHash, sym.ReturnType, string(sym.Visibility), boolInt(sym.Async), boolInt(sym.Static),
		sym.ParentSymbolID, sym.Docstring, sym.PageRank)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertSymbolFTSTx(tx, id, sym.Name, sym.QualifiedName, sym.Docstring); err != nil {
		return 0, err
	}
	return id, nil
}

// insertSymbolFTSTx writes the Porter-stemmed name/qualified_name/docstring
// for a symbol into symbol_fts, keyed by the same rowid as its symbols row.
func insertSymbolFTSTx(tx *sql.Tx, symbolID int64, name, qualifiedName, docstring string) error {
	_, err := tx.Exec(`
		INSERT INTO symbol_fts (rowid, name, qualified_name, docstring) VALUES (?, ?, ?, ?)
	`, symbolID, stemText(name), stemText(qualifiedName), stemText(docstring))
	return err
}

func insertParameterTx(tx *sql.Tx, p Parameter) error {
	_, err := tx.Exec(`
		INSERT INTO parameters (symbol_id, position, name, type, has_default, default_val)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.SymbolID, p.Position, p.Name, p.Type, boolInt(p.HasDefault), p.Default)
	return err
}

func insertEdgeTx(tx *sql.Tx, e Edge) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO edges (source_id, source_type, target_id, target_type,
			relationship, file_id, line, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SourceID, string(e.SourceType), e.TargetID, string(e.TargetType),
		string(e.Relationship), e.FileID, e.Line, e.Confidence)
	return err
}

func insertExternalTx(tx *sql.Tx, dep ExternalDependency) error {
	_, err := tx.Exec(`
		INSERT INTO external_deps (file_id, raw_import, module_name, line)
		VALUES (?, ?, ?, ?)
	`, dep.FileID, dep.RawImport, dep.ModuleName, dep.Line)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
