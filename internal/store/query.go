package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// FileByPath returns the file row for path, or ErrNotFound.
func (s *Store) FileByPath(path string) (File, error) {
	return scanFile(s.db.QueryRow(`SELECT id, path, language, content_hash, size_bytes, last_indexed FROM files WHERE path = ?`, path))
}

// FileByID returns the file row for id, or ErrNotFound.
func (s *Store) FileByID(id int64) (File, error) {
	return scanFile(s.db.QueryRow(`SELECT id, path, language, content_hash, size_bytes, last_indexed FROM files WHERE id = ?`, id))
}

func scanFile(row *sql.Row) (File, error) {
	var f File
	var lang string
	err := row.Scan(&f.ID, &f.Path, &lang, &f.ContentHash, &f.SizeBytes, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	f.Language = Language(lang)
	return f, nil
}

// AllFiles returns every file row, used by engines that bulk-load the file
// table once rather than joining per row.
func (s *Store) AllFiles() ([]File, error) {
	rows, err := s.db.Query(`SELECT id, path, language, content_hash, size_bytes, last_indexed FROM files`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []File
	for rows.Next() {
		var f File
		var lang string
		if err := rows.Scan(&f.ID, &f.Path, &lang, &f.ContentHash, &f.SizeBytes, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		f.Language = Language(lang)
		out = append(out, f)
	}
	return out, rows.Err()
}

// SymbolByID loads a single symbol.
func (s *Store) SymbolByID(id int64) (Symbol, error) {
	return scanSymbol(s.db.QueryRow(symbolSelect+` WHERE id = ?`, id))
}

const symbolSelect = `SELECT id, name, qualified_name, kind, file_id, start_line, end_line,
	signature, signature_hash, return_type, visibility, async, static,
	parent_symbol_id, docstring, page_rank FROM symbols`

func scanSymbol(row *sql.Row) (Symbol, error) {
	var sym Symbol
	var kind, vis string
	var async, static int
	var parent sql.NullInt64
	err := row.Scan(&sym.ID, &sym.Name, &sym.QualifiedName, &kind, &sym.FileID, &sym.StartLine, &sym.EndLine,
		&sym.Signature, &sym.SignatureHash, &sym.ReturnType, &vis, &async, &static,
		&parent, &sym.Docstring, &sym.PageRank)
	if err == sql.ErrNoRows {
		return Symbol{}, ErrNotFound
	}
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	sym.Kind = SymbolKind(kind)
	sym.Visibility = Visibility(vis)
	sym.Async = async != 0
	sym.Static = static != 0
	if parent.Valid {
		sym.ParentSymbolID = &parent.Int64
	}
	return sym, nil
}

// SymbolsByIDs bulk-loads symbols, preserving no particular order; callers
// reorder as needed. Used by BFS-style engines to avoid N+1 queries.
func (s *Store) SymbolsByIDs(ids []int64) (map[int64]Symbol, error) {
	out := make(map[int64]Symbol, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders, args := placeholderList(ids)
	rows, err := s.db.Query(symbolSelect+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		out[sym.ID] = sym
	}
	return out, rows.Err()
}

func scanSymbolRow(rows *sql.Rows) (Symbol, error) {
	var sym Symbol
	var kind, vis string
	var async, static int
	var parent sql.NullInt64
	err := rows.Scan(&sym.ID, &sym.Name, &sym.QualifiedName, &kind, &sym.FileID, &sym.StartLine, &sym.EndLine,
		&sym.Signature, &sym.SignatureHash, &sym.ReturnType, &vis, &async, &static,
		&parent, &sym.Docstring, &sym.PageRank)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	sym.Kind = SymbolKind(kind)
	sym.Visibility = Visibility(vis)
	sym.Async = async != 0
	sym.Static = static != 0
	if parent.Valid {
		sym.ParentSymbolID = &parent.Int64
	}
	return sym, nil
}

// SymbolsByName returns every symbol with the given short name, ordered by
// descending PageRank then ascending id, the tie-break order
// ambiguous-name resolution uses.
func (s *Store) SymbolsByName(name string) ([]Symbol, error) {
	rows, err := s.db.Query(symbolSelect+` WHERE name = ? ORDER BY page_rank DESC, id ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// SymbolByQualifiedName returns the exact qualified-name match, if any.
func (s *Store) SymbolByQualifiedName(qualified string) (Symbol, error) {
	return scanSymbol(s.db.QueryRow(symbolSelect+` WHERE qualified_name = ? LIMIT 1`, qualified))
}

// SymbolsByFile returns every symbol defined in a file, ordered by start
// line then qualified name. The order comes from this query; the pipeline
// inserts a file's symbols in extractor order, unsorted.
func (s *Store) SymbolsByFile(fileID int64) ([]Symbol, error) {
	rows, err := s.db.Query(symbolSelect+` WHERE file_id = ? ORDER BY start_line ASC, qualified_name ASC`, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// ParametersBySymbol returns a symbol's parameters in ordinal order.
func (s *Store) ParametersBySymbol(symbolID int64) ([]Parameter, error) {
	rows, err := s.db.Query(`SELECT id, symbol_id, position, name, type, has_default, default_val
		FROM parameters WHERE symbol_id = ? ORDER BY position ASC`, symbolID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []Parameter
	for rows.Next() {
		var p Parameter
		var hasDefault int
		if err := rows.Scan(&p.ID, &p.SymbolID, &p.Position, &p.Name, &p.Type, &hasDefault, &p.Default); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		p.HasDefault = hasDefault != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// AllEdges bulk-loads the entire edge set in one query. Its callers are
// hybrid artifact building and query.BuildFullAdjacency; rank and the BFS
// engines load their edges through EdgesByRelationships.
func (s *Store) AllEdges() ([]Edge, error) {
	rows, err := s.db.Query(`SELECT id, source_id, source_type, target_id, target_type,
		relationship, file_id, line, confidence FROM edges`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []Edge
	for rows.Next() {
		e, err := scanEdgeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEdgeRow(rows *sql.Rows) (Edge, error) {
	var e Edge
	var srcType, tgtType, rel string
	err := rows.Scan(&e.ID, &e.SourceID, &srcType, &e.TargetID, &tgtType, &rel, &e.FileID, &e.Line, &e.Confidence)
	if err != nil {
		return Edge{}, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	e.SourceType = EndpointType(srcType)
	e.TargetType = EndpointType(tgtType)
	e.Relationship = Relationship(rel)
	return e, nil
}

// EdgesByRelationships loads only edges whose relationship is in rels,
// used by rank refresh (CALLS ∪ IMPORTS_SYMBOL ∪ EXTENDS ∪ IMPLEMENTS).
func (s *Store) EdgesByRelationships(rels []Relationship) ([]Edge, error) {
	if len(rels) == 0 {
		return nil, nil
	}
	args := make([]any, len(rels))
	placeholders := make([]string, len(rels))
	for i, r := range rels {
		args[i] = string(r)
		placeholders[i] = "?"
	}
	q := `SELECT id, source_id, source_type, target_id, target_type, relationship, file_id, line, confidence
		FROM edges WHERE relationship IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []Edge
	for rows.Next() {
		e, err := scanEdgeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdatePageRank writes refreshed PageRank scores for a set of symbols in
// one transaction.
func (s *Store) UpdatePageRank(scores map[int64]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStoreError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE symbols SET page_rank = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", ErrStoreError, err)
	}
	defer stmt.Close()
	for id, score := range scores {
		if _, err := stmt.Exec(score, id); err != nil {
			return fmt.Errorf("%w: update page rank for %d: %v", ErrStoreError, id, err)
		}
	}
	return tx.Commit()
}

// FilesReferencingSymbols returns the set of file ids containing any edge
// whose target is one of the given symbol ids — the reverse-dependent set
// used to scope incremental edge re-resolution.
func (s *Store) FilesReferencingSymbols(symbolIDs []int64) ([]int64, error) {
	if len(symbolIDs) == 0 {
		return nil, nil
	}
	placeholders, args := placeholderList(symbolIDs)
	rows, err := s.db.Query(`SELECT DISTINCT file_id FROM edges WHERE target_type = 'symbol' AND target_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FilesReferencingFiles returns the set of file ids containing any edge
// whose target is one of the given file ids (IMPORTS edges into a changed
// file), completing the reverse-dependent set FilesReferencingSymbols
// starts.
func (s *Store) FilesReferencingFiles(fileIDs []int64) ([]int64, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	placeholders, args := placeholderList(fileIDs)
	rows, err := s.db.Query(`SELECT DISTINCT file_id FROM edges WHERE target_type = 'file' AND target_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ExternalDepsByFile returns a file's external dependency rows.
func (s *Store) ExternalDepsByFile(fileID int64) ([]ExternalDependency, error) {
	rows, err := s.db.Query(`SELECT id, file_id, raw_import, module_name, line FROM external_deps WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []ExternalDependency
	for rows.Next() {
		var d ExternalDependency
		if err := rows.Scan(&d.ID, &d.FileID, &d.RawImport, &d.ModuleName, &d.Line); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Degrees bulk-computes inbound and outbound symbol<->symbol edge counts
// for a set of symbol ids, used by search_symbols to avoid an N+1
// COUNT(*) per candidate.
func (s *Store) Degrees(ids []int64) (inbound, outbound map[int64]int, err error) {
	inbound = make(map[int64]int, len(ids))
	outbound = make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return inbound, outbound, nil
	}
	placeholders, args := placeholderList(ids)

	outRows, err := s.db.Query(`SELECT source_id, COUNT(*) FROM edges
		WHERE source_type = 'symbol' AND target_type = 'symbol' AND source_id IN (`+placeholders+`)
		GROUP BY source_id`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer outRows.Close()
	for outRows.Next() {
		var id int64
		var n int
		if err := outRows.Scan(&id, &n); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		outbound[id] = n
	}
	if err := outRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}

	inRows, err := s.db.Query(`SELECT target_id, COUNT(*) FROM edges
		WHERE source_type = 'symbol' AND target_type = 'symbol' AND target_id IN (`+placeholders+`)
		GROUP BY target_id`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer inRows.Close()
	for inRows.Next() {
		var id int64
		var n int
		if err := inRows.Scan(&id, &n); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		inbound[id] = n
	}
	return inbound, outbound, inRows.Err()
}

// MaxPageRank returns the largest PageRank score currently stored, used to
// normalize structural scoring; 0 if the store has no symbols.
func (s *Store) MaxPageRank() (float64, error) {
	var max sql.NullFloat64
	err := s.db.QueryRow(`SELECT MAX(page_rank) FROM symbols`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return max.Float64, nil
}

// TotalSymbols returns the total symbol count, used by
// adaptive_graph_cap(total_symbols, base, floor).
func (s *Store) TotalSymbols() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return n, nil
}

func placeholderList(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
