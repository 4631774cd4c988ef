package store

import "fmt"

// SymbolAt returns the narrowest symbol whose line range contains line in
// the file at path, or ErrNotFound. Ties on span size break toward the
// later-starting (more deeply nested) symbol, then ascending id.
func (s *Store) SymbolAt(path string, line int) (Symbol, error) {
	f, err := s.FileByPath(path)
	if err != nil {
		return Symbol{}, err
	}
	return scanSymbol(s.db.QueryRow(symbolSelect+`
		WHERE file_id = ? AND start_line <= ? AND end_line >= ?
		ORDER BY (end_line - start_line) ASC, start_line DESC, id ASC
		LIMIT 1`, f.ID, line, line))
}

// ScopeChainAt returns the symbols enclosing line in path, innermost
// first, walking parent_symbol_id from the narrowest containing symbol to
// its outermost ancestor. A position outside every symbol yields an empty
// chain and no error; a missing file yields ErrNotFound.
func (s *Store) ScopeChainAt(path string, line int) ([]Symbol, error) {
	innermost, err := s.SymbolAt(path, line)
	if err == ErrNotFound {
		if _, ferr := s.FileByPath(path); ferr != nil {
			return nil, ferr
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	chain := []Symbol{innermost}
	for cur := innermost; cur.ParentSymbolID != nil; {
		parent, err := s.SymbolByID(*cur.ParentSymbolID)
		if err == ErrNotFound {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain, nil
}

// UnusedSymbols returns symbols that no symbol-sourced edge targets —
// nothing calls, extends, or implements them. IMPORTS_SYMBOL edges start
// at a file, so they are not counted: a symbol that is only imported is
// still listed. Ordered by file then start line so results group
// naturally by file.
func (s *Store) UnusedSymbols(limit int) ([]Symbol, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(symbolSelect+`
		WHERE NOT EXISTS (
			SELECT 1 FROM edges e
			WHERE e.target_type = 'symbol' AND e.source_type = 'symbol' AND e.target_id = symbols.id
		)
		ORDER BY file_id ASC, start_line ASC, id ASC LIMIT ?`, limit)
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

// Hotspots returns the most-depended-upon symbols, ordered by inbound
// symbol-edge count descending, breaking ties by PageRank then id.
// Symbols with no inbound edges are not hotspots and are excluded.
func (s *Store) Hotspots(limit int) ([]Symbol, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(symbolSelect+`
		WHERE EXISTS (
			SELECT 1 FROM edges e
			WHERE e.target_type = 'symbol' AND e.source_type = 'symbol' AND e.target_id = symbols.id
		)
		ORDER BY (
			SELECT COUNT(*) FROM edges e
			WHERE e.target_type = 'symbol' AND e.source_type = 'symbol' AND e.target_id = symbols.id
		) DESC, page_rank DESC, id ASC LIMIT ?`, limit)
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
