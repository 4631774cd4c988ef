package store

import (
	"fmt"
	"strings"
)

// FTSResult pairs a matched symbol id with SQLite FTS5's bm25 rank (lower
// is more relevant).
type FTSResult struct {
	SymbolID int64
	Rank     float64
}

// SearchFTS runs a full-text match over symbol_fts(name, qualified_name,
// docstring), stemming the query the same way symbol text was stemmed on
// insert so "indexing" matches a docstring that says "indexed". An empty
// result (no error) means the caller should fall back to LIKE matching.
func (s *Store) SearchFTS(query string, limit int) ([]FTSResult, error) {
	q := ftsQuote(stemText(query))
	if q == "" {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT rowid, bm25(symbol_fts) FROM symbol_fts
		WHERE symbol_fts MATCH ? ORDER BY bm25(symbol_fts) LIMIT ?
	`, q, limit)
	if err != nil {
		// A malformed FTS query (stray punctuation) degrades to "no FTS hits"
		// rather than a store error, so the LIKE fallback still runs.
		return nil, nil
	}
	defer rows.Close()
	var out []FTSResult
	for rows.Next() {
		var r FTSResult
		if err := rows.Scan(&r.SymbolID, &r.Rank); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchLike falls back to a substring match against name and
// qualified_name when FTS returns nothing.
func (s *Store) SearchLike(query string, limit int) ([]Symbol, error) {
	like := "%" + strings.ReplaceAll(query, "%", "") + "%"
	rows, err := s.db.Query(symbolSelect+`
		WHERE name LIKE ? OR qualified_name LIKE ?
		ORDER BY page_rank DESC, id ASC LIMIT ?
	`, like, like, limit)
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

// ftsQuote wraps each term in double quotes so punctuation in identifiers
// (e.g. "foo.Bar") doesn't get parsed as FTS5 query syntax, and drops empty
// input.
func ftsQuote(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
