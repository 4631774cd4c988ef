package query

import (
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// Pagination controls offset paging on list-shaped engine responses. The
// engine's own limit cap still applies on top of it.
type Pagination struct {
	Offset int // skip this many results after ranking (default 0)
}

func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// SortField selects the ordering of a list-shaped response.
type SortField string

const (
	// SortByScore is the default hybrid-ranker ordering.
	SortByScore SortField = "score"
	// SortByName orders ascending by short name.
	SortByName SortField = "name"
	// SortHotspot orders by inbound edge count descending, surfacing the
	// most-depended-upon symbols first.
	SortHotspot SortField = "hotspot"
)

// SortOrder flips the chosen field's direction.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering on list-shaped responses.
type Sort struct {
	Field SortField
	Order SortOrder
}

// PagedResult wraps a page of results with the total match count before
// pagination, so callers can page without re-running the query.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int
}

// KindUnused is a pseudo-kind accepted by search_symbols' kind filter:
// instead of matching a stored symbol kind, it restricts results to
// symbols with zero inbound symbol edges.
const KindUnused = store.SymbolKind("unused")

// SymbolAtResponse bundles the narrowest symbol at a position with its
// file path and parameters. Found is false (and the rest zero) when no
// symbol contains the position — an empty well-formed response, not an
// error.
type SymbolAtResponse struct {
	Found      bool
	Symbol     store.Symbol
	FilePath   string
	Parameters []store.Parameter
}

// SymbolAt resolves the most specific symbol whose range contains
// (path, line). Lines are 1-based, matching the stored symbol ranges.
func (e *Engines) SymbolAt(path string, line int) (SymbolAtResponse, error) {
	sym, err := e.Store.SymbolAt(path, line)
	if err == store.ErrNotFound {
		return SymbolAtResponse{}, nil
	}
	if err != nil {
		return SymbolAtResponse{}, wrapStoreErr(err)
	}
	params, err := e.Store.ParametersBySymbol(sym.ID)
	if err != nil {
		return SymbolAtResponse{}, wrapStoreErr(err)
	}
	return SymbolAtResponse{Found: true, Symbol: sym, FilePath: path, Parameters: params}, nil
}

// ScopeAtResponse is the chain of symbols enclosing a position, innermost
// first.
type ScopeAtResponse struct {
	FilePath string
	Chain    []store.Symbol
}

// ScopeAt returns the scope chain at (path, line): the narrowest
// containing symbol followed by its ancestors out to the top-level
// definition. A position outside every symbol, or an unindexed file,
// yields an empty chain.
func (e *Engines) ScopeAt(path string, line int) (ScopeAtResponse, error) {
	chain, err := e.Store.ScopeChainAt(path, line)
	if err == store.ErrNotFound {
		return ScopeAtResponse{FilePath: path}, nil
	}
	if err != nil {
		return ScopeAtResponse{}, wrapStoreErr(err)
	}
	return ScopeAtResponse{FilePath: path, Chain: chain}, nil
}
