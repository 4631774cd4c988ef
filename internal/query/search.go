package query

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// SearchRequest is search_symbols' input. Kind accepts
// the stored symbol kinds plus the KindUnused pseudo-filter; Sort and Page
// compose with Limit for list paging.
type SearchRequest struct {
	Query      string
	Kind       store.SymbolKind // "" means no filter
	FileGlob   string            // "" means no filter
	Limit      int
	Sort       Sort
	Page       Pagination
	WithTrace  bool
	// WithExplanations attaches a per-result reasoning string describing
	// how the hybrid score was assembled.
	WithExplanations bool
	DeadlineMS       int64
}

// SearchResult is one ranked candidate.
type SearchResult struct {
	Symbol        store.Symbol
	FilePath      string
	Score         float64
	InboundCount  int
	OutboundCount int
	Explanation   string `json:",omitempty"`
}

// SearchResponse is search_symbols' output. Results.TotalCount is the
// match count before pagination and the final limit cut.
type SearchResponse struct {
	Results PagedResult[SearchResult]
	Trace   *PlannerTrace
}

// SearchSymbols runs an FTS match, falling back to LIKE
// when FTS returns nothing, scored by the hybrid ranker and returned top-N
// by descending score.
func (e *Engines) SearchSymbols(req SearchRequest) (SearchResponse, error) {
	start := time.Now()
	clamps := newClamps()
	req.Query = ClampQuery(clamps, req.Query)
	req.Limit = ClampSearchLimit(clamps, req.Limit)
	req.Page = req.Page.normalize()

	if req.Limit == 0 {
		return SearchResponse{Trace: trace(clamps, "miss", start, start, 0)}, nil
	}

	epoch, err := e.Store.CacheEpoch()
	if err != nil {
		return SearchResponse{}, wrapStoreErr(err)
	}
	key := CacheKey("search_symbols", normalizeSearchPayload(req), epoch)
	if cached, ok := e.Cache.Get(key); ok {
		resp := cached.(SearchResponse)
		resp.Trace = trace(clamps, "hit", start, start, epoch)
		return resp, nil
	}

	candidates, err := e.searchCandidates(req)
	if err != nil {
		return SearchResponse{}, wrapStoreErr(err)
	}

	computeStart := time.Now()
	results, err := e.scoreSearchCandidates(req, candidates)
	if err != nil {
		return SearchResponse{}, wrapStoreErr(err)
	}

	if req.FileGlob != "" {
		results = filterByGlob(results, req.FileGlob)
	}
	if req.Kind == KindUnused {
		filtered := results[:0]
		for _, r := range results {
			if r.InboundCount == 0 {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	} else if req.Kind != "" {
		filtered := results[:0]
		for _, r := range results {
			if r.Symbol.Kind == req.Kind {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	sortSearchResults(results, req.Sort)
	total := len(results)
	if req.Page.Offset >= len(results) {
		results = nil
	} else {
		results = results[req.Page.Offset:]
	}
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	resp := SearchResponse{Results: PagedResult[SearchResult]{Items: results, TotalCount: total}}
	e.Cache.Put(key, resp, epoch)
	resp.Trace = trace(clamps, "miss", start, computeStart, epoch)
	return resp, nil
}

// searchCandidates runs FTS, falling back to LIKE only when FTS yields
// nothing.
func (e *Engines) searchCandidates(req SearchRequest) ([]store.Symbol, error) {
	// FTS returns a wider net than the final limit since kind/glob filters
	// and the hybrid ranker still need to narrow it down.
	ftsLimit := req.Limit*4 + req.Page.Offset
	if ftsLimit < req.Limit {
		ftsLimit = req.Limit
	}
	if req.Query == "" {
		// Listing modes with no query text pull candidates straight from
		// the store instead of the text indexes.
		switch {
		case req.Kind == KindUnused:
			return e.Store.UnusedSymbols(ftsLimit)
		case req.Sort.Field == SortHotspot:
			return e.Store.Hotspots(ftsLimit)
		}
	}
	hits, err := e.Store.SearchFTS(req.Query, ftsLimit)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		ids := make([]int64, len(hits))
		for i, h := range hits {
			ids[i] = h.SymbolID
		}
		bySymbol, err := e.Store.SymbolsByIDs(ids)
		if err != nil {
			return nil, err
		}
		out := make([]store.Symbol, 0, len(ids))
		for _, id := range ids {
			if sym, ok := bySymbol[id]; ok {
				out = append(out, sym)
			}
		}
		return out, nil
	}
	return e.Store.SearchLike(req.Query, ftsLimit)
}

func (e *Engines) scoreSearchCandidates(req SearchRequest, candidates []store.Symbol) ([]SearchResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	inbound, outbound, err := e.Store.Degrees(ids)
	if err != nil {
		return nil, err
	}
	maxRank, err := e.Store.MaxPageRank()
	if err != nil {
		return nil, err
	}

	files := map[int64]string{}
	out := make([]SearchResult, 0, len(candidates))
	for _, sym := range candidates {
		path, ok := files[sym.FileID]
		if !ok {
			if f, err := e.Store.FileByID(sym.FileID); err == nil {
				path = f.Path
				files[sym.FileID] = path
			}
		}
		lexical := lexicalSimilarity(req.Query, sym)
		score := HybridScore(lexical, sym.PageRank, maxRank, inbound[sym.ID], outbound[sym.ID], -1)
		r := SearchResult{
			Symbol: sym, FilePath: path, Score: score,
			InboundCount: inbound[sym.ID], OutboundCount: outbound[sym.ID],
		}
		if req.WithExplanations {
			r.Explanation = fmt.Sprintf("lexical %.2f, pagerank %.3g, %d callers / %d callees",
				lexical, sym.PageRank, inbound[sym.ID], outbound[sym.ID])
		}
		out = append(out, r)
	}
	return out, nil
}

// lexicalSimilarity scores a candidate against the free-text query using
// Jaro-Winkler string similarity (github.com/hbollon/go-edlib) against
// both the short and qualified name,
// taking the better of the two. Exact substring matches score 1.0.
func lexicalSimilarity(query string, sym store.Symbol) float64 {
	if query == "" {
		return 0
	}
	if contains(sym.Name, query) || contains(sym.QualifiedName, query) {
		return 1.0
	}
	nameScore, err1 := edlib.StringsSimilarity(query, sym.Name, edlib.JaroWinkler)
	qualScore, err2 := edlib.StringsSimilarity(query, sym.QualifiedName, edlib.JaroWinkler)
	best := 0.0
	if err1 == nil && float64(nameScore) > best {
		best = float64(nameScore)
	}
	if err2 == nil && float64(qualScore) > best {
		best = float64(qualScore)
	}
	return best
}

func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func filterByGlob(results []SearchResult, glob string) []SearchResult {
	out := results[:0]
	for _, r := range results {
		if matched, _ := filepath.Match(glob, r.FilePath); matched {
			out = append(out, r)
		}
	}
	return out
}

// sortSearchResults applies the requested ordering; the default is the
// hybrid ranker's descending score. Order flips the chosen field's
// natural direction.
func sortSearchResults(results []SearchResult, s Sort) {
	var less func(i, j int) bool
	switch s.Field {
	case SortHotspot:
		less = func(i, j int) bool {
			if results[i].InboundCount != results[j].InboundCount {
				return results[i].InboundCount > results[j].InboundCount
			}
			return results[i].Score > results[j].Score
		}
	case SortByName:
		less = func(i, j int) bool { return results[i].Symbol.Name < results[j].Symbol.Name }
	default:
		less = func(i, j int) bool { return results[i].Score > results[j].Score }
	}
	// Each field has a natural direction (name ascends, the rest descend);
	// an explicit Order opposing it reverses the comparison.
	naturalAsc := s.Field == SortByName
	if (s.Order == Asc && !naturalAsc) || (s.Order == Desc && naturalAsc) {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(results, less)
}

func normalizeSearchPayload(req SearchRequest) string {
	return req.Query + "\x00" + string(req.Kind) + "\x00" + req.FileGlob + "\x00" + strconv.Itoa(req.Limit) +
		"\x00" + string(req.Sort.Field) + "\x00" + string(req.Sort.Order) + "\x00" + strconv.Itoa(req.Page.Offset) +
		"\x00" + strconv.FormatBool(req.WithExplanations)
}

func trace(clamps *Clamps, mode string, start, computeStart time.Time, epoch int64) *PlannerTrace {
	now := time.Now()
	return &PlannerTrace{
		CacheMode:   mode,
		LookupMS:    computeStart.Sub(start).Milliseconds(),
		ComputeMS:   now.Sub(computeStart).Milliseconds(),
		CacheEpoch:  epoch,
		ClampedKeys: clamps.Fields(),
	}
}

func wrapStoreErr(err error) error {
	return &EngineError{Code: "STORE_ERROR", Cause: err}
}

// EngineError is the structured error query engines return for store and
// schema failures — the only failures that propagate to the caller; every
// other condition degrades to an empty or partial well-formed response.
type EngineError struct {
	Code  string
	Cause error
}

func (e *EngineError) Error() string { return e.Code + ": " + e.Cause.Error() }
func (e *EngineError) Unwrap() error { return e.Cause }
