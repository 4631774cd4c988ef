package query

import (
	"sort"
	"strings"
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// StructureRequest is get_structure's input.
type StructureRequest struct {
	SubPath           string
	TokenBudget       int
	IncludeSignatures bool
	TopPerFile        int // 0 means "no per-file cap beyond the token budget"
}

// StructureSymbolView is one symbol surfaced in the hierarchy, its
// signature populated only when requested.
type StructureSymbolView struct {
	Symbol    store.Symbol
	Signature string `json:",omitempty"`
}

// StructureFile groups a file's top symbols by descending PageRank.
type StructureFile struct {
	Path    string
	Symbols []StructureSymbolView
}

// StructureResponse is get_structure's output.
type StructureResponse struct {
	Files      []StructureFile
	TokensUsed int
	Truncated  bool
	Trace      *PlannerTrace
}

// GetStructure renders a hierarchical view of files
// under SubPath, listing top symbols by PageRank per file with optional
// signatures, stopping when the token budget would be exceeded.
func (e *Engines) GetStructure(req StructureRequest) (StructureResponse, error) {
	start := time.Now()
	clamps := newClamps()
	req.TokenBudget = ClampTokenBudget(clamps, req.TokenBudget)

	allFiles, err := e.Store.AllFiles()
	if err != nil {
		return StructureResponse{}, wrapStoreErr(err)
	}
	computeStart := time.Now()

	var matched []store.File
	for _, f := range allFiles {
		if req.SubPath == "" || strings.HasPrefix(f.Path, req.SubPath) {
			matched = append(matched, f)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Path < matched[j].Path })

	var result []StructureFile
	tokensUsed := 0
	truncated := false

outer:
	for _, f := range matched {
		symbols, err := e.Store.SymbolsByFile(f.ID)
		if err != nil {
			return StructureResponse{}, wrapStoreErr(err)
		}
		sort.Slice(symbols, func(i, j int) bool { return symbols[i].PageRank > symbols[j].PageRank })
		if req.TopPerFile > 0 && len(symbols) > req.TopPerFile {
			symbols = symbols[:req.TopPerFile]
		}

		var views []StructureSymbolView
		for _, sym := range symbols {
			view := StructureSymbolView{Symbol: sym}
			text := sym.Name
			if req.IncludeSignatures {
				view.Signature = sym.Signature
				text = sym.Signature
			}
			cost := e.Tokens.Count(text)
			if tokensUsed+cost > req.TokenBudget {
				truncated = true
				break outer
			}
			tokensUsed += cost
			views = append(views, view)
		}
		if len(views) > 0 {
			result = append(result, StructureFile{Path: f.Path, Symbols: views})
		}
	}

	epoch, _ := e.Store.CacheEpoch()
	return StructureResponse{
		Files: result, TokensUsed: tokensUsed, Truncated: truncated,
		Trace: trace(clamps, "miss", start, computeStart, epoch),
	}, nil
}
