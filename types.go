package bombe

import (
	"github.com/pgtgrly/bombe-mcp/internal/hybrid"
	"github.com/pgtgrly/bombe-mcp/internal/pipeline"
	"github.com/pgtgrly/bombe-mcp/internal/query"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// Public aliases over internal store types. These are Go type aliases
// (=) — identical to the internal types at compile time.

type Store = store.Store
type Symbol = store.Symbol
type File = store.File
type Edge = store.Edge
type SymbolKind = store.SymbolKind
type Visibility = store.Visibility
type Relationship = store.Relationship
type Diagnostic = store.Diagnostic

// Query request/response types, one pair per tool.

type SearchRequest = query.SearchRequest
type SearchResult = query.SearchResult
type SearchResponse = query.SearchResponse

type ReferenceRequest = query.ReferenceRequest
type ReferenceHit = query.ReferenceHit
type ReferenceResponse = query.ReferenceResponse
type ReferenceDirection = query.ReferenceDirection

type BlastRequest = query.BlastRequest
type BlastDependent = query.BlastDependent
type BlastResponse = query.BlastResponse
type ChangeKind = query.ChangeKind
type RiskBucket = query.RiskBucket

type DataFlowRequest = query.DataFlowRequest
type DataFlowNode = query.DataFlowNode
type DataFlowPath = query.DataFlowPath
type DataFlowResponse = query.DataFlowResponse

type ChangeImpactRequest = query.ChangeImpactRequest
type ChangeImpactResponse = query.ChangeImpactResponse

type StructureRequest = query.StructureRequest
type StructureFile = query.StructureFile
type StructureSymbolView = query.StructureSymbolView
type StructureResponse = query.StructureResponse

type ContextRequest = query.ContextRequest
type ContextInclusion = query.ContextInclusion
type ContextFileGroup = query.ContextFileGroup
type ContextEdge = query.ContextEdge
type ContextQuality = query.ContextQuality
type ContextResponse = query.ContextResponse

type SymbolAtResponse = query.SymbolAtResponse
type ScopeAtResponse = query.ScopeAtResponse

// List paging and ordering controls shared by list-shaped responses.

type Pagination = query.Pagination
type PagedResult[T any] = query.PagedResult[T]
type Sort = query.Sort
type SortField = query.SortField
type SortOrder = query.SortOrder

const (
	SortByScore = query.SortByScore
	SortByName  = query.SortByName
	SortHotspot = query.SortHotspot
)

// KindUnused is search_symbols' pseudo-kind filter for symbols nothing
// depends on.
const KindUnused = query.KindUnused

type PlannerTrace = query.PlannerTrace

// Hybrid sync plane wire types.

type Artifact = hybrid.Artifact
type ArtifactSymbol = hybrid.ArtifactSymbol
type ArtifactEdge = hybrid.ArtifactEdge
type Delta = hybrid.Delta

// Progress is a monotonic snapshot of an indexing run's state.
type Progress = pipeline.Progress

const (
	ChangeSignature = query.ChangeSignature
	ChangeBehavior  = query.ChangeBehavior
	ChangeDelete    = query.ChangeDelete
)

const (
	RiskLow      = query.RiskLow
	RiskMedium   = query.RiskMedium
	RiskHigh     = query.RiskHigh
	RiskCritical = query.RiskCritical
)
