// Package hybrid implements the artifact/delta wire format and
// quarantine/pin/circuit-breaker reconciliation for the optional remote
// sync plane, with an
// ARTIFACT_INCOMPATIBLE/ARTIFACT_CORRUPT/SIGNATURE_MISMATCH taxonomy. The
// local path never depends on any of this: every function here operates
// on a store that is already fully readable/writable without a remote.
package hybrid

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the wire format's current version. A reader comparing
// a higher value here than it understands reports ARTIFACT_INCOMPATIBLE,
// never a panic or silent truncation.
const SchemaVersion = 1

// ArtifactSymbol is one symbol row promoted into a shared artifact.
type ArtifactSymbol struct {
	QualifiedName string  `json:"qualified_name"`
	FilePath      string  `json:"file_path"`
	Kind          string  `json:"kind"`
	Signature     string  `json:"signature"`
	PageRank      float64 `json:"page_rank"`
}

// ArtifactEdge is one symbol<->symbol edge promoted into a shared
// artifact, addressed by qualified name rather than local row id since
// artifact consumers have their own id space.
type ArtifactEdge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
}

// Artifact is a promoted, versioned bundle of symbols/edges/priors shared
// over the hybrid plane.
type Artifact struct {
	SchemaVersion int                `json:"schema_version"`
	ArtifactID    string             `json:"artifact_id"`
	RepoRoot      string             `json:"repo_root"`
	Snapshot      string             `json:"snapshot"` // caller-supplied identifier of the indexed state
	CreatedAt     time.Time          `json:"created_at"`
	Symbols       []ArtifactSymbol   `json:"symbols"`
	Edges         []ArtifactEdge     `json:"edges"`
	Priors        map[string]float64 `json:"priors"` // qualified_name -> PageRank prior
	Checksum      string             `json:"checksum"`
	KeyID         string             `json:"key_id,omitempty"`
	Algorithm     string             `json:"algorithm,omitempty"`
	Signature     string             `json:"signature,omitempty"`
}

// Delta is the incremental payload describing a change from one snapshot
// to the next. Touched scope is file-path-level; symbol-level scoping is
// not tracked.
type Delta struct {
	SchemaVersion  int       `json:"schema_version"`
	DeltaID        string    `json:"delta_id"`
	RepoRoot       string    `json:"repo_root"`
	BaseSnapshot   string    `json:"base_snapshot"`
	TargetSnapshot string    `json:"target_snapshot"`
	CreatedAt      time.Time `json:"created_at"`
	TouchedFiles   []string  `json:"touched_files"`
	AddedSymbols   []ArtifactSymbol `json:"added_symbols"`
	RemovedSymbols []string         `json:"removed_symbols"` // qualified names
	AddedEdges     []ArtifactEdge   `json:"added_edges"`
	RemovedEdges   []ArtifactEdge   `json:"removed_edges"`
	Checksum       string    `json:"checksum"`
	KeyID          string    `json:"key_id,omitempty"`
	Algorithm      string    `json:"algorithm,omitempty"`
	Signature      string    `json:"signature,omitempty"`
}

// NewArtifactID, NewDeltaID and NewRunID each mint a google/uuid v4
// string; kept as three names since artifact, delta and indexing run ids
// are conceptually distinct identifier spaces even though they're
// generated the same way.
func NewArtifactID() string { return uuid.NewString() }
func NewDeltaID() string    { return uuid.NewString() }
func NewRunID() string      { return uuid.NewString() }
