package hybrid

import (
	"fmt"
	"time"

	"github.com/pgtgrly/bombe-mcp/internal/config"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// ErrCode is the closed set of hybrid-plane error codes:
// ARTIFACT_INCOMPATIBLE (skip), ARTIFACT_CORRUPT / SIGNATURE_MISMATCH
// (quarantine and never apply again).
type ErrCode string

const (
	ErrArtifactIncompatible ErrCode = "ARTIFACT_INCOMPATIBLE"
	ErrArtifactCorrupt      ErrCode = "ARTIFACT_CORRUPT"
	ErrSignatureMismatch    ErrCode = "SIGNATURE_MISMATCH"
)

// Error is the typed error every hybrid operation that fails returns.
type Error struct {
	Code ErrCode
	Msg  string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Msg }

// BuildArtifact snapshots the store's full symbol/edge graph into a
// promotable artifact: a versioned bundle of symbols, edges, and rank
// priors shared via the hybrid plane.
func BuildArtifact(s *store.Store, repoRoot, snapshot string) (Artifact, error) {
	files, err := s.AllFiles()
	if err != nil {
		return Artifact{}, fmt.Errorf("listing files: %w", err)
	}

	qualifiedByID := map[int64]string{}
	var symbols []ArtifactSymbol
	for _, f := range files {
		syms, err := s.SymbolsByFile(f.ID)
		if err != nil {
			return Artifact{}, fmt.Errorf("listing symbols for %s: %w", f.Path, err)
		}
		for _, sym := range syms {
			qualifiedByID[sym.ID] = sym.QualifiedName
			symbols = append(symbols, ArtifactSymbol{
				QualifiedName: sym.QualifiedName,
				FilePath:      f.Path,
				Kind:          string(sym.Kind),
				Signature:     sym.Signature,
				PageRank:      sym.PageRank,
			})
		}
	}

	edges, err := s.AllEdges()
	if err != nil {
		return Artifact{}, fmt.Errorf("listing edges: %w", err)
	}
	var artifactEdges []ArtifactEdge
	priors := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		priors[sym.QualifiedName] = sym.PageRank
	}
	for _, e := range edges {
		if e.SourceType != store.EndpointSymbol || e.TargetType != store.EndpointSymbol {
			continue
		}
		src, srcOK := qualifiedByID[e.SourceID]
		dst, dstOK := qualifiedByID[e.TargetID]
		if !srcOK || !dstOK {
			continue
		}
		artifactEdges = append(artifactEdges, ArtifactEdge{Source: src, Target: dst, Relationship: string(e.Relationship)})
	}

	a := Artifact{
		SchemaVersion: SchemaVersion,
		ArtifactID:    NewArtifactID(),
		RepoRoot:      repoRoot,
		Snapshot:      snapshot,
		CreatedAt:     time.Now().UTC(),
		Symbols:       symbols,
		Edges:         artifactEdges,
		Priors:        priors,
	}
	checksum, err := checksumArtifact(a)
	if err != nil {
		return Artifact{}, fmt.Errorf("checksum: %w", err)
	}
	a.Checksum = checksum
	return a, nil
}

// SignArtifact signs an artifact's checksum under cfg, filling KeyID,
// Algorithm, and Signature. A SigningNone config leaves all three empty.
func SignArtifact(a *Artifact, cfg config.Signing) error {
	if cfg.Algorithm == config.SigningNone {
		return nil
	}
	sig, err := sign(cfg.Algorithm, cfg.KeyMaterial, a.Checksum)
	if err != nil {
		return fmt.Errorf("signing artifact: %w", err)
	}
	a.Algorithm = string(cfg.Algorithm)
	a.KeyID = cfg.KeyID
	a.Signature = sig
	return nil
}

// VerifyArtifact checks schema compatibility, checksum integrity, and (if
// signed) signature validity, consulting s for the trusted key material
// registered under the artifact's key id. On failure it also applies the
// store-side consequence: ARTIFACT_INCOMPATIBLE artifacts are left alone
// (the caller skips them), ARTIFACT_CORRUPT and SIGNATURE_MISMATCH
// artifacts are quarantined so they're never applied again.
func VerifyArtifact(s *store.Store, a Artifact) error {
	if a.SchemaVersion > SchemaVersion {
		return &Error{Code: ErrArtifactIncompatible, Msg: fmt.Sprintf("artifact schema_version %d newer than %d", a.SchemaVersion, SchemaVersion)}
	}

	wantChecksum, err := checksumArtifact(a)
	if err != nil {
		_ = s.QuarantineArtifact(a.ArtifactID, "checksum computation failed: "+err.Error())
		return &Error{Code: ErrArtifactCorrupt, Msg: err.Error()}
	}
	if wantChecksum != a.Checksum {
		_ = s.QuarantineArtifact(a.ArtifactID, "checksum mismatch")
		return &Error{Code: ErrArtifactCorrupt, Msg: "checksum mismatch"}
	}

	if a.Algorithm == "" {
		return nil
	}
	algorithm, keyMaterial, err := s.SigningKey(a.KeyID)
	if err != nil {
		_ = s.QuarantineArtifact(a.ArtifactID, "unknown signing key "+a.KeyID)
		return &Error{Code: ErrSignatureMismatch, Msg: "unknown signing key " + a.KeyID}
	}
	ok, err := verify(config.SigningAlgorithm(algorithm), keyMaterial, a.Checksum, a.Signature)
	if err != nil || !ok {
		_ = s.QuarantineArtifact(a.ArtifactID, "signature verification failed")
		return &Error{Code: ErrSignatureMismatch, Msg: "signature verification failed"}
	}
	return nil
}

// ApplyArtifact checks quarantine status, verifies the artifact, and (on
// success) pins it as the artifact applied for (repo, snapshot) and logs
// a sync event. It never mutates the symbol/edge tables directly — that
// remains the indexing pipeline's job via its own mutators; the hybrid
// plane only governs which artifact id is authoritative for a snapshot.
func ApplyArtifact(s *store.Store, a Artifact) error {
	quarantined, err := s.IsQuarantined(a.ArtifactID)
	if err != nil {
		return fmt.Errorf("checking quarantine: %w", err)
	}
	if quarantined {
		return &Error{Code: ErrArtifactCorrupt, Msg: "artifact is quarantined"}
	}
	if err := VerifyArtifact(s, a); err != nil {
		return err
	}
	if err := s.PinArtifact(a.RepoRoot, a.Snapshot, a.ArtifactID); err != nil {
		return fmt.Errorf("pinning artifact: %w", err)
	}
	return s.RecordSyncEvent("artifact_applied", a.RepoRoot, a.ArtifactID)
}

// BuildDelta packages an explicit set of symbol/edge additions and
// removals discovered by an incremental indexing run into a signable
// delta. Touched scope is tracked at the file-path level.
func BuildDelta(repoRoot, baseSnapshot, targetSnapshot string, touchedFiles []string,
	addedSymbols []ArtifactSymbol, removedSymbols []string,
	addedEdges, removedEdges []ArtifactEdge) (Delta, error) {
	d := Delta{
		SchemaVersion:  SchemaVersion,
		DeltaID:        NewDeltaID(),
		RepoRoot:       repoRoot,
		BaseSnapshot:   baseSnapshot,
		TargetSnapshot: targetSnapshot,
		CreatedAt:      time.Now().UTC(),
		TouchedFiles:   touchedFiles,
		AddedSymbols:   addedSymbols,
		RemovedSymbols: removedSymbols,
		AddedEdges:     addedEdges,
		RemovedEdges:   removedEdges,
	}
	checksum, err := checksumDelta(d)
	if err != nil {
		return Delta{}, fmt.Errorf("checksum: %w", err)
	}
	d.Checksum = checksum
	return d, nil
}

// SignDelta mirrors SignArtifact for the delta wire type.
func SignDelta(d *Delta, cfg config.Signing) error {
	if cfg.Algorithm == config.SigningNone {
		return nil
	}
	sig, err := sign(cfg.Algorithm, cfg.KeyMaterial, d.Checksum)
	if err != nil {
		return fmt.Errorf("signing delta: %w", err)
	}
	d.Algorithm = string(cfg.Algorithm)
	d.KeyID = cfg.KeyID
	d.Signature = sig
	return nil
}

// VerifyDelta mirrors VerifyArtifact for the delta wire type, quarantining
// under the delta id rather than an artifact id — the quarantine set is a
// flat string-id set shared by both wire types.
func VerifyDelta(s *store.Store, d Delta) error {
	if d.SchemaVersion > SchemaVersion {
		return &Error{Code: ErrArtifactIncompatible, Msg: fmt.Sprintf("delta schema_version %d newer than %d", d.SchemaVersion, SchemaVersion)}
	}
	wantChecksum, err := checksumDelta(d)
	if err != nil {
		_ = s.QuarantineArtifact(d.DeltaID, "checksum computation failed: "+err.Error())
		return &Error{Code: ErrArtifactCorrupt, Msg: err.Error()}
	}
	if wantChecksum != d.Checksum {
		_ = s.QuarantineArtifact(d.DeltaID, "checksum mismatch")
		return &Error{Code: ErrArtifactCorrupt, Msg: "checksum mismatch"}
	}
	if d.Algorithm == "" {
		return nil
	}
	algorithm, keyMaterial, err := s.SigningKey(d.KeyID)
	if err != nil {
		_ = s.QuarantineArtifact(d.DeltaID, "unknown signing key "+d.KeyID)
		return &Error{Code: ErrSignatureMismatch, Msg: "unknown signing key " + d.KeyID}
	}
	ok, err := verify(config.SigningAlgorithm(algorithm), keyMaterial, d.Checksum, d.Signature)
	if err != nil || !ok {
		_ = s.QuarantineArtifact(d.DeltaID, "signature verification failed")
		return &Error{Code: ErrSignatureMismatch, Msg: "signature verification failed"}
	}
	return nil
}
