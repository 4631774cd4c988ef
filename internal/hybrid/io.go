package hybrid

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifact writes a under dir, one file per artifact named
// <artifact_id>.json.
func WriteArtifact(dir string, a Artifact) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	path := filepath.Join(dir, a.ArtifactID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return path, nil
}

// ReadArtifact reads and unmarshals an artifact file. A JSON syntax error
// here is the caller's cue to treat the artifact as ARTIFACT_CORRUPT
// rather than a generic IO failure, since the file was readable but its
// contents weren't a valid artifact.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("reading artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, &Error{Code: ErrArtifactCorrupt, Msg: "malformed artifact json: " + err.Error()}
	}
	return a, nil
}

// WriteDelta and ReadDelta mirror WriteArtifact/ReadArtifact for deltas,
// named <delta_id>.json under the same operator-specified directory tree.
func WriteDelta(dir string, d Delta) (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal delta: %w", err)
	}
	path := filepath.Join(dir, d.DeltaID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing delta %s: %w", path, err)
	}
	return path, nil
}

func ReadDelta(path string) (Delta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Delta{}, fmt.Errorf("reading delta %s: %w", path, err)
	}
	var d Delta
	if err := json.Unmarshal(data, &d); err != nil {
		return Delta{}, &Error{Code: ErrArtifactCorrupt, Msg: "malformed delta json: " + err.Error()}
	}
	return d, nil
}
