package hybrid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// canonicalJSON re-marshals v through a generic map so every object's keys
// come out sorted, giving a checksum over canonical (key-sorted) JSON.
// encoding/json already sorts map[string]any keys, so round-tripping
// through one is sufficient without a custom encoder.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return json.Marshal(generic)
}

// checksumArtifact computes the SHA-256 hex checksum over an artifact's
// canonical JSON with checksum/signature/key_id/algorithm cleared, since
// those fields are computed from (or alongside) the checksum and would
// otherwise make it self-referential.
func checksumArtifact(a Artifact) (string, error) {
	a.Checksum, a.Signature, a.KeyID, a.Algorithm = "", "", "", ""
	data, err := canonicalJSON(a)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func checksumDelta(d Delta) (string, error) {
	d.Checksum, d.Signature, d.KeyID, d.Algorithm = "", "", "", ""
	data, err := canonicalJSON(d)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
