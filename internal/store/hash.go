package store

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ComputeSignatureHash derives the deterministic portion of a symbol's
// identity key from its shape, excluding location, so that moving a symbol
// within a file (or re-parsing with identical content) does not change its
// hash. Parameters are hashed in ordinal order since their order is part of
// the signature; nothing else is sorted since signature/kind/visibility are
// already scalar.
func ComputeSignatureHash(name string, kind SymbolKind, visibility Visibility, returnType string, params []Parameter) string {
	sorted := make([]Parameter, len(params))
	copy(sorted, params)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	b.WriteString(string(kind))
	b.WriteByte('|')
	b.WriteString(string(visibility))
	b.WriteByte('|')
	b.WriteString(returnType)
	for _, p := range sorted {
		b.WriteByte('|')
		b.WriteString(p.Name)
		b.WriteByte(':')
		b.WriteString(p.Type)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the hex SHA-256 of file content, the hash stored on
// File.ContentHash and compared against on-disk content to detect unchanged
// files during scan.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
