// Package redact scrubs sensitive-looking content out of source fragments
// before they leave get_context's assembly stage. It runs last, on
// already-assembled strings, so no upstream transformation can reintroduce
// a secret after the check.
//
// Path-based exclusion (internal/scanner/ignore.go) keeps whole files like
// *.pem out of the index; content-level redaction is a different concern.
// A file can be legitimately indexed (a docstring mentioning a rotated
// example key) yet still need the literal scrubbed from an emitted
// response.
package redact

import "regexp"

// Marker replaces any redacted span in emitted source/docstring text.
const Marker = "[REDACTED]"

var patterns = []*regexp.Regexp{
	// AWS-style access key ids.
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	// Generic api-key/secret/token/password assignments: key = "value" or
	// key: value, requiring the value look credential-shaped (>= 12 chars,
	// no whitespace) so normal config like `timeout = 30` isn't touched.
	regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|password|passwd|access[_-]?key)\b\s*[:=]\s*['"]?([A-Za-z0-9_\-/+.]{12,})['"]?`),
	// PEM blocks (private keys, certificates, and similar armored material).
	regexp.MustCompile(`(?s)-----BEGIN [A-Z0-9 ]+-----.*?-----END [A-Z0-9 ]+-----`),
	// Long hex strings (>= 32 hex chars), the shape of raw key material.
	regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`),
	// Long base64-looking strings (>= 40 chars of base64 alphabet). There
	// is no case-mix condition: a run of digits alone also matches.
	regexp.MustCompile(`\b[A-Za-z0-9+/]{40,}={0,2}\b`),
}

// Redactor scrubs sensitive-content patterns from text, counting how many
// spans it replaced so callers can attach a redaction counter to
// diagnostics.
type Redactor struct {
	patterns []*regexp.Regexp
}

// New builds a Redactor with the default sensitive-content pattern set.
func New() *Redactor {
	return &Redactor{patterns: patterns}
}

// Scrub replaces every match of every pattern in s with Marker, returning
// the scrubbed string and the number of spans replaced.
func (r *Redactor) Scrub(s string) (string, int) {
	count := 0
	out := s
	for _, p := range r.patterns {
		out = p.ReplaceAllStringFunc(out, func(match string) string {
			count++
			return Marker
		})
	}
	return out, count
}

// ContainsSensitive reports whether s matches any sensitive-content
// pattern without performing the replacement, used by tests asserting
// that no substring matching the sensitive patterns remains.
func ContainsSensitive(s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
