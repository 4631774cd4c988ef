// Package tokenest estimates token counts for context-budget packing. The
// default estimator is a chars/3.5 heuristic fallback; a model-aware
// Tokenizer can be plugged in when one is available, and is preferred
// whenever set.
package tokenest

import "math"

// Tokenizer counts tokens in a string exactly, backed by a real model's
// vocabulary. Bombe carries no default implementation of this — it's an
// optional plug-in, not a mandated dependency.
type Tokenizer interface {
	CountTokens(s string) int
}

// Estimator wraps an optional exact Tokenizer, falling back to chars/3.5
// when none is configured.
type Estimator struct {
	tokenizer Tokenizer
}

// NewEstimator builds an Estimator. A nil tokenizer means every call uses
// the chars/3.5 fallback.
func NewEstimator(tokenizer Tokenizer) *Estimator {
	return &Estimator{tokenizer: tokenizer}
}

// Count returns the token count for s: exact via the configured Tokenizer
// if present, otherwise len(s)/3.5 rounded up.
func (e *Estimator) Count(s string) int {
	if e != nil && e.tokenizer != nil {
		return e.tokenizer.CountTokens(s)
	}
	return CharsOverPointFive(s)
}

// CharsOverPointFive is the chars/3.5 fallback heuristic, exported so
// callers that don't need a full Estimator (e.g. a quick budget check) can
// use it directly.
func CharsOverPointFive(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / 3.5))
}
