package bombe

import (
	"errors"

	"github.com/pgtgrly/bombe-mcp/internal/hybrid"
	"github.com/pgtgrly/bombe-mcp/internal/query"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

// ErrCode is the closed taxonomy of stable error codes callers can match on
// across the indexing, query, and hybrid sync surfaces.
type ErrCode string

const (
	ErrParse               ErrCode = "PARSE_ERROR"
	ErrIO                  ErrCode = "IO_ERROR"
	ErrStore               ErrCode = "STORE_ERROR"
	ErrSchemaIncompatible  ErrCode = "SCHEMA_INCOMPATIBLE"
	ErrMigrationFailed     ErrCode = "MIGRATION_FAILED"
	ErrResourceLimit       ErrCode = "RESOURCE_LIMIT"
	ErrRemote              ErrCode = "REMOTE_ERROR"
	ErrRemoteTimeout       ErrCode = "REMOTE_TIMEOUT"
	ErrArtifactIncompatible ErrCode = "ARTIFACT_INCOMPATIBLE"
	ErrArtifactCorrupt     ErrCode = "ARTIFACT_CORRUPT"
	ErrSignatureMismatch   ErrCode = "SIGNATURE_MISMATCH"
)

// Error is the typed error every Engine method that fails returns. Cause
// wraps the underlying internal/store, internal/query, or internal/hybrid
// sentinel so errors.Is/errors.As against those still works.
type Error struct {
	Code  ErrCode
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// wrapErr maps a store/hybrid sentinel error onto the public taxonomy. It
// returns nil for nil, and falls back to ErrStore for anything unrecognized
// rather than ever panicking on an unmapped cause.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrSchemaIncompatible):
		return &Error{Code: ErrSchemaIncompatible, Msg: err.Error(), Cause: err}
	case errors.Is(err, store.ErrMigrationFailed):
		return &Error{Code: ErrMigrationFailed, Msg: err.Error(), Cause: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Code: ErrStore, Msg: err.Error(), Cause: err}
	case errors.Is(err, store.ErrStoreError):
		return &Error{Code: ErrStore, Msg: err.Error(), Cause: err}
	}
	var qerr *query.EngineError
	if errors.As(err, &qerr) {
		return &Error{Code: ErrStore, Msg: qerr.Error(), Cause: err}
	}
	var herr *hybrid.Error
	if errors.As(err, &herr) {
		switch herr.Code {
		case hybrid.ErrArtifactIncompatible:
			return &Error{Code: ErrArtifactIncompatible, Msg: herr.Msg, Cause: err}
		case hybrid.ErrArtifactCorrupt:
			return &Error{Code: ErrArtifactCorrupt, Msg: herr.Msg, Cause: err}
		case hybrid.ErrSignatureMismatch:
			return &Error{Code: ErrSignatureMismatch, Msg: herr.Msg, Cause: err}
		}
	}
	return &Error{Code: ErrStore, Msg: err.Error(), Cause: err}
}
