package store

import (
	"fmt"
	"time"
)

// DiagnosticSeverity is the closed set of severities a diagnostic row
// carries.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
	SeverityInfo    DiagnosticSeverity = "info"
)

// Diagnostic is a single non-fatal condition recorded during an indexing
// run: a parse or extraction failure, an IO error, a store error, or an
// ambiguous edge resolution.
type Diagnostic struct {
	RunID       string
	Stage       string
	Category    string
	Severity    DiagnosticSeverity
	File        string
	Message     string
	Remediation string
}

// RecordDiagnostic appends one diagnostic row. Diagnostics are append-only;
// bounded retention is left to the operator.
func (s *Store) RecordDiagnostic(d Diagnostic) error {
	_, err := s.db.Exec(`
		INSERT INTO indexing_diagnostics (run_id, stage, category, severity, file, message, remediation, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.RunID, d.Stage, d.Category, string(d.Severity), d.File, d.Message, d.Remediation, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// DiagnosticsByRun returns every diagnostic recorded for a run id, in
// insertion order.
func (s *Store) DiagnosticsByRun(runID string) ([]Diagnostic, error) {
	rows, err := s.db.Query(`SELECT run_id, stage, category, severity, file, message, remediation
		FROM indexing_diagnostics WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	defer rows.Close()
	var out []Diagnostic
	for rows.Next() {
		var d Diagnostic
		var sev string
		if err := rows.Scan(&d.RunID, &d.Stage, &d.Category, &sev, &d.File, &d.Message, &d.Remediation); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreError, err)
		}
		d.Severity = DiagnosticSeverity(sev)
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordToolMetric logs a single query-engine invocation's timing and cache
// outcome.
func (s *Store) RecordToolMetric(tool string, durationMS int64, cacheMode string) error {
	_, err := s.db.Exec(`INSERT INTO tool_metric_log (tool, duration_ms, cache_mode, occurred_at) VALUES (?, ?, ?, ?)`,
		tool, durationMS, cacheMode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// OutboundStatus is the closed set of states a queued delta moves through.
type OutboundStatus string

const (
	OutboundPending OutboundStatus = "pending"
	OutboundSent    OutboundStatus = "sent"
	OutboundFailed  OutboundStatus = "failed"
)

// EnqueueOutboundDelta appends a delta to the sync outbound queue in
// pending state.
func (s *Store) EnqueueOutboundDelta(deltaID string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO sync_outbound_queue (delta_id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		deltaID, string(OutboundPending), now, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// UpdateOutboundStatus transitions a queued delta's status.
func (s *Store) UpdateOutboundStatus(deltaID string, status OutboundStatus) error {
	res, err := s.db.Exec(`UPDATE sync_outbound_queue SET status = ?, updated_at = ? WHERE delta_id = ?`,
		string(status), time.Now().UTC(), deltaID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// QuarantineArtifact adds an artifact id to the permanent quarantine set.
// A quarantined artifact must never be applied again until explicitly
// removed.
func (s *Store) QuarantineArtifact(artifactID, reason string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO artifact_quarantine (artifact_id, reason, quarantined_at) VALUES (?, ?, ?)`,
		artifactID, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// IsQuarantined reports whether an artifact id is in the quarantine set.
func (s *Store) IsQuarantined(artifactID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM artifact_quarantine WHERE artifact_id = ?`, artifactID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return count > 0, nil
}

// RemoveQuarantine lifts quarantine on an artifact id.
func (s *Store) RemoveQuarantine(artifactID string) error {
	_, err := s.db.Exec(`DELETE FROM artifact_quarantine WHERE artifact_id = ?`, artifactID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// PinArtifact records the artifact id applied for a (repo, snapshot) pair.
func (s *Store) PinArtifact(repo, snapshot, artifactID string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO artifact_pin (repo, snapshot, artifact_id, pinned_at) VALUES (?, ?, ?, ?)`,
		repo, snapshot, artifactID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// CircuitState is the closed set of circuit-breaker states per remote.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreaker returns the current state for a remote, defaulting to
// closed with zero failures if no row exists yet.
func (s *Store) CircuitBreaker(remote string) (CircuitState, int, error) {
	var state string
	var failures int
	err := s.db.QueryRow(`SELECT state, failure_count FROM circuit_breaker_state WHERE remote = ?`, remote).Scan(&state, &failures)
	if err != nil {
		return CircuitClosed, 0, nil
	}
	return CircuitState(state), failures, nil
}

// SetCircuitBreaker upserts a remote's circuit-breaker state.
func (s *Store) SetCircuitBreaker(remote string, state CircuitState, failures int) error {
	now := time.Now().UTC()
	var openedAt any
	if state == CircuitOpen {
		openedAt = now
	}
	_, err := s.db.Exec(`
		INSERT INTO circuit_breaker_state (remote, state, failure_count, opened_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(remote) DO UPDATE SET state = excluded.state, failure_count = excluded.failure_count,
			opened_at = COALESCE(excluded.opened_at, circuit_breaker_state.opened_at), updated_at = excluded.updated_at
	`, remote, string(state), failures, openedAt, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// RecordSyncEvent appends a row to the sync event log.
func (s *Store) RecordSyncEvent(eventType, remote, detail string) error {
	_, err := s.db.Exec(`INSERT INTO sync_event_log (event_type, remote, detail, occurred_at) VALUES (?, ?, ?, ?)`,
		eventType, remote, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// TrustSigningKey registers a key id as trusted for artifact signature
// verification.
func (s *Store) TrustSigningKey(keyID, algorithm, keyMaterial string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO trusted_signing_keys (key_id, algorithm, key_material, added_at) VALUES (?, ?, ?, ?)`,
		keyID, algorithm, keyMaterial, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreError, err)
	}
	return nil
}

// SigningKey returns a trusted key's material and algorithm.
func (s *Store) SigningKey(keyID string) (algorithm, keyMaterial string, err error) {
	err = s.db.QueryRow(`SELECT algorithm, key_material FROM trusted_signing_keys WHERE key_id = ?`, keyID).Scan(&algorithm, &keyMaterial)
	if err != nil {
		return "", "", ErrNotFound
	}
	return algorithm, keyMaterial, nil
}
