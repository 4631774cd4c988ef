package store

// schemaSteps is the forward-only, versioned migration ladder. Each entry is
// applied inside its own savepoint; a failure rolls back that step only and
// leaves migration_history at the prior version.
var schemaSteps = []string{
	// v1: core graph tables.
	`
	CREATE TABLE IF NOT EXISTS files (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		path          TEXT NOT NULL UNIQUE,
		language      TEXT NOT NULL,
		content_hash  TEXT NOT NULL,
		size_bytes    INTEGER NOT NULL,
		last_indexed  TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS symbols (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		name             TEXT NOT NULL,
		qualified_name   TEXT NOT NULL,
		kind             TEXT NOT NULL,
		file_id          INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		start_line       INTEGER NOT NULL,
		end_line         INTEGER NOT NULL,
		signature        TEXT NOT NULL DEFAULT '',
		signature_hash   TEXT NOT NULL DEFAULT '',
		return_type      TEXT NOT NULL DEFAULT '',
		visibility       TEXT NOT NULL DEFAULT 'public',
		async            INTEGER NOT NULL DEFAULT 0,
		static           INTEGER NOT NULL DEFAULT 0,
		parent_symbol_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
		docstring        TEXT NOT NULL DEFAULT '',
		page_rank        REAL NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS parameters (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol_id   INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT '',
		has_default INTEGER NOT NULL DEFAULT 0,
		default_val TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS edges (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id     INTEGER NOT NULL,
		source_type   TEXT NOT NULL,
		target_id     INTEGER NOT NULL,
		target_type   TEXT NOT NULL,
		relationship  TEXT NOT NULL,
		file_id       INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		line          INTEGER NOT NULL,
		confidence    REAL NOT NULL DEFAULT 1.0,
		UNIQUE(source_id, source_type, target_id, target_type, relationship)
	);
	CREATE TABLE IF NOT EXISTS external_deps (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		raw_import  TEXT NOT NULL,
		module_name TEXT NOT NULL,
		line        INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
	CREATE INDEX IF NOT EXISTS idx_symbols_qualified ON symbols(qualified_name);
	CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id);
	CREATE INDEX IF NOT EXISTS idx_parameters_symbol ON parameters(symbol_id);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id, source_type);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id, target_type);
	CREATE INDEX IF NOT EXISTS idx_edges_relationship ON edges(relationship);
	CREATE INDEX IF NOT EXISTS idx_edges_file ON edges(file_id);
	CREATE INDEX IF NOT EXISTS idx_external_deps_file ON external_deps(file_id);

	CREATE TABLE IF NOT EXISTS store_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	INSERT OR IGNORE INTO store_meta(key, value) VALUES ('cache_epoch', '0');
	`,
	// v2: full-text index over symbols. Populated explicitly by Go code
	// (insertSymbolTx / deleteFileGraphTx) rather than by a trigger mirroring
	// the raw symbols columns, since the indexed text is Porter-stemmed in
	// Go before insertion (see stem.go) and SQL triggers can't call out to
	// Go; tokenize stays the plain unicode61 tokenizer so SQLite doesn't
	// double-stem already-stemmed text.
	`
	CREATE VIRTUAL TABLE IF NOT EXISTS symbol_fts USING fts5(
		name, qualified_name, docstring,
		tokenize='unicode61'
	);
	`,
	// v3: operational tables (hybrid sync, diagnostics, migrations, signing keys).
	`
	CREATE TABLE IF NOT EXISTS sync_outbound_queue (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		delta_id    TEXT NOT NULL,
		status      TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS artifact_quarantine (
		artifact_id TEXT PRIMARY KEY,
		reason      TEXT NOT NULL,
		quarantined_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS artifact_pin (
		repo        TEXT NOT NULL,
		snapshot    TEXT NOT NULL,
		artifact_id TEXT NOT NULL,
		pinned_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (repo, snapshot)
	);
	CREATE TABLE IF NOT EXISTS circuit_breaker_state (
		remote        TEXT PRIMARY KEY,
		state         TEXT NOT NULL,
		failure_count INTEGER NOT NULL DEFAULT 0,
		opened_at     TIMESTAMP,
		updated_at    TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sync_event_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		remote     TEXT NOT NULL DEFAULT '',
		detail     TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tool_metric_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		tool        TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		cache_mode  TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS indexing_diagnostics (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		stage        TEXT NOT NULL,
		category     TEXT NOT NULL,
		severity     TEXT NOT NULL,
		file         TEXT NOT NULL DEFAULT '',
		message      TEXT NOT NULL,
		remediation  TEXT NOT NULL DEFAULT '',
		occurred_at  TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS migration_history (
		version     INTEGER PRIMARY KEY,
		applied_at  TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS trusted_signing_keys (
		key_id      TEXT PRIMARY KEY,
		algorithm   TEXT NOT NULL,
		key_material TEXT NOT NULL,
		added_at    TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON indexing_diagnostics(run_id);
	`,
}
