package store

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a single SQLite database file holding the full graph.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the SQLite database at path with the
// pragmas Bombe's concurrency model requires: WAL journaling for single-
// writer/non-blocking-reader semantics, foreign keys enforced, and a busy
// timeout so concurrent writers wait rather than fail immediately.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging store %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies any schema steps not yet recorded in migration_history.
// Each step runs inside its own savepoint; a failed step rolls back and
// migration stops, leaving the store at the last successfully applied
// version.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS migration_history (
		version INTEGER PRIMARY KEY, applied_at TIMESTAMP NOT NULL)`); err != nil {
		return fmt.Errorf("preparing migration_history: %w", err)
	}

	var current int
	row := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM migration_history`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading migration_history: %w", err)
	}
	if current > len(schemaSteps) {
		return fmt.Errorf("%w: store is at version %d, code understands %d", ErrSchemaIncompatible, current, len(schemaSteps))
	}

	for i := current; i < len(schemaSteps); i++ {
		version := i + 1
		savepoint := fmt.Sprintf("migration_v%d", version)
		if _, err := s.db.Exec("SAVEPOINT " + savepoint); err != nil {
			return fmt.Errorf("%w: opening savepoint for v%d: %v", ErrMigrationFailed, version, err)
		}
		if _, err := s.db.Exec(schemaSteps[i]); err != nil {
			s.db.Exec("ROLLBACK TO " + savepoint)
			s.db.Exec("RELEASE " + savepoint)
			return fmt.Errorf("%w: applying v%d: %v", ErrMigrationFailed, version, err)
		}
		if _, err := s.db.Exec(`INSERT INTO migration_history(version, applied_at) VALUES (?, ?)`, version, time.Now().UTC()); err != nil {
			s.db.Exec("ROLLBACK TO " + savepoint)
			s.db.Exec("RELEASE " + savepoint)
			return fmt.Errorf("%w: recording v%d: %v", ErrMigrationFailed, version, err)
		}
		if _, err := s.db.Exec("RELEASE " + savepoint); err != nil {
			return fmt.Errorf("%w: releasing savepoint v%d: %v", ErrMigrationFailed, version, err)
		}
	}
	return nil
}

// CacheEpoch returns the current monotonic cache-invalidation counter.
func (s *Store) CacheEpoch() (int64, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM store_meta WHERE key = 'cache_epoch'`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading cache epoch: %w", err)
	}
	var epoch int64
	_, err = fmt.Sscanf(v, "%d", &epoch)
	return epoch, err
}

// bumpEpochTx increments the cache epoch inside an existing transaction.
func bumpEpochTx(tx execer) error {
	_, err := tx.Exec(`UPDATE store_meta SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT) WHERE key = 'cache_epoch'`)
	return err
}

// BackupTo writes an online backup of the store to dstPath with SQLite's
// VACUUM INTO statement, which builds a new, compacted database file from
// one consistent read transaction. It fails if dstPath already exists.
func (s *Store) BackupTo(dstPath string) error {
	if _, err := os.Stat(dstPath); err == nil {
		return fmt.Errorf("backup destination %s already exists", dstPath)
	}
	_, err := s.db.Exec(`VACUUM INTO ?`, dstPath)
	if err != nil {
		return fmt.Errorf("backing up store to %s: %w", dstPath, err)
	}
	return nil
}

// RestoreFrom replaces the store's on-disk file with srcPath by copying its
// bytes over dstPath. It does not check whether a Store has dstPath open;
// overwriting the file under an open store is not detected.
func RestoreFrom(srcPath, dstPath string) error {
	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("restore source %s: %w", srcPath, err)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading backup %s: %w", srcPath, err)
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return fmt.Errorf("writing restored store %s: %w", dstPath, err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
