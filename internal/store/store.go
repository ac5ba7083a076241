// Package store implements the engine's persistence schema over
// modernc.org/sqlite, a pure-Go database/sql driver that keeps the rest of
// this engine free of cgo. It owns the games/objects/mods/collections/
// dedup tables and the transactional multi-row operations the Directory
// Synchronizer (internal/modsync) and Collection Apply/Undo
// (internal/collections) build on.
package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store wraps a database/sql connection pool with a small
// max_connections so that writes serialize at the pool layer rather than
// relying on application-level locking for anything but the
// OperationLock-guarded multi-row transitions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies the schema. maxConnections bounds the pool; a value <= 0
// defaults to 4.
func Open(ctx context.Context, path string, maxConnections int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}
	if maxConnections <= 0 {
		maxConnections = 4
	}
	db.SetMaxOpenConns(maxConnections)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to enable foreign keys")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to set journal mode")
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a single transaction, committing on success and
// rolling back if fn returns an error or panics. Every multi-row state
// transition in the synchronizer and collections goes through this rather than ad-hoc
// Begin/Commit pairs.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}

// DB exposes the underlying *sql.DB for callers (e.g. cmd/modcore) that
// need to run ad-hoc diagnostic queries; all engine-internal state
// transitions go through the typed methods in this package instead.
func (s *Store) DB() *sql.DB {
	return s.db
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	game_type       TEXT NOT NULL DEFAULT '',
	path            TEXT NOT NULL DEFAULT '',
	mod_path        TEXT NOT NULL DEFAULT '',
	launcher_path   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS objects (
	id              TEXT PRIMARY KEY,
	game_id         TEXT NOT NULL,
	name            TEXT NOT NULL COLLATE NOCASE,
	folder_path     TEXT NOT NULL,
	object_type     TEXT NOT NULL DEFAULT 'Other',
	sub_category    TEXT NOT NULL DEFAULT '',
	tags            TEXT NOT NULL DEFAULT '[]',
	metadata        TEXT NOT NULL DEFAULT '{}',
	thumbnail_path  TEXT NOT NULL DEFAULT '',
	is_safe         INTEGER NOT NULL DEFAULT 1,
	is_pinned       INTEGER NOT NULL DEFAULT 0,
	is_auto_sync    INTEGER NOT NULL DEFAULT 1,
	created_at      INTEGER NOT NULL DEFAULT 0,
	updated_at      INTEGER NOT NULL DEFAULT 0,
	UNIQUE(game_id, name COLLATE NOCASE)
);

CREATE TABLE IF NOT EXISTS mods (
	id               TEXT PRIMARY KEY,
	game_id          TEXT NOT NULL,
	object_id        TEXT,
	actual_name      TEXT NOT NULL,
	folder_path      TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'DISABLED',
	object_type      TEXT NOT NULL DEFAULT 'Other',
	is_pinned        INTEGER NOT NULL DEFAULT 0,
	is_safe          INTEGER NOT NULL DEFAULT 1,
	is_favorite      INTEGER NOT NULL DEFAULT 0,
	last_status_sfw  TEXT NOT NULL DEFAULT '',
	last_status_nsfw TEXT NOT NULL DEFAULT '',
	size_bytes       INTEGER NOT NULL DEFAULT 0,
	metadata_blob    TEXT NOT NULL DEFAULT '{}',
	indexed_at       INTEGER NOT NULL DEFAULT 0,
	UNIQUE(game_id, folder_path)
);
CREATE INDEX IF NOT EXISTS mods_object_id_idx ON mods(object_id);

CREATE TABLE IF NOT EXISTS collections (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	game_id          TEXT NOT NULL,
	is_safe_context  INTEGER NOT NULL DEFAULT 0,
	is_last_unsaved  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS collection_items (
	collection_id    TEXT NOT NULL,
	mod_id           TEXT NOT NULL,
	mod_path         TEXT NOT NULL,
	PRIMARY KEY(collection_id, mod_id)
);

CREATE TABLE IF NOT EXISTS dedup_jobs (
	id               TEXT PRIMARY KEY,
	game_id          TEXT NOT NULL,
	status           TEXT NOT NULL,
	total_folders    INTEGER NOT NULL DEFAULT 0,
	started_at       INTEGER NOT NULL DEFAULT 0,
	finished_at      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS dedup_groups (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id           TEXT NOT NULL,
	group_index      INTEGER NOT NULL,
	confidence_score INTEGER NOT NULL,
	primary_reason   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dedup_group_members (
	group_id         INTEGER NOT NULL,
	mod_id           TEXT NOT NULL,
	folder_path      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS duplicate_whitelist (
	game_id          TEXT NOT NULL,
	folder_a_id      TEXT NOT NULL,
	folder_b_id      TEXT NOT NULL,
	reason           TEXT NOT NULL DEFAULT '',
	UNIQUE(game_id, folder_a_id, folder_b_id)
);

CREATE TABLE IF NOT EXISTS trash_entries (
	id               TEXT PRIMARY KEY,
	game_id          TEXT NOT NULL,
	original_path    TEXT NOT NULL,
	trash_path       TEXT NOT NULL,
	deleted_at       INTEGER NOT NULL
);
`

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "unable to apply schema")
	}
	return nil
}
