package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FindObjectByName fetches an object by (game_id, name) under the
// NOCASE collation declared on the table.
func (s *Store) FindObjectByName(ctx context.Context, gameID, name string) (Object, bool, error) {
	var o Object
	var isSafe, isPinned, isAutoSync int
	row := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, name, folder_path, object_type, sub_category, tags, metadata,
		       thumbnail_path, is_safe, is_pinned, is_auto_sync, created_at, updated_at
		FROM objects WHERE game_id = ? AND name = ? COLLATE NOCASE
	`, gameID, name)
	err := row.Scan(&o.ID, &o.GameID, &o.Name, &o.FolderPath, &o.ObjectType, &o.SubCategory,
		&o.Tags, &o.Metadata, &o.ThumbnailPath, &isSafe, &isPinned, &isAutoSync, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return Object{}, false, nil
	}
	if err != nil {
		return Object{}, false, errors.Wrap(err, "unable to fetch object")
	}
	o.IsSafe, o.IsPinned, o.IsAutoSync = isSafe != 0, isPinned != 0, isAutoSync != 0
	return o, true, nil
}

// EnsureObjectExistsResult reports whether EnsureObjectExists created a new
// row, so reconcile_full can expose an "N new objects" summary.
type EnsureObjectExistsResult struct {
	Object  Object
	Created bool
}

// EnsureObjectExists is idempotent: for an existing row it updates
// folder_path if it differs, and otherwise inserts a new row with a fresh
// UUID. It does not fill thumbnail, tags or metadata on an existing row;
// a new row gets the empty defaults.
func (s *Store) EnsureObjectExists(ctx context.Context, tx *sql.Tx, gameID, name, folderPath string, now int64) (EnsureObjectExistsResult, error) {
	exec := queryExecer(s, tx)

	var o Object
	var isSafe, isPinned, isAutoSync int
	row := exec.QueryRowContext(ctx, `
		SELECT id, game_id, name, folder_path, object_type, sub_category, tags, metadata,
		       thumbnail_path, is_safe, is_pinned, is_auto_sync, created_at, updated_at
		FROM objects WHERE game_id = ? AND name = ? COLLATE NOCASE
	`, gameID, name)
	err := row.Scan(&o.ID, &o.GameID, &o.Name, &o.FolderPath, &o.ObjectType, &o.SubCategory,
		&o.Tags, &o.Metadata, &o.ThumbnailPath, &isSafe, &isPinned, &isAutoSync, &o.CreatedAt, &o.UpdatedAt)

	if err == sql.ErrNoRows {
		id := uuid.NewString()
		_, insErr := exec.ExecContext(ctx, `
			INSERT INTO objects (id, game_id, name, folder_path, object_type, tags, metadata,
			                      thumbnail_path, is_safe, is_pinned, is_auto_sync, created_at, updated_at)
			VALUES (?, ?, ?, ?, 'Other', '[]', '{}', '', 1, 0, 1, ?, ?)
		`, id, gameID, name, folderPath, now, now)
		if insErr != nil {
			return EnsureObjectExistsResult{}, errors.Wrap(insErr, "unable to insert object")
		}
		created := Object{ID: id, GameID: gameID, Name: name, FolderPath: folderPath, ObjectType: "Other",
			Tags: "[]", Metadata: "{}", IsSafe: true, IsAutoSync: true, CreatedAt: now, UpdatedAt: now}
		return EnsureObjectExistsResult{Object: created, Created: true}, nil
	}
	if err != nil {
		return EnsureObjectExistsResult{}, errors.Wrap(err, "unable to fetch object")
	}

	if o.FolderPath != folderPath {
		if _, err := exec.ExecContext(ctx, `UPDATE objects SET folder_path = ?, updated_at = ? WHERE id = ?`, folderPath, now, o.ID); err != nil {
			return EnsureObjectExistsResult{}, errors.Wrap(err, "unable to update object folder path")
		}
		o.FolderPath = folderPath
	}
	return EnsureObjectExistsResult{Object: o, Created: false}, nil
}

// DeleteGhostObjects deletes every object with no remaining mod rows
// ("ghost GC"), returning the count deleted.
func (s *Store) DeleteGhostObjects(ctx context.Context, tx *sql.Tx, gameID string) (int, error) {
	exec := queryExecer(s, tx)
	result, err := exec.ExecContext(ctx, `
		DELETE FROM objects
		WHERE game_id = ? AND id NOT IN (
			SELECT DISTINCT object_id FROM mods WHERE game_id = ? AND object_id IS NOT NULL
		)
	`, gameID, gameID)
	if err != nil {
		return 0, errors.Wrap(err, "unable to delete ghost objects")
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func queryExecer(s *Store, tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return s.db
}
