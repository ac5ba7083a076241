package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// TrashEntry is a single manifest row recording a user-initiated
// move-to-trash, distinct from watcher-driven deletion.
type TrashEntry struct {
	ID           string
	GameID       string
	OriginalPath string
	TrashPath    string
	DeletedAt    int64
}

// InsertTrashEntry records a move-to-trash.
func (s *Store) InsertTrashEntry(ctx context.Context, e TrashEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trash_entries (id, game_id, original_path, trash_path, deleted_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.GameID, e.OriginalPath, e.TrashPath, e.DeletedAt)
	if err != nil {
		return errors.Wrap(err, "unable to insert trash entry")
	}
	return nil
}

// GetTrashEntry fetches a trash manifest row by id.
func (s *Store) GetTrashEntry(ctx context.Context, id string) (TrashEntry, bool, error) {
	var e TrashEntry
	row := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, original_path, trash_path, deleted_at FROM trash_entries WHERE id = ?
	`, id)
	err := row.Scan(&e.ID, &e.GameID, &e.OriginalPath, &e.TrashPath, &e.DeletedAt)
	if err == sql.ErrNoRows {
		return TrashEntry{}, false, nil
	}
	if err != nil {
		return TrashEntry{}, false, errors.Wrap(err, "unable to fetch trash entry")
	}
	return e, true, nil
}

// DeleteTrashEntry removes a manifest row after a successful restore or
// permanent purge.
func (s *Store) DeleteTrashEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM trash_entries WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "unable to delete trash entry")
	}
	return nil
}

// ListTrashEntries lists every trashed folder for a game, ordered by
// deleted_at for a stable "most recent first" listing when reversed.
func (s *Store) ListTrashEntries(ctx context.Context, gameID string) ([]TrashEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, original_path, trash_path, deleted_at FROM trash_entries WHERE game_id = ? ORDER BY deleted_at
	`, gameID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list trash entries")
	}
	defer rows.Close()
	var out []TrashEntry
	for rows.Next() {
		var e TrashEntry
		if err := rows.Scan(&e.ID, &e.GameID, &e.OriginalPath, &e.TrashPath, &e.DeletedAt); err != nil {
			return nil, errors.Wrap(err, "unable to scan trash entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
