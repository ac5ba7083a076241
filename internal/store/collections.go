package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// GetCollection fetches a Collection by id.
func (s *Store) GetCollection(ctx context.Context, tx *sql.Tx, id string) (Collection, bool, error) {
	exec := queryExecer(s, tx)
	var c Collection
	var isSafe, isLastUnsaved int
	row := exec.QueryRowContext(ctx, `SELECT id, name, game_id, is_safe_context, is_last_unsaved FROM collections WHERE id = ?`, id)
	err := row.Scan(&c.ID, &c.Name, &c.GameID, &isSafe, &isLastUnsaved)
	if err == sql.ErrNoRows {
		return Collection{}, false, nil
	}
	if err != nil {
		return Collection{}, false, errors.Wrap(err, "unable to fetch collection")
	}
	c.IsSafeContext, c.IsLastUnsaved = isSafe != 0, isLastUnsaved != 0
	return c, true, nil
}

// FindLastUnsavedCollection fetches the is_last_unsaved=1 snapshot
// collection for a game, if one exists.
func (s *Store) FindLastUnsavedCollection(ctx context.Context, tx *sql.Tx, gameID string) (Collection, bool, error) {
	exec := queryExecer(s, tx)
	var c Collection
	var isSafe, isLastUnsaved int
	row := exec.QueryRowContext(ctx, `SELECT id, name, game_id, is_safe_context, is_last_unsaved FROM collections WHERE game_id = ? AND is_last_unsaved = 1`, gameID)
	err := row.Scan(&c.ID, &c.Name, &c.GameID, &isSafe, &isLastUnsaved)
	if err == sql.ErrNoRows {
		return Collection{}, false, nil
	}
	if err != nil {
		return Collection{}, false, errors.Wrap(err, "unable to fetch last-unsaved collection")
	}
	c.IsSafeContext, c.IsLastUnsaved = isSafe != 0, isLastUnsaved != 0
	return c, true, nil
}

// InsertCollection inserts a new Collection row.
func (s *Store) InsertCollection(ctx context.Context, tx *sql.Tx, c Collection) error {
	exec := queryExecer(s, tx)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO collections (id, name, game_id, is_safe_context, is_last_unsaved)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.GameID, boolToInt(c.IsSafeContext), boolToInt(c.IsLastUnsaved))
	if err != nil {
		return errors.Wrap(err, "unable to insert collection")
	}
	return nil
}

// DeleteCollection deletes a collection and its items.
func (s *Store) DeleteCollection(ctx context.Context, tx *sql.Tx, id string) error {
	exec := queryExecer(s, tx)
	if _, err := exec.ExecContext(ctx, `DELETE FROM collection_items WHERE collection_id = ?`, id); err != nil {
		return errors.Wrap(err, "unable to delete collection items")
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "unable to delete collection")
	}
	return nil
}

// CollectionItems lists the targets of a collection.
func (s *Store) CollectionItems(ctx context.Context, tx *sql.Tx, collectionID string) ([]CollectionItem, error) {
	exec := queryExecer(s, tx)
	rows, err := exec.QueryContext(ctx, `SELECT collection_id, mod_id, mod_path FROM collection_items WHERE collection_id = ?`, collectionID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list collection items")
	}
	defer rows.Close()
	var out []CollectionItem
	for rows.Next() {
		var item CollectionItem
		if err := rows.Scan(&item.CollectionID, &item.ModID, &item.ModPath); err != nil {
			return nil, errors.Wrap(err, "unable to scan collection item")
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// InsertCollectionItem inserts or replaces a single collection target.
func (s *Store) InsertCollectionItem(ctx context.Context, tx *sql.Tx, item CollectionItem) error {
	exec := queryExecer(s, tx)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO collection_items (collection_id, mod_id, mod_path) VALUES (?, ?, ?)
		ON CONFLICT(collection_id, mod_id) DO UPDATE SET mod_path=excluded.mod_path
	`, item.CollectionID, item.ModID, item.ModPath)
	if err != nil {
		return errors.Wrap(err, "unable to insert collection item")
	}
	return nil
}

// UpdateCollectionItemReference rewrites a collection item's (mod_id,
// mod_path) pair, used by apply_collection step 2 when a stale mod_id is
// recovered by path.
func (s *Store) UpdateCollectionItemReference(ctx context.Context, tx *sql.Tx, collectionID, oldModID, newModID, newPath string) error {
	exec := queryExecer(s, tx)
	if _, err := exec.ExecContext(ctx, `DELETE FROM collection_items WHERE collection_id = ? AND mod_id = ?`, collectionID, newModID); err != nil {
		return errors.Wrap(err, "unable to clear conflicting collection item")
	}
	_, err := exec.ExecContext(ctx, `
		UPDATE collection_items SET mod_id = ?, mod_path = ? WHERE collection_id = ? AND mod_id = ?
	`, newModID, newPath, collectionID, oldModID)
	if err != nil {
		return errors.Wrap(err, "unable to rewrite collection item reference")
	}
	return nil
}
