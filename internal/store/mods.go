package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

const modColumns = `id, game_id, object_id, actual_name, folder_path, status, object_type,
	       is_pinned, is_safe, is_favorite, last_status_sfw, last_status_nsfw,
	       size_bytes, metadata_blob, indexed_at`

func scanMod(row interface{ Scan(dest ...interface{}) error }) (Mod, error) {
	var m Mod
	var objectID sql.NullString
	var isPinned, isSafe, isFavorite int
	err := row.Scan(&m.ID, &m.GameID, &objectID, &m.ActualName, &m.FolderPath, &m.Status, &m.ObjectType,
		&isPinned, &isSafe, &isFavorite, &m.LastStatusSFW, &m.LastStatusNSFW,
		&m.SizeBytes, &m.MetadataBlob, &m.IndexedAt)
	if err != nil {
		return Mod{}, err
	}
	m.ObjectID = objectID.String
	m.IsPinned, m.IsSafe, m.IsFavorite = isPinned != 0, isSafe != 0, isFavorite != 0
	return m, nil
}

// FindModByPath fetches a Mod by its (game_id, folder_path) unique key.
func (s *Store) FindModByPath(ctx context.Context, tx *sql.Tx, gameID, folderPath string) (Mod, bool, error) {
	exec := queryExecer(s, tx)
	row := exec.QueryRowContext(ctx, `SELECT `+modColumns+` FROM mods WHERE game_id = ? AND folder_path = ?`, gameID, folderPath)
	m, err := scanMod(row)
	if err == sql.ErrNoRows {
		return Mod{}, false, nil
	}
	if err != nil {
		return Mod{}, false, errors.Wrap(err, "unable to fetch mod by path")
	}
	return m, true, nil
}

// FindModByID fetches a Mod by its primary key.
func (s *Store) FindModByID(ctx context.Context, tx *sql.Tx, id string) (Mod, bool, error) {
	exec := queryExecer(s, tx)
	row := exec.QueryRowContext(ctx, `SELECT `+modColumns+` FROM mods WHERE id = ?`, id)
	m, err := scanMod(row)
	if err == sql.ErrNoRows {
		return Mod{}, false, nil
	}
	if err != nil {
		return Mod{}, false, errors.Wrap(err, "unable to fetch mod by id")
	}
	return m, true, nil
}

// FindModByObjectFolderAndName implements the rename-detection query of
// a row sharing (game_id, object folder name, clean mod name)
// whose folder_path no longer matches is treated as a rename candidate.
func (s *Store) FindModByObjectFolderAndName(ctx context.Context, tx *sql.Tx, gameID, objectFolder, cleanName string) (Mod, bool, error) {
	exec := queryExecer(s, tx)
	rows, err := exec.QueryContext(ctx, `SELECT `+modColumns+` FROM mods WHERE game_id = ?`, gameID)
	if err != nil {
		return Mod{}, false, errors.Wrap(err, "unable to scan mods for rename candidate")
	}
	defer rows.Close()
	for rows.Next() {
		m, scanErr := scanMod(rows)
		if scanErr != nil {
			return Mod{}, false, errors.Wrap(scanErr, "unable to scan mod row")
		}
		if modObjectFolder(m.FolderPath) == objectFolder && m.ActualName == cleanName {
			return m, true, nil
		}
	}
	return Mod{}, false, nil
}

// ModsByGame lists every mod row for a game, ordered by folder_path for
// deterministic iteration.
func (s *Store) ModsByGame(ctx context.Context, tx *sql.Tx, gameID string) ([]Mod, error) {
	exec := queryExecer(s, tx)
	rows, err := exec.QueryContext(ctx, `SELECT `+modColumns+` FROM mods WHERE game_id = ? ORDER BY folder_path`, gameID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list mods")
	}
	defer rows.Close()
	var out []Mod
	for rows.Next() {
		m, scanErr := scanMod(rows)
		if scanErr != nil {
			return nil, errors.Wrap(scanErr, "unable to scan mod row")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ModsByObjectID lists every mod attached to an object, ordered by
// folder_path, used by enable_only_this and the conflict-set computation
// in Collection Apply.
func (s *Store) ModsByObjectID(ctx context.Context, tx *sql.Tx, gameID, objectID string) ([]Mod, error) {
	exec := queryExecer(s, tx)
	rows, err := exec.QueryContext(ctx, `SELECT `+modColumns+` FROM mods WHERE game_id = ? AND object_id = ? ORDER BY folder_path`, gameID, objectID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list mods by object")
	}
	defer rows.Close()
	var out []Mod
	for rows.Next() {
		m, scanErr := scanMod(rows)
		if scanErr != nil {
			return nil, errors.Wrap(scanErr, "unable to scan mod row")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// EnabledModsByGame lists every ENABLED mod for a game.
func (s *Store) EnabledModsByGame(ctx context.Context, tx *sql.Tx, gameID string) ([]Mod, error) {
	exec := queryExecer(s, tx)
	rows, err := exec.QueryContext(ctx, `SELECT `+modColumns+` FROM mods WHERE game_id = ? AND status = ? ORDER BY folder_path`, gameID, StatusEnabled)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list enabled mods")
	}
	defer rows.Close()
	var out []Mod
	for rows.Next() {
		m, scanErr := scanMod(rows)
		if scanErr != nil {
			return nil, errors.Wrap(scanErr, "unable to scan mod row")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertMod inserts a new Mod row.
func (s *Store) InsertMod(ctx context.Context, tx *sql.Tx, m Mod) error {
	exec := queryExecer(s, tx)
	var objectID interface{}
	if m.ObjectID != "" {
		objectID = m.ObjectID
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO mods (id, game_id, object_id, actual_name, folder_path, status, object_type,
		                   is_pinned, is_safe, is_favorite, last_status_sfw, last_status_nsfw,
		                   size_bytes, metadata_blob, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.GameID, objectID, m.ActualName, m.FolderPath, m.Status, m.ObjectType,
		boolToInt(m.IsPinned), boolToInt(m.IsSafe), boolToInt(m.IsFavorite),
		m.LastStatusSFW, m.LastStatusNSFW, m.SizeBytes, m.MetadataBlob, m.IndexedAt)
	if err != nil {
		return errors.Wrap(err, "unable to insert mod")
	}
	return nil
}

// UpdateModIdentity rewrites a mod's id/path/name/status as a unit, used
// when reconciliation or the watcher detects a rename (the "rename-safe
// stable identifier scheme"). The old row is located by oldID.
func (s *Store) UpdateModIdentity(ctx context.Context, tx *sql.Tx, oldID string, newID, folderPath, actualName string, status ModStatus) error {
	exec := queryExecer(s, tx)
	_, err := exec.ExecContext(ctx, `
		UPDATE mods SET id = ?, folder_path = ?, actual_name = ?, status = ? WHERE id = ?
	`, newID, folderPath, actualName, status, oldID)
	if err != nil {
		return errors.Wrap(err, "unable to update mod identity")
	}
	// The id is the primary key referenced by collection_items; carry the
	// rename through so saved collections don't dangle.
	if oldID != newID {
		if _, err := exec.ExecContext(ctx, `UPDATE collection_items SET mod_id = ? WHERE mod_id = ?`, newID, oldID); err != nil {
			return errors.Wrap(err, "unable to carry mod rename into collection_items")
		}
	}
	return nil
}

// UpdateModObjectID rewrites a mod's object_id, used when the watcher
// detects that a rename moved a mod to a different object folder.
func (s *Store) UpdateModObjectID(ctx context.Context, tx *sql.Tx, id, objectID string) error {
	exec := queryExecer(s, tx)
	_, err := exec.ExecContext(ctx, `UPDATE mods SET object_id = ? WHERE id = ?`, objectID, id)
	if err != nil {
		return errors.Wrap(err, "unable to update mod object id")
	}
	return nil
}

// UpdateModStatus updates only the status column, used by toggle and by
// Collection Apply/Undo's state-change routine.
func (s *Store) UpdateModStatus(ctx context.Context, tx *sql.Tx, id string, status ModStatus) error {
	exec := queryExecer(s, tx)
	_, err := exec.ExecContext(ctx, `UPDATE mods SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return errors.Wrap(err, "unable to update mod status")
	}
	return nil
}

// UpdateModPath rewrites folder_path and actual_name without touching id.
func (s *Store) UpdateModPath(ctx context.Context, tx *sql.Tx, id, folderPath, actualName string) error {
	exec := queryExecer(s, tx)
	_, err := exec.ExecContext(ctx, `UPDATE mods SET folder_path = ?, actual_name = ? WHERE id = ?`, folderPath, actualName, id)
	if err != nil {
		return errors.Wrap(err, "unable to update mod path")
	}
	return nil
}

// DeleteMod deletes a mod row by id, used by reconcile's orphan GC and,
// through DeleteModByPath, by watcher-driven removal.
func (s *Store) DeleteMod(ctx context.Context, tx *sql.Tx, id string) error {
	exec := queryExecer(s, tx)
	if _, err := exec.ExecContext(ctx, `DELETE FROM collection_items WHERE mod_id = ?`, id); err != nil {
		return errors.Wrap(err, "unable to delete mod's collection items")
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM mods WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "unable to delete mod")
	}
	return nil
}

// DeleteModByPath deletes a mod row by (game_id, folder_path), used by
// the watcher's Removed-event handler.
func (s *Store) DeleteModByPath(ctx context.Context, tx *sql.Tx, gameID, folderPath string) error {
	m, ok, err := s.FindModByPath(ctx, tx, gameID, folderPath)
	if err != nil || !ok {
		return err
	}
	return s.DeleteMod(ctx, tx, m.ID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// modObjectFolder returns the first path component of a mod's
// mods-root-relative folder path: the object folder it lives under.
func modObjectFolder(folderPath string) string {
	for i := 0; i < len(folderPath); i++ {
		if folderPath[i] == '/' {
			return folderPath[:i]
		}
	}
	return folderPath
}

