// Package trash implements the user-initiated move-to-trash/restore path
// referenced by the data model's Lifecycles note (unlike watcher-driven
// deletion, which only drops the mod row, it moves files and persists a
// trash manifest) and commands/mods/trash_cmds.rs in original_source/: a small
// manifest-backed move that keeps a deleted mod folder recoverable
// instead of deleting it outright.
package trash

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/modsync"
	"github.com/modgrove/modcore/internal/store"
)

// MoveToTrash moves the mod folder at modsRoot/relPath into
// trashRoot/gameID/<id>_<basename>, records a manifest row, and returns
// the new trash id. It does not touch the mods table; callers that also
// want the mod's DB row removed should call store.DeleteMod (or let the
// next watcher/reconcile pass observe the folder is gone).
func MoveToTrash(ctx context.Context, db *store.Store, trashRoot, gameID, modsRoot, relPath string, now int64) (string, error) {
	absSource := filepath.Join(modsRoot, filepath.FromSlash(relPath))
	if _, err := os.Stat(absSource); err != nil {
		return "", errors.Wrap(err, "mod folder does not exist")
	}

	id := uuid.NewString()
	gameTrashDir := filepath.Join(trashRoot, gameID)
	if err := os.MkdirAll(gameTrashDir, 0o755); err != nil {
		return "", errors.Wrap(err, "unable to create trash directory")
	}
	trashPath := filepath.Join(gameTrashDir, id+"_"+filepath.Base(relPath))

	if err := modsync.RenameWithFallback(absSource, trashPath); err != nil {
		return "", errors.Wrap(err, "unable to move folder to trash")
	}

	if err := db.InsertTrashEntry(ctx, store.TrashEntry{
		ID:           id,
		GameID:       gameID,
		OriginalPath: relPath,
		TrashPath:    trashPath,
		DeletedAt:    now,
	}); err != nil {
		// Roll back the filesystem move so the folder isn't orphaned
		// with no manifest record pointing at it.
		_ = modsync.RenameWithFallback(trashPath, absSource)
		return "", err
	}
	return id, nil
}

// Restore moves a trashed folder back to its original location and
// deletes the manifest row. It fails if something already occupies the
// original path.
func Restore(ctx context.Context, db *store.Store, modsRoot, trashID string) (string, error) {
	entry, found, err := db.GetTrashEntry(ctx, trashID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.Errorf("trash entry %s not found", trashID)
	}

	absDest := filepath.Join(modsRoot, filepath.FromSlash(entry.OriginalPath))
	if _, err := os.Stat(absDest); err == nil {
		return "", errors.Errorf("restore destination already occupied: %s", entry.OriginalPath)
	}
	if err := os.MkdirAll(filepath.Dir(absDest), 0o755); err != nil {
		return "", errors.Wrap(err, "unable to recreate object folder")
	}
	if err := modsync.RenameWithFallback(entry.TrashPath, absDest); err != nil {
		return "", errors.Wrap(err, "unable to restore folder from trash")
	}
	if err := db.DeleteTrashEntry(ctx, trashID); err != nil {
		return "", err
	}
	return entry.OriginalPath, nil
}

// Purge permanently deletes a trashed folder and its manifest row.
func Purge(ctx context.Context, db *store.Store, trashID string) error {
	entry, found, err := db.GetTrashEntry(ctx, trashID)
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("trash entry %s not found", trashID)
	}
	if err := os.RemoveAll(entry.TrashPath); err != nil {
		return errors.Wrap(err, "unable to purge trashed folder")
	}
	return db.DeleteTrashEntry(ctx, trashID)
}
