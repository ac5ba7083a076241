package modsync

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// ToggleResult reports the outcome of an atomic enable/disable.
type ToggleResult struct {
	NewPath   string // relative to the mods root
	NewStatus store.ModStatus
}

// Toggle performs the atomic enable/disable operation: it
// acquires the process-wide OperationLock, suppresses the watcher for the
// duration of the filesystem rename it performs itself, renames
// <parent>/<name> to the standardized enabled/disabled form, updates the
// DB row, and releases both guards in reverse order on every exit path.
func Toggle(ctx context.Context, db *store.Store, lock *oplock.OperationLock, suppressor *watch.Suppressor, modsRoot, gameID, modID string, enable bool) (ToggleResult, error) {
	guard, err := lock.Acquire()
	if err != nil {
		return ToggleResult{}, err
	}
	defer guard.Release()

	suppression := suppressor.Suppress()
	defer suppression.Release()

	mod, found, err := db.FindModByID(ctx, nil, modID)
	if err != nil {
		return ToggleResult{}, err
	}
	if !found {
		return ToggleResult{}, errors.Errorf("mod %s not found", modID)
	}

	wantStatus := store.StatusDisabled
	if enable {
		wantStatus = store.StatusEnabled
	}

	newRelPath, newID, err := RenameForStatus(modsRoot, gameID, mod, wantStatus)
	if err != nil {
		return ToggleResult{}, err
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		return applyIdentityChange(ctx, db, tx, mod, newID, newRelPath, wantStatus)
	})
	if err != nil {
		return ToggleResult{}, err
	}

	return ToggleResult{NewPath: newRelPath, NewStatus: wantStatus}, nil
}

// RenameForStatus performs only the filesystem half of a status change:
// it standardizes the folder's enable/disable prefix and renames
// it on disk, returning the new mods-root-relative path and the stable id
// that path implies. It does not touch the database or any lock/guard,
// so Collection Apply/Undo can batch many of these renames under
// a single OperationLock + suppression scope rather than one per mod.
func RenameForStatus(modsRoot, gameID string, mod store.Mod, want store.ModStatus) (newRelPath, newID string, err error) {
	enable := want == store.StatusEnabled
	objectFolder := modObjectFolderName(mod.FolderPath)
	oldName := filepath.Base(mod.FolderPath)
	newName := normalize.StandardizePrefix(oldName, enable)

	if newName == oldName {
		newRelPath = mod.FolderPath
	} else {
		oldAbs := filepath.Join(modsRoot, objectFolder, oldName)
		newAbs := filepath.Join(modsRoot, objectFolder, newName)
		if err := renameWithFallback(oldAbs, newAbs); err != nil {
			return "", "", errors.Wrap(err, "unable to rename mod folder")
		}
		newRelPath = filepath.ToSlash(filepath.Join(objectFolder, newName))
	}

	newID = StableID(gameID, newRelPath, normalize.CleanName(newName))
	return newRelPath, newID, nil
}

// applyIdentityChange writes the DB half of a status change produced by
// RenameForStatus.
func applyIdentityChange(ctx context.Context, db *store.Store, tx *sql.Tx, mod store.Mod, newID, newRelPath string, want store.ModStatus) error {
	if newRelPath != mod.FolderPath || newID != mod.ID {
		return db.UpdateModIdentity(ctx, tx, mod.ID, newID, newRelPath, normalize.CleanName(filepath.Base(newRelPath)), want)
	}
	return db.UpdateModStatus(ctx, tx, mod.ID, want)
}

// ApplyIdentityChange exposes applyIdentityChange to internal/collections
// so the Apply/Undo state-change routine can share the exact
// same rename-then-update-in-place contract Toggle uses.
func ApplyIdentityChange(ctx context.Context, db *store.Store, tx *sql.Tx, mod store.Mod, newID, newRelPath string, want store.ModStatus) error {
	return applyIdentityChange(ctx, db, tx, mod, newID, newRelPath, want)
}

func modObjectFolderName(folderPath string) string {
	for i := 0; i < len(folderPath); i++ {
		if folderPath[i] == '/' {
			return folderPath[:i]
		}
	}
	return folderPath
}

// RenameWithFallback renames oldPath to newPath, falling back to a
// copy-then-delete when the rename fails because the paths cross devices
// (cross-device renames fall back to copy+delete). Exported
// for internal/trash, which needs the same cross-device-safe move for
// move-to-trash/restore.
func RenameWithFallback(oldPath, newPath string) error {
	return renameWithFallback(oldPath, newPath)
}

func renameWithFallback(oldPath, newPath string) error {
	err := os.Rename(oldPath, newPath)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	if err := copyTree(oldPath, newPath); err != nil {
		return err
	}
	return os.RemoveAll(oldPath)
}

func isCrossDevice(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	if !ok {
		return false
	}
	return linkErr.Err != nil && linkErr.Err.Error() == "invalid cross-device link"
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
