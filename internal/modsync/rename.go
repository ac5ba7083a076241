package modsync

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/errtypes"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// RenameResult reports the outcome of a user-initiated rename.
type RenameResult struct {
	NewPath string
	NewID   string
}

// Rename gives a mod folder a new user-chosen name, preserving its
// enabled/disabled state: a disabled mod stays behind the canonical
// disabled prefix regardless of what the caller passes in newName. The
// error message for an occupied target begins with the stable
// "DUPLICATE|" prefix so UI layers can special-case it.
func Rename(ctx context.Context, db *store.Store, lock *oplock.OperationLock, suppressor *watch.Suppressor, modsRoot, gameID, modID, newName string) (RenameResult, error) {
	guard, err := lock.Acquire()
	if err != nil {
		return RenameResult{}, err
	}
	defer guard.Release()

	mod, found, err := db.FindModByID(ctx, nil, modID)
	if err != nil {
		return RenameResult{}, err
	}
	if !found {
		return RenameResult{}, errors.Wrapf(errtypes.ErrNotFound, "mod %s", modID)
	}

	cleanName := normalize.CleanName(newName)
	if cleanName == "" {
		return RenameResult{}, errtypes.NewInputError("mod name must not be empty", nil)
	}
	folderName := cleanName
	if mod.Status == store.StatusDisabled {
		folderName = normalize.DisabledPrefix + cleanName
	}

	objectFolder := modObjectFolderName(mod.FolderPath)
	newRelPath := filepath.ToSlash(filepath.Join(objectFolder, folderName))
	if newRelPath == mod.FolderPath {
		return RenameResult{NewPath: mod.FolderPath, NewID: mod.ID}, nil
	}

	newAbs := filepath.Join(modsRoot, objectFolder, folderName)
	if _, statErr := os.Stat(newAbs); statErr == nil {
		return RenameResult{}, errors.Errorf("DUPLICATE|%s", newRelPath)
	}

	suppression := suppressor.Suppress()
	defer suppression.Release()

	oldAbs := filepath.Join(modsRoot, filepath.FromSlash(mod.FolderPath))
	if err := renameWithFallback(oldAbs, newAbs); err != nil {
		return RenameResult{}, errors.Wrap(err, "unable to rename mod folder")
	}

	newID := StableID(gameID, newRelPath, cleanName)
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		return db.UpdateModIdentity(ctx, tx, mod.ID, newID, newRelPath, cleanName, mod.Status)
	})
	if err != nil {
		return RenameResult{}, err
	}
	return RenameResult{NewPath: newRelPath, NewID: newID}, nil
}
