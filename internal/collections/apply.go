// Package collections implements collection apply/undo: atomic
// multi-mod enable/disable against a target list, with an auto-snapshot
// undo mechanism built from the same rename-then-update-in-place
// primitive internal/modsync's Toggle uses for a single mod.
package collections

import (
	"context"
	"database/sql"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/errtypes"
	"github.com/modgrove/modcore/internal/modsync"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// Result reports the outcome of Apply or Undo.
type Result struct {
	ChangedCount int
	Warnings     []string
}

// pendingChange is one mod whose status must move to want.
type pendingChange struct {
	mod  store.Mod
	want store.ModStatus
}

// Apply implements apply(collection_id, game_id, safe_mode_enabled).
func Apply(ctx context.Context, db *store.Store, lock *oplock.OperationLock, suppressor *watch.Suppressor, modsRoot, gameID, collectionID string, safeModeEnabled bool) (Result, error) {
	guard, err := lock.Acquire()
	if err != nil {
		return Result{}, err
	}
	defer guard.Release()

	col, found, err := db.GetCollection(ctx, nil, collectionID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, errors.Wrapf(errtypes.ErrNotFound, "collection %s", collectionID)
	}
	if safeModeEnabled && !col.IsSafeContext {
		return Result{}, errtypes.ErrSafeModeBlocked
	}

	targets, warnings, err := resolveTargets(ctx, db, gameID, collectionID)
	if err != nil {
		return Result{}, err
	}

	return applyTargetSet(ctx, db, suppressor, modsRoot, gameID, targets, warnings, func(tx *sql.Tx) error {
		return snapshotCurrentlyEnabled(ctx, db, tx, gameID, safeModeEnabled)
	})
}

// resolveTargets loads a collection's target mod ids, reconciling any
// stale mod_id by mod_path and collecting warnings for
// targets that cannot be recovered at all.
func resolveTargets(ctx context.Context, db *store.Store, gameID, collectionID string) (map[string]store.Mod, []string, error) {
	items, err := db.CollectionItems(ctx, nil, collectionID)
	if err != nil {
		return nil, nil, err
	}

	targets := make(map[string]store.Mod, len(items))
	var warnings []string

	for _, item := range items {
		mod, found, err := db.FindModByID(ctx, nil, item.ModID)
		if err != nil {
			return nil, nil, err
		}
		if found {
			targets[mod.ID] = mod
			continue
		}

		byPath, foundByPath, err := findModByRecordedPath(ctx, db, gameID, item.ModPath)
		if err != nil {
			return nil, nil, err
		}
		if !foundByPath {
			warnings = append(warnings, "collection item no longer resolvable: "+item.ModPath)
			continue
		}

		if err := db.WithTx(ctx, func(tx *sql.Tx) error {
			return db.UpdateCollectionItemReference(ctx, tx, collectionID, item.ModID, byPath.ID, byPath.FolderPath)
		}); err != nil {
			return nil, nil, err
		}
		targets[byPath.ID] = byPath
	}

	return targets, warnings, nil
}

// findModByRecordedPath resolves a collection item's recorded path to a
// live row. An exact path hit wins; otherwise it falls back to the
// (object folder, clean name) rename-detection key, since a toggle
// performed after the snapshot was taken changed both the folder's
// disabled prefix and, with it, the stable id and path.
func findModByRecordedPath(ctx context.Context, db *store.Store, gameID, modPath string) (store.Mod, bool, error) {
	byPath, found, err := db.FindModByPath(ctx, nil, gameID, modPath)
	if err != nil || found {
		return byPath, found, err
	}
	objectFolder := path.Dir(modPath)
	cleanName := normalize.CleanName(path.Base(modPath))
	if objectFolder == "." || cleanName == "" {
		return store.Mod{}, false, nil
	}
	return db.FindModByObjectFolderAndName(ctx, nil, gameID, objectFolder, cleanName)
}

// conflictSet returns every currently-enabled mod sharing an object_id
// with a target but not itself a target.
func conflictSet(ctx context.Context, db *store.Store, gameID string, targets map[string]store.Mod) (map[string]store.Mod, error) {
	seenObjects := make(map[string]bool)
	conflicts := make(map[string]store.Mod)
	for _, t := range targets {
		if t.ObjectID == "" || seenObjects[t.ObjectID] {
			continue
		}
		seenObjects[t.ObjectID] = true

		siblings, err := db.ModsByObjectID(ctx, nil, gameID, t.ObjectID)
		if err != nil {
			return nil, err
		}
		for _, sib := range siblings {
			if sib.Status != store.StatusEnabled {
				continue
			}
			if _, isTarget := targets[sib.ID]; isTarget {
				continue
			}
			conflicts[sib.ID] = sib
		}
	}
	return conflicts, nil
}

// applyTargetSet implements steps 4-6 shared by Apply and Undo: snapshot
// (via snapshotFn), compute desired status per mod, rename on disk with
// the watcher suppressed, then commit every DB update in one transaction.
// The caller must already hold the OperationLock; this function only
// manages the watcher suppression scope.
func applyTargetSet(ctx context.Context, db *store.Store, suppressor *watch.Suppressor, modsRoot, gameID string, targets map[string]store.Mod, warnings []string, snapshotFn func(tx *sql.Tx) error) (Result, error) {
	conflicts, err := conflictSet(ctx, db, gameID, targets)
	if err != nil {
		return Result{}, err
	}

	if err := db.WithTx(ctx, snapshotFn); err != nil {
		return Result{}, err
	}

	var changes []pendingChange
	for _, t := range targets {
		if t.Status != store.StatusEnabled {
			changes = append(changes, pendingChange{mod: t, want: store.StatusEnabled})
		}
	}
	for _, c := range conflicts {
		changes = append(changes, pendingChange{mod: c, want: store.StatusDisabled})
	}

	suppression := suppressor.Suppress()
	defer suppression.Release()

	type rename struct {
		change pendingChange
		newRel string
		newID  string
	}
	var renames []rename

	for _, change := range changes {
		absPath := filepath.Join(modsRoot, filepath.FromSlash(change.mod.FolderPath))
		if _, statErr := os.Stat(absPath); statErr != nil {
			warnings = append(warnings, "mod folder missing, skipped: "+change.mod.FolderPath)
			continue
		}
		newRel, newID, err := modsync.RenameForStatus(modsRoot, gameID, change.mod, change.want)
		if err != nil {
			warnings = append(warnings, "unable to rename "+change.mod.FolderPath+": "+err.Error())
			continue
		}
		renames = append(renames, rename{change: change, newRel: newRel, newID: newID})
	}

	changedCount := len(renames)
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, r := range renames {
			if err := modsync.ApplyIdentityChange(ctx, db, tx, r.change.mod, r.newID, r.newRel, r.change.want); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return Result{ChangedCount: changedCount, Warnings: warnings}, nil
}

// snapshotCurrentlyEnabled takes the undo snapshot: within the caller's
// transaction, delete the existing is_last_unsaved collection for this
// game and insert a new one capturing the currently-enabled set before
// any changes are made.
func snapshotCurrentlyEnabled(ctx context.Context, db *store.Store, tx *sql.Tx, gameID string, safeModeEnabled bool) error {
	existing, found, err := db.FindLastUnsavedCollection(ctx, tx, gameID)
	if err != nil {
		return err
	}
	if found {
		if err := db.DeleteCollection(ctx, tx, existing.ID); err != nil {
			return err
		}
	}

	enabled, err := db.EnabledModsByGame(ctx, tx, gameID)
	if err != nil {
		return err
	}

	snapshot := store.Collection{
		ID:            uuid.NewString(),
		Name:          "Auto Snapshot",
		GameID:        gameID,
		IsSafeContext: safeModeEnabled,
		IsLastUnsaved: true,
	}
	if err := db.InsertCollection(ctx, tx, snapshot); err != nil {
		return err
	}
	for _, m := range enabled {
		if err := db.InsertCollectionItem(ctx, tx, store.CollectionItem{
			CollectionID: snapshot.ID,
			ModID:        m.ID,
			ModPath:      m.FolderPath,
		}); err != nil {
			return err
		}
	}
	return nil
}
