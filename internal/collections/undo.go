package collections

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/errtypes"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// Undo implements undo(game_id, safe_mode_enabled): it locates the
// is_last_unsaved snapshot and takes its mod ids as the new target set,
// reusing the same apply-state-change routine Apply does (conflict-set
// computation naturally disables whatever the snapshot doesn't cover but
// a currently-enabled sibling does). On success the snapshot itself is
// deleted, since an undo is not itself undoable.
func Undo(ctx context.Context, db *store.Store, lock *oplock.OperationLock, suppressor *watch.Suppressor, modsRoot, gameID string, safeModeEnabled bool) (Result, error) {
	guard, err := lock.Acquire()
	if err != nil {
		return Result{}, err
	}
	defer guard.Release()

	snapshot, found, err := db.FindLastUnsavedCollection(ctx, nil, gameID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, errors.Wrap(errtypes.ErrNotFound, "no undo snapshot for this game")
	}
	if safeModeEnabled != snapshot.IsSafeContext {
		return Result{}, errtypes.ErrSafeModeBlocked
	}

	targets, warnings, err := resolveTargets(ctx, db, gameID, snapshot.ID)
	if err != nil {
		return Result{}, err
	}

	result, err := applyTargetSet(ctx, db, suppressor, modsRoot, gameID, targets, warnings, func(tx *sql.Tx) error {
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return db.DeleteCollection(ctx, tx, snapshot.ID)
	}); err != nil {
		return Result{}, err
	}

	return result, nil
}
