package modsync

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/errtypes"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// EnableOnlyThis enables the target mod and disables every other
// currently-enabled mod sharing its object_id, leaving exactly one
// enabled mod for that object. Folders are renamed with the watcher
// suppressed, then every row update commits in one transaction; the
// returned count covers both the target (if it needed enabling) and each
// disabled sibling.
func EnableOnlyThis(ctx context.Context, db *store.Store, lock *oplock.OperationLock, suppressor *watch.Suppressor, modsRoot, gameID, modID string) (int, error) {
	guard, err := lock.Acquire()
	if err != nil {
		return 0, err
	}
	defer guard.Release()

	target, found, err := db.FindModByID(ctx, nil, modID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errors.Wrapf(errtypes.ErrNotFound, "mod %s", modID)
	}

	type pending struct {
		mod  store.Mod
		want store.ModStatus
	}
	var changes []pending
	if target.Status != store.StatusEnabled {
		changes = append(changes, pending{mod: target, want: store.StatusEnabled})
	}
	if target.ObjectID != "" {
		siblings, err := db.ModsByObjectID(ctx, nil, gameID, target.ObjectID)
		if err != nil {
			return 0, err
		}
		for _, sib := range siblings {
			if sib.ID == target.ID || sib.Status != store.StatusEnabled {
				continue
			}
			changes = append(changes, pending{mod: sib, want: store.StatusDisabled})
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}

	suppression := suppressor.Suppress()
	defer suppression.Release()

	type rename struct {
		change pending
		newRel string
		newID  string
	}
	renames := make([]rename, 0, len(changes))
	for _, change := range changes {
		newRel, newID, err := RenameForStatus(modsRoot, gameID, change.mod, change.want)
		if err != nil {
			return 0, err
		}
		renames = append(renames, rename{change: change, newRel: newRel, newID: newID})
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, r := range renames {
			if err := applyIdentityChange(ctx, db, tx, r.change.mod, r.newID, r.newRel, r.change.want); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(renames), nil
}
