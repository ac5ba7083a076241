package modsync

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

// ApplyWatcherEvent implements the watcher's per-event handler: only
// depth-2 (<object_folder>/<mod_folder>) events concern a mod; everything
// else is ignored. Events are applied to the DB one at a time, in arrival
// order, keeping watcher event processing serialized per event
// guarantee (the caller is expected to range over a single Events()
// channel rather than fan out concurrently).
func ApplyWatcherEvent(ctx context.Context, db *store.Store, gameID string, ev watch.Event, now time.Time) error {
	if ev.Kind == watch.Error {
		return nil
	}

	switch ev.Kind {
	case watch.Created:
		if watch.DepthOf(ev.Path) != 2 {
			return nil
		}
		return db.WithTx(ctx, func(tx *sql.Tx) error {
			return applyCreated(ctx, db, tx, gameID, ev.Path, now.Unix())
		})
	case watch.Renamed:
		if watch.DepthOf(ev.Path) != 2 {
			return nil
		}
		return db.WithTx(ctx, func(tx *sql.Tx) error {
			return applyRenamed(ctx, db, tx, gameID, ev.From, ev.Path, now.Unix())
		})
	case watch.Removed:
		if watch.DepthOf(ev.Path) != 2 {
			return nil
		}
		return db.WithTx(ctx, func(tx *sql.Tx) error {
			return db.DeleteModByPath(ctx, tx, gameID, ev.Path)
		})
	default:
		// Modified events carry no identity change relevant to the
		// persisted index; a full-scan reconcile picks up content
		// changes the matcher cares about on its own cadence.
		return nil
	}
}

func applyCreated(ctx context.Context, db *store.Store, tx *sql.Tx, gameID, relPath string, now int64) error {
	objectFolder := modObjectFolderName(relPath)
	modFolder := filepath.Base(relPath)
	cleanName := normalize.CleanName(modFolder)
	status := store.StatusEnabled
	if normalize.IsDisabledFolder(modFolder) {
		status = store.StatusDisabled
	}

	ensured, err := db.EnsureObjectExists(ctx, tx, gameID, objectFolder, objectFolder, now)
	if err != nil {
		return err
	}

	id := StableID(gameID, relPath, cleanName)
	return db.InsertMod(ctx, tx, store.Mod{
		ID:           id,
		GameID:       gameID,
		ObjectID:     ensured.Object.ID,
		ActualName:   cleanName,
		FolderPath:   relPath,
		Status:       status,
		ObjectType:   "Other",
		IsSafe:       true,
		MetadataBlob: "{}",
		IndexedAt:    now,
	})
}

func applyRenamed(ctx context.Context, db *store.Store, tx *sql.Tx, gameID, fromPath, toPath string, now int64) error {
	existing, found, err := db.FindModByPath(ctx, tx, gameID, fromPath)
	if err != nil {
		return err
	}
	if !found {
		// The watcher raced with a reconcile; treat as a fresh create.
		return applyCreated(ctx, db, tx, gameID, toPath, now)
	}

	newObjectFolder := modObjectFolderName(toPath)
	oldObjectFolder := modObjectFolderName(fromPath)
	modFolder := filepath.Base(toPath)
	cleanName := normalize.CleanName(modFolder)
	status := store.StatusEnabled
	if normalize.IsDisabledFolder(modFolder) {
		status = store.StatusDisabled
	}

	newID := StableID(gameID, toPath, cleanName)
	if err := db.UpdateModIdentity(ctx, tx, existing.ID, newID, toPath, cleanName, status); err != nil {
		return err
	}

	if newObjectFolder != oldObjectFolder {
		ensured, err := db.EnsureObjectExists(ctx, tx, gameID, newObjectFolder, newObjectFolder, now)
		if err != nil {
			return err
		}
		if err := db.UpdateModObjectID(ctx, tx, newID, ensured.Object.ID); err != nil {
			return err
		}
	}
	return nil
}
