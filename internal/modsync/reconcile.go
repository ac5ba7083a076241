package modsync

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/store"
)

// SyncReport summarizes a full-scan reconcile, exposed to callers
// (e.g. a GUI) so they can show an "N new objects" style summary.
type SyncReport struct {
	NewMods             int
	UpdatedMods         int
	RemovedMods         int
	NewObjects          int
	GhostObjectsDeleted int
}

// ReconcileFull walks modsRoot two levels deep
// (<mods_root>/<object_folder>/<mod_folder>) and reconciles the physical
// tree against the persisted index. All
// mutations run in a single transaction.
func ReconcileFull(ctx context.Context, db *store.Store, gameID, modsRoot string, now int64) (SyncReport, error) {
	var report SyncReport

	onDisk, err := scanModFolders(modsRoot)
	if err != nil {
		return report, errors.Wrap(err, "unable to scan mods root")
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		onDiskPaths := make(map[string]bool, len(onDisk))
		newObjectNames := make(map[string]bool)

		for _, f := range onDisk {
			onDiskPaths[f.RelPath] = true

			status := store.StatusEnabled
			if normalize.IsDisabledFolder(f.ModFolderName) {
				status = store.StatusDisabled
			}
			cleanName := normalize.CleanName(f.ModFolderName)
			expectedID := StableID(gameID, f.RelPath, cleanName)

			existing, found, findErr := db.FindModByPath(ctx, tx, gameID, f.RelPath)
			if findErr != nil {
				return findErr
			}
			if found {
				if existing.ID != expectedID || existing.ActualName != cleanName || existing.Status != status {
					if existing.ID != expectedID {
						if err := db.UpdateModIdentity(ctx, tx, existing.ID, expectedID, f.RelPath, cleanName, status); err != nil {
							return err
						}
					} else if err := db.UpdateModStatus(ctx, tx, existing.ID, status); err != nil {
						return err
					}
					report.UpdatedMods++
				}
				continue
			}

			renameCandidate, renamed, findErr := db.FindModByObjectFolderAndName(ctx, tx, gameID, f.ObjectFolderName, cleanName)
			if findErr != nil {
				return findErr
			}
			if renamed {
				if err := db.UpdateModIdentity(ctx, tx, renameCandidate.ID, expectedID, f.RelPath, cleanName, status); err != nil {
					return err
				}
				report.UpdatedMods++
				continue
			}

			ensured, ensureErr := db.EnsureObjectExists(ctx, tx, gameID, f.ObjectFolderName, f.ObjectFolderName, now)
			if ensureErr != nil {
				return ensureErr
			}
			if ensured.Created && !newObjectNames[f.ObjectFolderName] {
				newObjectNames[f.ObjectFolderName] = true
				report.NewObjects++
			}

			if err := db.InsertMod(ctx, tx, store.Mod{
				ID:           expectedID,
				GameID:       gameID,
				ObjectID:     ensured.Object.ID,
				ActualName:   cleanName,
				FolderPath:   f.RelPath,
				Status:       status,
				ObjectType:   "Other",
				IsSafe:       true,
				MetadataBlob: "{}",
				IndexedAt:    now,
			}); err != nil {
				return err
			}
			report.NewMods++
		}

		existingMods, err := db.ModsByGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		for _, m := range existingMods {
			if !onDiskPaths[m.FolderPath] {
				if err := db.DeleteMod(ctx, tx, m.ID); err != nil {
					return err
				}
				report.RemovedMods++
			}
		}

		deleted, err := db.DeleteGhostObjects(ctx, tx, gameID)
		if err != nil {
			return err
		}
		report.GhostObjectsDeleted = deleted

		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

// diskModFolder is one mod folder found during the two-level scan.
type diskModFolder struct {
	ObjectFolderName string
	ModFolderName    string
	RelPath          string // forward-slash, relative to modsRoot
}

// scanModFolders walks <mods_root>/<object_folder>/<mod_folder>, skipping
// hidden (leading-dot) entries at both levels.
func scanModFolders(modsRoot string) ([]diskModFolder, error) {
	objectEntries, err := os.ReadDir(modsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []diskModFolder
	for _, oe := range objectEntries {
		if !oe.IsDir() || isHidden(oe.Name()) {
			continue
		}
		objectPath := filepath.Join(modsRoot, oe.Name())
		modEntries, err := os.ReadDir(objectPath)
		if err != nil {
			continue
		}
		for _, me := range modEntries {
			if !me.IsDir() || isHidden(me.Name()) {
				continue
			}
			out = append(out, diskModFolder{
				ObjectFolderName: oe.Name(),
				ModFolderName:    me.Name(),
				RelPath:          filepath.ToSlash(filepath.Join(oe.Name(), me.Name())),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
