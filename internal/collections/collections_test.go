package collections

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/errtypes"
	"github.com/modgrove/modcore/internal/modsync"
	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

type fixture struct {
	db         *store.Store
	root       string
	lock       *oplock.OperationLock
	suppressor *watch.Suppressor
}

// newFixture builds a mods tree with two mods of the same object (ModA
// enabled, ModB disabled) plus an unrelated enabled mod, reconciled into
// a fresh store.
func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"), 2)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	for _, dir := range []string{"A/ModA", "A/DISABLED ModB", "B/ModC"} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := modsync.ReconcileFull(context.Background(), db, "g1", root, 1000); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	return fixture{db: db, root: root, lock: oplock.New(), suppressor: watch.NewSuppressor()}
}

func (f fixture) mod(t *testing.T, path string) store.Mod {
	t.Helper()
	mod, found, err := f.db.FindModByPath(context.Background(), nil, "g1", path)
	if err != nil || !found {
		t.Fatalf("mod %s: found=%v err=%v", path, found, err)
	}
	return mod
}

func (f fixture) newCollection(t *testing.T, id string, safeContext bool, targets ...store.Mod) {
	t.Helper()
	err := f.db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if err := f.db.InsertCollection(context.Background(), tx, store.Collection{
			ID: id, Name: id, GameID: "g1", IsSafeContext: safeContext,
		}); err != nil {
			return err
		}
		for _, m := range targets {
			if err := f.db.InsertCollectionItem(context.Background(), tx, store.CollectionItem{
				CollectionID: id, ModID: m.ID, ModPath: m.FolderPath,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
}

func (f fixture) enabledPaths(t *testing.T) map[string]bool {
	t.Helper()
	enabled, err := f.db.EnabledModsByGame(context.Background(), nil, "g1")
	if err != nil {
		t.Fatal(err)
	}
	set := make(map[string]bool, len(enabled))
	for _, m := range enabled {
		set[m.FolderPath] = true
	}
	return set
}

func TestApplyEnablesTargetsAndDisablesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	modB := f.mod(t, "A/DISABLED ModB")
	f.newCollection(t, "c1", false, modB)

	result, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "c1", false)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// ModB enabled, ModA (same object, enabled) disabled.
	if result.ChangedCount != 2 {
		t.Fatalf("expected 2 changes, got %d (warnings=%v)", result.ChangedCount, result.Warnings)
	}

	enabled := f.enabledPaths(t)
	if !enabled["A/ModB"] || !enabled["B/ModC"] || len(enabled) != 2 {
		t.Fatalf("unexpected enabled set: %v", enabled)
	}
	if _, err := os.Stat(filepath.Join(f.root, "A", "DISABLED ModA")); err != nil {
		t.Fatalf("conflict not disabled on disk: %v", err)
	}
	if f.suppressor.Suppressed() {
		t.Fatal("suppression must be released after apply")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	modB := f.mod(t, "A/DISABLED ModB")
	f.newCollection(t, "c1", false, modB)

	if _, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "c1", false); err != nil {
		t.Fatal(err)
	}
	second, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "c1", false)
	if err != nil {
		t.Fatal(err)
	}
	if second.ChangedCount != 0 {
		t.Fatalf("second apply must change nothing, got %d", second.ChangedCount)
	}
}

func TestUndoRestoresPreApplyEnableSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := f.enabledPaths(t)

	modB := f.mod(t, "A/DISABLED ModB")
	f.newCollection(t, "c1", false, modB)
	if _, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "c1", false); err != nil {
		t.Fatal(err)
	}

	if _, err := Undo(ctx, f.db, f.lock, f.suppressor, f.root, "g1", false); err != nil {
		t.Fatalf("undo: %v", err)
	}

	after := f.enabledPaths(t)
	if len(after) != len(before) {
		t.Fatalf("enabled set size drifted: before=%v after=%v", before, after)
	}
	for path := range before {
		if !after[path] {
			t.Fatalf("undo lost %s: before=%v after=%v", path, before, after)
		}
	}

	// The snapshot is consumed by a successful undo.
	_, err := Undo(ctx, f.db, f.lock, f.suppressor, f.root, "g1", false)
	if errors.Cause(err) != errtypes.ErrNotFound {
		t.Fatalf("expected ErrNotFound for a second undo, got %v", err)
	}
}

func TestApplyRefusedUnderSafeMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	modB := f.mod(t, "A/DISABLED ModB")
	f.newCollection(t, "unsafe", false, modB)

	_, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "unsafe", true)
	if errors.Cause(err) != errtypes.ErrSafeModeBlocked {
		t.Fatalf("expected safe-mode rejection, got %v", err)
	}
}

func TestApplyWarnsOnMissingFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	modB := f.mod(t, "A/DISABLED ModB")
	f.newCollection(t, "c1", false, modB)
	if err := os.RemoveAll(filepath.Join(f.root, "A", "DISABLED ModB")); err != nil {
		t.Fatal(err)
	}

	result, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "c1", false)
	if err != nil {
		t.Fatalf("apply with a missing folder must not fail outright: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a warning for the missing folder")
	}
}

func TestApplyReconcilesStaleItemByPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	modB := f.mod(t, "A/DISABLED ModB")
	// Reference the mod by a stale id but its correct path; apply must
	// recover the target through the path.
	err := f.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := f.db.InsertCollection(ctx, tx, store.Collection{ID: "c1", Name: "c1", GameID: "g1"}); err != nil {
			return err
		}
		return f.db.InsertCollectionItem(ctx, tx, store.CollectionItem{
			CollectionID: "c1", ModID: "stale-id", ModPath: modB.FolderPath,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Apply(ctx, f.db, f.lock, f.suppressor, f.root, "g1", "c1", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("path-recoverable item must not warn: %v", result.Warnings)
	}
	if !f.enabledPaths(t)["A/ModB"] {
		t.Fatal("recovered target was not enabled")
	}
}
