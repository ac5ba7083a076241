package modsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modgrove/modcore/internal/oplock"
	"github.com/modgrove/modcore/internal/store"
	"github.com/modgrove/modcore/internal/watch"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"), 2)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTime() time.Time {
	return time.Unix(1000, 0)
}

func mkModFolder(t *testing.T, modsRoot, objectFolder, modFolder string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(modsRoot, objectFolder, modFolder), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestStableIDDeterministicAndRenameSensitive(t *testing.T) {
	a := StableID("g1", "Ayaka/Ayaka", "Ayaka")
	b := StableID("g1", "Ayaka/Ayaka", "Ayaka")
	if a != b {
		t.Fatal("identical inputs must hash identically")
	}
	if StableID("g1", "Ayaka/DISABLED Ayaka", "Ayaka") == a {
		t.Fatal("a path change must change the id")
	}
	if StableID("g2", "Ayaka/Ayaka", "Ayaka") == a {
		t.Fatal("a game change must change the id")
	}
}

func TestReconcileFullInsertsThenNoOp(t *testing.T) {
	db := newTestStore(t)
	root := t.TempDir()
	mkModFolder(t, root, "Ayaka", "AyakaBlue")
	mkModFolder(t, root, "Ayaka", "DISABLED AyakaRed")
	mkModFolder(t, root, "Zhongli", "GeoDaddy")

	ctx := context.Background()
	report, err := ReconcileFull(ctx, db, "g1", root, 1000)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.NewMods != 3 || report.NewObjects != 2 {
		t.Fatalf("unexpected first report: %+v", report)
	}

	mod, found, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/DISABLED AyakaRed")
	if err != nil || !found {
		t.Fatalf("expected disabled mod row, found=%v err=%v", found, err)
	}
	if mod.Status != store.StatusDisabled {
		t.Fatalf("expected DISABLED status, got %s", mod.Status)
	}
	if mod.ActualName != "AyakaRed" {
		t.Fatalf("expected clean actual name, got %q", mod.ActualName)
	}

	again, err := ReconcileFull(ctx, db, "g1", root, 1001)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if again.NewMods != 0 || again.UpdatedMods != 0 || again.RemovedMods != 0 || again.NewObjects != 0 || again.GhostObjectsDeleted != 0 {
		t.Fatalf("reconcile on unchanged tree must be a no-op, got %+v", again)
	}
}

func TestReconcileFullDetectsRenameAndGC(t *testing.T) {
	db := newTestStore(t)
	root := t.TempDir()
	mkModFolder(t, root, "Ayaka", "AyakaBlue")

	ctx := context.Background()
	if _, err := ReconcileFull(ctx, db, "g1", root, 1000); err != nil {
		t.Fatal(err)
	}
	original, _, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/AyakaBlue")
	if err != nil {
		t.Fatal(err)
	}

	// A disable-style rename keeps the clean name, so reconcile treats it
	// as the same mod under a new path and id.
	if err := os.Rename(filepath.Join(root, "Ayaka", "AyakaBlue"), filepath.Join(root, "Ayaka", "DISABLED AyakaBlue")); err != nil {
		t.Fatal(err)
	}
	report, err := ReconcileFull(ctx, db, "g1", root, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if report.UpdatedMods != 1 || report.NewMods != 0 || report.RemovedMods != 0 {
		t.Fatalf("expected a single rename update, got %+v", report)
	}
	renamed, found, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/DISABLED AyakaBlue")
	if err != nil || !found {
		t.Fatalf("renamed row missing: found=%v err=%v", found, err)
	}
	if renamed.ID == original.ID {
		t.Fatal("id must change when the path changes")
	}
	if renamed.Status != store.StatusDisabled {
		t.Fatalf("expected DISABLED after rename, got %s", renamed.Status)
	}

	// Deleting the folder garbage-collects the row and the now-ghost
	// object.
	if err := os.RemoveAll(filepath.Join(root, "Ayaka")); err != nil {
		t.Fatal(err)
	}
	report, err = ReconcileFull(ctx, db, "g1", root, 1002)
	if err != nil {
		t.Fatal(err)
	}
	if report.RemovedMods != 1 || report.GhostObjectsDeleted != 1 {
		t.Fatalf("expected GC of mod and ghost object, got %+v", report)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	db := newTestStore(t)
	root := t.TempDir()
	mkModFolder(t, root, "Ayaka", "disabled_Ayaka")

	ctx := context.Background()
	if _, err := ReconcileFull(ctx, db, "g1", root, 1000); err != nil {
		t.Fatal(err)
	}
	mod, _, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/disabled_Ayaka")
	if err != nil {
		t.Fatal(err)
	}

	lock := oplock.New()
	suppressor := watch.NewSuppressor()

	enabled, err := Toggle(ctx, db, lock, suppressor, root, "g1", mod.ID, true)
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if enabled.NewPath != "Ayaka/Ayaka" {
		t.Fatalf("expected clean enabled path, got %q", enabled.NewPath)
	}
	if _, err := os.Stat(filepath.Join(root, "Ayaka", "Ayaka")); err != nil {
		t.Fatalf("enabled folder missing on disk: %v", err)
	}

	enabledMod, _, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/Ayaka")
	if err != nil {
		t.Fatal(err)
	}
	disabled, err := Toggle(ctx, db, lock, suppressor, root, "g1", enabledMod.ID, false)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if disabled.NewPath != "Ayaka/DISABLED Ayaka" {
		t.Fatalf("expected canonical disabled path, got %q", disabled.NewPath)
	}
	if _, err := os.Stat(filepath.Join(root, "Ayaka", "DISABLED Ayaka")); err != nil {
		t.Fatalf("disabled folder missing on disk: %v", err)
	}
	if suppressor.Suppressed() {
		t.Fatal("suppression must be released after the toggle")
	}
}

func TestEnableOnlyThisDisablesSiblings(t *testing.T) {
	db := newTestStore(t)
	root := t.TempDir()
	mkModFolder(t, root, "X", "M1")
	mkModFolder(t, root, "X", "M2")
	mkModFolder(t, root, "X", "M3")

	ctx := context.Background()
	if _, err := ReconcileFull(ctx, db, "g1", root, 1000); err != nil {
		t.Fatal(err)
	}
	target, _, err := db.FindModByPath(ctx, nil, "g1", "X/M2")
	if err != nil {
		t.Fatal(err)
	}

	changed, err := EnableOnlyThis(ctx, db, oplock.New(), watch.NewSuppressor(), root, "g1", target.ID)
	if err != nil {
		t.Fatalf("enable only this: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 changes (two siblings disabled), got %d", changed)
	}

	for _, expect := range []struct {
		path   string
		status store.ModStatus
	}{
		{"X/DISABLED M1", store.StatusDisabled},
		{"X/M2", store.StatusEnabled},
		{"X/DISABLED M3", store.StatusDisabled},
	} {
		mod, found, err := db.FindModByPath(ctx, nil, "g1", expect.path)
		if err != nil || !found {
			t.Fatalf("missing row for %s: found=%v err=%v", expect.path, found, err)
		}
		if mod.Status != expect.status {
			t.Fatalf("%s: expected %s, got %s", expect.path, expect.status, mod.Status)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "X", "DISABLED M1")); err != nil {
		t.Fatalf("sibling not renamed on disk: %v", err)
	}
}

func TestRenamePreservesDisabledState(t *testing.T) {
	db := newTestStore(t)
	root := t.TempDir()
	mkModFolder(t, root, "Ayaka", "DISABLED OldName")

	ctx := context.Background()
	if _, err := ReconcileFull(ctx, db, "g1", root, 1000); err != nil {
		t.Fatal(err)
	}
	mod, _, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/DISABLED OldName")
	if err != nil {
		t.Fatal(err)
	}

	result, err := Rename(ctx, db, oplock.New(), watch.NewSuppressor(), root, "g1", mod.ID, "NewName")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if result.NewPath != "Ayaka/DISABLED NewName" {
		t.Fatalf("disabled state must survive the rename, got %q", result.NewPath)
	}
	if _, err := os.Stat(filepath.Join(root, "Ayaka", "DISABLED NewName")); err != nil {
		t.Fatalf("renamed folder missing on disk: %v", err)
	}
	renamed, found, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/DISABLED NewName")
	if err != nil || !found {
		t.Fatalf("renamed row missing: found=%v err=%v", found, err)
	}
	if renamed.ActualName != "NewName" {
		t.Fatalf("expected clean actual name, got %q", renamed.ActualName)
	}
	if renamed.ID == mod.ID {
		t.Fatal("stable id must change with the path")
	}
}

func TestRenameReportsDuplicateTarget(t *testing.T) {
	db := newTestStore(t)
	root := t.TempDir()
	mkModFolder(t, root, "Ayaka", "First")
	mkModFolder(t, root, "Ayaka", "Second")

	ctx := context.Background()
	if _, err := ReconcileFull(ctx, db, "g1", root, 1000); err != nil {
		t.Fatal(err)
	}
	mod, _, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/First")
	if err != nil {
		t.Fatal(err)
	}

	_, err = Rename(ctx, db, oplock.New(), watch.NewSuppressor(), root, "g1", mod.ID, "Second")
	if err == nil {
		t.Fatal("expected duplicate-target error")
	}
	if got := err.Error(); got != "DUPLICATE|Ayaka/Second" {
		t.Fatalf("expected stable DUPLICATE prefix, got %q", got)
	}
}

func TestApplyWatcherEventLifecycle(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	created := watch.Event{Kind: watch.Created, Path: "Ayaka/AyakaBlue"}
	if err := ApplyWatcherEvent(ctx, db, "g1", created, testTime()); err != nil {
		t.Fatal(err)
	}
	mod, found, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/AyakaBlue")
	if err != nil || !found {
		t.Fatalf("create event must insert a row: found=%v err=%v", found, err)
	}
	if mod.ObjectID == "" {
		t.Fatal("create event must link the object")
	}

	renamed := watch.Event{Kind: watch.Renamed, From: "Ayaka/AyakaBlue", Path: "Ayaka/DISABLED AyakaBlue"}
	if err := ApplyWatcherEvent(ctx, db, "g1", renamed, testTime()); err != nil {
		t.Fatal(err)
	}
	moved, found, err := db.FindModByPath(ctx, nil, "g1", "Ayaka/DISABLED AyakaBlue")
	if err != nil || !found {
		t.Fatalf("rename event must move the row: found=%v err=%v", found, err)
	}
	if moved.Status != store.StatusDisabled {
		t.Fatalf("expected DISABLED, got %s", moved.Status)
	}

	removed := watch.Event{Kind: watch.Removed, Path: "Ayaka/DISABLED AyakaBlue"}
	if err := ApplyWatcherEvent(ctx, db, "g1", removed, testTime()); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := db.FindModByPath(ctx, nil, "g1", "Ayaka/DISABLED AyakaBlue"); found {
		t.Fatal("remove event must delete the row")
	}

	// A depth-1 event is not a mod and must be ignored.
	if err := ApplyWatcherEvent(ctx, db, "g1", watch.Event{Kind: watch.Created, Path: "Ayaka"}, testTime()); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := db.FindModByPath(ctx, nil, "g1", "Ayaka"); found {
		t.Fatal("depth-1 event must not insert a row")
	}
}
