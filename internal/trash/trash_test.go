package trash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modgrove/modcore/internal/store"
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

func TestMoveToTrashAndRestoreRoundTrip(t *testing.T) {
	db := newTestStore(t)
	modsRoot := t.TempDir()
	trashRoot := t.TempDir()
	ctx := context.Background()

	modDir := filepath.Join(modsRoot, "Ayaka", "AyakaBlue")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "mod.ini"), []byte("[TextureOverrideBody]\nhash = d94c8962\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	id, err := MoveToTrash(ctx, db, trashRoot, "g1", modsRoot, "Ayaka/AyakaBlue", 1000)
	if err != nil {
		t.Fatalf("move to trash: %v", err)
	}
	if _, statErr := os.Stat(modDir); !os.IsNotExist(statErr) {
		t.Fatal("source folder must be gone after trashing")
	}

	entries, err := db.ListTrashEntries(ctx, "g1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one manifest entry, got %v (err=%v)", entries, err)
	}

	restored, err := Restore(ctx, db, modsRoot, id)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != "Ayaka/AyakaBlue" {
		t.Fatalf("unexpected restore path: %q", restored)
	}
	if _, err := os.Stat(filepath.Join(modDir, "mod.ini")); err != nil {
		t.Fatalf("restored content missing: %v", err)
	}
	if entries, _ := db.ListTrashEntries(ctx, "g1"); len(entries) != 0 {
		t.Fatal("manifest entry must be consumed by restore")
	}
}

func TestRestoreRefusesOccupiedDestination(t *testing.T) {
	db := newTestStore(t)
	modsRoot := t.TempDir()
	trashRoot := t.TempDir()
	ctx := context.Background()

	modDir := filepath.Join(modsRoot, "Ayaka", "AyakaBlue")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}
	id, err := MoveToTrash(ctx, db, trashRoot, "g1", modsRoot, "Ayaka/AyakaBlue", 1000)
	if err != nil {
		t.Fatal(err)
	}
	// Something else takes the original path.
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Restore(ctx, db, modsRoot, id); err == nil {
		t.Fatal("expected restore to refuse an occupied destination")
	}
}

func TestPurgeDeletesFolderAndManifest(t *testing.T) {
	db := newTestStore(t)
	modsRoot := t.TempDir()
	trashRoot := t.TempDir()
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(modsRoot, "Ayaka", "AyakaBlue"), 0o755); err != nil {
		t.Fatal(err)
	}
	id, err := MoveToTrash(ctx, db, trashRoot, "g1", modsRoot, "Ayaka/AyakaBlue", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if err := Purge(ctx, db, id); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if entries, _ := db.ListTrashEntries(ctx, "g1"); len(entries) != 0 {
		t.Fatal("manifest entry must be gone after purge")
	}
	if err := Purge(ctx, db, id); err == nil {
		t.Fatal("second purge must report a missing entry")
	}
}
