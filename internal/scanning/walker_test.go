package scanning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWalkSkipsHiddenAndIgnoredEntries(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{".git/config", "desktop.ini", "Thumbs.db", "mod.ini", "body.dds"} {
		if err := os.WriteFile(filepath.Join(root, filepath.FromSlash(f)), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	content, err := Walk(root)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	seen := map[string]bool{}
	for _, e := range content.Entries {
		seen[e.RelPath] = true
	}
	for _, excluded := range []string{".git", ".git/config", "desktop.ini", "Thumbs.db"} {
		if seen[excluded] {
			t.Errorf("%s must be skipped", excluded)
		}
	}
	if !seen["mod.ini"] || !seen["body.dds"] {
		t.Fatalf("real mod files must survive, got %v", seen)
	}
	if len(content.IniFiles) != 1 || content.IniFiles[0] != "mod.ini" {
		t.Fatalf("expected only mod.ini as an INI file, got %v", content.IniFiles)
	}
}
