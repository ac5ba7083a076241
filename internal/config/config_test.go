package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsZero(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if c.DBPath != "" || c.SafeMode {
		t.Fatalf("expected zero configuration, got %+v", c)
	}
}

func TestLoadParsesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modcore.yaml")
	document := `
db_path: state.db
max_connections: 8
trash_root: /tmp/trash
safe_mode: true
tokenization:
  min_token_length: 2
  extra_stopwords: [remix]
  short_token_whitelist: [xq]
`
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DBPath != "state.db" || c.MaxConnections != 8 || !c.SafeMode {
		t.Fatalf("unexpected configuration: %+v", c)
	}

	cfg := c.NormalizeConfig()
	if cfg.MinTokenLength != 2 {
		t.Fatalf("expected min token length override, got %d", cfg.MinTokenLength)
	}
	if !cfg.Stopwords["remix"] {
		t.Fatal("expected extra stopword to merge")
	}
	if !cfg.ShortTokenWhitelist["xq"] {
		t.Fatal("expected short-token whitelist entry to merge")
	}
	if !cfg.Stopwords["mod"] {
		t.Fatal("defaults must survive the merge")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modcore.yaml")
	if err := os.WriteFile(path, []byte("db_path: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
