package watch

import (
	"testing"
)

func TestDepthOf(t *testing.T) {
	cases := []struct {
		rel   string
		depth int
	}{
		{"", 0},
		{".", 0},
		{"Ayaka", 1},
		{"Ayaka/AyakaBlue", 2},
		{"Ayaka/AyakaBlue/textures", 3},
	}
	for _, c := range cases {
		if got := DepthOf(c.rel); got != c.depth {
			t.Errorf("DepthOf(%q) = %d, want %d", c.rel, got, c.depth)
		}
	}
}

func TestSuppressionGuardScopes(t *testing.T) {
	s := NewSuppressor()
	if s.Suppressed() {
		t.Fatal("fresh suppressor must be clear")
	}
	guard := s.Suppress()
	if !s.Suppressed() {
		t.Fatal("guard must set the flag")
	}
	guard.Release()
	if s.Suppressed() {
		t.Fatal("release must clear the flag")
	}
	// A nil guard release is a no-op, so error paths can release
	// unconditionally.
	var nilGuard *SuppressionGuard
	nilGuard.Release()
}

func TestDiffClassifiesCreateModifyRemove(t *testing.T) {
	previous := map[string]entry{
		"A/Kept":    {modTime: 1},
		"A/Touched": {modTime: 1},
		"A/Gone":    {modTime: 1},
	}
	current := map[string]entry{
		"A/Kept":    {modTime: 1},
		"A/Touched": {modTime: 2},
		"B/Fresh":   {modTime: 1},
	}

	kinds := map[EventKind][]string{}
	for _, ev := range diff(previous, current) {
		kinds[ev.Kind] = append(kinds[ev.Kind], ev.Path)
	}
	if len(kinds[Modified]) != 1 || kinds[Modified][0] != "A/Touched" {
		t.Fatalf("modified: %v", kinds[Modified])
	}
	if len(kinds[Removed]) != 1 || kinds[Removed][0] != "A/Gone" {
		t.Fatalf("removed: %v", kinds[Removed])
	}
	if len(kinds[Created]) != 1 || kinds[Created][0] != "B/Fresh" {
		t.Fatalf("created: %v", kinds[Created])
	}
}

func TestDiffSynthesizesRenameForToggle(t *testing.T) {
	previous := map[string]entry{"Ayaka/Ayaka": {modTime: 1}}
	current := map[string]entry{"Ayaka/DISABLED Ayaka": {modTime: 2}}

	events := diff(previous, current)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	ev := events[0]
	if ev.Kind != Renamed || ev.From != "Ayaka/Ayaka" || ev.Path != "Ayaka/DISABLED Ayaka" {
		t.Fatalf("unexpected rename event: %+v", ev)
	}
}

func TestDiffDoesNotPairAcrossObjectFolders(t *testing.T) {
	previous := map[string]entry{"Ayaka/Ayaka": {modTime: 1}}
	current := map[string]entry{"Zhongli/Ayaka": {modTime: 2}}

	events := diff(previous, current)
	var sawRename bool
	for _, ev := range events {
		if ev.Kind == Renamed {
			sawRename = true
		}
	}
	if sawRename {
		t.Fatalf("cross-object moves must surface as remove+create, got %v", events)
	}
	if len(events) != 2 {
		t.Fatalf("expected remove+create, got %v", events)
	}
}
