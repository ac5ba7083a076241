package dedup

import "testing"

func snap(modID int, folderName string, fileCount int, size int64, paths []string, sections []string) Snapshot {
	return Snapshot{
		Ref:            FolderRef{ModID: modID, RelPath: folderName},
		FileCount:      fileCount,
		TotalSize:      size,
		RelFilePaths:   paths,
		SectionHeaders: sections,
	}
}

func TestCheapFilterRejectsSizeMismatch(t *testing.T) {
	a := snap(1, "a", 5, 1000, []string{"mod.ini"}, nil)
	b := snap(2, "b", 5, 100, []string{"mod.ini"}, nil)
	pairs := CheapFilter([]Snapshot{a, b})
	if len(pairs) != 0 {
		t.Fatalf("expected no surviving pairs on size mismatch, got %v", pairs)
	}
}

func TestCheapFilterRejectsFileCountMismatch(t *testing.T) {
	a := snap(1, "a", 20, 1000, []string{"mod.ini"}, nil)
	b := snap(2, "b", 5, 1000, []string{"mod.ini"}, nil)
	pairs := CheapFilter([]Snapshot{a, b})
	if len(pairs) != 0 {
		t.Fatalf("expected no surviving pairs on file-count mismatch, got %v", pairs)
	}
}

func TestCheapFilterAcceptsCloseFolders(t *testing.T) {
	a := snap(1, "a", 5, 1000, []string{"mod.ini"}, nil)
	b := snap(2, "b", 6, 950, []string{"mod.ini"}, nil)
	pairs := CheapFilter([]Snapshot{a, b})
	if len(pairs) != 1 {
		t.Fatalf("expected one surviving pair, got %v", pairs)
	}
}

func TestWhitelistFilterDropsWhitelistedPair(t *testing.T) {
	a := snap(1, "a", 5, 1000, []string{"mod.ini"}, nil)
	b := snap(2, "b", 5, 1000, []string{"mod.ini"}, nil)
	pairs := []Pair{{I: 0, J: 1}}
	filtered := WhitelistFilter([]Snapshot{a, b}, pairs, func(lo, hi int) bool { return lo == 1 && hi == 2 })
	if len(filtered) != 0 {
		t.Fatalf("expected whitelisted pair to be dropped, got %v", filtered)
	}
}

func TestComparePairExactHashMatch(t *testing.T) {
	a := snap(1, "AyakaMod", 3, 1000, []string{"mod.ini", "tex.dds"}, []string{"TextureOverride1"})
	b := snap(2, "AyakaModCopy", 3, 1000, []string{"mod.ini", "tex.dds"}, []string{"TextureOverride1"})
	// RelFilePaths must already be sorted, the invariant BuildSnapshot
	// upholds in production.

	profile := HashProfile{ExtHashes: map[string]string{"ini": "aaaa", "dds": "bbbb"}}
	result := ComparePair(a, b, profile, profile)
	if !result.ExactHashMatch || result.Score != 100 {
		t.Fatalf("expected exact hash match score 100, got %+v", result)
	}
	if result.PrimaryReason != "Exact hash match" {
		t.Fatalf("expected primary reason 'Exact hash match', got %q", result.PrimaryReason)
	}
}

func TestComparePairLowSimilarityScoresLow(t *testing.T) {
	a := snap(1, "Ayaka", 3, 1000, []string{"a.dds", "mod.ini"}, []string{"SectionA"})
	b := snap(2, "Yoimiya", 3, 1000, []string{"b.dds", "mod.ini"}, []string{"SectionB"})
	ha := HashProfile{ExtHashes: map[string]string{"ini": "1111", "dds": "2222"}}
	hb := HashProfile{ExtHashes: map[string]string{"ini": "3333", "dds": "4444"}}

	result := ComparePair(a, b, ha, hb)
	if result.ExactHashMatch {
		t.Fatalf("did not expect exact hash match")
	}
	if result.Score > 50 {
		t.Fatalf("expected a low composite score for dissimilar folders, got %d", result.Score)
	}
}

func TestGroupPairsFormsConnectedComponent(t *testing.T) {
	snapshots := []Snapshot{
		snap(1, "A", 3, 1000, []string{"mod.ini"}, nil),
		snap(2, "B", 3, 1000, []string{"mod.ini"}, nil),
		snap(3, "C", 3, 1000, []string{"mod.ini"}, nil),
	}
	results := []PairResult{
		{A: FolderRef{ModID: 1}, B: FolderRef{ModID: 2}, Score: 90, PrimaryReason: "file_identity", Signals: []PairSignal{{Key: "file_identity", Score: 90}}},
		{A: FolderRef{ModID: 2}, B: FolderRef{ModID: 3}, Score: 70, PrimaryReason: "structural", Signals: []PairSignal{{Key: "structural", Score: 70}}},
	}
	groups := GroupPairs(snapshots, results)
	if len(groups) != 1 {
		t.Fatalf("expected one group spanning all three folders, got %d", len(groups))
	}
	if len(groups[0].Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(groups[0].Members))
	}
	if groups[0].Confidence != 90 {
		t.Fatalf("expected group confidence to be the max pair score (90), got %d", groups[0].Confidence)
	}
}

func TestGroupPairsIgnoresSingletons(t *testing.T) {
	snapshots := []Snapshot{
		snap(1, "A", 3, 1000, []string{"mod.ini"}, nil),
		snap(2, "B", 3, 1000, []string{"mod.ini"}, nil),
	}
	groups := GroupPairs(snapshots, nil)
	if len(groups) != 0 {
		t.Fatalf("expected no groups with no surviving pairs, got %d", len(groups))
	}
}
