package matching

import (
	"testing"

	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

func testDB(t *testing.T) *masterdb.MasterDb {
	t.Helper()
	data := []byte(`[
		{
			"name": "Kamisato Ayaka",
			"object_type": "Character",
			"tags": ["inazuma", "cryo"],
			"custom_skins": [
				{"name": "Springbloom Missive", "aliases": ["Springbloom", "AyakaSpringbloom"]}
			],
			"hash_db": {"Default": ["D94C8962", "AABBCCDD"]}
		},
		{
			"name": "Yoimiya",
			"object_type": "Character",
			"tags": ["inazuma", "pyro"],
			"hash_db": {"Default": ["11112222"]}
		}
	]`)
	db, err := masterdb.Load(data, "", normalize.DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return db
}

func TestMatchFolderAutoMatchesOnUniqueHash(t *testing.T) {
	db := testDB(t)
	cfg := normalize.DefaultConfig()
	signals := scanning.FolderSignals{
		FolderTokens: normalize.Tokenize("Ayaka", cfg),
		IniHashes:    []string{"d94c8962"},
	}

	result := MatchFolder(db, signals, scanning.FullScoring, cfg, "", nil)
	if result.Status != AutoMatched {
		t.Fatalf("expected AutoMatched, got %v (candidates=%+v)", result.Status, result.CandidatesAll)
	}
	if result.Best.EntryID != 0 {
		t.Fatalf("expected entry 0, got %d", result.Best.EntryID)
	}
	var hashReason *masterdb.Reason
	for i := range result.Best.Reasons {
		if result.Best.Reasons[i].Kind == masterdb.ReasonHashOverlap {
			hashReason = &result.Best.Reasons[i]
		}
	}
	if hashReason == nil {
		t.Fatalf("expected a HashOverlap reason, got %+v", result.Best.Reasons)
	}
	if hashReason.Overlap != 1 || hashReason.UniqueOverlap != 1 {
		t.Fatalf("expected overlap=1 unique=1, got %+v", hashReason)
	}
}

func TestMatchFolderNoMatchWhenNothingObserved(t *testing.T) {
	db := testDB(t)
	cfg := normalize.DefaultConfig()
	signals := scanning.FolderSignals{
		FolderTokens: normalize.Tokenize("CompletelyUnrelatedThing", cfg),
	}

	result := MatchFolder(db, signals, scanning.FullScoring, cfg, "", nil)
	if result.Status != NoMatch {
		t.Fatalf("expected NoMatch, got %v", result.Status)
	}
}

func TestMatchFolderQuickModeUsesQuickBudgetThresholds(t *testing.T) {
	db := testDB(t)
	cfg := normalize.DefaultConfig()
	signals := scanning.FolderSignals{
		FolderTokens: normalize.Tokenize("Ayaka", cfg),
		IniHashes:    []string{"d94c8962"},
	}

	result := MatchFolder(db, signals, scanning.Quick, cfg, "", nil)
	if result.Status != AutoMatched {
		t.Fatalf("expected AutoMatched in quick mode, got %v", result.Status)
	}
}

func TestDetectSkinMatchesAliasTokens(t *testing.T) {
	db := testDB(t)
	cfg := normalize.DefaultConfig()
	signals := scanning.FolderSignals{
		FolderTokens: normalize.Tokenize("Ayaka", cfg),
		IniHashes:    []string{"d94c8962"},
	}
	result := MatchFolder(db, signals, scanning.FullScoring, cfg, "", nil)
	if result.Best == nil {
		t.Fatalf("expected a best candidate")
	}

	skin, ok := DetectSkin(result, db, "AyakaSpringbloom", cfg)
	if !ok {
		t.Fatalf("expected skin match")
	}
	if skin.SkinName != "Springbloom Missive" {
		t.Fatalf("unexpected skin: %+v", skin)
	}
	if skin.CanonicalFolderName != "Springbloom" {
		t.Fatalf("unexpected canonical name: %+v", skin)
	}
}

func TestDetectSkinNoneForNonCharacter(t *testing.T) {
	db := testDB(t)
	result := StagedMatchResult{Best: &Candidate{EntryID: 0}}
	db.Entries[0].ObjectType = "Weapon"
	_, ok := DetectSkin(result, db, "Ayaka", normalize.DefaultConfig())
	if ok {
		t.Fatalf("expected no skin match for non-character object type")
	}
}

func TestAmbiguousCandidatesNeverAutoMatch(t *testing.T) {
	db := testDB(t)
	cfg := normalize.DefaultConfig()
	// Neither entry's hash nor alias is observed; only a weak shared tag
	// token ("inazuma") ties the folder to both entries equally, which
	// should never be enough on its own to auto-match.
	signals := scanning.FolderSignals{
		FolderTokens: normalize.Tokenize("InazumaOutfit", cfg),
	}
	result := MatchFolder(db, signals, scanning.FullScoring, cfg, "", nil)
	if result.Status == AutoMatched {
		t.Fatalf("weak shared-tag evidence alone should never auto-match, got %+v", result.Best)
	}
}
