package matching

import (
	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
)

// SkinMatch is the outcome of DetectSkin: the matched skin's canonical
// name and the canonical folder-name to rename to (its first alias).
type SkinMatch struct {
	SkinName            string
	CanonicalFolderName string
}

// DetectSkin resolves sub-variants: given a match result whose best candidate is a
// Character, finds the first custom skin whose name or alias token set
// intersects the folder name's token set. It does nothing for any other
// object type, and nothing if result has no best candidate.
func DetectSkin(result StagedMatchResult, db *masterdb.MasterDb, folderName string, cfg normalize.Config) (SkinMatch, bool) {
	if result.Best == nil {
		return SkinMatch{}, false
	}
	entry := db.Entries[result.Best.EntryID]
	if entry.ObjectType != "Character" {
		return SkinMatch{}, false
	}

	folderTokens := normalize.TokenSet(folderName, cfg)
	for _, skin := range entry.CustomSkins {
		if tokenSetIntersects(normalize.TokenSet(skin.Name, cfg), folderTokens) {
			return skinMatchFor(skin), true
		}
		for _, alias := range skin.Aliases {
			if tokenSetIntersects(normalize.TokenSet(alias, cfg), folderTokens) {
				return skinMatchFor(skin), true
			}
		}
	}
	return SkinMatch{}, false
}

func skinMatchFor(skin masterdb.CustomSkin) SkinMatch {
	canonical := skin.Name
	if len(skin.Aliases) > 0 {
		canonical = skin.Aliases[0]
	}
	return SkinMatch{SkinName: skin.Name, CanonicalFolderName: canonical}
}

func tokenSetIntersects(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for tok := range small {
		if big[tok] {
			return true
		}
	}
	return false
}
