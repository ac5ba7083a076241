package matching

import (
	"strings"

	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

// rootFolderRescue is a last-resort pass run only after finalizeReview
// returns NoMatch in full-scoring mode. It checks the folder's own display name
// (not its contents) against every entry's normalized name and only fires
// when exactly one entry qualifies, to avoid guessing among several
// plausible matches.
func rootFolderRescue(db *masterdb.MasterDb, signals scanning.FolderSignals, cfg normalize.Config) (StagedMatchResult, bool) {
	folderName := strings.Join(signals.FolderTokens, " ")
	if len([]rune(folderName)) < 3 {
		return StagedMatchResult{}, false
	}
	// Compact forms let a jammed-together folder name like "kamisatoa"
	// still reach "Kamisato Ayaka".
	compactFolder := strings.ReplaceAll(folderName, " ", "")

	var matches []int
	for entryID := range db.Entries {
		entryName := normalize.NormalizeForMatching(db.Entries[entryID].Name, cfg)
		if len([]rune(entryName)) < 3 {
			continue
		}
		if containsEitherDirection(entryName, []string{folderName}, 3) {
			matches = append(matches, entryID)
			continue
		}
		compactEntry := strings.ReplaceAll(entryName, " ", "")
		if len([]rune(compactEntry)) >= 3 && containsEitherDirection(compactEntry, []string{compactFolder}, 3) {
			matches = append(matches, entryID)
		}
	}

	if len(matches) != 1 {
		return StagedMatchResult{}, false
	}

	entryID := matches[0]
	state := masterdb.NewScoreState()
	state.AddFolderNameRescueContribution()
	candidate := Candidate{
		EntryID:       entryID,
		Score:         state.Score,
		Reasons:       state.Reasons,
		MaxConfidence: state.MaxConfidence,
	}
	return StagedMatchResult{
		Status:         NeedsReview,
		Best:           &candidate,
		CandidatesTopK: []Candidate{candidate},
		CandidatesAll:  []Candidate{candidate},
	}, true
}
