package matching

import (
	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/scanning"
)

// stageParams are the per-stage acceptance knobs threaded through
// tryStageAccept.
type stageParams struct {
	Threshold      float32
	Margin         float32
	ReviewMinScore float32
}

// negativeEvidenceConfig bounds the per-hit penalty applied for strong
// tokens the candidate fails to explain.
type negativeEvidenceConfig struct {
	PerHit float32
	Cap    float32
}

func negativeEvidenceConfigFor(mode scanning.Mode) negativeEvidenceConfig {
	if mode == scanning.Quick {
		return negativeEvidenceConfig{PerHit: 1.5, Cap: 8}
	}
	return negativeEvidenceConfig{PerHit: 2.5, Cap: 10}
}

const objectTypeMismatchPenalty float32 = 2.0

// strongTokens returns the subset of observed tokens that qualify as
// "strong" for negative-evidence purposes: in Quick mode,
// tokens of rune length >= 5 with document frequency <= 2; in Full mode,
// tokens with document frequency <= max(entries/200, 3).
func strongTokens(db *masterdb.MasterDb, observed map[string]bool, mode scanning.Mode) []string {
	var ceiling int
	if mode != scanning.Quick {
		ceiling = len(db.Entries) / 200
		if ceiling < 3 {
			ceiling = 3
		}
	}
	var out []string
	for tok := range observed {
		df := db.TokenDF(tok)
		if df == 0 {
			continue
		}
		if mode == scanning.Quick {
			if len([]rune(tok)) >= 5 && df <= 2 {
				out = append(out, tok)
			}
			continue
		}
		if df <= ceiling {
			out = append(out, tok)
		}
	}
	return out
}

// snapshotWithPenalty clones state and applies the negative-evidence and
// object-type-context penalties for a single acceptance decision, leaving
// the canonical per-stage state untouched so the penalty is never
// double-applied across stages.
func snapshotWithPenalty(db *masterdb.MasterDb, entryID int, state *masterdb.ScoreState, strong []string, mode scanning.Mode, objectTypeContext string) *masterdb.ScoreState {
	snap := state.Clone()
	keywords := db.EntryTokens(entryID)

	cfg := negativeEvidenceConfigFor(mode)
	var penalty float32
	for _, tok := range strong {
		if keywords[tok] {
			continue
		}
		penalty += cfg.PerHit
	}
	if penalty > cfg.Cap {
		penalty = cfg.Cap
	}
	if objectTypeContext != "" && db.Entries[entryID].ObjectType != objectTypeContext {
		penalty += objectTypeMismatchPenalty
	}
	if penalty > 0 {
		snap.AddNegativeEvidenceContribution(penalty)
	}
	return snap
}

// ambiguityFlags is the set of flags computed over the top two ranked
// candidates.
type ambiguityFlags struct {
	MarginConflict    bool
	UltraClosePrimary bool
	UltraCloseAny     bool
	PackMultiEntity   bool
}

func (f ambiguityFlags) any() bool {
	return f.MarginConflict || f.UltraClosePrimary || f.UltraCloseAny || f.PackMultiEntity
}

func computeAmbiguity(ranked []Candidate, margin, reviewMinScore float32) ambiguityFlags {
	var flags ambiguityFlags
	if len(ranked) >= 2 {
		best, second := ranked[0], ranked[1]
		gap := best.Score - second.Score
		bothPrimary := best.hasPrimaryEvidence() && second.hasPrimaryEvidence()
		if bothPrimary && gap < margin {
			flags.MarginConflict = true
		}
		if bothPrimary && gap < 1.0 {
			flags.UltraClosePrimary = true
		}
		if gap < 0.5 {
			flags.UltraCloseAny = true
		}
	}
	primaryCount := 0
	for _, c := range ranked {
		if c.Score >= reviewMinScore && c.hasPrimaryEvidence() {
			primaryCount++
		}
	}
	if primaryCount >= 2 {
		flags.PackMultiEntity = true
	}
	return flags
}

// tryStageAccept implements the per-stage acceptance protocol. It returns
// (result, true) when the stage finalizes the match (AutoMatched or
// NeedsReview); (zero, false) means "continue to the next stage".
func tryStageAccept(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, strong []string, mode scanning.Mode, objectTypeContext string, params stageParams) (StagedMatchResult, bool) {
	ranked := rankedSnapshots(db, states, strong, mode, objectTypeContext)
	if len(ranked) == 0 {
		return StagedMatchResult{}, false
	}

	flags := computeAmbiguity(ranked, params.Margin, params.ReviewMinScore)
	best := ranked[0]

	if best.Score >= params.Threshold && best.hasPrimaryEvidence() && !flags.any() {
		marginOK := len(ranked) == 1
		if len(ranked) >= 2 {
			marginOK = best.Score-ranked[1].Score >= params.Margin
		}
		if marginOK {
			return finalizeResult(AutoMatched, ranked), true
		}
	}

	if best.Score >= params.ReviewMinScore && anyPrimary(ranked) {
		return finalizeResult(NeedsReview, ranked), true
	}

	return StagedMatchResult{}, false
}

// finalizeReview is the same evaluation, but reclassifies rather than
// falling through to "continue" — it is the terminal stage before the
// root-folder rescue.
func finalizeReview(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, strong []string, mode scanning.Mode, objectTypeContext string, reviewMinScore, margin float32) StagedMatchResult {
	ranked := rankedSnapshots(db, states, strong, mode, objectTypeContext)
	if len(ranked) == 0 {
		return StagedMatchResult{Status: NoMatch}
	}

	flags := computeAmbiguity(ranked, margin, reviewMinScore)
	best := ranked[0]

	// "stage-final threshold": only reachable if the score is already
	// pinned at the scale's ceiling, ambiguity-free, with primary
	// evidence — pathological in practice since every earlier stage had
	// a chance to accept first.
	const stageFinalThreshold float32 = 100
	if best.Score >= stageFinalThreshold && best.hasPrimaryEvidence() && !flags.any() {
		return finalizeResult(AutoMatched, ranked)
	}
	if best.Score >= reviewMinScore && anyPrimary(ranked) {
		return finalizeResult(NeedsReview, ranked)
	}
	// Non-primary evidence (token overlap, name/tag support) can still
	// warrant human review when it accumulates well past the review
	// floor; it just can never auto-match.
	if best.Score >= nonPrimaryReviewFloor {
		return finalizeResult(NeedsReview, ranked)
	}
	return StagedMatchResult{Status: NoMatch, CandidatesAll: ranked}
}

// nonPrimaryReviewFloor is the score a candidate with no primary evidence
// must reach before the terminal stage surfaces it for review at all.
const nonPrimaryReviewFloor float32 = 10

func anyPrimary(ranked []Candidate) bool {
	for _, c := range ranked {
		if c.hasPrimaryEvidence() {
			return true
		}
	}
	return false
}

func rankedSnapshots(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, strong []string, mode scanning.Mode, objectTypeContext string) []Candidate {
	candidates := make([]Candidate, 0, len(states))
	for entryID, state := range states {
		snap := snapshotWithPenalty(db, entryID, state, strong, mode, objectTypeContext)
		candidates = append(candidates, Candidate{
			EntryID:       entryID,
			Score:         snap.Score,
			Overlap:       snap.Overlap,
			UniqueOverlap: snap.UniqueOverlap,
			Reasons:       snap.Reasons,
			MaxConfidence: snap.MaxConfidence,
		})
	}
	sortCandidates(candidates)
	return candidates
}

func finalizeResult(status Status, ranked []Candidate) StagedMatchResult {
	topK := ranked
	if len(topK) > candidateTopK {
		topK = topK[:candidateTopK]
	}
	result := StagedMatchResult{
		Status:         status,
		CandidatesTopK: topK,
		CandidatesAll:  ranked,
	}
	best := ranked[0]
	result.Best = &best
	return result
}
