package matching

import (
	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

// MatchFolder runs the full staged Deep Matcher pipeline and
// returns the disposition for one mod folder against db.
//
// objectTypeContext, when non-empty, is compared against each candidate's
// ObjectType for the negative-evidence penalty; pass "" when the caller
// has no such hint. rerank is optional and disabled when nil.
func MatchFolder(db *masterdb.MasterDb, signals scanning.FolderSignals, mode scanning.Mode, cfg normalize.Config, objectTypeContext string, rerank *MechanicalRerankConfig) StagedMatchResult {
	observed := BucketsFromSignals(signals)
	observedTokens := observed.ObservedTokens()
	strong := strongTokens(db, observedTokens, mode)

	order := seedCandidates(db, observed, signals.IniHashes, signals.DeepNameStrings, signals.IniDerivedStrings, cfg)
	if len(order) == 0 {
		if mode == scanning.FullScoring {
			if rescued, ok := rootFolderRescue(db, signals, cfg); ok {
				return finish(rescued, signals, rerank, db)
			}
		}
		return withEvidence(StagedMatchResult{Status: NoMatch}, signals)
	}

	states := make(map[int]*masterdb.ScoreState, len(order))
	for _, id := range order {
		states[id] = masterdb.NewScoreState()
	}

	thresholds := thresholdsFor(mode)

	applyHashStage(db, states, signals.IniHashes)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.hash); done {
		return finish(result, signals, rerank, db)
	}

	applyAliasStage(db, states, order, toSet(signals.FolderTokens), cfg, false)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.alias); done {
		return finish(result, signals, rerank, db)
	}

	applySubstringStage(db, states, order, signals.DeepNameStrings, cfg, 10, 6)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.substring); done {
		return finish(result, signals, rerank, db)
	}

	applyDeepTokenStage(db, states, order, signals.DeepNameTokens, signals.IniSectionTokens, signals.IniContentTokens)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.deepToken); done {
		return finish(result, signals, rerank, db)
	}

	// The INI-derived substring pass runs after deep-token overlap
	// deliberately: INI-derived strings are noisier and
	// must not outrank a clean deep-name decision reached above.
	applySubstringStage(db, states, order, signals.IniDerivedStrings, cfg, 10, 6)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.substring); done {
		return finish(result, signals, rerank, db)
	}

	applyAliasStage(db, states, order, observedTokens, cfg, true)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.alias); done {
		return finish(result, signals, rerank, db)
	}

	applyTokenOverlapStage(db, states, order, signals.FolderTokens, mode)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.tokenOverlap); done {
		return finish(result, signals, rerank, db)
	}

	applyDirectNameSupportStage(db, states, order, signals.FolderTokens, cfg)
	if result, done := tryStageAccept(db, states, strong, mode, objectTypeContext, thresholds.directName); done {
		return finish(result, signals, rerank, db)
	}

	result := finalizeReview(db, states, strong, mode, objectTypeContext, thresholds.directName.ReviewMinScore, thresholds.directName.Margin)
	if result.Status == NoMatch && mode == scanning.FullScoring {
		if rescued, ok := rootFolderRescue(db, signals, cfg); ok {
			return finish(rescued, signals, rerank, db)
		}
	}
	return finish(result, signals, rerank, db)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

type stageThresholds struct {
	hash         stageParams
	alias        stageParams
	substring    stageParams
	deepToken    stageParams
	tokenOverlap stageParams
	directName   stageParams
}

// thresholdsFor returns the per-stage {threshold, margin, review_min_score}
// triples. review_min_score is held constant across stages
// within a mode; only threshold/margin vary per stage.
func thresholdsFor(mode scanning.Mode) stageThresholds {
	reviewMin := float32(6)
	if mode == scanning.FullScoring {
		reviewMin = 5
	}
	if mode == scanning.Quick {
		return stageThresholds{
			hash:         stageParams{Threshold: 10, Margin: 6, ReviewMinScore: reviewMin},
			alias:        stageParams{Threshold: 12, Margin: 6, ReviewMinScore: reviewMin},
			substring:    stageParams{Threshold: 14, Margin: 4, ReviewMinScore: reviewMin},
			deepToken:    stageParams{Threshold: 14, Margin: 4, ReviewMinScore: reviewMin},
			tokenOverlap: stageParams{Threshold: 14, Margin: 4, ReviewMinScore: reviewMin},
			directName:   stageParams{Threshold: 16, Margin: 4, ReviewMinScore: reviewMin},
		}
	}
	return stageThresholds{
		hash:         stageParams{Threshold: 10, Margin: 4, ReviewMinScore: reviewMin},
		alias:        stageParams{Threshold: 12, Margin: 4, ReviewMinScore: reviewMin},
		substring:    stageParams{Threshold: 14, Margin: 3, ReviewMinScore: reviewMin},
		deepToken:    stageParams{Threshold: 16, Margin: 3, ReviewMinScore: reviewMin},
		tokenOverlap: stageParams{Threshold: 14, Margin: 3, ReviewMinScore: reviewMin},
		directName:   stageParams{Threshold: 16, Margin: 3, ReviewMinScore: reviewMin},
	}
}

func withEvidence(result StagedMatchResult, signals scanning.FolderSignals) StagedMatchResult {
	tokens := append([]string(nil), signals.FolderTokens...)
	tokens = append(tokens, signals.DeepNameTokens...)
	tokens = append(tokens, signals.IniContentTokens...)
	result.Evidence = Evidence{
		Hashes:   capEvidence(signals.IniHashes),
		Tokens:   capEvidence(tokens),
		Sections: capEvidence(signals.IniSectionTokens),
	}
	return result
}

func finish(result StagedMatchResult, signals scanning.FolderSignals, rerank *MechanicalRerankConfig, db *masterdb.MasterDb) StagedMatchResult {
	result = withEvidence(result, signals)
	if result.Status == NeedsReview && rerank != nil && rerank.Enabled {
		result = applyMechanicalRerank(db, result, signals, rerank)
	}
	return result
}
