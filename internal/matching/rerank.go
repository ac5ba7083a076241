package matching

import (
	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

// MechanicalRerankConfig enables the optional points-based rerank pass
// that can promote a NeedsReview result to AutoMatched. It is
// opt-in: a nil *MechanicalRerankConfig, or one with Enabled false, is a
// no-op.
type MechanicalRerankConfig struct {
	Enabled           bool
	ObjectTypeContext string
	Provider          AIRerankProvider // not read by the mechanical pass; ApplyAIRerank takes its provider as an argument
}

// AIRerankProvider is the pluggable external-rerank contract: given a
// stable hash of the folder's signals and the loaded database's version
// string, it returns a pseudo-AI confidence per candidate entry id.
// Implementations are expected to cache by signalsHash themselves or rely
// on the caller's cache; the matcher does not cache provider calls.
type AIRerankProvider interface {
	Rerank(signalsHash, dbVersion string) (map[int]float32, error)
}

const (
	aiAcceptMin      float32 = 0.85
	aiAcceptGap      float32 = 0.15
	aiPointDeltaMin  float32 = 1.0
	mechanicalPoints         = 30.0
)

// rerank point constants.
const (
	pointExactName        float32 = 20
	pointExactAlias       float32 = 18
	pointUniqueHash       float32 = 18
	pointSubstringSpaced  float32 = 14
	pointSubstringCompact float32 = 10
	pointAliasSubstring   float32 = 15
	pointNameWordPerHit   float32 = 8
	pointNameWordCap      int     = 2
	pointTagSubPerHit     float32 = 6
	pointTagSubCap        int     = 2
	penaltyForeignToken   float32 = 3
	penaltyForeignCap     float32 = 12
	penaltyTypeMismatch   float32 = 2
	penaltyRescueOnly     float32 = 8
)

// applyMechanicalRerank computes a pseudo-AI score per top-K candidate and
// promotes the result to AutoMatched when the winner clears the
// acceptance gates. The result is returned unchanged if the gates are not
// cleared.
func applyMechanicalRerank(db *masterdb.MasterDb, result StagedMatchResult, signals scanning.FolderSignals, cfg *MechanicalRerankConfig) StagedMatchResult {
	if len(result.CandidatesTopK) == 0 {
		return result
	}
	cfgN := normalize.DefaultConfig()
	folderSet := toSet(signals.FolderTokens)
	haystacks := append(append([]string(nil), signals.DeepNameStrings...), signals.IniDerivedStrings...)

	type scored struct {
		candidate Candidate
		points    float32
		ai        float32
	}
	out := make([]scored, 0, len(result.CandidatesTopK))
	for _, c := range result.CandidatesTopK {
		points := computeMechanicalPoints(db, c, folderSet, haystacks, signals, cfgN, cfg.ObjectTypeContext)
		ai := points / mechanicalPoints
		if ai < 0 {
			ai = 0
		}
		if ai > 1 {
			ai = 1
		}
		out = append(out, scored{candidate: c, points: points, ai: ai})
	}

	best := out[0]
	for _, s := range out[1:] {
		if s.ai > best.ai {
			best = s
		}
	}
	var second scored
	haveSecond := false
	for _, s := range out {
		if s.candidate.EntryID == best.candidate.EntryID {
			continue
		}
		if !haveSecond || s.ai > second.ai {
			second = s
			haveSecond = true
		}
	}

	pointDelta := best.points
	if haveSecond {
		pointDelta = best.points - second.points
	}

	if best.ai >= aiAcceptMin &&
		(!haveSecond || best.ai-second.ai >= aiAcceptGap) &&
		pointDelta >= aiPointDeltaMin &&
		best.candidate.hasPrimaryEvidence() {
		promoted := best.candidate
		result.Status = AutoMatched
		result.Best = &promoted
	}
	return result
}

func computeMechanicalPoints(db *masterdb.MasterDb, c Candidate, folderSet map[string]bool, haystacks []string, signals scanning.FolderSignals, cfg normalize.Config, objectTypeContext string) float32 {
	entry := db.Entries[c.EntryID]
	var points float32

	normName := normalize.NormalizeForMatching(entry.Name, cfg)
	folderJoined := joinSorted(folderSet)

	if normName != "" && normName == folderJoined {
		points += pointExactName
	}
	for _, skin := range entry.CustomSkins {
		for _, alias := range skin.Aliases {
			normAlias := normalize.NormalizeForMatching(alias, cfg)
			if normAlias != "" && normAlias == folderJoined {
				points += pointExactAlias
			}
			if containsEitherDirection(normalize.StripNumericRuns(normAlias), haystacks, 3) {
				points += pointAliasSubstring
			}
		}
	}
	if c.UniqueOverlap > 0 {
		points += pointUniqueHash
	}

	strippedName := normalize.StripNumericRuns(normName)
	if containsEitherDirection(strippedName, haystacks, 3) {
		points += pointSubstringSpaced
	}
	compactName := removeSpaces(strippedName)
	compactHay := make([]string, len(haystacks))
	for i, h := range haystacks {
		compactHay[i] = removeSpaces(normalize.StripNumericRuns(h))
	}
	if containsEitherDirection(compactName, compactHay, 3) {
		points += pointSubstringCompact
	}

	nameWordHits := 0
	for _, tok := range normalize.Tokenize(entry.Name, cfg) {
		if folderSet[tok] {
			nameWordHits++
		}
	}
	if nameWordHits > pointNameWordCap {
		nameWordHits = pointNameWordCap
	}
	points += float32(nameWordHits) * pointNameWordPerHit

	tagHits := 0
	for _, tag := range entry.Tags {
		normTag := normalize.StripNumericRuns(normalize.NormalizeForMatching(tag, cfg))
		if normTag != "" && containsEitherDirection(normTag, haystacks, 3) {
			tagHits++
		}
	}
	if tagHits > pointTagSubCap {
		tagHits = pointTagSubCap
	}
	points += float32(tagHits) * pointTagSubPerHit

	strong := strongTokens(db, BucketsFromSignals(signals).ObservedTokens(), scanning.FullScoring)
	keywords := db.EntryTokens(c.EntryID)
	foreignHits := 0
	for _, tok := range strong {
		if !keywords[tok] {
			foreignHits++
		}
	}
	penalty := float32(foreignHits) * penaltyForeignToken
	if penalty > penaltyForeignCap {
		penalty = penaltyForeignCap
	}
	points -= penalty

	if objectTypeContext != "" && entry.ObjectType != objectTypeContext {
		points -= penaltyTypeMismatch
	}
	if len(c.Reasons) == 1 && c.Reasons[0].Kind == masterdb.ReasonFolderNameRescue {
		points -= penaltyRescueOnly
	}

	return points
}

func joinSorted(set map[string]bool) string {
	keys := sortedKeys(set)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += k
	}
	return out
}

func removeSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != ' ' {
			out = append(out, r)
		}
	}
	return string(out)
}

// ApplyAIRerank runs the pluggable external provider (if any) over a
// NeedsReview result and upgrades it to AutoMatched under the same gates
// as the mechanical pass. It is a separate, explicit call so that callers
// opt into the network/IPC cost deliberately rather than it firing as a
// side effect of match_folder.
func ApplyAIRerank(result StagedMatchResult, provider AIRerankProvider, signalsHash, dbVersion string) (StagedMatchResult, error) {
	if provider == nil || result.Status != NeedsReview || len(result.CandidatesTopK) == 0 {
		return result, nil
	}
	scores, err := provider.Rerank(signalsHash, dbVersion)
	if err != nil {
		return result, err
	}
	var bestID int
	var bestScore, secondScore float32
	first := true
	for _, c := range result.CandidatesTopK {
		score, ok := scores[c.EntryID]
		if !ok {
			continue
		}
		if first || score > bestScore {
			secondScore = bestScore
			bestScore = score
			bestID = c.EntryID
			first = false
			continue
		}
		if score > secondScore {
			secondScore = score
		}
	}
	if first {
		return result, nil
	}
	if bestScore >= aiAcceptMin && bestScore-secondScore >= aiAcceptGap {
		for i := range result.CandidatesTopK {
			if result.CandidatesTopK[i].EntryID == bestID && result.CandidatesTopK[i].hasPrimaryEvidence() {
				promoted := result.CandidatesTopK[i]
				promoted.Reasons = append(append([]masterdb.Reason(nil), promoted.Reasons...), masterdb.Reason{Kind: masterdb.ReasonAiRerank, Value: bestScore})
				result.Status = AutoMatched
				result.Best = &promoted
				break
			}
		}
	}
	return result, nil
}
