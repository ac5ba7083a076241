package matching

import (
	"math"
	"strings"

	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

// applyHashStage: for every observed hash, every entry in its
// posting gets a contribution weighted by the hash's rarity, with a bonus
// for hashes unique to a single entry.
func applyHashStage(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, hashes []string) {
	for _, h := range hashes {
		ids := db.Indexes.HashIndex[h]
		df := len(ids)
		if df == 0 {
			continue
		}
		weight := 3.0 / float32(math.Log(float64(df)+1.8))
		delta := weight
		unique := 0
		if df == 1 {
			delta += 9
			unique = 1
		}
		for _, id := range ids {
			state, ok := states[id]
			if !ok {
				continue
			}
			state.AddHashContribution(1, unique, delta)
		}
	}
}

// applyAliasStage serves both the folder-token alias pass
// (onlyMissing=false) and the later all-token re-check (onlyMissing=true): a
// candidate's first skin alias whose full token set is a subset of the
// observed tokens contributes a fixed AliasStrict bonus.
func applyAliasStage(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, order []int, observed map[string]bool, cfg normalize.Config, onlyMissing bool) {
	const aliasBonus float32 = 12
	for _, id := range order {
		state := states[id]
		if onlyMissing && state.HasReason(masterdb.ReasonAliasStrict) {
			continue
		}
		for _, skin := range db.Entries[id].CustomSkins {
			if len(skin.Aliases) == 0 {
				continue
			}
			alias := skin.Aliases[0]
			aliasTokens := normalize.Tokenize(alias, cfg)
			if len(aliasTokens) == 0 || !isSubset(aliasTokens, observed) {
				continue
			}
			state.AddAliasContribution(alias, aliasBonus)
			break
		}
	}
}

func isSubset(tokens []string, observed map[string]bool) bool {
	for _, t := range tokens {
		if !observed[t] {
			return false
		}
	}
	return true
}

// applySubstringStage runs over deep_name_strings on its first pass and
// ini_derived_strings on its second: a spaced substring match in either direction
// contributes spacedWeight; a compact (space-removed) match additionally
// contributes compactWeight. Numeric runs are stripped from both sides
// first.
func applySubstringStage(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, order []int, haystacks []string, cfg normalize.Config, spacedWeight, compactWeight float32) {
	strippedHay := make([]string, 0, len(haystacks))
	for _, h := range haystacks {
		strippedHay = append(strippedHay, normalize.StripNumericRuns(h))
	}

	for _, id := range order {
		name := normalize.StripNumericRuns(normalize.NormalizeForMatching(db.Entries[id].Name, cfg))
		if len([]rune(name)) < 3 {
			continue
		}
		state := states[id]

		if containsEitherDirection(name, strippedHay, 3) {
			state.AddSubstringNameContribution(spacedWeight)
		}

		compactName := strings.ReplaceAll(name, " ", "")
		if len([]rune(compactName)) < 3 {
			continue
		}
		compactHay := make([]string, len(strippedHay))
		for i, h := range strippedHay {
			compactHay[i] = strings.ReplaceAll(h, " ", "")
		}
		if containsEitherDirection(compactName, compactHay, 3) {
			state.AddSubstringNameContribution(compactWeight)
		}
	}
}

func containsEitherDirection(needle string, haystacks []string, minLen int) bool {
	for _, h := range haystacks {
		if len([]rune(h)) < minLen {
			continue
		}
		if strings.Contains(h, needle) || strings.Contains(needle, h) {
			return true
		}
	}
	return false
}

// deep-token stage constants.
const (
	deepRatioWeight float32 = 16
	deepPerHit      float32 = 1.0
	deepPerHitCap   float32 = 6.0
	iniRatioWeight  float32 = 8
)

// applyDeepTokenStage: deep-name token overlap plus, separately, a
// combined INI section/content token overlap.
func applyDeepTokenStage(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, order []int, deepTokens, sectionTokens, contentTokens []string) {
	for _, id := range order {
		entryTokens := db.EntryTokens(id)
		state := states[id]

		var deepHits []string
		for _, tok := range deepTokens {
			if entryTokens[tok] {
				deepHits = append(deepHits, tok)
			}
		}
		deepRatio := ratioOf(len(deepHits), len(deepTokens))
		state.AddDeepTokenContribution(deepHits, deepRatio, deepRatioWeight, deepPerHit, deepPerHitCap)

		var sectionHits, contentHits []string
		for _, tok := range sectionTokens {
			if entryTokens[tok] {
				sectionHits = append(sectionHits, tok)
			}
		}
		for _, tok := range contentTokens {
			if entryTokens[tok] {
				contentHits = append(contentHits, tok)
			}
		}
		iniRatio := ratioOf(len(sectionHits)+len(contentHits), len(sectionTokens)+len(contentTokens))
		state.AddIniTokenContribution(sectionHits, contentHits, iniRatio, iniRatioWeight)
	}
}

func ratioOf(hits, total int) float32 {
	if total < 1 {
		total = 1
	}
	return float32(hits) / float32(total)
}

const tokenOverlapWeight float32 = 12

// applyTokenOverlapStage: IDF-weighted folder/entry token overlap in
// Full mode, unweighted count ratio in Quick mode.
func applyTokenOverlapStage(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, order []int, folderTokens []string, mode scanning.Mode) {
	if mode == scanning.Quick {
		for _, id := range order {
			entryTokens := db.EntryTokens(id)
			hits := 0
			for _, tok := range folderTokens {
				if entryTokens[tok] {
					hits++
				}
			}
			ratio := ratioOf(hits, len(folderTokens))
			states[id].AddTokenOverlapContribution(ratio, tokenOverlapWeight)
		}
		return
	}

	var total float32
	for _, tok := range folderTokens {
		total += db.TokenIDF(tok)
	}
	if total <= 0 {
		total = 1
	}
	for _, id := range order {
		entryTokens := db.EntryTokens(id)
		var overlapWeight float32
		for _, tok := range folderTokens {
			if entryTokens[tok] {
				overlapWeight += db.TokenIDF(tok)
			}
		}
		states[id].AddTokenOverlapContribution(overlapWeight/total, tokenOverlapWeight)
	}
}

// direct-name-support constants.
const (
	directNamePerHit float32 = 2.0
	directNameCap    float32 = 6.0 // 3 hits * 2.0
	directTagPerHit  float32 = 1.0
	directTagCap     float32 = 2.0 // 2 hits * 1.0
)

// applyDirectNameSupportStage: a booster, never primary evidence on
// its own, for entry.Name/entry.Tags tokens shared with the folder.
func applyDirectNameSupportStage(db *masterdb.MasterDb, states map[int]*masterdb.ScoreState, order []int, folderTokens []string, cfg normalize.Config) {
	folderSet := make(map[string]bool, len(folderTokens))
	for _, t := range folderTokens {
		folderSet[t] = true
	}

	for _, id := range order {
		entry := db.Entries[id]
		var nameHits []string
		for _, tok := range normalize.Tokenize(entry.Name, cfg) {
			if folderSet[tok] {
				nameHits = append(nameHits, tok)
			}
		}
		if len(nameHits) > 3 {
			nameHits = nameHits[:3]
		}

		var tagHits []string
		for _, tag := range entry.Tags {
			for _, tok := range normalize.Tokenize(tag, cfg) {
				if folderSet[tok] {
					tagHits = append(tagHits, tok)
				}
			}
		}
		tagHits = normalize.SortedUnique(tagHits)
		if len(tagHits) > 2 {
			tagHits = tagHits[:2]
		}

		states[id].AddDirectNameSupportContribution(nameHits, tagHits, directNamePerHit, directTagPerHit, directNameCap, directTagCap)
	}
}
