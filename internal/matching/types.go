// Package matching implements the Deep Matcher pipeline and the
// skin/variant resolver: staged, evidence-based scoring that maps a
// scanned mod folder onto a Master Database entry with calibrated
// confidence and auditable reasons.
package matching

import (
	"sort"

	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

// Status is the final disposition of a staged match attempt.
type Status int

const (
	NoMatch Status = iota
	NeedsReview
	AutoMatched
)

func (s Status) String() string {
	switch s {
	case AutoMatched:
		return "AutoMatched"
	case NeedsReview:
		return "NeedsReview"
	default:
		return "NoMatch"
	}
}

// Candidate is a single scored entry produced by the pipeline.
type Candidate struct {
	EntryID       int
	Score         float32
	Overlap       int
	UniqueOverlap int
	Reasons       []masterdb.Reason
	MaxConfidence masterdb.Confidence
}

func (c Candidate) hasPrimaryEvidence() bool {
	s := masterdb.ScoreState{Reasons: c.Reasons, Overlap: c.Overlap}
	return s.HasPrimaryEvidence()
}

// Evidence lists the folder's observed signals, sorted and deduped and
// capped at 50 entries each: every harvested INI hash, the union of
// folder, deep-name and INI content tokens, and the INI section tokens.
// The lists are not filtered to the signals that matched a candidate.
type Evidence struct {
	Hashes   []string
	Tokens   []string
	Sections []string
}

const evidenceCap = 50

// StagedMatchResult is the output of match_folder.
type StagedMatchResult struct {
	Status         Status
	Best           *Candidate
	CandidatesTopK []Candidate
	CandidatesAll  []Candidate
	Evidence       Evidence
}

// candidateTopK caps the number of full candidates surfaced to callers.
const candidateTopK = 5

// sortCandidates orders by (score desc, entry_id asc), the tie-break
// contract that keeps results byte-identical across runs and hardware.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].EntryID < candidates[j].EntryID
	})
}

// ObservedTokenBuckets groups the token sets observed from a folder's
// signals, used by seeding, acceptance negative-evidence, and scoring
// stages alike.
type ObservedTokenBuckets struct {
	FolderTokens     map[string]bool
	DeepNameTokens   []string
	IniSectionTokens []string
	IniContentTokens []string
}

// BucketsFromSignals builds ObservedTokenBuckets from FolderSignals.
func BucketsFromSignals(signals scanning.FolderSignals) ObservedTokenBuckets {
	folderTokens := make(map[string]bool, len(signals.FolderTokens))
	for _, t := range signals.FolderTokens {
		folderTokens[t] = true
	}
	return ObservedTokenBuckets{
		FolderTokens:     folderTokens,
		DeepNameTokens:   signals.DeepNameTokens,
		IniSectionTokens: signals.IniSectionTokens,
		IniContentTokens: signals.IniContentTokens,
	}
}

// ObservedTokens returns the union of every token bucket.
func (b ObservedTokenBuckets) ObservedTokens() map[string]bool {
	set := make(map[string]bool)
	for t := range b.FolderTokens {
		set[t] = true
	}
	for _, t := range b.DeepNameTokens {
		set[t] = true
	}
	for _, t := range b.IniSectionTokens {
		set[t] = true
	}
	for _, t := range b.IniContentTokens {
		set[t] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func capEvidence(items []string) []string {
	items = normalize.SortedUnique(items)
	if len(items) > evidenceCap {
		items = items[:evidenceCap]
	}
	return items
}
