package masterdb

import "sort"

// Confidence is the ceiling tier a candidate has reached through the
// pipeline.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

// ReasonKind identifies a Reason variant.
type ReasonKind int

const (
	ReasonHashOverlap ReasonKind = iota
	ReasonAliasStrict
	ReasonSubstringName
	ReasonDeepNameToken
	ReasonIniSectionToken
	ReasonIniContentToken
	ReasonTokenOverlap
	ReasonDirectNameSupport
	ReasonFolderNameRescue
	ReasonNegativeEvidence
	ReasonAiRerank
)

// reasonPriority gives the fixed priority ordering used when trimming the
// reason list to its cap: HashOverlap < AliasStrict < SubstringName <
// NegativeEvidence < TokenOverlap < DeepNameToken < IniSectionToken <
// IniContentToken < DirectNameSupport < AiRerank < FolderNameRescue. Lower
// values are dropped first when the cap is exceeded.
var reasonPriority = map[ReasonKind]int{
	ReasonHashOverlap:       0,
	ReasonAliasStrict:       1,
	ReasonSubstringName:     2,
	ReasonNegativeEvidence:  3,
	ReasonTokenOverlap:      4,
	ReasonDeepNameToken:     5,
	ReasonIniSectionToken:   6,
	ReasonIniContentToken:   7,
	ReasonDirectNameSupport: 8,
	ReasonAiRerank:          9,
	ReasonFolderNameRescue:  10,
}

// MaxReasons is the cap on the number of reasons kept per candidate.
const MaxReasons = 12

// Reason is a single tagged piece of evidence contributing to a
// candidate's score.
type Reason struct {
	Kind ReasonKind

	// HashOverlap fields.
	Overlap       int
	UniqueOverlap int

	// AliasStrict field.
	Alias string

	// DeepNameToken / IniSectionToken / IniContentToken hit lists.
	Hits []string

	// TokenOverlap field.
	Ratio float32

	// DirectNameSupport fields.
	NameHits []string
	TagHits  []string

	// NegativeEvidence / AiRerank score contribution.
	Value float32
}

// primaryEvidenceKinds is the set of reason kinds that satisfy the
// primary-evidence predicate. DirectNameSupport and
// FolderNameRescue are deliberately excluded: they can only ever be
// boosters, never sole justification for AutoMatched.
var primaryEvidenceKinds = map[ReasonKind]bool{
	ReasonHashOverlap:     true,
	ReasonAliasStrict:     true,
	ReasonDeepNameToken:   true,
	ReasonIniSectionToken: true,
	ReasonIniContentToken: true,
	ReasonSubstringName:   true,
}

// ScoreState is the mutable per-candidate accumulator threaded through the
// Deep Matcher pipeline.
type ScoreState struct {
	Score         float32
	Overlap       int
	UniqueOverlap int
	Reasons       []Reason
	MaxConfidence Confidence
}

// NewScoreState returns a zeroed ScoreState.
func NewScoreState() *ScoreState {
	return &ScoreState{}
}

// Clone returns a deep copy. The accept protocol uses this to apply
// negative-evidence penalties to a scratch copy for ranking/decision
// purposes without mutating the canonical state that carries forward
// across pipeline stages.
func (s *ScoreState) Clone() *ScoreState {
	clone := &ScoreState{Score: s.Score, Overlap: s.Overlap, UniqueOverlap: s.UniqueOverlap, MaxConfidence: s.MaxConfidence}
	clone.Reasons = append([]Reason(nil), s.Reasons...)
	return clone
}

func (s *ScoreState) addScore(delta float32) {
	s.Score += delta
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 100 {
		s.Score = 100
	}
}

// raiseConfidence records that the candidate has reached at least tier c.
func (s *ScoreState) raiseConfidence(c Confidence) {
	if c > s.MaxConfidence {
		s.MaxConfidence = c
	}
}

// HasReason reports whether the state already carries a reason of the
// given kind, used by stages that only act on candidates still missing a
// particular piece of evidence (e.g. the alias re-check).
func (s *ScoreState) HasReason(kind ReasonKind) bool {
	return s.findReason(kind) != nil
}

func (s *ScoreState) findReason(kind ReasonKind) *Reason {
	for i := range s.Reasons {
		if s.Reasons[i].Kind == kind {
			return &s.Reasons[i]
		}
	}
	return nil
}

func (s *ScoreState) append(r Reason) {
	s.Reasons = append(s.Reasons, r)
	s.trimReasons()
}

// trimReasons enforces MaxReasons by dropping the lowest-priority reasons
// first, per the fixed ordering in reasonPriority.
func (s *ScoreState) trimReasons() {
	if len(s.Reasons) <= MaxReasons {
		return
	}
	sort.SliceStable(s.Reasons, func(i, j int) bool {
		return reasonPriority[s.Reasons[i].Kind] > reasonPriority[s.Reasons[j].Kind]
	})
	s.Reasons = s.Reasons[:MaxReasons]
}

// AddHashContribution upserts the HashOverlap reason: a single reason is
// kept regardless of how many hashes accumulate, with overlap and
// unique_overlap fields updated in place.
func (s *ScoreState) AddHashContribution(overlapDelta, uniqueOverlapDelta int, scoreDelta float32) {
	s.Overlap += overlapDelta
	s.UniqueOverlap += uniqueOverlapDelta
	s.addScore(scoreDelta)
	if r := s.findReason(ReasonHashOverlap); r != nil {
		r.Overlap = s.Overlap
		r.UniqueOverlap = s.UniqueOverlap
		return
	}
	s.append(Reason{Kind: ReasonHashOverlap, Overlap: s.Overlap, UniqueOverlap: s.UniqueOverlap})
	s.raiseConfidence(ConfidenceHigh)
}

// AddAliasContribution records a strict alias match (the alias's full
// token set is a subset of the observed tokens).
func (s *ScoreState) AddAliasContribution(alias string, scoreDelta float32) {
	s.addScore(scoreDelta)
	if r := s.findReason(ReasonAliasStrict); r != nil {
		r.Alias = alias
		return
	}
	s.append(Reason{Kind: ReasonAliasStrict, Alias: alias})
	s.raiseConfidence(ConfidenceHigh)
}

// AddSubstringNameContribution records a substring-name match.
func (s *ScoreState) AddSubstringNameContribution(scoreDelta float32) {
	s.addScore(scoreDelta)
	if s.findReason(ReasonSubstringName) == nil {
		s.append(Reason{Kind: ReasonSubstringName})
	}
	s.raiseConfidence(ConfidenceMedium)
}

// AddDeepTokenContribution records deep-name token overlap.
func (s *ScoreState) AddDeepTokenContribution(hits []string, ratio float32, ratioWeight, perHit, perHitCap float32) {
	delta := ratio*ratioWeight + minFloat32(float32(len(hits))*perHit, perHitCap)
	s.addScore(delta)
	if len(hits) == 0 {
		return
	}
	if r := s.findReason(ReasonDeepNameToken); r != nil {
		r.Hits = mergeUnique(r.Hits, hits)
		return
	}
	s.append(Reason{Kind: ReasonDeepNameToken, Hits: append([]string(nil), hits...)})
	s.raiseConfidence(ConfidenceMedium)
}

// AddIniTokenContribution records INI section/content token overlap.
func (s *ScoreState) AddIniTokenContribution(sectionHits, contentHits []string, ratio float32, ratioWeight float32) {
	s.addScore(ratio * ratioWeight)
	if len(sectionHits) > 0 {
		if r := s.findReason(ReasonIniSectionToken); r != nil {
			r.Hits = mergeUnique(r.Hits, sectionHits)
		} else {
			s.append(Reason{Kind: ReasonIniSectionToken, Hits: append([]string(nil), sectionHits...)})
			s.raiseConfidence(ConfidenceMedium)
		}
	}
	if len(contentHits) > 0 {
		if r := s.findReason(ReasonIniContentToken); r != nil {
			r.Hits = mergeUnique(r.Hits, contentHits)
		} else {
			s.append(Reason{Kind: ReasonIniContentToken, Hits: append([]string(nil), contentHits...)})
			s.raiseConfidence(ConfidenceMedium)
		}
	}
}

// AddTokenOverlapContribution records weighted (or unweighted in Quick
// mode) token overlap.
func (s *ScoreState) AddTokenOverlapContribution(ratio float32, weight float32) {
	s.addScore(ratio * weight)
	if r := s.findReason(ReasonTokenOverlap); r != nil {
		r.Ratio = ratio
		return
	}
	s.append(Reason{Kind: ReasonTokenOverlap, Ratio: ratio})
}

// AddDirectNameSupportContribution records direct name/tag token support.
// This reason can never be primary evidence on its own.
func (s *ScoreState) AddDirectNameSupportContribution(nameHits, tagHits []string, namePerHit, tagPerHit, nameCap, tagCap float32) {
	delta := minFloat32(float32(len(nameHits))*namePerHit, nameCap) + minFloat32(float32(len(tagHits))*tagPerHit, tagCap)
	if delta == 0 {
		return
	}
	s.addScore(delta)
	if r := s.findReason(ReasonDirectNameSupport); r != nil {
		r.NameHits = mergeUnique(r.NameHits, nameHits)
		r.TagHits = mergeUnique(r.TagHits, tagHits)
		return
	}
	s.append(Reason{
		Kind:     ReasonDirectNameSupport,
		NameHits: append([]string(nil), nameHits...),
		TagHits:  append([]string(nil), tagHits...),
	})
}

// AddFolderNameRescueContribution records the rescue-stage reason. Never
// primary evidence; only ever produced by the rescue pass.
func (s *ScoreState) AddFolderNameRescueContribution() {
	if s.findReason(ReasonFolderNameRescue) == nil {
		s.append(Reason{Kind: ReasonFolderNameRescue})
	}
}

// AddNegativeEvidenceContribution subtracts a penalty for missing strong
// tokens or object-type mismatch.
func (s *ScoreState) AddNegativeEvidenceContribution(penalty float32) {
	s.addScore(-penalty)
	if r := s.findReason(ReasonNegativeEvidence); r != nil {
		r.Value += penalty
		return
	}
	s.append(Reason{Kind: ReasonNegativeEvidence, Value: penalty})
}

// AddAiRerankContribution records the pseudo-AI rerank score assigned to
// this candidate.
func (s *ScoreState) AddAiRerankContribution(score float32) {
	if r := s.findReason(ReasonAiRerank); r != nil {
		r.Value = score
		return
	}
	s.append(Reason{Kind: ReasonAiRerank, Value: score})
}

// HasPrimaryEvidence reports whether the state carries at least one reason
// satisfying the primary-evidence predicate (with HashOverlap requiring
// overlap >= 1).
func (s *ScoreState) HasPrimaryEvidence() bool {
	for _, r := range s.Reasons {
		if !primaryEvidenceKinds[r.Kind] {
			continue
		}
		if r.Kind == ReasonHashOverlap && r.Overlap < 1 {
			continue
		}
		return true
	}
	return false
}

func mergeUnique(existing, extra []string) []string {
	set := make(map[string]bool, len(existing)+len(extra))
	out := make([]string, 0, len(existing)+len(extra))
	for _, v := range existing {
		if !set[v] {
			set[v] = true
			out = append(out, v)
		}
	}
	for _, v := range extra {
		if !set[v] {
			set[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
