package masterdb

import "testing"

func TestHashOverlapUpserted(t *testing.T) {
	s := NewScoreState()
	s.AddHashContribution(1, 1, 10)
	s.AddHashContribution(1, 0, 5)
	if len(s.Reasons) != 1 {
		t.Fatalf("expected a single upserted HashOverlap reason, got %d", len(s.Reasons))
	}
	if s.Reasons[0].Overlap != 2 {
		t.Fatalf("expected overlap 2, got %d", s.Reasons[0].Overlap)
	}
	if s.Score != 15 {
		t.Fatalf("expected score 15, got %v", s.Score)
	}
}

func TestScoreClampedToRange(t *testing.T) {
	s := NewScoreState()
	s.AddHashContribution(0, 0, 1000)
	if s.Score != 100 {
		t.Fatalf("expected clamp to 100, got %v", s.Score)
	}
	s.AddNegativeEvidenceContribution(1000)
	if s.Score != 0 {
		t.Fatalf("expected clamp to 0, got %v", s.Score)
	}
}

func TestReasonsCappedAtTwelve(t *testing.T) {
	s := NewScoreState()
	for i := 0; i < 20; i++ {
		s.AddDeepTokenContribution([]string{string(rune('a' + i))}, 0.1, 1, 0, 0)
		s.AddIniTokenContribution([]string{string(rune('A' + i))}, nil, 0.1, 1)
	}
	if len(s.Reasons) > MaxReasons {
		t.Fatalf("expected reasons capped at %d, got %d", MaxReasons, len(s.Reasons))
	}
}

func TestDirectNameSupportNeverPrimary(t *testing.T) {
	s := NewScoreState()
	s.AddDirectNameSupportContribution([]string{"ayaka"}, nil, 2, 1, 6, 4)
	if s.HasPrimaryEvidence() {
		t.Fatal("DirectNameSupport alone must never satisfy primary evidence")
	}
}

func TestFolderNameRescueNeverPrimary(t *testing.T) {
	s := NewScoreState()
	s.AddFolderNameRescueContribution()
	if s.HasPrimaryEvidence() {
		t.Fatal("FolderNameRescue alone must never satisfy primary evidence")
	}
}

func TestHashOverlapZeroNotPrimary(t *testing.T) {
	s := NewScoreState()
	s.append(Reason{Kind: ReasonHashOverlap, Overlap: 0})
	if s.HasPrimaryEvidence() {
		t.Fatal("HashOverlap with overlap 0 must not satisfy primary evidence")
	}
}
