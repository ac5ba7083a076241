package dedup

// Pair is an unordered candidate pair of folder indexes into a snapshot
// slice, surfaced before hash profiles are computed so that Phase 3 only
// hashes folders that actually need it.
type Pair struct {
	I, J int
}

// cheapFilterMaxFileCountDelta and cheapFilterMinSizeRatio are the Phase
// 1 cutoffs.
const (
	cheapFilterMaxFileCountDelta = 4
	cheapFilterMinSizeRatio      = 0.70
)

// CheapFilter is Phase 1: enumerate unordered pairs surviving the cheap,
// hash-free checks (both non-empty, close file counts, comparable sizes).
func CheapFilter(snapshots []Snapshot) []Pair {
	var pairs []Pair
	for i := 0; i < len(snapshots); i++ {
		a := snapshots[i]
		if a.FileCount == 0 {
			continue
		}
		for j := i + 1; j < len(snapshots); j++ {
			b := snapshots[j]
			if b.FileCount == 0 {
				continue
			}
			if abs(a.FileCount-b.FileCount) > cheapFilterMaxFileCountDelta {
				continue
			}
			if !sizeRatioOK(a.TotalSize, b.TotalSize) {
				continue
			}
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}
	return pairs
}

func sizeRatioOK(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	min, max := a, b
	if min > max {
		min, max = max, min
	}
	return float64(min)/float64(max) >= cheapFilterMinSizeRatio
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// WhitelistKey is the canonical sorted-pair key used to look up
// duplicate_whitelist entries.
func WhitelistKey(modIDA, modIDB int) (int, int) {
	if modIDA > modIDB {
		return modIDB, modIDA
	}
	return modIDA, modIDB
}

// IsWhitelisted reports whether the given whitelist set already excuses
// this pair from dedup grouping.
type IsWhitelisted func(modIDA, modIDB int) bool

// WhitelistFilter is Phase 2: drop pairs whose canonical mod-id key is
// present in duplicate_whitelist.
func WhitelistFilter(snapshots []Snapshot, pairs []Pair, whitelisted IsWhitelisted) []Pair {
	if whitelisted == nil {
		return pairs
	}
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		a, b := snapshots[p.I].Ref.ModID, snapshots[p.J].Ref.ModID
		lo, hi := WhitelistKey(a, b)
		if whitelisted(lo, hi) {
			continue
		}
		out = append(out, p)
	}
	return out
}
