package dedup

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/modgrove/modcore/internal/normalize"
)

// ComparePair is Phase 4: aggregate every signal dimension for a single
// candidate pair and produce its composite score.
func ComparePair(a, b Snapshot, ha, hb HashProfile) PairResult {
	structuralName := structuralNameSim(a.Ref, b.Ref)
	structure := structureSim(a, b)
	structural := (structuralName + structure) / 2

	hashSim, exact := hashSim(ha, hb)
	headerSim := setOverlapRatio(a.SectionHeaders, b.SectionHeaders)
	fileIdentity := 0.8*hashSim + 0.2*headerSim

	extSim := extSim(a.ExtCounts, b.ExtCounts)
	texSim := diceOverlap(ha.TextureHashes, hb.TextureHashes)
	physical := 0.5*extSim + 0.5*texSim

	supporting := setOverlapRatio(a.KeyBindings, b.KeyBindings)

	result := PairResult{
		A: a.Ref, B: b.Ref,
		ExactHashMatch: exact,
	}

	signals := []PairSignal{
		{Key: "structural", Detail: "name and file-path structure similarity", Score: structural},
		{Key: "file_identity", Detail: "content hash and INI section overlap", Score: fileIdentity},
		{Key: "physical", Detail: "extension profile and texture hash overlap", Score: physical},
		{Key: "supporting", Detail: "keybinding marker overlap", Score: supporting},
	}
	result.Signals = signals

	if exact {
		result.Score = 100
		result.PrimaryReason = "Exact hash match"
		return result
	}

	composite := 40*structural + 30*fileIdentity + 20*physical + 10*supporting
	score := int(composite + 0.5)
	if score > 99 {
		score = 99
	}
	if score < 0 {
		score = 0
	}
	result.Score = score
	result.PrimaryReason = dominantSignal(signals).Key
	return result
}

func dominantSignal(signals []PairSignal) PairSignal {
	best := signals[0]
	for _, s := range signals[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}

// structuralNameSim is 0.6 * front-name similarity (over the first 60% of
// the shorter normalized name) + 0.4 * overall normalized Levenshtein
// similarity.
func structuralNameSim(a, b FolderRef) float32 {
	nameA := normalizedDedupName(a.RelPath)
	nameB := normalizedDedupName(b.RelPath)

	overall := normalizedLevenshteinSim(nameA, nameB)

	shorter := len([]rune(nameA))
	if len([]rune(nameB)) < shorter {
		shorter = len([]rune(nameB))
	}
	frontLen := int(float64(shorter) * 0.6)
	front := normalizedLevenshteinSim(runesPrefix(nameA, frontLen), runesPrefix(nameB, frontLen))

	return 0.6*front + 0.4*overall
}

func normalizedDedupName(relPath string) string {
	base := relPath
	if idx := strings.LastIndexAny(relPath, "/\\"); idx >= 0 {
		base = relPath[idx+1:]
	}
	return strings.ToLower(normalize.DisplayName(base))
}

func runesPrefix(s string, n int) string {
	r := []rune(s)
	if n > len(r) {
		n = len(r)
	}
	if n < 0 {
		n = 0
	}
	return string(r[:n])
}

func normalizedLevenshteinSim(a, b string) float32 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	sim := 1 - float32(dist)/float32(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

// structureSim is the intersection of relative file paths over the max
// file count.
func structureSim(a, b Snapshot) float32 {
	denom := a.FileCount
	if b.FileCount > denom {
		denom = b.FileCount
	}
	if denom == 0 {
		return 0
	}
	shared := intersectSorted(a.RelFilePaths, b.RelFilePaths)
	return float32(shared) / float32(denom)
}

// hashSim is the exact-match fraction over shared extension keys; exact
// reports whether every key is shared and every shared hash matches
// (Phase 4's exact_hash_match short-circuit).
func hashSim(a, b HashProfile) (sim float32, exact bool) {
	if len(a.ExtHashes) == 0 || len(b.ExtHashes) == 0 {
		return 0, false
	}
	shared := 0
	matches := 0
	for ext, ha := range a.ExtHashes {
		hb, ok := b.ExtHashes[ext]
		if !ok {
			continue
		}
		shared++
		if ha == hb {
			matches++
		}
	}
	if shared == 0 {
		return 0, false
	}
	sim = float32(matches) / float32(shared)
	exact = shared == len(a.ExtHashes) && shared == len(b.ExtHashes) && matches == shared
	return sim, exact
}

// extSim is the mean, over the union of extensions observed in either
// folder, of min(count_a, count_b) / max(count_a, count_b).
func extSim(a, b map[string]int) float32 {
	seen := make(map[string]bool, len(a)+len(b))
	for ext := range a {
		seen[ext] = true
	}
	for ext := range b {
		seen[ext] = true
	}
	if len(seen) == 0 {
		return 0
	}
	var total float32
	for ext := range seen {
		ca, cb := a[ext], b[ext]
		max := ca
		if cb > max {
			max = cb
		}
		if max == 0 {
			continue
		}
		min := ca
		if cb < min {
			min = cb
		}
		total += float32(min) / float32(max)
	}
	return total / float32(len(seen))
}

// setOverlapRatio is |A∩B| / max(|A|,|B|), used for header_sim and the
// keybinding "supporting" signal alike.
func setOverlapRatio(a, b []string) float32 {
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom == 0 {
		return 0
	}
	shared := intersectSorted(a, b)
	return float32(shared) / float32(denom)
}

// diceOverlap is the Dice coefficient 2|A∩B|/(|A|+|B|) over two sorted
// hash lists, used for tex_sim: an exact-match fraction over shared
// texture hashes that tolerates one folder carrying extra or missing
// textures relative to the other.
func diceOverlap(a, b []string) float32 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := intersectSorted(a, b)
	return 2 * float32(shared) / float32(len(a)+len(b))
}

// intersectSorted counts the common elements of two sorted, deduplicated
// string slices in O(n+m).
func intersectSorted(a, b []string) int {
	i, j, count := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count
}
