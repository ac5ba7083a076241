package matching

import (
	"sort"
	"strings"

	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/normalize"
)

// DefaultSeedCap bounds the initial candidate pool size.
const DefaultSeedCap = 128

// DefaultMinPool is the floor below which replenishment kicks in.
const DefaultMinPool = 24

type postingRef struct {
	isHash bool
	key    string
	df     int
}

// seedCandidates builds the initial candidate pool from observed hashes and
// tokens, unioning their posting lists rarest-first and capping at
// DefaultSeedCap. If the resulting pool is smaller than DefaultMinPool, it
// is replenished by a substring sweep over the full catalog so that
// compact-name matches with no shared token still reach the scoring
// stages.
func seedCandidates(db *masterdb.MasterDb, observed ObservedTokenBuckets, hashes []string, deepStrings, iniDerivedStrings []string, cfg normalize.Config) []int {
	var refs []postingRef
	for _, h := range hashes {
		if df := db.HashDF(h); df > 0 {
			refs = append(refs, postingRef{isHash: true, key: h, df: df})
		}
	}
	for _, t := range sortedKeys(observed.ObservedTokens()) {
		if df := db.TokenDF(t); df > 0 {
			refs = append(refs, postingRef{isHash: false, key: t, df: df})
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].df != refs[j].df {
			return refs[i].df < refs[j].df
		}
		if refs[i].isHash != refs[j].isHash {
			return refs[i].isHash // hashes are stronger signals, tie-break first
		}
		return refs[i].key < refs[j].key
	})

	pool := make(map[int]bool)
	var order []int
	add := func(id int) bool {
		if pool[id] {
			return false
		}
		pool[id] = true
		order = append(order, id)
		return len(order) >= DefaultSeedCap
	}

outer:
	for _, ref := range refs {
		var ids []int
		if ref.isHash {
			ids = db.Indexes.HashIndex[ref.key]
		} else {
			ids = db.Indexes.TokenIndex[ref.key]
		}
		for _, id := range ids {
			if add(id) {
				break outer
			}
		}
	}

	if len(order) < DefaultMinPool {
		replenish(db, pool, &order, deepStrings, iniDerivedStrings, cfg)
	}
	return order
}

// replenish extends a thin pool with entries discoverable only by
// substring matching (no shared token, e.g. compact CamelCase names
// jammed together in a folder name), scanning the full catalog in entry
// id order for determinism.
func replenish(db *masterdb.MasterDb, pool map[int]bool, order *[]int, deepStrings, iniDerivedStrings []string, cfg normalize.Config) {
	haystacks := append(append([]string(nil), deepStrings...), iniDerivedStrings...)
	for entryID := 0; entryID < len(db.Entries) && len(*order) < DefaultMinPool; entryID++ {
		if pool[entryID] {
			continue
		}
		name := normalize.NormalizeForMatching(db.Entries[entryID].Name, cfg)
		if substringMatches(name, haystacks) {
			pool[entryID] = true
			*order = append(*order, entryID)
		}
	}
}

func substringMatches(name string, haystacks []string) bool {
	if len(name) < 3 {
		return false
	}
	for _, h := range haystacks {
		if len(h) < 3 {
			continue
		}
		if strings.Contains(h, name) || strings.Contains(name, h) {
			return true
		}
	}
	return false
}
