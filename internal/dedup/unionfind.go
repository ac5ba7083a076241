package dedup

import "sort"

// unionFind is a simple union-find over snapshot indexes, used to group
// surviving pairs into connected components (Phase 5).
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra > rb {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// GroupPairs is Phase 5: union surviving pairs and emit one Group per
// connected component of size >= 2. Group score is the max pair score;
// reason is the max-scoring pair's reason; signals are the per-key max
// across member pairs. Groups are ordered by (group_index, confidence
// desc) via a stable sort on the component's first-seen index.
func GroupPairs(snapshots []Snapshot, results []PairResult) []Group {
	uf := newUnionFind(len(snapshots))
	byPair := make(map[[2]int]PairResult, len(results))
	for _, r := range results {
		ai := indexOf(snapshots, r.A.ModID)
		bi := indexOf(snapshots, r.B.ModID)
		if ai < 0 || bi < 0 {
			continue
		}
		uf.union(ai, bi)
		byPair[pairKey(ai, bi)] = r
	}

	components := make(map[int][]int)
	for i := range snapshots {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	var roots []int
	for root, members := range components {
		if len(members) >= 2 {
			roots = append(roots, root)
		}
	}
	sort.Ints(roots)

	groups := make([]Group, 0, len(roots))
	for idx, root := range roots {
		members := components[root]
		sort.Ints(members)

		best := PairResult{}
		haveBest := false
		signalMax := make(map[string]PairSignal)
		for mi := 0; mi < len(members); mi++ {
			for mj := mi + 1; mj < len(members); mj++ {
				r, ok := byPair[pairKey(members[mi], members[mj])]
				if !ok {
					continue
				}
				if !haveBest || r.Score > best.Score {
					best = r
					haveBest = true
				}
				for _, s := range r.Signals {
					if cur, ok := signalMax[s.Key]; !ok || s.Score > cur.Score {
						signalMax[s.Key] = s
					}
				}
			}
		}
		if !haveBest {
			continue
		}

		refs := make([]FolderRef, 0, len(members))
		for _, m := range members {
			refs = append(refs, snapshots[m].Ref)
		}

		groups = append(groups, Group{
			GroupID:       idx,
			Confidence:    best.Score,
			PrimaryReason: best.PrimaryReason,
			Signals:       sortedSignals(signalMax),
			Members:       refs,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].GroupID != groups[j].GroupID {
			return groups[i].GroupID < groups[j].GroupID
		}
		return groups[i].Confidence > groups[j].Confidence
	})
	return groups
}

func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

func indexOf(snapshots []Snapshot, modID int) int {
	for i, s := range snapshots {
		if s.Ref.ModID == modID {
			return i
		}
	}
	return -1
}

func sortedSignals(m map[string]PairSignal) []PairSignal {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]PairSignal, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
