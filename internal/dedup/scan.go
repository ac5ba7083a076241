package dedup

import (
	"runtime"
	"sort"
	"sync"

	"github.com/modgrove/modcore/internal/scanning"
)

// ScanDuplicates runs the full five-phase Dedup Pair Engine over folders,
// polling cancel between phases and inside the per-pair loop. Snapshot
// and hash-profile computation fan out across cores; everything
// downstream is deterministic given identical snapshots and hashes, so
// the parallelism never leaks into group ordering.
func ScanDuplicates(folders []FolderRef, whitelisted IsWhitelisted, cancel CancelFunc) (DedupOutcome, error) {
	cancelled := DedupOutcome{Status: Cancelled, TotalFolders: len(folders)}

	snapshots := buildSnapshotsParallel(folders, cancel)
	if canceled(cancel) {
		return cancelled, nil
	}

	pairs := CheapFilter(snapshots)

	if canceled(cancel) {
		return cancelled, nil
	}
	pairs = WhitelistFilter(snapshots, pairs, whitelisted)

	needsHash := make(map[int]bool, len(pairs)*2)
	for _, p := range pairs {
		needsHash[p.I] = true
		needsHash[p.J] = true
	}
	profiles := buildProfilesParallel(snapshots, needsHash, cancel)
	if canceled(cancel) {
		return cancelled, nil
	}

	var results []PairResult
	for _, p := range pairs {
		if canceled(cancel) {
			return cancelled, nil
		}
		result := ComparePair(snapshots[p.I], snapshots[p.J], profiles[p.I], profiles[p.J])
		if result.Score < minScoreToSurvive {
			continue
		}
		results = append(results, result)
	}

	groups := GroupPairs(snapshots, results)
	return DedupOutcome{Status: Completed, Groups: groups, TotalFolders: len(folders)}, nil
}

// buildSnapshotsParallel computes folder snapshots across cores,
// preserving input order in the result so pair indices stay
// deterministic. Folders whose snapshot fails (e.g. deleted mid-scan)
// are dropped.
func buildSnapshotsParallel(folders []FolderRef, cancel CancelFunc) []Snapshot {
	type slot struct {
		snap Snapshot
		ok   bool
	}
	slots := make([]slot, len(folders))

	var wg sync.WaitGroup
	work := make(chan int)
	for w := 0; w < workerCount(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if canceled(cancel) {
					continue
				}
				ref := folders[idx]
				snap, err := BuildSnapshot(ref, scanning.ReadFileFS(ref.AbsPath))
				if err != nil {
					continue
				}
				slots[idx] = slot{snap: snap, ok: true}
			}
		}()
	}
	for idx := range folders {
		work <- idx
	}
	close(work)
	wg.Wait()

	snapshots := make([]Snapshot, 0, len(folders))
	for _, s := range slots {
		if s.ok {
			snapshots = append(snapshots, s.snap)
		}
	}
	return snapshots
}

// buildProfilesParallel hashes only the folders that survived the cheap
// and whitelist filters.
func buildProfilesParallel(snapshots []Snapshot, needsHash map[int]bool, cancel CancelFunc) map[int]HashProfile {
	indices := make([]int, 0, len(needsHash))
	for idx := range needsHash {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var mu sync.Mutex
	profiles := make(map[int]HashProfile, len(indices))

	var wg sync.WaitGroup
	work := make(chan int)
	for w := 0; w < workerCount(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if canceled(cancel) {
					continue
				}
				ref := snapshots[idx].Ref
				profile, err := BuildHashProfile(ref, scanning.ReadFileFS(ref.AbsPath))
				if err != nil {
					continue
				}
				mu.Lock()
				profiles[idx] = profile
				mu.Unlock()
			}
		}()
	}
	for _, idx := range indices {
		work <- idx
	}
	close(work)
	wg.Wait()

	return profiles
}

func workerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}
