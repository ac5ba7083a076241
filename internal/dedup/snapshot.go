package dedup

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/modgrove/modcore/internal/iniscan"
	"github.com/modgrove/modcore/internal/scanning"
)

// Snapshot is the per-folder summary Phase 1 filtering and later signal
// aggregation are built from: a files walk, total size, sorted sets of
// INI section headers and keybinding markers, and an extension count
// map.
type Snapshot struct {
	Ref            FolderRef
	FileCount      int
	TotalSize      int64
	RelFilePaths   []string // sorted, relative to the folder root
	SectionHeaders []string
	KeyBindings    []string
	ExtCounts      map[string]int
}

// BuildSnapshot walks ref.AbsPath and reads every INI file within it to
// extract section headers and keybinding markers.
func BuildSnapshot(ref FolderRef, readFile func(path string) ([]byte, error)) (Snapshot, error) {
	content, err := scanning.Walk(ref.AbsPath)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Ref: ref, ExtCounts: make(map[string]int)}
	var sections, keybinds []string

	for _, e := range content.Entries {
		if e.IsDir {
			continue
		}
		snap.FileCount++
		snap.TotalSize += e.Size
		snap.RelFilePaths = append(snap.RelFilePaths, e.RelPath)
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name), "."))
		if ext != "" {
			snap.ExtCounts[ext]++
		}
	}
	sort.Strings(snap.RelFilePaths)

	for _, rel := range content.IniFiles {
		data, err := readFile(rel)
		if err != nil {
			continue
		}
		text := iniscan.Decode(data)
		sections = append(sections, iniscan.SectionHeaders(text)...)
		keybinds = append(keybinds, iniscan.KeyBindings(text)...)
	}
	snap.SectionHeaders = dedupeSorted(sections)
	snap.KeyBindings = dedupeSorted(keybinds)

	return snap, nil
}

func dedupeSorted(items []string) []string {
	set := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, i := range items {
		if !set[i] {
			set[i] = true
			out = append(out, i)
		}
	}
	sort.Strings(out)
	return out
}
