// Package scanning implements the budgeted recursive folder scan that
// turns a mod folder on disk into the FolderSignals the Deep Matcher and
// Dedup Pair Engine consume.
package scanning

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ignorePatterns excludes OS metadata that would otherwise pollute
// deep-name signals and dedup extension profiles. Matched case-insensitively
// against the forward-slash relative path.
var ignorePatterns = []string{
	"**/desktop.ini",
	"**/thumbs.db",
	"**/__macosx/**",
}

func ignoredPath(rel string) bool {
	lower := strings.ToLower(rel)
	for _, pattern := range ignorePatterns {
		if matched, err := doublestar.Match(pattern, lower); err == nil && matched {
			return true
		}
	}
	return false
}

// Entry is a single filesystem entry discovered by Walk, relative to the
// folder root.
type Entry struct {
	RelPath string // forward-slash relative path from the folder root
	Name    string
	IsDir   bool
	Depth   int // root's immediate children are depth 1
	Size    int64
	ModTime int64 // unix seconds
}

// FolderContent is the raw walk result for a mod folder: every entry up to
// maxWalkDepth, plus the subset that are INI files. Budget enforcement
// beyond this point belongs to the signal collector, not the walker.
type FolderContent struct {
	Entries  []Entry
	IniFiles []string // relative paths, lexicographically sorted
}

// maxWalkDepth bounds how deep the walker descends regardless of matching
// mode; the signal collector applies the mode's tighter budget on top of
// this.
const maxWalkDepth = 6

// Walk recursively lists root up to maxWalkDepth, skipping hidden
// (dot-prefixed) entries and paths matching ignorePatterns.
func Walk(root string) (FolderContent, error) {
	var content FolderContent

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // tolerate concurrent deletion/permission errors mid-walk
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		if strings.HasPrefix(d.Name(), ".") || ignoredPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if depth > maxWalkDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, infoErr := d.Info()
		var size int64
		var modTime int64
		if infoErr == nil {
			size = info.Size()
			modTime = info.ModTime().Unix()
		}

		content.Entries = append(content.Entries, Entry{
			RelPath: rel,
			Name:    d.Name(),
			IsDir:   d.IsDir(),
			Depth:   depth,
			Size:    size,
			ModTime: modTime,
		})
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".ini") {
			content.IniFiles = append(content.IniFiles, rel)
		}
		return nil
	})
	if err != nil {
		return content, errors.Wrapf(err, "unable to walk folder %s", root)
	}

	sort.Slice(content.Entries, func(i, j int) bool { return content.Entries[i].RelPath < content.Entries[j].RelPath })
	sort.Strings(content.IniFiles)
	return content, nil
}

// Signature derives an incremental-skip signature from the newest mtime
// among entries involved, combined with the entry count so that deletions
// are also detected.
func (fc FolderContent) Signature() (newestModTime int64, count int) {
	for _, e := range fc.Entries {
		if e.ModTime > newestModTime {
			newestModTime = e.ModTime
		}
	}
	return newestModTime, len(fc.Entries)
}
