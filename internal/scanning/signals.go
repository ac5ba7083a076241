package scanning

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modgrove/modcore/internal/iniscan"
	"github.com/modgrove/modcore/internal/normalize"
)

// Mode selects the matching mode, which in turn selects the budget applied
// to signal collection.
type Mode int

const (
	Quick Mode = iota
	FullScoring
)

// Budget bounds how much of a folder's content is consumed when building
// FolderSignals.
type Budget struct {
	MaxDepth         int
	RootIniOnly      bool
	MaxIniFiles      int
	MaxBytesPerIni   int64 // 0 means unlimited
	MaxTotalIniBytes int64 // 0 means unlimited
	MaxNameItems     int
}

// BudgetFor returns the fixed budget for the given mode.
func BudgetFor(mode Mode) Budget {
	if mode == Quick {
		return Budget{
			MaxDepth:       1,
			RootIniOnly:    true,
			MaxIniFiles:    2,
			MaxBytesPerIni: 256 * 1024,
			MaxNameItems:   150,
		}
	}
	return Budget{
		MaxDepth:         3,
		RootIniOnly:      false,
		MaxIniFiles:      10,
		MaxTotalIniBytes: 1024 * 1024,
		MaxNameItems:     500,
	}
}

// FolderSignals is the output of the signal collector for a single mod
// folder.
type FolderSignals struct {
	FolderTokens      []string
	DeepNameTokens    []string
	DeepNameStrings   []string
	IniSectionTokens  []string
	IniContentTokens  []string
	IniDerivedStrings []string
	IniHashes         []string

	FilesConsumed     int
	BytesConsumed     int64
	NameItemsConsumed int
}

// Collect builds FolderSignals for a folder given its display name (for
// FolderTokens) and its raw walk content, honoring the budget for mode.
// ReadFile is used to read selected INI files; it is injected so callers
// can supply a cached or sandboxed reader.
func Collect(displayName string, content FolderContent, mode Mode, cfg normalize.Config, readFile func(path string) ([]byte, error)) FolderSignals {
	budget := BudgetFor(mode)

	signals := FolderSignals{
		FolderTokens: normalize.Tokenize(displayName, cfg),
	}

	nameItems := collectNameItems(content, budget)
	var deepTokens, deepStrings []string
	for _, item := range nameItems {
		deepTokens = append(deepTokens, normalize.Tokenize(item, cfg)...)
		if norm := normalize.NormalizeForMatching(item, cfg); norm != "" {
			deepStrings = append(deepStrings, norm)
		}
	}
	signals.DeepNameTokens = normalize.SortedUnique(deepTokens)
	signals.DeepNameStrings = normalize.SortedUnique(deepStrings)
	signals.NameItemsConsumed = len(nameItems)

	iniFiles := selectIniFiles(content, budget)

	var sectionTokens, contentTokens, derivedStrings, hashes []string
	var totalBytes int64
	for _, relPath := range iniFiles {
		data, err := readFile(relPath)
		if err != nil {
			continue
		}
		if budget.MaxBytesPerIni > 0 && int64(len(data)) > budget.MaxBytesPerIni {
			data = data[:budget.MaxBytesPerIni]
		}
		if budget.MaxTotalIniBytes > 0 && totalBytes+int64(len(data)) > budget.MaxTotalIniBytes {
			remaining := budget.MaxTotalIniBytes - totalBytes
			if remaining <= 0 {
				break
			}
			data = data[:remaining]
		}
		totalBytes += int64(len(data))
		signals.FilesConsumed++

		text := iniscan.Decode(data)
		structural := iniscan.ScanStructural(text, cfg)
		sectionTokens = append(sectionTokens, structural.SectionTokens...)
		contentTokens = append(contentTokens, structural.ContentTokens...)
		derivedStrings = append(derivedStrings, structural.DerivedStrings...)
		hashes = append(hashes, iniscan.Hashes(text)...)
	}
	signals.BytesConsumed = totalBytes
	signals.IniSectionTokens = normalize.SortedUnique(sectionTokens)
	signals.IniContentTokens = normalize.SortedUnique(contentTokens)
	signals.IniDerivedStrings = normalize.SortedUnique(derivedStrings)
	signals.IniHashes = normalize.SortedUnique(hashes)

	return signals
}

// ReadFileFS returns a readFile function backed by the real filesystem
// rooted at root.
func ReadFileFS(root string) func(path string) ([]byte, error) {
	return func(relPath string) ([]byte, error) {
		return os.ReadFile(filepath.Join(root, relPath))
	}
}

// collectNameItems gathers unique subfolder names and file stems within
// budget.MaxDepth, capped at MaxNameItems in lexicographic order.
func collectNameItems(content FolderContent, budget Budget) []string {
	seen := make(map[string]bool)
	var items []string
	for _, e := range content.Entries {
		if e.Depth > budget.MaxDepth {
			continue
		}
		var item string
		if e.IsDir {
			item = e.Name
		} else {
			item = stem(e.Name)
		}
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	sort.Strings(items)
	if len(items) > budget.MaxNameItems {
		items = items[:budget.MaxNameItems]
	}
	return items
}

// selectIniFiles picks INI files honoring depth, root-only, and count
// caps, in lexicographic order for determinism.
func selectIniFiles(content FolderContent, budget Budget) []string {
	var candidates []string
	for _, rel := range content.IniFiles {
		depth := strings.Count(rel, "/") + 1
		if budget.RootIniOnly && depth != 1 {
			continue
		}
		if !budget.RootIniOnly && depth > budget.MaxDepth {
			continue
		}
		candidates = append(candidates, rel)
	}
	sort.Strings(candidates)
	if len(candidates) > budget.MaxIniFiles {
		candidates = candidates[:budget.MaxIniFiles]
	}
	return candidates
}

func stem(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext)
}
