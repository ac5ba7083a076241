package iniscan

import (
	"regexp"
	"strings"

	"github.com/modgrove/modcore/internal/normalize"
)

// overridePrefixes are the section-header prefixes that arm hash
// collection.
var overridePrefixes = []string{"textureoverride", "shaderoverride"}

// deniedOverridePrefixes are override sections whose hashes are never
// collected because they key cosmetic UI/notification elements rather than
// game assets.
var deniedOverridePrefixes = []string{
	"textureoverridenotification",
	"textureoverrideui",
	"textureoverridecursor",
	"shaderoverrideui",
	"shaderoverrideshadow",
}

// sectionStripPrefixes are removed iteratively, left to right and
// case-insensitively, from a section header before it is tokenized.
var sectionStripPrefixes = []string{
	"TextureOverride", "ShaderOverride", "Resource", "CommandList", "Key", "Present", "Draw",
}

// keyWhitelist are the key names (lowercase) whose values are tokenized into
// the structural content buckets.
var keyWhitelist = map[string]bool{
	"texture": true, "resource": true, "filename": true,
	"path": true, "name": true, "character": true,
}

// keyBlacklist overrides the whitelist: these keys are never tokenized even
// if their name happens to match, because they carry engine-internal
// plumbing rather than naming information.
var keyBlacklist = map[string]bool{
	"run": true, "handling": true, "match_priority": true, "drawindexed": true,
	"vb": true, "ib": true, "ps": true, "vs": true, "cs": true, "format": true, "stride": true,
}

// pathExtensionHints are RHS extensions that mark a key/value line as
// carrying a file path worth tokenizing.
var pathExtensionHints = []string{".dds", ".png", ".jpg", ".ini", ".buf", ".txt"}

var (
	sectionHeaderPattern = regexp.MustCompile(`^\s*\[([^\]]+)\]\s*$`)
	hashLinePattern      = regexp.MustCompile(`(?i)^\s*hash\s*=\s*([0-9a-f]{8,})`)
	keyValuePattern      = regexp.MustCompile(`^\s*([A-Za-z0-9_\-]+)\s*=\s*(.+?)\s*$`)
)

// Hashes extracts deduplicated, lowercase 8-hex asset hashes from
// TextureOverride/ShaderOverride sections, skipping deny-listed section
// prefixes. Hashes observed in a 16-hex form are truncated to their final 8
// characters, matching how the injector expresses the same hash in
// different contexts.
func Hashes(content string) []string {
	var hashes []string
	armed := false
	for _, line := range splitLines(content) {
		if isCommentOrBlank(line) {
			continue
		}
		if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil {
			armed = isArmedOverrideSection(m[1])
			continue
		}
		if !armed {
			continue
		}
		if m := hashLinePattern.FindStringSubmatch(line); m != nil {
			hashes = append(hashes, truncateHash(m[1]))
		}
	}
	return normalize.SortedUnique(hashes)
}

func truncateHash(raw string) string {
	lower := strings.ToLower(raw)
	if len(lower) <= 8 {
		return lower
	}
	return lower[len(lower)-8:]
}

func isArmedOverrideSection(header string) bool {
	lower := strings.ToLower(strings.TrimSpace(header))
	isOverride := false
	for _, prefix := range overridePrefixes {
		if strings.HasPrefix(lower, prefix) {
			isOverride = true
			break
		}
	}
	if !isOverride {
		return false
	}
	for _, denied := range deniedOverridePrefixes {
		if strings.HasPrefix(lower, denied) {
			return false
		}
	}
	return true
}

// StructuralResult holds the tokens and continuous strings produced by
// structural tokenization of a single INI file's content.
type StructuralResult struct {
	SectionTokens  []string
	ContentTokens  []string
	DerivedStrings []string
}

// ScanStructural walks every non-comment line of content, stripping known
// prefixes from section headers and tokenizing whitelisted key/value RHS
// paths, producing the structural buckets consumed by the Deep Matcher's
// INI-derived stages.
func ScanStructural(content string, cfg normalize.Config) StructuralResult {
	var sectionTokens, contentTokens, derivedStrings []string

	for _, line := range splitLines(content) {
		if isCommentOrBlank(line) {
			continue
		}
		if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil {
			stripped := stripSectionPrefixes(strings.TrimSpace(m[1]))
			if stripped == "" {
				continue
			}
			sectionTokens = append(sectionTokens, normalize.Tokenize(stripped, cfg)...)
			derivedStrings = append(derivedStrings, normalize.NormalizeForMatching(stripped, cfg))
			continue
		}
		m := keyValuePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.ToLower(m[1])
		value := m[2]
		if !keyWhitelist[key] || keyBlacklist[key] {
			continue
		}
		contentTokens = append(contentTokens, normalize.Tokenize(key, cfg)...)
		if hasPathExtensionHint(value) {
			stem := fileStem(value)
			contentTokens = append(contentTokens, normalize.Tokenize(stem, cfg)...)
			if norm := normalize.NormalizeForMatching(stem, cfg); norm != "" {
				derivedStrings = append(derivedStrings, norm)
			}
		}
	}

	return StructuralResult{
		SectionTokens:  normalize.SortedUnique(sectionTokens),
		ContentTokens:  normalize.SortedUnique(contentTokens),
		DerivedStrings: normalize.SortedUnique(derivedStrings),
	}
}

func stripSectionPrefixes(header string) string {
	for {
		stripped := false
		for _, prefix := range sectionStripPrefixes {
			if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
				header = header[len(prefix):]
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}
	return header
}

func hasPathExtensionHint(value string) bool {
	lower := strings.ToLower(value)
	for _, ext := range pathExtensionHints {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// fileStem returns the filename without directory components or extension,
// tolerant of both '/' and '\' path separators.
func fileStem(value string) string {
	trimmed := strings.TrimSpace(strings.Trim(value, `"'`))
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndexByte(trimmed, '.'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

func isCommentOrBlank(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#")
}
