package iniscan

import (
	"sort"
	"strings"
)

// SectionHeaders returns the raw, lowercase, deduplicated set of section
// header names present in content, used by the dedup scanner's
// header-overlap signal.
func SectionHeaders(content string) []string {
	var headers []string
	for _, line := range splitLines(content) {
		if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil {
			headers = append(headers, strings.ToLower(strings.TrimSpace(m[1])))
		}
	}
	return dedupeSorted(headers)
}

// keyBindingSectionPattern matches [KeyXxx] section headers, which carry
// hotkey bindings consumed by the external hotkey subsystem.
var keyBindingSectionPattern = []string{"key"}

// KeyBindings extracts "key = value" / "back = value" lines that occur
// inside [KeyXxx] sections, returning them as opaque "key=value" marker
// strings for the dedup scanner's supporting-evidence signal. The engine
// never interprets or binds these; it only exposes them.
func KeyBindings(content string) []string {
	var bindings []string
	inKeySection := false
	for _, line := range splitLines(content) {
		if isCommentOrBlank(line) {
			continue
		}
		if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil {
			lower := strings.ToLower(strings.TrimSpace(m[1]))
			inKeySection = false
			for _, p := range keyBindingSectionPattern {
				if strings.HasPrefix(lower, p) {
					inKeySection = true
					break
				}
			}
			continue
		}
		if !inKeySection {
			continue
		}
		m := keyValuePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.ToLower(m[1])
		if key != "key" && key != "back" {
			continue
		}
		bindings = append(bindings, key+"="+strings.ToLower(strings.TrimSpace(m[2])))
	}
	return dedupeSorted(bindings)
}

func dedupeSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}
