// Package iniscan extracts matching-relevant signals from the INI-format
// configuration files shipped inside mod folders: structural tokens from
// section headers and whitelisted key/value pairs (for the Deep Matcher),
// asset hashes from TextureOverride/ShaderOverride sections (for hash-based
// matching and dedup), and section headers/keybindings (for the dedup
// scanner's supporting signals).
package iniscan

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw INI file bytes to a string, stripping a UTF-8 BOM if
// present and falling back to Shift-JIS decoding if the content is not valid
// UTF-8. This mirrors the encoding tolerance that mod-injector config files
// are generated with by a range of regional tools.
func Decode(data []byte) string {
	if len(data) >= 3 && data[0] == bom[0] && data[1] == bom[1] && data[2] == bom[2] {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
