package masterdb

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/normalize"
)

// rawCustomSkin mirrors the on-disk JSON shape of a custom_skins entry.
type rawCustomSkin struct {
	Name              string   `json:"name"`
	Aliases           []string `json:"aliases"`
	ThumbnailSkinPath string   `json:"thumbnail_skin_path"`
	Rarity            string   `json:"rarity"`
}

// rawEntry mirrors the on-disk JSON shape of a single Master Database
// entry. Unknown fields are ignored by encoding/json by default, and every
// field here defaults to its Go zero value when absent, matching the
// "schema-optional JSON parsing, unknown fields ignored" contract of the
// source format.
type rawEntry struct {
	Name          string                 `json:"name"`
	ObjectType    string                 `json:"object_type"`
	Tags          []string               `json:"tags"`
	CustomSkins   []rawCustomSkin        `json:"custom_skins"`
	HashDB        map[string][]string    `json:"hash_db"`
	ThumbnailPath string                 `json:"thumbnail_path"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// Load parses a Master Database JSON document (either a top-level array or
// an object with an "entries" key), normalizes every hash to lowercase
// 8-hex, resolves thumbnail paths against resourceRoot, and builds the
// deterministic inverted indexes.
func Load(data []byte, resourceRoot string, cfg normalize.Config) (*MasterDb, error) {
	entries, err := parseEntries(data)
	if err != nil {
		return nil, err
	}

	db := &MasterDb{
		Entries:  make([]DbEntry, len(entries)),
		Keywords: make([]map[string]bool, len(entries)),
	}

	for i, raw := range entries {
		entry := DbEntry{
			Name:          raw.Name,
			ObjectType:    objectTypeOrDefault(raw.ObjectType),
			Tags:          raw.Tags,
			ThumbnailPath: resolveThumbnail(resourceRoot, raw.ThumbnailPath),
			Metadata:      raw.Metadata,
			HashDB:        normalizeHashDB(raw.HashDB),
		}
		entry.CustomSkins = make([]CustomSkin, len(raw.CustomSkins))
		for j, skin := range raw.CustomSkins {
			entry.CustomSkins[j] = CustomSkin{
				Name:          skin.Name,
				Aliases:       skin.Aliases,
				ThumbnailPath: resolveThumbnail(resourceRoot, skin.ThumbnailSkinPath),
				Rarity:        skin.Rarity,
			}
		}
		db.Entries[i] = entry
		db.Keywords[i] = keywordsFor(entry, cfg)
	}

	db.Indexes = BuildIndexes(db)
	return db, nil
}

func parseEntries(data []byte) ([]rawEntry, error) {
	var asObject struct {
		Entries []rawEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &asObject); err == nil && asObject.Entries != nil {
		return asObject.Entries, nil
	}

	var asArray []rawEntry
	if err := json.Unmarshal(data, &asArray); err == nil {
		return asArray, nil
	}

	return nil, errors.New("invalid Master Database format: expected array or object with 'entries' key")
}

func objectTypeOrDefault(objectType string) string {
	if objectType == "" {
		return "Other"
	}
	return objectType
}

func normalizeHashDB(raw map[string][]string) map[string][]string {
	out := make(map[string][]string, len(raw))
	for label, hashes := range raw {
		normalized := make([]string, len(hashes))
		for i, h := range hashes {
			lower := strings.ToLower(h)
			if len(lower) > 8 {
				lower = lower[len(lower)-8:]
			}
			normalized[i] = lower
		}
		out[label] = normalized
	}
	return out
}

func resolveThumbnail(resourceRoot, relPath string) string {
	if relPath == "" {
		return ""
	}
	return filepath.Join(resourceRoot, relPath)
}

// keywordsFor builds the precomputed token set drawn from name + tags +
// alias names.
func keywordsFor(entry DbEntry, cfg normalize.Config) map[string]bool {
	set := make(map[string]bool)
	addTokens := func(s string) {
		for _, tok := range normalize.Tokenize(s, cfg) {
			set[tok] = true
		}
	}
	addTokens(entry.Name)
	for _, tag := range entry.Tags {
		addTokens(tag)
	}
	for _, skin := range entry.CustomSkins {
		addTokens(skin.Name)
		for _, alias := range skin.Aliases {
			addTokens(alias)
		}
	}
	return set
}
