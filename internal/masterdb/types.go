// Package masterdb defines the reference catalog (Master Database) that mod
// folders are matched against: its data model, deterministic inverted
// indexes, and the scoring primitives used by the Deep Matcher
// pipeline to accumulate and bookkeep evidence for each candidate entry.
package masterdb

// CustomSkin is a named variant of a reference entry. The first alias is
// the canonical folder-name for that variant.
type CustomSkin struct {
	Name          string
	Aliases       []string
	ThumbnailPath string
	Rarity        string
}

// DbEntry is a canonical object from the Master Database.
type DbEntry struct {
	Name          string
	ObjectType    string
	Tags          []string
	CustomSkins   []CustomSkin
	HashDB        map[string][]string // variant label -> 8-hex hashes
	ThumbnailPath string
	Metadata      map[string]interface{}
}

// MasterDb is the curated reference catalog entries are matched against.
// entry_id (the positional index into Entries) is the stable reference used
// throughout the matcher and is never reassigned for the lifetime of a
// loaded MasterDb.
type MasterDb struct {
	Entries  []DbEntry
	Keywords []map[string]bool // per-entry normalized token set: name + tags + alias names
	Indexes  Indexes
}

// EntryTokens returns the keyword set for the given entry id.
func (db *MasterDb) EntryTokens(entryID int) map[string]bool {
	return db.Keywords[entryID]
}
