package store

// Game is a single configured game instance.
type Game struct {
	ID            string
	Name          string
	GameType      string
	Path          string
	ModPath       string
	LauncherPath  string
}

// Object is a persisted row representing an MDB-named target for a
// specific game instance; mods attach to an Object, not directly to an
// MDB entry.
type Object struct {
	ID            string
	GameID        string
	Name          string
	FolderPath    string
	ObjectType    string
	SubCategory   string
	Tags          string // JSON
	Metadata      string // JSON
	ThumbnailPath string
	IsSafe        bool
	IsPinned      bool
	IsAutoSync    bool
	CreatedAt     int64
	UpdatedAt     int64
}

// ModStatus is the enable/disable state of a persisted Mod row.
type ModStatus string

const (
	StatusEnabled  ModStatus = "ENABLED"
	StatusDisabled ModStatus = "DISABLED"
)

// Mod is a persisted mod-folder row.
type Mod struct {
	ID             string
	GameID         string
	ObjectID       string // may be empty
	ActualName     string
	FolderPath     string // relative to the game's mods root
	Status         ModStatus
	ObjectType     string
	IsPinned       bool
	IsSafe         bool
	IsFavorite     bool
	LastStatusSFW  string
	LastStatusNSFW string
	SizeBytes      int64
	MetadataBlob   string // JSON
	IndexedAt      int64
}

// Collection is a named, orderable set of mods a user wants enabled
// together, or the auto-generated is_last_unsaved undo snapshot.
type Collection struct {
	ID            string
	Name          string
	GameID        string
	IsSafeContext bool
	IsLastUnsaved bool
}

// CollectionItem is a single target of a Collection.
type CollectionItem struct {
	CollectionID string
	ModID        string
	ModPath      string
}

// WhitelistEntry excuses a folder pair from dedup grouping.
type WhitelistEntry struct {
	GameID    string
	FolderA   string
	FolderB   string
	Reason    string
}
