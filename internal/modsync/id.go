// Package modsync implements the directory synchronizer: the
// rename-safe stable identifier scheme, the full-scan DB <-> disk
// reconciler, and the atomic enable/disable toggle, adapted from the
// reconciliation style of a file synchronizer (compute expected state,
// diff against persisted state, apply the minimal transactional update).
package modsync

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
)

// StableID computes the rename-safe identifier: a hash of
// (game_id, folder_path relative to the mods root, canonical_name).
// Renaming a folder changes folder_rel_path and therefore the id. The
// full-scan reconcile detects this by matching on (object folder, clean
// name), and the watcher by the Renamed event's old relative path, before
// writing the new (id, rel_path, actual_name, status) atomically.
func StableID(gameID, folderRelPath, canonicalName string) string {
	h := sha256.New()
	h.Write([]byte(gameID))
	h.Write([]byte("/"))
	h.Write([]byte(path.Clean(folderRelPath)))
	h.Write([]byte("/"))
	h.Write([]byte(canonicalName))
	return hex.EncodeToString(h.Sum(nil))
}
