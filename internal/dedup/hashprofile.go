package dedup

import (
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"

	"lukechampine.com/blake3"

	"github.com/modgrove/modcore/internal/scanning"
)

// keyExtensions are the file extensions a HashProfile is built from
// (Phase 3).
var keyExtensions = map[string]bool{
	"ini": true, "dds": true, "buf": true, "ib": true, "vb": true,
}

// textureExtension is hashed individually (in addition to its aggregate
// contribution to ExtHashes) for the tex_sim signal.
const textureExtension = "dds"

// largeFileThreshold is the size above which only a partial hash (head +
// tail) is computed, to keep dedup scans of texture-heavy mods cheap.
const largeFileThreshold = 5 * 1024 * 1024

// partialHashChunk is the head/tail size read for large files.
const partialHashChunk = 1024

// HashProfile is the per-folder content-hash summary used for the
// hash_sim and tex_sim signals.
type HashProfile struct {
	// ExtHashes maps each key extension present in the folder to an
	// aggregate BLAKE3 digest over the sorted concatenation of every
	// matching file's own digest.
	ExtHashes map[string]string
	// TextureHashes is the sorted list of individual texture (.dds) file
	// digests, kept separately so near-duplicate detection can still
	// match folders whose textures were renamed or reorganized.
	TextureHashes []string
}

// BuildHashProfile computes a HashProfile for ref by reading every file
// under one of keyExtensions.
func BuildHashProfile(ref FolderRef, readFile func(path string) ([]byte, error)) (HashProfile, error) {
	content, err := scanning.Walk(ref.AbsPath)
	if err != nil {
		return HashProfile{}, err
	}

	perExt := make(map[string][]string)
	var textureHashes []string

	for _, e := range content.Entries {
		if e.IsDir {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name), "."))
		if !keyExtensions[ext] {
			continue
		}
		data, err := readFile(e.RelPath)
		if err != nil {
			continue
		}
		digest := hashBytes(data, e.Size)
		perExt[ext] = append(perExt[ext], digest)
		if ext == textureExtension {
			textureHashes = append(textureHashes, digest)
		}
	}

	extHashes := make(map[string]string, len(perExt))
	for ext, digests := range perExt {
		sort.Strings(digests)
		sum := blake3.Sum256([]byte(strings.Join(digests, "|")))
		extHashes[ext] = hex.EncodeToString(sum[:])
	}

	sort.Strings(textureHashes)
	return HashProfile{ExtHashes: extHashes, TextureHashes: textureHashes}, nil
}

// hashBytes digests data in full, unless it exceeds largeFileThreshold,
// in which case only its head and tail chunks are hashed.
func hashBytes(data []byte, size int64) string {
	if size <= largeFileThreshold || len(data) <= 2*partialHashChunk {
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
	head := data[:partialHashChunk]
	tail := data[len(data)-partialHashChunk:]
	combined := append(append([]byte(nil), head...), tail...)
	sum := blake3.Sum256(combined)
	return hex.EncodeToString(sum[:])
}
