// Package watch implements the filesystem watcher: a periodic poll of a
// mods root's two folder levels whose raw changes are debounced and classified
// into the Created / Modified / Removed / Renamed / Error stream, gated
// by a process-wide suppression flag so that mutations the core itself
// performs (toggle, apply, undo) never bounce back as spurious watch
// events.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/pkg/state"
)

// EventKind classifies a single debounced filesystem change.
type EventKind int

const (
	Created EventKind = iota
	Modified
	Removed
	Renamed
	Error
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "Created"
	case Modified:
		return "Modified"
	case Removed:
		return "Removed"
	case Renamed:
		return "Renamed"
	default:
		return "Error"
	}
}

// Event is a single classified filesystem change, relative to the
// watched mods root.
type Event struct {
	Kind EventKind
	// Path is the folder path (relative to the mods root) the event
	// concerns. For Renamed events this is the new path.
	Path string
	// From is set only for Renamed events: the previous relative path.
	From string
	// Err is set only for Error events.
	Err error
}

// depthOf reports how many path components rel has, used to restrict
// event handling to depth-2 object/mod folders (all other
// depths -> ignored, not a mod").
func depthOf(rel string) int {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return 0
	}
	return len(splitSlash(rel))
}

func splitSlash(rel string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' {
			if i > start {
				parts = append(parts, rel[start:i])
			}
			start = i + 1
		}
	}
	if start < len(rel) {
		parts = append(parts, rel[start:])
	}
	return parts
}

// DepthOf is the exported form of depthOf, used by callers that need to
// replicate the watcher's "is this a mod folder" depth test elsewhere
// (e.g. reconciliation).
func DepthOf(rel string) int {
	return depthOf(rel)
}

// Suppressor is the process-wide atomic flag gating event emission. It
// must be constructed once and shared between the Watcher and every
// mutating operation (toggle, apply, undo) that needs to suppress the
// events its own filesystem writes would otherwise generate.
type Suppressor struct {
	suppressed int32
}

// NewSuppressor constructs a cleared Suppressor.
func NewSuppressor() *Suppressor {
	return &Suppressor{}
}

// Suppressed reports whether event emission is currently suppressed.
func (s *Suppressor) Suppressed() bool {
	return atomic.LoadInt32(&s.suppressed) != 0
}

// SuppressionGuard is a scoped handle that sets the suppression flag on
// construction and clears it on Release, guaranteeing release on every
// exit path, including via defer after a panic.
type SuppressionGuard struct {
	suppressor *Suppressor
}

// Suppress acquires a SuppressionGuard, setting the flag. The caller must
// `defer guard.Release()` immediately.
func (s *Suppressor) Suppress() *SuppressionGuard {
	atomic.StoreInt32(&s.suppressed, 1)
	return &SuppressionGuard{suppressor: s}
}

// Release clears the suppression flag. Safe to call at most once per
// guard.
func (g *SuppressionGuard) Release() {
	if g == nil {
		return
	}
	atomic.StoreInt32(&g.suppressor.suppressed, 0)
}

// pollInterval is the raw snapshot cadence; debounceWindow is how long
// the tree must stay quiet before accumulated changes are delivered.
const (
	pollInterval   = 2 * time.Second
	debounceWindow = 500 * time.Millisecond
)

// entry is a minimal directory snapshot used to detect changes between
// polls: (relative path) -> modtime/size/isdir.
type entry struct {
	modTime int64
	size    int64
	isDir   bool
}

// Watcher polls a mods root, accumulates raw changes, and delivers them
// on Events() once the tree has been quiet for debounceWindow.
type Watcher struct {
	root       string
	suppressor *Suppressor
	events     chan Event
	debouncer  *state.Debouncer
	cancel     context.CancelFunc
	done       chan struct{}

	mu      sync.Mutex
	pending []Event
}

// New starts watching root. The returned Watcher must be stopped with
// Stop when no longer needed.
func New(root string, suppressor *Suppressor) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:       root,
		suppressor: suppressor,
		events:     make(chan Event, 64),
		debouncer:  state.NewDebouncer(debounceWindow),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Events returns the channel on which classified events are delivered.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop terminates the watcher's polling loop and its debouncer.
func (w *Watcher) Stop() {
	w.cancel()
	<-w.done
	w.debouncer.Stop()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	previous, _ := snapshot(w.root)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := snapshot(w.root)
			if err != nil {
				if !w.suppressor.Suppressed() {
					w.emit(Event{Kind: Error, Err: errors.Wrap(err, "unable to scan mods root")})
				}
				continue
			}
			if !w.suppressor.Suppressed() {
				if changes := diff(previous, current); len(changes) > 0 {
					w.mu.Lock()
					w.pending = append(w.pending, changes...)
					w.mu.Unlock()
					w.debouncer.Poke()
				}
			}
			previous = current
		case <-w.debouncer.Events():
			w.mu.Lock()
			pending := w.pending
			w.pending = nil
			w.mu.Unlock()
			for _, ev := range pending {
				w.emit(ev)
			}
		}
	}
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
		// Drop if the consumer is falling behind; the next full-scan
		// reconcile converges the persisted index regardless.
	}
}

// snapshot walks root to depth 2 (<mods_root>/<object_folder>/<mod_folder>)
// and records each mod folder's directory entry metadata.
func snapshot(root string) (map[string]entry, error) {
	result := make(map[string]entry)
	objectEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}
	for _, objectEntry := range objectEntries {
		if !objectEntry.IsDir() || isHidden(objectEntry.Name()) {
			continue
		}
		objectPath := filepath.Join(root, objectEntry.Name())
		modEntries, err := os.ReadDir(objectPath)
		if err != nil {
			continue
		}
		for _, modEntry := range modEntries {
			if !modEntry.IsDir() || isHidden(modEntry.Name()) {
				continue
			}
			rel := filepath.ToSlash(filepath.Join(objectEntry.Name(), modEntry.Name()))
			info, err := modEntry.Info()
			if err != nil {
				continue
			}
			result[rel] = entry{modTime: info.ModTime().Unix(), size: info.Size(), isDir: true}
		}
	}
	return result, nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// diff compares two depth-2 snapshots and classifies the differences. A
// path present in both with a changed modtime or size is reported as Modified; a
// path only in current is Created; a path only in previous is Removed.
// Renamed events are synthesized when a removed path and a created path
// share the same parent object folder and the same disabled-prefix
// normalized name, matching the common case of a user toggling or
// renaming a mod folder while the watcher is unsuppressed.
func diff(previous, current map[string]entry) []Event {
	var removedPaths, createdPaths []string
	var events []Event

	for path := range previous {
		if _, ok := current[path]; !ok {
			removedPaths = append(removedPaths, path)
		}
	}
	for path, e := range current {
		prev, ok := previous[path]
		if !ok {
			createdPaths = append(createdPaths, path)
			continue
		}
		if prev.modTime != e.modTime || prev.size != e.size {
			events = append(events, Event{Kind: Modified, Path: path})
		}
	}

	matchedRemoved := make(map[string]bool)
	matchedCreated := make(map[string]bool)
	for _, from := range removedPaths {
		for _, to := range createdPaths {
			if matchedCreated[to] {
				continue
			}
			if sameObjectFolder(from, to) && sameCleanName(from, to) {
				events = append(events, Event{Kind: Renamed, From: from, Path: to})
				matchedRemoved[from] = true
				matchedCreated[to] = true
				break
			}
		}
	}
	for _, from := range removedPaths {
		if !matchedRemoved[from] {
			events = append(events, Event{Kind: Removed, Path: from})
		}
	}
	for _, to := range createdPaths {
		if !matchedCreated[to] {
			events = append(events, Event{Kind: Created, Path: to})
		}
	}
	return events
}

func sameObjectFolder(a, b string) bool {
	return filepath.Dir(a) == filepath.Dir(b)
}

func sameCleanName(a, b string) bool {
	return normalize.CleanName(filepath.Base(a)) == normalize.CleanName(filepath.Base(b))
}
