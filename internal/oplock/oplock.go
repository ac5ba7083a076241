// Package oplock implements the process-wide OperationLock: a single
// mutex held during any destructive operation (toggle, delete, apply,
// undo, bulk dedup), with a change counter so external collaborators (a
// GUI refresh loop) can observe contention transitions without touching
// the lock itself. Acquisition never blocks: a caller that finds the
// lock already held gets errtypes.ErrContention back immediately and is
// expected to retry.
package oplock

import (
	"sync"

	"github.com/modgrove/modcore/internal/errtypes"
	"github.com/modgrove/modcore/pkg/state"
)

// OperationLock is the process-wide lock guarding toggle/delete/apply/undo
// and bulk dedup mutation. It must be constructed once at app start and
// shared by every caller; it is never a package-level singleton accessed
// implicitly.
type OperationLock struct {
	mu      sync.Mutex
	held    bool
	changes *state.Changes
}

// New constructs an OperationLock with its own change counter.
func New() *OperationLock {
	return &OperationLock{changes: state.NewChanges()}
}

// Guard is a scoped handle on an acquired OperationLock. It releases the
// lock on every exit path, including via defer after a panic, so callers
// never flip the held flag manually.
type Guard struct {
	lock *OperationLock
}

// Acquire attempts to take the lock, returning errtypes.ErrContention if
// it is already held. On success, the caller must `defer guard.Release()`
// immediately.
func (l *OperationLock) Acquire() (*Guard, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, errtypes.ErrContention
	}
	l.held = true
	l.changes.Note()
	return &Guard{lock: l}, nil
}

// Release releases the lock. It is safe to call at most once per Guard;
// the typical pattern is `defer guard.Release()` right after Acquire
// succeeds, so release happens on every return path including a panic
// unwind.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	l := g.lock
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
	l.changes.Note()
}

// Changes exposes the lock's change counter so external collaborators
// can wait on contention transitions the way they wait on sync/dedup
// progress.
func (l *OperationLock) Changes() *state.Changes {
	return l.changes
}
