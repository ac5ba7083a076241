package oplock

import (
	"context"
	"testing"

	"github.com/modgrove/modcore/internal/errtypes"
)

func TestAcquireRejectsReentry(t *testing.T) {
	lock := New()
	defer lock.Changes().Shutdown()

	guard, err := lock.Acquire()
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := lock.Acquire(); err != errtypes.ErrContention {
		t.Fatalf("expected ErrContention, got %v", err)
	}
	guard.Release()

	second, err := lock.Acquire()
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.Release()
}

func TestChangesObserveContentionTransitions(t *testing.T) {
	lock := New()
	defer lock.Changes().Shutdown()

	before, err := lock.Changes().Wait(context.Background(), 0)
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}

	guard, err := lock.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	afterAcquire, err := lock.Changes().Wait(context.Background(), before)
	if err != nil {
		t.Fatal(err)
	}
	if afterAcquire == before {
		t.Fatal("acquire must advance the change generation")
	}

	guard.Release()
	afterRelease, err := lock.Changes().Wait(context.Background(), afterAcquire)
	if err != nil {
		t.Fatal(err)
	}
	if afterRelease == afterAcquire {
		t.Fatal("release must advance the change generation")
	}
}

func TestNilGuardReleaseIsNoOp(t *testing.T) {
	var guard *Guard
	guard.Release()
}
