package state

import (
	"context"
	"testing"
	"time"
)

const waitTimeout = time.Second

func TestChangesWaitSeesNotes(t *testing.T) {
	changes := NewChanges()
	defer changes.Shutdown()

	first, err := changes.Wait(context.Background(), 0)
	if err != nil || first != 1 {
		t.Fatalf("expected immediate read of generation 1, got %d, %v", first, err)
	}

	result := make(chan uint64, 1)
	go func() {
		generation, err := changes.Wait(context.Background(), first)
		if err != nil {
			generation = 0
		}
		result <- generation
	}()

	changes.Note()
	select {
	case generation := <-result:
		if generation != 2 {
			t.Fatalf("expected generation 2 after one note, got %d", generation)
		}
	case <-time.After(waitTimeout):
		t.Fatal("waiter never woke")
	}
}

func TestChangesWaitHonorsCancellation(t *testing.T) {
	changes := NewChanges()
	defer changes.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := changes.Wait(ctx, 1)
		result <- err
	}()

	cancel()
	select {
	case err := <-result:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("cancelled waiter never woke")
	}
}

func TestChangesShutdownWakesWaiters(t *testing.T) {
	changes := NewChanges()

	result := make(chan error, 1)
	go func() {
		_, err := changes.Wait(context.Background(), 1)
		result <- err
	}()

	changes.Shutdown()
	select {
	case err := <-result:
		if err != ErrShutdown {
			t.Fatalf("expected ErrShutdown, got %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("waiter never woke on shutdown")
	}

	// Notes after shutdown are dropped, and further waits fail fast.
	changes.Note()
	if _, err := changes.Wait(context.Background(), 0); err != ErrShutdown {
		t.Fatalf("expected ErrShutdown after shutdown, got %v", err)
	}
	changes.Shutdown()
}
