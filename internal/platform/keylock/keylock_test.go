package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutex_SameKeySerializes(t *testing.T) {
	k := New()

	var current, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("team-1")
			defer unlock()

			mu.Lock()
			current++
			if current > max {
				max = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Fatalf("expected at most one holder for the same key, saw %d", max)
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	k := New()

	unlockA := k.Lock("team-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("team-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_EntryReleasedWhenIdle(t *testing.T) {
	k := New()

	unlock := k.Lock("team-1")
	unlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.locks) != 0 {
		t.Fatalf("expected idle entries to be removed, found %d", len(k.locks))
	}
}
