package service

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()

	// A non-atomic counter stays consistent only if the lock serializes
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("same-key")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestKeyedMutexDisjointKeysDoNotBlock(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock("key-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("key-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("disjoint key blocked behind an unrelated lock")
	}
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("key")
			unlock()
		}()
	}
	wg.Wait()

	locks.mu.Lock()
	remaining := len(locks.locks)
	locks.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock table has %d stale entries", remaining)
	}
}
