package core

import (
	"sync"
	"testing"
	"time"
)

func TestKeyLocker_SerializesSameKey(t *testing.T) {
	locker := NewKeyLocker()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("project-1", "gate-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestKeyLocker_IndependentKeys(t *testing.T) {
	locker := NewKeyLocker()

	unlockA := locker.Lock("project-1", "gate-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock("project-1", "gate-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("lock on a different key blocked")
	}
}

func TestKeyLocker_ReleasedKeyCanBeReacquired(t *testing.T) {
	locker := NewKeyLocker()
	unlock := locker.Lock("gate-1")
	unlock()

	done := make(chan struct{})
	go func() {
		unlock := locker.Lock("gate-1")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("released key could not be reacquired")
	}
}
