package core

import (
	"sync"
	"testing"
	"time"
)

func TestSessionLockSerializes(t *testing.T) {
	lock := NewSessionLock()

	var mu sync.Mutex
	inflight := 0
	peak := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock.Lock("session-a")
			mu.Lock()
			inflight++
			if inflight > peak {
				peak = inflight
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inflight--
			mu.Unlock()
			lock.Unlock("session-a")
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak holders = %d, want 1", peak)
	}
	if got := lock.locks.Count(); got != 0 {
		t.Errorf("lock table size = %d, want 0", got)
	}
}

func TestSessionLockIndependentKeys(t *testing.T) {
	lock := NewSessionLock()
	lock.Lock("a")
	defer lock.Unlock("a")

	done := make(chan struct{})
	go func() {
		lock.Lock("b")
		lock.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on unrelated key blocked")
	}
}
