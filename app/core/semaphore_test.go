package core

import (
	"testing"
)

func TestChatSemaphore(t *testing.T) {
	s := NewChatSemaphore(2)
	if !s.TryAcquire() || !s.TryAcquire() {
		t.Fatal("acquire under cap failed")
	}
	if s.TryAcquire() {
		t.Error("acquire above cap succeeded")
	}
	s.Release()
	if !s.TryAcquire() {
		t.Error("acquire after release failed")
	}
	if got := s.GetCurrent(); got != 2 {
		t.Errorf("GetCurrent() = %d, want 2", got)
	}
}

func TestSessionLimiter(t *testing.T) {
	m := NewSemaphoreManager(&Core{cfg: CoreConfig{}})

	l := m.SessionLimiter("s1")
	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("burst request %d rejected", i)
		}
	}
	if l.Allow() {
		t.Error("request above burst allowed")
	}

	if m.SessionLimiter("s1") != l {
		t.Error("limiter not cached per session")
	}

	m.DropSession("s1")
	if m.SessionLimiter("s1") == l {
		t.Error("limiter survived DropSession")
	}
}
