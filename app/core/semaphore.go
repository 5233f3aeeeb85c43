package core

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ChatSemaphore caps in-flight message handling across all sessions.
type ChatSemaphore struct {
	permits chan struct{}
}

func NewChatSemaphore(maxPermits int) *ChatSemaphore {
	return &ChatSemaphore{
		permits: make(chan struct{}, maxPermits),
	}
}

// TryAcquire takes a permit without blocking. Callers that get false
// answer Busy instead of queueing.
func (s *ChatSemaphore) TryAcquire() bool {
	select {
	case s.permits <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *ChatSemaphore) Release() {
	select {
	case <-s.permits:
	default:
	}
}

// GetCurrent reports how many permits are held.
func (s *ChatSemaphore) GetCurrent() int {
	return len(s.permits)
}

// SemaphoreManager hands out admission primitives for the chat
// pipeline, built lazily from config.
type SemaphoreManager struct {
	core     *Core
	chat     *ChatSemaphore
	chatOnce sync.Once

	mu           sync.Mutex
	sessionRates map[string]*rate.Limiter
}

func NewSemaphoreManager(core *Core) *SemaphoreManager {
	return &SemaphoreManager{
		core:         core,
		sessionRates: make(map[string]*rate.Limiter),
	}
}

// Chat returns the global admission semaphore.
func (m *SemaphoreManager) Chat() *ChatSemaphore {
	m.chatOnce.Do(func() {
		m.chat = NewChatSemaphore(m.core.cfg.Semaphore.Chat.Concurrency())
	})
	return m.chat
}

// SessionLimiter returns the message rate limiter for one session,
// creating it on first use.
func (m *SemaphoreManager) SessionLimiter(sessionID string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, exist := m.sessionRates[sessionID]
	if !exist {
		cfg := m.core.cfg.Semaphore.Chat
		limit := rate.Every(time.Duration(float64(time.Minute) / cfg.PerMinute()))
		l = rate.NewLimiter(limit, cfg.Burst())
		m.sessionRates[sessionID] = l
	}
	return l
}

// DropSession forgets limiter state for an evicted session.
func (m *SemaphoreManager) DropSession(sessionID string) {
	m.mu.Lock()
	delete(m.sessionRates, sessionID)
	m.mu.Unlock()
}
