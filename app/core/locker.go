package core

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// SessionLock serializes message handling per session. Lock blocks
// until every earlier holder of the same key releases, unrelated keys
// never contend. Entries are reference counted and removed once the
// last holder is gone.
type SessionLock struct {
	locks cmap.ConcurrentMap[string, *sessionMutex]
}

type sessionMutex struct {
	mu   sync.Mutex
	refs int
}

func NewSessionLock() *SessionLock {
	return &SessionLock{
		locks: cmap.New[*sessionMutex](),
	}
}

func (s *SessionLock) Lock(sessionID string) {
	// refs is only touched inside cmap callbacks, which run under the
	// shard lock for the key
	m := s.locks.Upsert(sessionID, nil, func(exist bool, cur, _ *sessionMutex) *sessionMutex {
		if !exist {
			cur = &sessionMutex{}
		}
		cur.refs++
		return cur
	})
	m.mu.Lock()
}

func (s *SessionLock) Unlock(sessionID string) {
	s.locks.RemoveCb(sessionID, func(key string, m *sessionMutex, exists bool) bool {
		if !exists {
			return false
		}
		m.refs--
		m.mu.Unlock()
		return m.refs == 0
	})
}
