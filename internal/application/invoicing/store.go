package invoicing

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps open sessions in memory and closes the ones left idle
// for longer than the TTL
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Session
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSessionStore creates a new session store. A positive ttl starts a
// background goroutine that closes idle sessions.
func NewSessionStore(ttl time.Duration) *SessionStore {
	store := &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	if ttl > 0 {
		store.wg.Add(1)
		go store.cleanupLoop(cleanupInterval(ttl))
	}
	return store
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 4; interval < time.Minute {
		return interval
	}
	return time.Minute
}

// Put registers a session
func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.mu.Lock()
	sess.lastUsed = time.Now()
	sess.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns an open session
func (s *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete closes and removes a session. It returns false if the id is unknown.
func (s *SessionStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.close()
	}
	return ok
}

// Size returns the number of open sessions
func (s *SessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine and closes every session.
// Safe to call multiple times.
func (s *SessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()

		s.mu.Lock()
		sessions := s.sessions
		s.sessions = make(map[uuid.UUID]*Session)
		s.mu.Unlock()
		for _, sess := range sessions {
			sess.close()
		}
	})
	return nil
}

func (s *SessionStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup(time.Now())
		}
	}
}

// cleanup closes sessions idle since before now-ttl
func (s *SessionStore) cleanup(now time.Time) int {
	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastUsed) > s.ttl && !sess.committing
		sess.mu.Unlock()
		if idle {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}
