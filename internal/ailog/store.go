package ailog

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionStore держит по одной сессии на пользователя с TTL с момента последнего обращения
type SessionStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

// NewSessionStore; при cleanupInterval <= 0 без фоновой очистки
func NewSessionStore(ttl, cleanupInterval time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(ttl, cleanupInterval),
		now:   time.Now,
	}
}

func (s *SessionStore) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(userID); ok {
		session := v.(*Session)
		s.cache.SetDefault(userID, session)
		return session
	}

	session := newSession(s.now)
	s.cache.SetDefault(userID, session)
	return session
}

// Reset заменяет сессию новой; незавершённые запросы старой дописывают уже в никуда
func (s *SessionStore) Reset(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := newSession(s.now)
	s.cache.SetDefault(userID, session)
	return session
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}
