package http

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"potability/water"
)

// ErrSessionNotFound 会话不存在或已过期
var ErrSessionNotFound = errors.New("session not found")

// sessionEntry 会话条目，mu 保证同一会话的事件串行处理
type sessionEntry struct {
	mu      sync.Mutex
	session *water.Session
}

// SessionStore 会话存储，容量和空闲时间由LRU控制，淘汰即丢弃
type SessionStore struct {
	cache *expirable.LRU[string, *sessionEntry]
}

// NewSessionStore 创建会话存储。onEvict 在会话被删除、淘汰或过期时调用
func NewSessionStore(capacity int, ttl time.Duration, onEvict func(id string)) *SessionStore {
	var cb expirable.EvictCallback[string, *sessionEntry]
	if onEvict != nil {
		cb = func(id string, _ *sessionEntry) { onEvict(id) }
	}
	return &SessionStore{cache: expirable.NewLRU[string, *sessionEntry](capacity, cb, ttl)}
}

// Create 创建新会话并返回ID
func (s *SessionStore) Create() (string, water.Snapshot) {
	id := uuid.NewString()
	entry := &sessionEntry{session: water.NewSession()}
	s.cache.Add(id, entry)
	return id, entry.session.Snapshot()
}

// With 在会话锁内执行 fn，并刷新会话的过期时间
func (s *SessionStore) With(id string, fn func(*water.Session) error) error {
	entry, ok := s.cache.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	// 重新 Add 以重置过期时间
	s.cache.Add(id, entry)
	return fn(entry.session)
}

// Delete 删除会话
func (s *SessionStore) Delete(id string) bool {
	return s.cache.Remove(id)
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	return s.cache.Len()
}
