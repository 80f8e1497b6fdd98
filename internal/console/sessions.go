package console

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks authenticated session tokens. The default store is
// in-memory; pointing sessions.redis_addr at a redis instance swaps in a
// shared store so several console replicas accept each other's cookies.
type SessionStore interface {
	Put(token string) error
	Valid(token string) bool
	Invalidate(token string)
}

const sessionDuration = 24 * time.Hour

type memorySession struct {
	createdAt time.Time
}

// MemorySessions keeps session tokens in a process-local map.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]memorySession)}
}

func (m *MemorySessions) Put(token string) error {
	m.mu.Lock()
	m.sessions[token] = memorySession{createdAt: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *MemorySessions) Valid(token string) bool {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return time.Since(s.createdAt) < sessionDuration
}

func (m *MemorySessions) Invalidate(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

const redisSessionPrefix = "sipconsole:session:"

// RedisSessions stores session tokens in redis with a TTL, letting redis
// expire them instead of tracking creation times here.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(addr, password string) *RedisSessions {
	return &RedisSessions{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password})}
}

func (r *RedisSessions) Put(token string) error {
	return r.rdb.Set(context.Background(), redisSessionPrefix+token, "1", sessionDuration).Err()
}

func (r *RedisSessions) Valid(token string) bool {
	n, err := r.rdb.Exists(context.Background(), redisSessionPrefix+token).Result()
	return err == nil && n == 1
}

func (r *RedisSessions) Invalidate(token string) {
	r.rdb.Del(context.Background(), redisSessionPrefix+token)
}

// Close releases the redis connection pool.
func (r *RedisSessions) Close() error {
	return r.rdb.Close()
}
