// Package cache stores upstream responses by opaque key with a TTL and a
// weak ETag. Two backends exist: an in-process map and Redis.
package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL bounds how stale upstream data may get.
const DefaultTTL = 30 * time.Minute

// Entry is a cached value.
type Entry struct {
	Data      []byte
	ETag      string
	ExpiresAt time.Time
}

// TTLRemaining returns the whole seconds left before expiry, never negative.
func (e Entry) TTLRemaining(now time.Time) int {
	d := e.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Store is implemented by every backend. Get reports a miss for expired
// entries and for backend errors; callers never have to distinguish them.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) string
	Stats(ctx context.Context) map[string]any
}

// ----------------------------------------------------------------------------
// Memory backend
// ----------------------------------------------------------------------------

// Memory is a thread-safe in-memory TTL cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	enabled bool
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemory creates a memory store. Pass enabled=false for a no-op store.
func NewMemory(enabled bool) *Memory {
	m := &Memory{
		entries: make(map[string]Entry),
		enabled: enabled,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if enabled {
		go m.evictLoop(5 * time.Minute)
	}
	return m
}

// Get retrieves a live entry.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool) {
	if !m.enabled {
		return Entry{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, exists := m.entries[key]
	if !exists || !m.now().Before(e.ExpiresAt) {
		return Entry{}, false
	}
	return e, true
}

// Set stores data for ttl and returns its ETag.
func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !m.enabled {
		return etag
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{
		Data:      data,
		ETag:      etag,
		ExpiresAt: m.now().Add(ttl),
	}
	return etag
}

// Stats returns key counts.
func (m *Memory) Stats(_ context.Context) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := 0
	now := m.now()
	for _, e := range m.entries {
		if now.Before(e.ExpiresAt) {
			active++
		}
	}
	return map[string]any{
		"backend":      "memory",
		"enabled":      m.enabled,
		"total_keys":   len(m.entries),
		"active_keys":  active,
		"expired_keys": len(m.entries) - active,
	}
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
}

// Close stops the eviction loop.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evict()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) evict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.ExpiresAt) {
			delete(m.entries, key)
		}
	}
}

// ----------------------------------------------------------------------------
// ETags
// ----------------------------------------------------------------------------

// ComputeETag generates a weak ETag from data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch reports whether an If-None-Match header matches etag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	return ifNoneMatch == etag
}
