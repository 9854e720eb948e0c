package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Memory is a process-local Cache used when no redis is configured
// (development, tests). Entries are serialized the same way as in redis
// to keep Get/Set semantics identical.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: map[string]memoryEntry{},
	}
}

func (m *Memory) Get(key string, dest interface{}) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil // Cache miss
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return fmt.Errorf("can't unmarshal json from memory cache: %s", err)
	}

	return nil
}

func (m *Memory) Set(key string, expireTimeout time.Duration, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("can't json marshal value: %s", err)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(expireTimeout),
	}
	m.mu.Unlock()

	return nil
}
