package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Memory is the default Store: a mutex-guarded map with a background sweep
// that drops expired entries. State is per-process; running multiple API
// instances fragments counters and caches across them.
type Memory struct {
	mu       sync.Mutex
	values   map[string]memoryValue
	counters map[string]memoryCounter
	done     chan struct{}
	closed   sync.Once
}

type memoryValue struct {
	data      []byte
	expiresAt time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

const sweepInterval = 5 * time.Minute

func NewMemory() *Memory {
	m := &Memory{
		values:   make(map[string]memoryValue),
		counters: make(map[string]memoryCounter),
		done:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, v := range m.values {
				if now.After(v.expiresAt) {
					delete(m.values, k)
				}
			}
			for k, c := range m.counters {
				if now.After(c.expiresAt) {
					delete(m.counters, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Memory) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	v, ok := m.values[key]
	if ok && time.Now().After(v.expiresAt) {
		delete(m.values, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(v.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = memoryValue{data: data, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = memoryCounter{count: 0, expiresAt: now.Add(window)}
	}
	c.count++
	m.counters[key] = c
	return c.count, c.expiresAt, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	delete(m.counters, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
	for k := range m.counters {
		if strings.HasPrefix(k, prefix) {
			delete(m.counters, k)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	m.closed.Do(func() { close(m.done) })
	return nil
}
