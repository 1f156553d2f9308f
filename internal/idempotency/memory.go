package idempotency

import (
    "context"
    "sync"
    "time"
)

// Memory is the in-process fallback used when no REDIS_URL is configured.
type Memory struct {
    mu      sync.Mutex
    entries map[string]time.Time // key -> expiry
    now     func() time.Time
    claims  int // since last sweep
}

func NewMemory() *Memory {
    return &Memory{entries: map[string]time.Time{}, now: time.Now}
}

func (m *Memory) Strategy() string { return "memory" }

func (m *Memory) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
    if err := ctx.Err(); err != nil { return false, err }
    m.mu.Lock()
    defer m.mu.Unlock()
    now := m.now()
    if exp, ok := m.entries[key]; ok && now.Before(exp) {
        return false, nil
    }
    m.entries[key] = now.Add(ttl)
    m.claims++
    if m.claims >= 1024 {
        m.sweep(now)
    }
    return true, nil
}

// Len returns the number of tracked keys, expired or not.
func (m *Memory) Len() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.entries)
}

func (m *Memory) sweep(now time.Time) {
    for k, exp := range m.entries {
        if !now.Before(exp) { delete(m.entries, k) }
    }
    m.claims = 0
}
