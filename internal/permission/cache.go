package permission

import "sync"

// SessionCache is a process-lifetime set of remembered allow patterns, added
// when a user answers an approval prompt with "always". It is owned by one
// Checker and safe for concurrent insert and lookup.
type SessionCache struct {
	mu       sync.RWMutex
	patterns map[string]struct{}
}

// NewSessionCache creates an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{patterns: make(map[string]struct{})}
}

// Add remembers a pattern. Empty patterns are ignored.
func (c *SessionCache) Add(pattern string) {
	if pattern == "" {
		return
	}
	c.mu.Lock()
	c.patterns[pattern] = struct{}{}
	c.mu.Unlock()
}

// Contains reports whether the exact pattern string was remembered.
func (c *SessionCache) Contains(pattern string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.patterns[pattern]
	return ok
}

// Patterns returns a snapshot of remembered patterns.
func (c *SessionCache) Patterns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.patterns))
	for p := range c.patterns {
		out = append(out, p)
	}
	return out
}

// Clear removes every remembered pattern. Idempotent.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	c.patterns = make(map[string]struct{})
	c.mu.Unlock()
}

// Len returns the number of remembered patterns.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}
