package symcache

import "sync"

// Cache is the mapping module_path -> *Session from spec §4.D. Reads
// (GetOrOpen hits) proceed in parallel; opening a new session takes the
// writer lock, and the same writer lock backs BeginRescan/EndRescan so a
// remote module re-scan can be taken "under the writer lock of 4.D" as
// spec §4.E step 1 requires.
type Cache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{sessions: make(map[string]*Session)}
}

// GetOrOpen returns the cached session for path, opening and inserting
// one if absent. On open failure nothing is inserted, so a later retry
// can attempt a fresh open (spec §7). opened reports whether this call
// is the one that actually opened the session, so a caller instrumenting
// cache hit/miss counts does not have to re-derive it from Lookup.
func (c *Cache) GetOrOpen(path string, base uint64) (sess *Session, opened bool, err error) {
	c.mu.RLock()
	if s, ok := c.sessions[path]; ok {
		c.mu.RUnlock()
		return s, false, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[path]; ok {
		return s, false, nil
	}
	s, err := Open(path, base)
	if err != nil {
		return nil, false, err
	}
	c.sessions[path] = s
	return s, true, nil
}

// Lookup returns the cached session for path without opening one.
func (c *Cache) Lookup(path string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[path]
	return s, ok
}

// BeginRescan takes the cache's writer lock, blocking every concurrent
// reader, for the duration of a remote module-map re-scan.
func (c *Cache) BeginRescan() { c.mu.Lock() }

// EndRescan releases the lock BeginRescan took.
func (c *Cache) EndRescan() { c.mu.Unlock() }

// Close closes every open session. Safe to call once, at symbolizer
// teardown.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for path, s := range c.sessions {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.sessions, path)
	}
	return firstErr
}
