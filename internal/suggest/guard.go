package suggest

import "sync"

// KeyedGuard admits at most one holder per key. Acquisition never blocks:
// a second caller for a held key is rejected.
type KeyedGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewKeyedGuard returns an empty guard.
func NewKeyedGuard() *KeyedGuard {
	return &KeyedGuard{held: make(map[string]struct{})}
}

// TryAcquire takes key and reports success.
func (g *KeyedGuard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false
	}
	g.held[key] = struct{}{}
	return true
}

// Release frees key. Releasing a free key is a no-op.
func (g *KeyedGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
}

// Held reports whether key is taken.
func (g *KeyedGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
