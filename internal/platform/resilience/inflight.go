package resilience

import "sync"

// InFlight lets at most one holder run per key. Callers that fail to acquire
// are expected to skip their work rather than wait.
type InFlight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// TryAcquire returns a release func and true when key was free.
func (g *InFlight) TryAcquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, busy := g.running[key]; busy {
		return func() {}, false
	}
	g.running[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, key)
			g.mu.Unlock()
		})
	}, true
}

// Busy reports whether key is currently held.
func (g *InFlight) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[key]
	return busy
}
