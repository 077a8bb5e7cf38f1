package service

import "sync"

// LatestResult publishes projections last-write-wins: each computation takes
// a generation from Begin and only the newest generation may publish.
type LatestResult struct {
	mu        sync.RWMutex
	begun     uint64
	published *Projection
}

// Begin reserves the next generation.
func (l *LatestResult) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.begun++
	return l.begun
}

// Publish stores p under gen. It reports false and drops p when a newer
// generation has begun since gen was reserved.
func (l *LatestResult) Publish(gen uint64, p *Projection) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.begun {
		return false
	}
	p.Generation = gen
	l.published = p
	return true
}

// Get returns the newest published projection.
func (l *LatestResult) Get() (*Projection, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.published, l.published != nil
}
