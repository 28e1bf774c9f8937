package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = runningOpsGuard

// ─────────────────────────────────────────────────────────────
// runningOpsGuard — tracks in-flight operations for dedupe + drain
// ─────────────────────────────────────────────────────────────

// runningOpsGuard keeps the set of in-flight operations. Keyed ops
// (scheduled refreshes) are deduplicated via TryLock; stream ops get
// unique ids via Track. Shutdown drains both through WaitAll.
type runningOpsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock attempts to mark opID as running. Returns false if an
// operation with the same id is already in flight.
func (g *runningOpsGuard) TryLock(opID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[opID]; ok {
		return false // already running
	}
	g.running[opID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock marks the operation as finished. Must be called after TryLock
// returns true.
func (g *runningOpsGuard) Unlock(opID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, opID)
	g.wg.Done()
}

// Track registers an operation that never conflicts (each stream gets
// a unique id) so WaitAll still covers it. The returned func releases
// the slot and must be called exactly once.
func (g *runningOpsGuard) Track(opID string) func() {
	g.mu.Lock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	g.running[opID] = struct{}{}
	g.wg.Add(1)
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { g.Unlock(opID) })
	}
}

// Active returns the number of in-flight operations.
func (g *runningOpsGuard) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.running)
}

// WaitAll blocks until all running operations complete or ctx is cancelled.
func (g *runningOpsGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
