package service

import (
	"context"
	"fmt"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// saveGuard: one in-flight write per site record
// ─────────────────────────────────────────────────────────────

// newSiteKey is the guard key for a document that has no record yet.
const newSiteKey = "<new>"

// saveGuard tracks saves in flight by site id. Each save owns a done channel
// that is closed on release, so shutdown can wait for the saves that were
// running when it started without blocking on saves begun afterwards.
type saveGuard struct {
	mu     sync.Mutex
	active map[string]chan struct{}
}

// acquire claims siteID for one save. The caller must invoke release once the
// write is over; extra calls are ignored. A site already being saved yields
// ErrSaveInProgress naming it.
func (g *saveGuard) acquire(siteID string) (release func(), err error) {
	if siteID == "" {
		siteID = newSiteKey
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		g.active = make(map[string]chan struct{})
	}
	if _, busy := g.active[siteID]; busy {
		return nil, fmt.Errorf("save site %s: %w", siteID, ErrSaveInProgress)
	}
	done := make(chan struct{})
	g.active[siteID] = done

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, siteID)
			g.mu.Unlock()
			close(done)
		})
	}, nil
}

// saving reports whether siteID has a save in flight.
func (g *saveGuard) saving(siteID string) bool {
	if siteID == "" {
		siteID = newSiteKey
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[siteID]
	return ok
}

// wait blocks until every save in flight at call time has released, or ctx
// ends. It returns ctx's error in the latter case.
func (g *saveGuard) wait(ctx context.Context) error {
	g.mu.Lock()
	pending := make([]chan struct{}, 0, len(g.active))
	for _, done := range g.active {
		pending = append(pending, done)
	}
	g.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
