package homely

import "time"

// refreshLimit is the minimum interval between upstream location fetches.
// It bounds the request rate to the API regardless of how often callers
// poll; within the interval the cached snapshot is served unchanged.
const refreshLimit = 10 * time.Second

// locationCache holds the last successfully fetched snapshot for the
// client's active location. It throttles, it does not invalidate: serving
// a stale snapshot inside the interval is intended behavior.
type locationCache struct {
	clock       Clock
	snapshot    *Snapshot
	refreshedAt time.Time
}

func newLocationCache(clock Clock) *locationCache {
	return &locationCache{clock: clock}
}

// current returns the cached snapshot while the refresh interval has not
// elapsed. With no prior fetch it always reports a miss.
func (c *locationCache) current() (*Snapshot, bool) {
	if c.snapshot == nil {
		return nil, false
	}
	if c.clock.Now().Before(c.refreshedAt.Add(refreshLimit)) {
		return c.snapshot, true
	}
	return nil, false
}

// last returns the cached snapshot regardless of age.
func (c *locationCache) last() (*Snapshot, bool) {
	return c.snapshot, c.snapshot != nil
}

// store replaces the snapshot and advances the refresh timestamp. Called
// only with a fully validated 2xx response, so readers never observe a
// partially updated snapshot.
func (c *locationCache) store(snap *Snapshot) {
	c.snapshot = snap
	c.refreshedAt = c.clock.Now()
}
