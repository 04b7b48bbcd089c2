// Package coordinator drives periodic refreshes of the Homely client and
// fans successful snapshots out to subscribers.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/john-mcs/homely/internal/homely"
)

// DefaultInterval is the refresh cadence when none is configured.
const DefaultInterval = 30 * time.Second

// DataSource is the subset of the Homely client the coordinator needs.
type DataSource interface {
	GetData(ctx context.Context, locationID string) (*homely.Snapshot, error)
}

// Subscriber receives every successfully refreshed snapshot.
type Subscriber interface {
	SnapshotUpdated(snap *homely.Snapshot)
}

// Coordinator polls the data source on a fixed interval. A failed poll
// becomes the "update failed" state while the last known good snapshot
// keeps being served; refreshes run on a single goroutine so client calls
// never overlap.
type Coordinator struct {
	source      DataSource
	interval    time.Duration
	clock       homely.Clock
	logger      *slog.Logger
	subscribers []Subscriber
	stopChan    chan struct{}

	mu          sync.RWMutex
	snapshot    *homely.Snapshot
	lastError   error
	lastSuccess time.Time
}

// New creates a coordinator. A non-positive interval selects
// DefaultInterval.
func New(source DataSource, interval time.Duration, clock homely.Clock, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = homely.RealClock{}
	}
	return &Coordinator{
		source:   source,
		interval: interval,
		clock:    clock,
		logger:   logger.With("component", "coordinator"),
		stopChan: make(chan struct{}),
	}
}

// Subscribe registers a subscriber. Must be called before Start.
func (c *Coordinator) Subscribe(s Subscriber) {
	c.subscribers = append(c.subscribers, s)
}

// Start begins the refresh loop (blocking). An initial refresh happens
// immediately, later ones follow the fixed cadence.
func (c *Coordinator) Start(ctx context.Context) {
	c.logger.Info("coordinator started", "interval", c.interval)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped (context cancelled)")
			return
		case <-c.stopChan:
			c.logger.Info("coordinator stopped")
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// Stop signals the coordinator to stop.
func (c *Coordinator) Stop() {
	close(c.stopChan)
}

// refresh performs one poll of the data source.
func (c *Coordinator) refresh(ctx context.Context) {
	snap, err := c.source.GetData(ctx, "")
	if err != nil {
		c.mu.Lock()
		c.lastError = err
		c.mu.Unlock()
		c.logger.Warn("update failed, keeping last known snapshot", "error", err)
		return
	}

	c.mu.Lock()
	c.snapshot = snap
	c.lastError = nil
	c.lastSuccess = c.clock.Now()
	c.mu.Unlock()

	c.logger.Debug("snapshot updated",
		"location_id", snap.LocationID,
		"alarm_state", snap.AlarmState,
		"devices", len(snap.Devices),
	)

	for _, s := range c.subscribers {
		s.SnapshotUpdated(snap)
	}
}

// Snapshot returns the last known good snapshot, if any.
func (c *Coordinator) Snapshot() (*homely.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.snapshot != nil
}

// LastError returns the error of the most recent refresh; nil after a
// successful refresh.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// LastSuccess returns when the last successful refresh completed, zero if
// none has happened yet.
func (c *Coordinator) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}
