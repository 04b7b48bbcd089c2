// Package homely implements an authenticated polling client for the Homely
// home-security cloud API.
package homely

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultBaseURL is the production Homely SDK endpoint.
const DefaultBaseURL = "https://sdk.iotiliti.cloud/homely"

// Config contains Homely API client configuration. Credentials are fixed
// for the client's lifetime.
type Config struct {
	Username   string // account username
	Password   string // account password
	LocationID string // default location for location-scoped calls, may be empty
	BaseURL    string // API base URL, defaults to DefaultBaseURL
}

// Client is the facade over the token manager, the location cache and the
// HTTP transport. One client serves one active location. Public operations
// are serialized with an internal mutex; the client spawns no background
// work of its own.
type Client struct {
	config    Config
	tokens    *tokenManager
	cache     *locationCache
	transport *transport
	clock     Clock
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewClient creates a client using the real system clock.
func NewClient(config Config, logger *slog.Logger) *Client {
	return newClient(config, RealClock{}, logger)
}

func newClient(config Config, clock Clock, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	logger = logger.With("component", "homely-client")

	tr := newTransport(logger)
	return &Client{
		config:    config,
		tokens:    newTokenManager(config.Username, config.Password, config.BaseURL, tr, clock, logger),
		cache:     newLocationCache(clock),
		transport: tr,
		clock:     clock,
		logger:    logger,
	}
}

// Login validates the stored credentials by making sure a usable access
// token is installed. Used standalone during setup, before any location is
// known.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.ensureValidToken(ctx)
}

// ListLocations returns every location the account has access to. It
// requires a prior successful Login and does not touch the location cache.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tokens.accessTokenValid() {
		return nil, fmt.Errorf("%w: no valid access token, call Login first", ErrNotAuthorized)
	}

	resp, err := c.transport.get(ctx, c.config.BaseURL+"/locations", c.tokens.bearer())
	if err != nil {
		return nil, err
	}

	switch classify(resp.status) {
	case classServerError:
		return nil, fmt.Errorf("%w: locations returned status %d", ErrServerFailure, resp.status)
	case classClientError, classAuthError:
		return nil, fmt.Errorf("%w: locations rejected with status %d", ErrNotAuthorized, resp.status)
	}

	var locations []Location
	if err := json.Unmarshal(resp.body, &locations); err != nil {
		return nil, fmt.Errorf("%w: malformed locations response: %v", ErrServerFailure, err)
	}
	return locations, nil
}

// GetAlarmState returns the alarm state of the refreshed snapshot. An
// empty locationID selects the one fixed at construction.
func (c *Client) GetAlarmState(ctx context.Context, locationID string) (string, error) {
	snap, err := c.GetData(ctx, locationID)
	if err != nil {
		return "", err
	}
	return snap.AlarmState, nil
}

// GetDevices returns the device collection of the refreshed snapshot,
// empty when the location reports none.
func (c *Client) GetDevices(ctx context.Context, locationID string) ([]Device, error) {
	snap, err := c.GetData(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if snap.Devices == nil {
		return []Device{}, nil
	}
	return snap.Devices, nil
}

// GetData returns the full snapshot for the location, fetching from the
// API unless the minimum refresh interval has not yet elapsed.
func (c *Client) GetData(ctx context.Context, locationID string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocationData(ctx, locationID)
}

// LastSnapshot returns the cached snapshot regardless of age.
func (c *Client) LastSnapshot() (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.last()
}

func (c *Client) resolveLocationID(locationID string) (string, error) {
	if locationID != "" {
		return locationID, nil
	}
	if c.config.LocationID != "" {
		return c.config.LocationID, nil
	}
	return "", ErrNoLocation
}

// refreshLocationData implements the throttled fetch. The token is ensured
// first, so a 401 from the data endpoint indicates a revoked session
// rather than a caller-ordering bug. A failed fetch leaves the previous
// snapshot untouched.
func (c *Client) refreshLocationData(ctx context.Context, locationID string) (*Snapshot, error) {
	locID, err := c.resolveLocationID(locationID)
	if err != nil {
		return nil, err
	}

	if err := c.tokens.ensureValidToken(ctx); err != nil {
		return nil, err
	}

	if snap, ok := c.cache.current(); ok {
		c.logger.Debug("location data still fresh, serving cached snapshot", "location_id", locID)
		return snap, nil
	}

	resp, err := c.transport.get(ctx, c.config.BaseURL+"/home/"+locID, c.tokens.bearer())
	if err != nil {
		return nil, err
	}

	switch classify(resp.status) {
	case classServerError:
		return nil, fmt.Errorf("%w: location data returned status %d", ErrServerFailure, resp.status)
	case classClientError:
		return nil, fmt.Errorf("%w: %s", ErrInvalidLocation, locID)
	case classAuthError:
		return nil, fmt.Errorf("%w: location data rejected with status %d", ErrNotAuthorized, resp.status)
	}

	snap, err := parseSnapshot(locID, resp.body, c.clock.Now())
	if err != nil {
		return nil, err
	}
	c.cache.store(snap)

	c.logger.Debug("location data refreshed",
		"location_id", locID,
		"alarm_state", snap.AlarmState,
		"devices", len(snap.Devices),
	)
	return snap, nil
}
