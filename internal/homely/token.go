package homely

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// tokenExpiryMargin is subtracted from server-declared token lifetimes to
// avoid edge-of-expiry races.
const tokenExpiryMargin = 20 * time.Second

// tokenState holds the current access/refresh token pair. Mutated only by
// the token manager in response to login/refresh responses.
type tokenState struct {
	accessToken        string
	accessTokenExpiry  time.Time
	refreshToken       string
	refreshTokenExpiry time.Time
}

// tokenResponse is the body of a successful login or refresh response.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

// tokenManager owns credential and token state for one client. Callers are
// serialized by the facade mutex, so no locking happens here.
type tokenManager struct {
	username  string
	password  string
	baseURL   string
	transport *transport
	clock     Clock
	logger    *slog.Logger
	state     tokenState
}

func newTokenManager(username, password, baseURL string, transport *transport, clock Clock, logger *slog.Logger) *tokenManager {
	return &tokenManager{
		username:  username,
		password:  password,
		baseURL:   baseURL,
		transport: transport,
		clock:     clock,
		logger:    logger.With("component", "token-manager"),
	}
}

// ensureValidToken makes sure a usable access token is installed. Safe to
// call before every authenticated operation: a valid access token returns
// immediately with no network call, a usable refresh token is exchanged,
// and anything else falls back to a full username/password login.
func (m *tokenManager) ensureValidToken(ctx context.Context) error {
	if m.accessTokenValid() {
		m.logger.Debug("access token still valid")
		return nil
	}

	if m.refreshTokenUsable() {
		err := m.refreshTokens(ctx)
		if err == nil {
			m.logger.Debug("access token refreshed")
			return nil
		}
		// A rejected refresh token is recoverable: the original credentials
		// are still on hand, so fall through to a full login.
		m.logger.Debug("token refresh failed, falling back to login", "error", err)
	}

	if err := m.login(ctx); err != nil {
		return err
	}
	m.logger.Debug("logged in")
	return nil
}

// accessTokenValid reports whether an access token is present and unexpired.
func (m *tokenManager) accessTokenValid() bool {
	return m.state.accessToken != "" && m.clock.Now().Before(m.state.accessTokenExpiry)
}

// refreshTokenUsable reports whether a refresh token is present and unexpired.
func (m *tokenManager) refreshTokenUsable() bool {
	return m.state.refreshToken != "" && m.clock.Now().Before(m.state.refreshTokenExpiry)
}

// bearer returns the current access token for Authorization headers.
func (m *tokenManager) bearer() string {
	return m.state.accessToken
}

// login performs a full credential login and installs the returned pair.
func (m *tokenManager) login(ctx context.Context) error {
	form := url.Values{
		"username": {m.username},
		"password": {m.password},
	}
	resp, err := m.transport.postForm(ctx, m.baseURL+"/oauth/token", form)
	if err != nil {
		return err
	}

	switch classify(resp.status) {
	case classServerError:
		return fmt.Errorf("%w: login returned status %d", ErrServerFailure, resp.status)
	case classClientError, classAuthError:
		return fmt.Errorf("%w: login rejected with status %d", ErrInvalidCredentials, resp.status)
	}

	return m.install(resp.body)
}

// refreshTokens exchanges the refresh token for a new token pair.
func (m *tokenManager) refreshTokens(ctx context.Context) error {
	form := url.Values{
		"refresh_token": {m.state.refreshToken},
	}
	resp, err := m.transport.postForm(ctx, m.baseURL+"/oauth/refresh-token", form)
	if err != nil {
		return err
	}

	switch classify(resp.status) {
	case classServerError:
		return fmt.Errorf("%w: token refresh returned status %d", ErrServerFailure, resp.status)
	case classClientError, classAuthError:
		return fmt.Errorf("%w: refresh token rejected with status %d", ErrNotAuthorized, resp.status)
	}

	return m.install(resp.body)
}

// install parses a login/refresh response and replaces the token state.
// State only changes after the whole payload validates, so an abandoned or
// malformed exchange leaves the previous tokens intact.
func (m *tokenManager) install(body []byte) error {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("%w: malformed token response: %v", ErrServerFailure, err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("%w: token response missing access_token", ErrServerFailure)
	}

	now := m.clock.Now()
	m.state = tokenState{
		accessToken:        tr.AccessToken,
		accessTokenExpiry:  now.Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin),
		refreshToken:       tr.RefreshToken,
		refreshTokenExpiry: now.Add(time.Duration(tr.RefreshExpiresIn)*time.Second - tokenExpiryMargin),
	}
	return nil
}
