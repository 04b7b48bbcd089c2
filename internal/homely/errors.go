package homely

import "errors"

// Error taxonomy for API failures. Callers match with errors.Is.
var (
	// ErrInvalidCredentials means the username/password pair was rejected.
	// Terminal for the attempt: the user must re-enter credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthorized means a request was rejected despite an apparently
	// valid session, or an operation was attempted before logging in.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrServerFailure covers 5xx responses, malformed payloads and any
	// status outside the enumerated ranges. Transient; safe to retry later.
	ErrServerFailure = errors.New("server failure")

	// ErrInvalidLocation means the API rejected the location ID.
	ErrInvalidLocation = errors.New("invalid location ID")

	// ErrNoLocation means a location-scoped call had neither an explicit
	// location ID nor a default configured at construction.
	ErrNoLocation = errors.New("no location ID configured")

	// ErrRequestFailed covers transport-level failures: timeouts, DNS
	// errors, connection resets. Not distinguished further at this layer.
	ErrRequestFailed = errors.New("request failed")
)
