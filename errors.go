package hubx

import "errors"

// Local validation errors. They are raised before any network call and
// never change state.
var (
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidPriceRange = errors.New("invalid price range")
	ErrUnknownLocation   = errors.New("unknown location")
	ErrUnknownSortKey    = errors.New("unknown sort key")
	ErrInvalidListing    = errors.New("invalid listing")
)

// Remote errors.
var (
	// ErrRejected is returned when the server answered with a
	// well-formed refusal, for instance bad credentials.
	ErrRejected = errors.New("rejected by server")

	// ErrUnauthorized is returned when an authorized request is refused
	// because the held credential is stale or unknown to the server.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport covers unreachable servers and malformed responses.
	ErrTransport = errors.New("transport failure")

	// ErrInFlight is returned when a login is submitted while another
	// one is still pending.
	ErrInFlight = errors.New("login already in flight")
)
