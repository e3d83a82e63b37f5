package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. an ingest request with no text and no attachments).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUpstream is returned when the completion provider fails at the transport
// level: non-success status, timeout, or network error. The whole ingest call
// is safe to retry because no proposals are persisted on this path.
// Handlers should map this to HTTP 502.
var ErrUpstream = errors.New("upstream error")

// ErrMissingTrip is returned when applying a proposal whose kind requires an
// existing trip but the proposal carries no trip_id. Proposals are never
// attached to a trip implicitly at apply time; the caller must set trip_id
// before applying. Handlers should map this to HTTP 422.
var ErrMissingTrip = errors.New("proposal has no trip")
