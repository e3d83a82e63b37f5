// Package domain contains the core data types for the trip manager backend.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (ingest, extract, repo, service, handler).
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which domain entity a proposal maps to.
// The enumeration is closed: anything the extraction model emits outside this
// set collapses to KindOther rather than failing the batch.
type Kind string

const (
	KindTrip           Kind = "trip"
	KindFlight         Kind = "flight"
	KindAccommodation  Kind = "accommodation"
	KindTransport      Kind = "transport"
	KindItineraryEvent Kind = "itinerary_event"
	KindNote           Kind = "note"
	KindOther          Kind = "other"
)

// ParseKind maps an arbitrary string to a member of the closed Kind
// enumeration. Unrecognized values become KindOther.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindTrip, KindFlight, KindAccommodation, KindTransport,
		KindItineraryEvent, KindNote:
		return Kind(s)
	}
	return KindOther
}

// Status is the lifecycle state of a proposal.
// The only legal transitions are new → applied and new → rejected.
// Applied and rejected are terminal; re-applying or re-rejecting is a
// successful no-op so that network retries never double-insert domain rows.
type Status string

const (
	StatusNew      Status = "new"
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// Proposal is a candidate structured change extracted from unstructured input,
// pending user review. Rejected proposals are kept as an audit trail and are
// never deleted.
type Proposal struct {
	ID        uuid.UUID       `json:"id"`
	TripID    *uuid.UUID      `json:"trip_id"` // nil means no trip selected yet
	Kind      Kind            `json:"kind"`
	Summary   string          `json:"summary,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProposalDraft is an unpersisted proposal as returned by the extraction
// engine, before it is assigned an id and stored.
type ProposalDraft struct {
	TripID  *uuid.UUID
	Kind    Kind
	Summary string
	Payload json.RawMessage
}

// AppliedRecord describes the domain row created by applying a proposal.
// RecordID is nil for kinds that produce no domain write (other, and repeat
// applies of an already-applied proposal).
type AppliedRecord struct {
	Kind     Kind       `json:"kind"`
	RecordID *uuid.UUID `json:"record_id,omitempty"`
}
