// Package extract turns a normalized document bundle into proposal drafts by
// calling a language-model completion endpoint with a fixed extraction
// contract and shape-checking whatever comes back.
//
// The model's output is untrusted text, not a typed API: the engine parses it
// strictly, salvages a JSON object from almost-JSON, and otherwise degrades
// to an empty draft list. Only a provider-level transport failure is an error.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/ingest"
)

// Completion is the single outbound request the engine makes per extraction.
type Completion struct {
	System    string
	UserText  string
	ImageURLs []string
}

// Completer performs one completion call and returns the raw message content.
// Implementations must return an error wrapping domain.ErrUpstream for any
// transport-level failure (bad status, timeout, network error).
type Completer interface {
	Complete(ctx context.Context, c Completion) (string, error)
}

// Result is the outcome of one extraction: the assistant's short reply and
// zero or more unpersisted proposal drafts.
type Result struct {
	Reply  string
	Drafts []domain.ProposalDraft
}

// Engine sends normalized content to the completion provider and converts the
// response into sanitized proposal drafts.
type Engine struct {
	completer Completer
}

// NewEngine constructs an Engine backed by the provided Completer.
func NewEngine(c Completer) *Engine {
	return &Engine{completer: c}
}

// Extract performs one extraction over the bundle. tripHint, when set, is
// stamped onto any draft the model did not bind to a trip itself.
//
// A malformed completion never fails the call: the engine falls back to the
// salvaged JSON object, and failing that returns the raw output as Reply with
// no drafts. Errors are reserved for transport failures (domain.ErrUpstream),
// on which zero proposals exist and the whole call is safe to retry.
func (e *Engine) Extract(ctx context.Context, bundle ingest.Bundle, tripHint *uuid.UUID) (Result, error) {
	raw, err := e.completer.Complete(ctx, Completion{
		System:    instruction,
		UserText:  buildUserText(bundle.FreeText, bundle.DocText),
		ImageURLs: bundle.Images,
	})
	if err != nil {
		return Result{}, fmt.Errorf("extract.Engine.Extract: %w", err)
	}

	return parseModelOutput(raw, tripHint), nil
}

// modelOutput mirrors the JSON shape the system prompt demands. The "reply"
// alias is tolerated because the model occasionally shortens the key.
type modelOutput struct {
	AssistantReply string          `json:"assistant_reply"`
	Reply          string          `json:"reply"`
	Proposals      []modelProposal `json:"proposals"`
}

type modelProposal struct {
	TripID  *string         `json:"trip_id"`
	Kind    string          `json:"kind"`
	Summary string          `json:"summary"`
	Payload json.RawMessage `json:"payload"`
}

// parseModelOutput runs the strict-parse → salvage-parse → degrade ladder and
// sanitizes every draft it recovers.
func parseModelOutput(raw string, tripHint *uuid.UUID) Result {
	var out modelOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		salvaged, ok := salvageJSON(raw)
		if !ok {
			return Result{Reply: strings.TrimSpace(raw)}
		}
		if err := json.Unmarshal(salvaged, &out); err != nil {
			return Result{Reply: strings.TrimSpace(raw)}
		}
	}

	reply := out.AssistantReply
	if reply == "" {
		reply = out.Reply
	}

	drafts := make([]domain.ProposalDraft, 0, len(out.Proposals))
	for _, p := range out.Proposals {
		drafts = append(drafts, sanitizeDraft(p, tripHint))
	}

	return Result{Reply: reply, Drafts: drafts}
}

// sanitizeDraft collapses the kind onto the closed enumeration, canonicalizes
// the payload (synonym keys, currency whitelist), resolves the trip binding,
// and derives a summary when the model supplied none.
func sanitizeDraft(p modelProposal, tripHint *uuid.UUID) domain.ProposalDraft {
	kind := domain.ParseKind(strings.TrimSpace(p.Kind))
	payload := domain.CanonicalizePayload(kind, p.Payload)

	tripID := tripHint
	if p.TripID != nil {
		if id, err := uuid.Parse(*p.TripID); err == nil {
			tripID = &id
		}
	}

	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		summary = deriveSummary(kind, payload)
	}

	return domain.ProposalDraft{
		TripID:  tripID,
		Kind:    kind,
		Summary: summary,
		Payload: payload,
	}
}

// deriveSummary builds a short human-readable label from the payload.
// Summaries are display-only, never authoritative, so best effort is enough.
func deriveSummary(kind domain.Kind, payload json.RawMessage) string {
	switch kind {
	case domain.KindTrip:
		if p, err := domain.DecodeTripPayload(payload); err == nil && p.Title != "" {
			return p.Title
		}
		return "Trip"
	case domain.KindFlight:
		p, err := domain.DecodeFlightPayload(payload)
		if err != nil {
			return "Flight"
		}
		var parts []string
		if p.Carrier != nil {
			parts = append(parts, *p.Carrier)
		}
		if p.FlightNumber != nil {
			parts = append(parts, *p.FlightNumber)
		}
		if p.DepartAirport != nil && p.ArriveAirport != nil {
			parts = append(parts, *p.DepartAirport+"-"+*p.ArriveAirport)
		}
		if len(parts) == 0 {
			return "Flight"
		}
		return strings.Join(parts, " ")
	case domain.KindAccommodation:
		if p, err := domain.DecodeAccommodationPayload(payload); err == nil && p.Name != nil {
			return *p.Name
		}
		return "Accommodation"
	case domain.KindTransport:
		p, err := domain.DecodeTransportPayload(payload)
		if err != nil {
			return "Transport"
		}
		if p.FromCity != nil && p.ToCity != nil {
			return *p.FromCity + " to " + *p.ToCity
		}
		return "Transport"
	case domain.KindItineraryEvent:
		if p, err := domain.DecodeItineraryEventPayload(payload); err == nil && p.Title != "" {
			return p.Title
		}
		return "Itinerary event"
	case domain.KindNote:
		return "Note"
	}
	return "Suggestion"
}
