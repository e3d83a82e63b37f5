package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/repo"
)

// ApplyService materializes accepted proposals into domain tables and drives
// the proposal state machine (new → applied | rejected, both terminal).
//
// Every Apply or Reject call runs in one database transaction wrapping the
// conditional status flip and the domain write, so a proposal can never end
// up half-applied: either the domain row exists and the proposal is applied,
// or neither happened. The conditional "status = 'new'" claim makes two
// concurrent applies on the same proposal resolve to one winner; the loser
// returns success without inserting anything.
//
// Trip binding policy: flight, accommodation, transport, and itinerary_event
// proposals all require an existing trip_id and fail with domain.ErrMissingTrip
// when it is absent. Applying never auto-creates a trip; only a trip proposal
// does that.
type ApplyService struct {
	db repo.TxStarter

	// Repo constructors, overridable in unit tests. Each call builds its
	// repos over the transaction so all writes commit together.
	newProposals func(repo.DB) repo.ProposalRepo
	newTrips     func(repo.DB) repo.TripRepo
	newRecords   func(repo.DB) repo.RecordRepo
}

// NewApplyService constructs an ApplyService over the given transaction
// starter (pass *pgxpool.Pool in production).
func NewApplyService(db repo.TxStarter) *ApplyService {
	return &ApplyService{
		db:           db,
		newProposals: repo.NewProposalRepo,
		newTrips:     repo.NewTripRepo,
		newRecords:   repo.NewRecordRepo,
	}
}

// Apply commits a proposal's payload into the domain data store and flips its
// status to applied. Re-applying an applied (or rejected) proposal returns
// success without side effects; assert on domain row counts, not on repeat
// calls, when verifying.
func (s *ApplyService) Apply(ctx context.Context, id uuid.UUID) (domain.AppliedRecord, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.AppliedRecord{}, fmt.Errorf("service.ApplyService.Apply: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	proposals := s.newProposals(tx)

	p, err := proposals.GetByID(ctx, id)
	if err != nil {
		return domain.AppliedRecord{}, fmt.Errorf("service.ApplyService.Apply: %w", err)
	}
	if p.Status != domain.StatusNew {
		// Terminal state: idempotent no-op, no write, no transition.
		return domain.AppliedRecord{Kind: p.Kind}, nil
	}

	claimed, err := proposals.ClaimTransition(ctx, id, domain.StatusApplied)
	if err != nil {
		return domain.AppliedRecord{}, fmt.Errorf("service.ApplyService.Apply: %w", err)
	}
	if !claimed {
		// A concurrent apply won the race between our read and the claim.
		return domain.AppliedRecord{Kind: p.Kind}, nil
	}

	record, err := s.applyKind(ctx, tx, p)
	if err != nil {
		// Rollback leaves the proposal in status new; the caller may retry.
		return domain.AppliedRecord{}, fmt.Errorf("service.ApplyService.Apply: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.AppliedRecord{}, fmt.Errorf("service.ApplyService.Apply: commit: %w", err)
	}
	return record, nil
}

// Reject transitions a proposal to rejected without any domain write.
// Idempotent for already-terminal proposals.
func (s *ApplyService) Reject(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("service.ApplyService.Reject: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.newProposals(tx).SetStatus(ctx, id, domain.StatusRejected); err != nil {
		return fmt.Errorf("service.ApplyService.Reject: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("service.ApplyService.Reject: commit: %w", err)
	}
	return nil
}

// applyKind performs the kind-specific domain write for a claimed proposal.
func (s *ApplyService) applyKind(ctx context.Context, tx repo.DB, p domain.Proposal) (domain.AppliedRecord, error) {
	records := s.newRecords(tx)

	switch p.Kind {
	case domain.KindTrip:
		return s.applyTrip(ctx, tx, p)

	case domain.KindFlight:
		tripID, err := s.requireTrip(ctx, tx, p)
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		payload, err := domain.DecodeFlightPayload(p.Payload)
		if err != nil {
			return domain.AppliedRecord{}, fmt.Errorf("decode flight payload: %w: %v", domain.ErrValidation, err)
		}
		flight, err := records.InsertFlight(ctx, domain.Flight{
			TripID:        tripID,
			Carrier:       payload.Carrier,
			FlightNumber:  payload.FlightNumber,
			DepartAirport: payload.DepartAirport,
			ArriveAirport: payload.ArriveAirport,
			DepartTime:    parseTimePtr(payload.DepartTime),
			ArriveTime:    parseTimePtr(payload.ArriveTime),
			CostAmount:    payload.CostAmount,
			CostCurrency:  payload.CostCurrency,
		})
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		return domain.AppliedRecord{Kind: p.Kind, RecordID: &flight.ID}, nil

	case domain.KindAccommodation:
		tripID, err := s.requireTrip(ctx, tx, p)
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		payload, err := domain.DecodeAccommodationPayload(p.Payload)
		if err != nil {
			return domain.AppliedRecord{}, fmt.Errorf("decode accommodation payload: %w: %v", domain.ErrValidation, err)
		}
		acc, err := records.InsertAccommodation(ctx, domain.Accommodation{
			TripID:       tripID,
			Name:         payload.Name,
			Address:      payload.Address,
			CheckIn:      parseTimePtr(payload.CheckIn),
			CheckOut:     parseTimePtr(payload.CheckOut),
			CostAmount:   payload.CostAmount,
			CostCurrency: payload.CostCurrency,
		})
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		return domain.AppliedRecord{Kind: p.Kind, RecordID: &acc.ID}, nil

	case domain.KindTransport:
		tripID, err := s.requireTrip(ctx, tx, p)
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		payload, err := domain.DecodeTransportPayload(p.Payload)
		if err != nil {
			return domain.AppliedRecord{}, fmt.Errorf("decode transport payload: %w: %v", domain.ErrValidation, err)
		}
		tr, err := records.InsertTransport(ctx, domain.Transport{
			TripID:       tripID,
			Mode:         payload.Mode,
			FromCity:     payload.FromCity,
			ToCity:       payload.ToCity,
			DepartAt:     parseTimePtr(payload.DepartAt),
			ArriveAt:     parseTimePtr(payload.ArriveAt),
			Carrier:      payload.Carrier,
			Code:         payload.Code,
			CostAmount:   payload.CostAmount,
			CostCurrency: payload.CostCurrency,
		})
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		return domain.AppliedRecord{Kind: p.Kind, RecordID: &tr.ID}, nil

	case domain.KindItineraryEvent:
		tripID, err := s.requireTrip(ctx, tx, p)
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		payload, err := domain.DecodeItineraryEventPayload(p.Payload)
		if err != nil {
			return domain.AppliedRecord{}, fmt.Errorf("decode event payload: %w: %v", domain.ErrValidation, err)
		}
		title := strings.TrimSpace(payload.Title)
		if title == "" {
			title = strings.TrimSpace(p.Summary)
		}
		if title == "" {
			return domain.AppliedRecord{}, fmt.Errorf("itinerary event title is required: %w", domain.ErrValidation)
		}
		ev, err := records.InsertItineraryEvent(ctx, domain.ItineraryEvent{
			TripID:    tripID,
			Title:     title,
			Date:      parseTimePtr(payload.Date),
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
			Location:  payload.Location,
			Notes:     payload.Notes,
		})
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		return domain.AppliedRecord{Kind: p.Kind, RecordID: &ev.ID}, nil

	case domain.KindNote:
		payload, err := domain.DecodeNotePayload(p.Payload)
		if err != nil {
			return domain.AppliedRecord{}, fmt.Errorf("decode note payload: %w: %v", domain.ErrValidation, err)
		}
		content := strings.TrimSpace(payload.Content)
		if content == "" {
			content = strings.TrimSpace(p.Summary)
		}
		if content == "" {
			return domain.AppliedRecord{}, fmt.Errorf("note content is required: %w", domain.ErrValidation)
		}
		note, err := records.InsertNote(ctx, domain.Note{TripID: p.TripID, Content: content})
		if err != nil {
			return domain.AppliedRecord{}, err
		}
		return domain.AppliedRecord{Kind: p.Kind, RecordID: &note.ID}, nil

	default:
		// KindOther carries nothing the domain tables can hold; the status
		// transition alone is the apply.
		return domain.AppliedRecord{Kind: p.Kind}, nil
	}
}

// applyTrip materializes a trip proposal into a new trip row.
// Title falls back to the proposal summary, then to "New Trip".
func (s *ApplyService) applyTrip(ctx context.Context, tx repo.DB, p domain.Proposal) (domain.AppliedRecord, error) {
	payload, err := domain.DecodeTripPayload(p.Payload)
	if err != nil {
		return domain.AppliedRecord{}, fmt.Errorf("decode trip payload: %w: %v", domain.ErrValidation, err)
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = strings.TrimSpace(p.Summary)
	}
	if title == "" {
		title = "New Trip"
	}

	notes := ""
	if payload.Notes != nil {
		notes = *payload.Notes
	}

	trip, err := s.newTrips(tx).Create(ctx, domain.Trip{
		Title:     title,
		StartDate: parseTimePtr(payload.StartDate),
		EndDate:   parseTimePtr(payload.EndDate),
		Notes:     notes,
	})
	if err != nil {
		return domain.AppliedRecord{}, err
	}
	return domain.AppliedRecord{Kind: domain.KindTrip, RecordID: &trip.ID}, nil
}

// requireTrip enforces the trip binding policy for child records: the
// proposal must name a trip and that trip must exist.
func (s *ApplyService) requireTrip(ctx context.Context, tx repo.DB, p domain.Proposal) (uuid.UUID, error) {
	if p.TripID == nil {
		return uuid.UUID{}, fmt.Errorf("%s proposal: %w", p.Kind, domain.ErrMissingTrip)
	}
	if _, err := s.newTrips(tx).GetByID(ctx, *p.TripID); err != nil {
		return uuid.UUID{}, err
	}
	return *p.TripID, nil
}

// timeLayouts are tried in order when coercing model-emitted timestamps.
// The model is told to emit ISO 8601 but frequently drops the zone or the
// seconds, so the zoneless layouts are accepted as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimePtr coerces an optional ISO timestamp string to a time.
// Unparseable values become nil: an absent field is better than an invented
// one, matching the extraction contract.
func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}
