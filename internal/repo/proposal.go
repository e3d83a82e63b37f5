package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
)

// ProposalRepo defines the persistence operations for AI proposals.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows services to be unit-tested with a mock.
type ProposalRepo interface {
	// CreateBatch inserts the drafts with status=new and returns the stored
	// rows. Drafts that fail to persist individually are skipped, not fatal
	// to the batch; their errors are joined into the returned error while
	// the successfully stored proposals are still returned.
	CreateBatch(ctx context.Context, drafts []domain.ProposalDraft) ([]domain.Proposal, error)

	// GetByID retrieves a single proposal by its UUID primary key.
	// Returns domain.ErrNotFound if no proposal with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Proposal, error)

	// ListPending returns proposals with status=new ordered by creation time
	// descending. A non-nil tripID restricts the list to that trip.
	ListPending(ctx context.Context, tripID *uuid.UUID) ([]domain.Proposal, error)

	// ClaimTransition atomically moves a proposal from new to the given
	// terminal status. It reports true only when this call performed the
	// transition; false means the proposal was already terminal, which the
	// caller treats as an idempotent no-op. Returns domain.ErrNotFound if
	// the id does not exist.
	ClaimTransition(ctx context.Context, id uuid.UUID, to domain.Status) (bool, error)

	// SetStatus moves a proposal to the given status. No-ops successfully
	// when the proposal already has that status or is otherwise terminal.
	// Returns domain.ErrNotFound if the id does not exist.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
}

type pgProposalRepo struct {
	db DB
}

// NewProposalRepo constructs a ProposalRepo backed by the provided db.
// In production pass *pgxpool.Pool; inside an apply call pass the pgx.Tx.
func NewProposalRepo(db DB) ProposalRepo {
	return &pgProposalRepo{db: db}
}

const proposalColumns = `id, trip_id, kind, summary, payload, status, created_at, updated_at`

// CreateBatch inserts each draft independently; one bad row never blocks the
// rest of the batch.
func (r *pgProposalRepo) CreateBatch(ctx context.Context, drafts []domain.ProposalDraft) ([]domain.Proposal, error) {
	const q = `
		INSERT INTO ai_proposals (trip_id, kind, summary, payload, status)
		VALUES (@trip_id, @kind, @summary, @payload, 'new')
		RETURNING ` + proposalColumns

	var stored []domain.Proposal
	var errs []error
	for i, d := range drafts {
		payload := d.Payload
		if len(payload) == 0 {
			payload = []byte(`{}`)
		}
		args := pgx.NamedArgs{
			"trip_id": d.TripID, // nil becomes NULL
			"kind":    string(d.Kind),
			"summary": d.Summary,
			"payload": []byte(payload),
		}

		row := r.db.QueryRow(ctx, q, args)
		p, err := scanProposal(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("repo.ProposalRepo.CreateBatch: draft %d: %w", i, err))
			continue
		}
		stored = append(stored, p)
	}

	return stored, errors.Join(errs...)
}

// GetByID retrieves a proposal by primary key.
func (r *pgProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Proposal, error) {
	const q = `SELECT ` + proposalColumns + ` FROM ai_proposals WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	p, err := scanProposal(row)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("repo.ProposalRepo.GetByID: %w", err)
	}
	return p, nil
}

// ListPending returns status=new proposals, most recent first.
func (r *pgProposalRepo) ListPending(ctx context.Context, tripID *uuid.UUID) ([]domain.Proposal, error) {
	q := `SELECT ` + proposalColumns + ` FROM ai_proposals WHERE status = 'new'`
	args := pgx.NamedArgs{}
	if tripID != nil {
		q += ` AND trip_id = @trip_id`
		args["trip_id"] = *tripID
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ProposalRepo.ListPending: %w", err)
	}
	defer rows.Close()

	var proposals []domain.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ProposalRepo.ListPending: scan: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ProposalRepo.ListPending: rows: %w", err)
	}

	return proposals, nil
}

// ClaimTransition is the race-safety primitive for apply/reject: the
// conditional WHERE status = 'new' makes concurrent claims on the same
// proposal resolve to exactly one winner.
func (r *pgProposalRepo) ClaimTransition(ctx context.Context, id uuid.UUID, to domain.Status) (bool, error) {
	const q = `
		UPDATE ai_proposals
		SET status = @status, updated_at = now()
		WHERE id = @id AND status = 'new'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": string(to)})
	if err != nil {
		return false, fmt.Errorf("repo.ProposalRepo.ClaimTransition: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Nothing claimed: either the id is unknown or the proposal is already
	// terminal. Distinguish the two for the caller.
	if _, err := r.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("repo.ProposalRepo.ClaimTransition: %w", domain.ErrNotFound)
		}
		return false, fmt.Errorf("repo.ProposalRepo.ClaimTransition: %w", err)
	}
	return false, nil
}

// SetStatus is ClaimTransition with no interest in who won.
func (r *pgProposalRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	if _, err := r.ClaimTransition(ctx, id, status); err != nil {
		return fmt.Errorf("repo.ProposalRepo.SetStatus: %w", err)
	}
	return nil
}

// scanProposal maps a single database row into a domain.Proposal.
func scanProposal(s scanner) (domain.Proposal, error) {
	var (
		p      domain.Proposal
		id     pgtype.UUID
		tripID pgtype.UUID
		kind   string
		status string
	)

	err := s.Scan(&id, &tripID, &kind, &p.Summary, &p.Payload, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Proposal{}, domain.ErrNotFound
		}
		return domain.Proposal{}, err
	}

	p.ID = uuid.UUID(id.Bytes)
	if tripID.Valid {
		t := uuid.UUID(tripID.Bytes)
		p.TripID = &t
	}
	p.Kind = domain.Kind(kind)
	p.Status = domain.Status(status)

	return p, nil
}
