// Package service contains the business logic for the AI proposal pipeline.
// Services validate inputs, enforce the proposal state machine, and
// orchestrate repo calls. No SQL lives here — services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/extract"
	"github.com/isratransfer/trip-manager/backend/internal/ingest"
	"github.com/isratransfer/trip-manager/backend/internal/repo"
)

// Extractor is the slice of the extraction engine the ingest service uses.
// Defined here (in the consumer package) so tests can inject a stub without
// touching the completion provider.
type Extractor interface {
	Extract(ctx context.Context, bundle ingest.Bundle, tripHint *uuid.UUID) (extract.Result, error)
}

// IngestInput is one ingest request: free text and/or attachments, plus an
// optional trip the resulting proposals should be bound to.
type IngestInput struct {
	FreeText    string
	Attachments []ingest.RawAttachment
	TripID      *uuid.UUID
}

// IngestResult carries the assistant's reply and the proposals that were
// persisted with status=new.
type IngestResult struct {
	Reply     string
	Proposals []domain.Proposal
}

// IngestService runs the full pipeline: normalize → extract → store.
type IngestService struct {
	extractor Extractor
	proposals repo.ProposalRepo
}

// NewIngestService constructs an IngestService.
func NewIngestService(extractor Extractor, proposals repo.ProposalRepo) *IngestService {
	return &IngestService{extractor: extractor, proposals: proposals}
}

// Ingest converts unstructured input into stored proposals.
//
// Failure semantics: validation and upstream errors leave zero proposals
// behind, so the caller may retry the whole call. Individual drafts that fail
// to persist are skipped; the call only fails when nothing could be stored.
func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	bundle, err := ingest.Normalize(in.Attachments, in.FreeText)
	if err != nil {
		return IngestResult{}, fmt.Errorf("service.IngestService.Ingest: %w", err)
	}

	extracted, err := s.extractor.Extract(ctx, bundle, in.TripID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("service.IngestService.Ingest: %w", err)
	}

	if len(extracted.Drafts) == 0 {
		return IngestResult{Reply: extracted.Reply, Proposals: []domain.Proposal{}}, nil
	}

	stored, err := s.proposals.CreateBatch(ctx, extracted.Drafts)
	if err != nil {
		if len(stored) == 0 {
			return IngestResult{}, fmt.Errorf("service.IngestService.Ingest: %w", err)
		}
		// Partial success: keep what persisted, record what did not.
		slog.Warn("some proposal drafts failed to persist",
			"stored", len(stored), "drafts", len(extracted.Drafts), "error", err)
	}

	return IngestResult{Reply: extracted.Reply, Proposals: stored}, nil
}

// ListPending returns the reviewable (status=new) proposals, optionally
// scoped to one trip. Always returns a non-nil slice.
func (s *IngestService) ListPending(ctx context.Context, tripID *uuid.UUID) ([]domain.Proposal, error) {
	proposals, err := s.proposals.ListPending(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.IngestService.ListPending: %w", err)
	}
	if proposals == nil {
		return []domain.Proposal{}, nil
	}
	return proposals, nil
}

// GetProposal returns a single proposal by id.
func (s *IngestService) GetProposal(ctx context.Context, id uuid.UUID) (domain.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("service.IngestService.GetProposal: %w", err)
	}
	return p, nil
}
