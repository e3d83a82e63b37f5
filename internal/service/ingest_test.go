package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/extract"
	"github.com/isratransfer/trip-manager/backend/internal/ingest"
)

// stubExtractor is a test double for the Extractor interface. It records the
// bundle and trip hint it was called with.
type stubExtractor struct {
	result extract.Result
	err    error

	gotBundle ingest.Bundle
	gotHint   *uuid.UUID
	calls     int
}

func (s *stubExtractor) Extract(_ context.Context, bundle ingest.Bundle, tripHint *uuid.UUID) (extract.Result, error) {
	s.calls++
	s.gotBundle = bundle
	s.gotHint = tripHint
	return s.result, s.err
}

var _ Extractor = (*stubExtractor)(nil)

// storingProposalRepo echoes drafts back as stored proposals with fresh ids.
func storingProposalRepo() *mockProposalRepo {
	return &mockProposalRepo{
		createBatch: func(_ context.Context, drafts []domain.ProposalDraft) ([]domain.Proposal, error) {
			stored := make([]domain.Proposal, 0, len(drafts))
			for _, d := range drafts {
				stored = append(stored, domain.Proposal{
					ID:      uuid.New(),
					TripID:  d.TripID,
					Kind:    d.Kind,
					Summary: d.Summary,
					Payload: d.Payload,
					Status:  domain.StatusNew,
				})
			}
			return stored, nil
		},
	}
}

func TestIngest_EmptyInputRejected(t *testing.T) {
	extractor := &stubExtractor{}
	s := NewIngestService(extractor, storingProposalRepo())

	_, err := s.Ingest(context.Background(), IngestInput{FreeText: "   "})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, extractor.calls, "nothing should reach the model on empty input")
}

func TestIngest_StoresExtractedDrafts(t *testing.T) {
	tripID := uuid.New()
	extractor := &stubExtractor{
		result: extract.Result{
			Reply: "Found one flight.",
			Drafts: []domain.ProposalDraft{{
				TripID:  &tripID,
				Kind:    domain.KindFlight,
				Summary: "BA162 TLV-LHR",
				Payload: json.RawMessage(`{"flight_number":"BA162"}`),
			}},
		},
	}
	s := NewIngestService(extractor, storingProposalRepo())

	got, err := s.Ingest(context.Background(), IngestInput{
		FreeText: "Add my BA162 flight from Tel Aviv to London on Oct 12",
		TripID:   &tripID,
	})

	require.NoError(t, err)
	assert.Equal(t, "Found one flight.", got.Reply)
	require.Len(t, got.Proposals, 1)
	p := got.Proposals[0]
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, domain.KindFlight, p.Kind)
	assert.Equal(t, domain.StatusNew, p.Status)
	require.NotNil(t, p.TripID)
	assert.Equal(t, tripID, *p.TripID)

	require.NotNil(t, extractor.gotHint)
	assert.Equal(t, tripID, *extractor.gotHint, "the trip hint must be forwarded")
	assert.Contains(t, extractor.gotBundle.FreeText, "BA162")
}

func TestIngest_NoDrafts(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{Reply: "Nothing actionable here."}}
	proposals := &mockProposalRepo{
		createBatch: func(context.Context, []domain.ProposalDraft) ([]domain.Proposal, error) {
			t.Fatal("no batch should be created for zero drafts")
			return nil, nil
		},
	}
	s := NewIngestService(extractor, proposals)

	got, err := s.Ingest(context.Background(), IngestInput{FreeText: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "Nothing actionable here.", got.Reply)
	require.NotNil(t, got.Proposals, "proposals must be an empty slice, not nil")
	assert.Empty(t, got.Proposals)
}

func TestIngest_UpstreamFailureStoresNothing(t *testing.T) {
	extractor := &stubExtractor{err: fmt.Errorf("model call: %w", domain.ErrUpstream)}
	proposals := &mockProposalRepo{
		createBatch: func(context.Context, []domain.ProposalDraft) ([]domain.Proposal, error) {
			t.Fatal("nothing may be stored when extraction fails")
			return nil, nil
		},
	}
	s := NewIngestService(extractor, proposals)

	_, err := s.Ingest(context.Background(), IngestInput{FreeText: "hello"})

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestIngest_PartialBatchIsSuccess(t *testing.T) {
	extractor := &stubExtractor{
		result: extract.Result{
			Reply: "ok",
			Drafts: []domain.ProposalDraft{
				{Kind: domain.KindNote, Summary: "a"},
				{Kind: domain.KindNote, Summary: "b"},
			},
		},
	}
	proposals := &mockProposalRepo{
		createBatch: func(_ context.Context, drafts []domain.ProposalDraft) ([]domain.Proposal, error) {
			// First draft persists, second one fails.
			return []domain.Proposal{{ID: uuid.New(), Kind: drafts[0].Kind, Summary: drafts[0].Summary, Status: domain.StatusNew}},
				errors.New("draft 1: insert failed")
		},
	}
	s := NewIngestService(extractor, proposals)

	got, err := s.Ingest(context.Background(), IngestInput{FreeText: "two notes"})

	require.NoError(t, err, "a partial batch is reported as success")
	require.Len(t, got.Proposals, 1)
	assert.Equal(t, "a", got.Proposals[0].Summary)
}

func TestIngest_TotalBatchFailure(t *testing.T) {
	extractor := &stubExtractor{
		result: extract.Result{
			Reply:  "ok",
			Drafts: []domain.ProposalDraft{{Kind: domain.KindNote, Summary: "a"}},
		},
	}
	boom := errors.New("insert failed")
	proposals := &mockProposalRepo{
		createBatch: func(context.Context, []domain.ProposalDraft) ([]domain.Proposal, error) {
			return nil, boom
		},
	}
	s := NewIngestService(extractor, proposals)

	_, err := s.Ingest(context.Background(), IngestInput{FreeText: "a note"})

	assert.ErrorIs(t, err, boom)
}

func TestListPending_NeverNil(t *testing.T) {
	proposals := &mockProposalRepo{
		listPending: func(context.Context, *uuid.UUID) ([]domain.Proposal, error) {
			return nil, nil
		},
	}
	s := NewIngestService(&stubExtractor{}, proposals)

	got, err := s.ListPending(context.Background(), nil)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetProposal_NotFound(t *testing.T) {
	proposals := &mockProposalRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Proposal, error) {
			return domain.Proposal{}, domain.ErrNotFound
		},
	}
	s := NewIngestService(&stubExtractor{}, proposals)

	_, err := s.GetProposal(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
