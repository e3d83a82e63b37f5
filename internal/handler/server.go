// Package handler implements the HTTP handlers for the trip manager AI API.
// All handlers are methods on Server. Methods are split into concern-specific
// files (ingest.go, proposal.go, health.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/service"
)

// IngestServicer defines the pipeline operations the ingest handlers depend
// on. Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the extraction engine or the database.
type IngestServicer interface {
	Ingest(ctx context.Context, in service.IngestInput) (service.IngestResult, error)
	ListPending(ctx context.Context, tripID *uuid.UUID) ([]domain.Proposal, error)
	GetProposal(ctx context.Context, id uuid.UUID) (domain.Proposal, error)
}

// ApplyServicer defines the proposal review operations the handlers depend on.
type ApplyServicer interface {
	Apply(ctx context.Context, id uuid.UUID) (domain.AppliedRecord, error)
	Reject(ctx context.Context, id uuid.UUID) error
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	pipeline IngestServicer
	applier  ApplyServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(pipeline IngestServicer, applier ApplyServicer) *Server {
	return &Server{pipeline: pipeline, applier: applier}
}

// Routes returns the chi router for the AI proposal API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.Health)

	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/ingest", s.IngestHandler)
		r.Route("/proposals", func(r chi.Router) {
			r.Get("/", s.ListProposals)
			r.Get("/{id}", s.GetProposal)
			r.Post("/{id}/apply", s.ApplyProposal)
			r.Post("/{id}/reject", s.RejectProposal)
		})
	})

	return r
}
