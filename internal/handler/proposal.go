package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
)

// applyResponse is the wire shape of a successful apply call. Created is nil
// for idempotent repeats and for kinds with no domain write.
type applyResponse struct {
	OK      bool                  `json:"ok"`
	Created *domain.AppliedRecord `json:"created,omitempty"`
}

// ListProposals handles GET /api/ai/proposals.
// Returns status=new proposals, newest first; ?trip_id= scopes to one trip.
func (s *Server) ListProposals(w http.ResponseWriter, r *http.Request) {
	var tripID *uuid.UUID
	if raw := r.URL.Query().Get("trip_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "trip_id is not a valid UUID")
			return
		}
		tripID = &id
	}

	proposals, err := s.pipeline.ListPending(r.Context(), tripID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

// GetProposal handles GET /api/ai/proposals/{id}.
func (s *Server) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}

	p, err := s.pipeline.GetProposal(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ApplyProposal handles POST /api/ai/proposals/{id}/apply.
// Safe to retry: a repeat apply returns ok without inserting anything.
func (s *Server) ApplyProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}

	record, err := s.applier.Apply(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := applyResponse{OK: true}
	if record.RecordID != nil {
		resp.Created = &record
	}
	writeJSON(w, http.StatusOK, resp)
}

// RejectProposal handles POST /api/ai/proposals/{id}/reject.
func (s *Server) RejectProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := proposalID(w, r)
	if !ok {
		return
	}

	if err := s.applier.Reject(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{OK: true})
}

// proposalID parses the {id} path parameter, writing the error response
// itself so callers can bail with a bare return.
func proposalID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "proposal id is not a valid UUID")
		return uuid.UUID{}, false
	}
	return id, true
}
