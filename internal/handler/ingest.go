package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/ingest"
	"github.com/isratransfer/trip-manager/backend/internal/service"
)

// multipartMemoryLimit is how much of the parsed form is held in memory
// before spilling to temp files. The total request size is bounded
// separately by the max-body-size middleware.
const multipartMemoryLimit = 32 << 20

// ingestResponse is the wire shape of a successful ingest call.
type ingestResponse struct {
	Reply     string            `json:"reply"`
	Proposals []domain.Proposal `json:"proposals"`
}

// IngestHandler handles POST /api/ai/ingest.
//
// Accepts multipart/form-data with a free-text "prompt" (alias:
// "description"), zero or more "files" attachments, and an optional
// "trip_id". At least one of prompt/files is required.
func (s *Server) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "expected multipart/form-data body")
		return
	}

	prompt := r.FormValue("prompt")
	if prompt == "" {
		prompt = r.FormValue("description")
	}

	var tripID *uuid.UUID
	if raw := r.FormValue("trip_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "trip_id is not a valid UUID")
			return
		}
		tripID = &id
	}

	attachments, err := readAttachments(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "unreadable file upload")
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), service.IngestInput{
		FreeText:    prompt,
		Attachments: attachments,
		TripID:      tripID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "provide a description or attach files")
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Reply: result.Reply, Proposals: result.Proposals})
}

// readAttachments drains every uploaded "files" part into memory.
// Attachment contents are needed whole for PDF/email parsing and base64
// image encoding, so streaming would not buy anything here.
func readAttachments(r *http.Request) ([]ingest.RawAttachment, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var attachments []ingest.RawAttachment
	for _, fh := range r.MultipartForm.File["files"] {
		data, err := readFilePart(fh)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, ingest.RawAttachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return attachments, nil
}

func readFilePart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
