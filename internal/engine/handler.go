package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/pkg/handlers"
	"github.com/arbiterhq/arbiter/pkg/routes"
)

// Handler provides HTTP endpoints for document processing.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// BatchRequest carries the documents and options for a batch processing run.
type BatchRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids"`
	Options
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "engine"),
	}
}

// Routes returns the route group definition for processing endpoints. They
// mount under the documents prefix alongside the document CRUD routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/process", Handler: h.ProcessBatch},
			{Method: "POST", Pattern: "/{id}/process", Handler: h.Process},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.Edit},
		},
	}
}

// Process runs one classification pass over a document.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrNotFound)
		return
	}

	// an absent body means default options
	var opts Options
	if err := handlers.DecodeJSON(r, &opts); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Process(r.Context(), id, opts)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Edit commits a manual edit of one classification field.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrNotFound)
		return
	}

	var cmd EditCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.EditField(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// ProcessBatch runs classification over a set of documents concurrently.
func (h *Handler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if len(req.DocumentIDs) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrValidation)
		return
	}

	result, err := h.sys.ProcessBatch(r.Context(), req.DocumentIDs, req.Options)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
