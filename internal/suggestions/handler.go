package suggestions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/handlers"
	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/routes"
)

// Handler provides HTTP endpoints for suggestion operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "suggestions"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for suggestion endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/suggestions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/document/{id}", Handler: h.ForDocument},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{id}/apply", Handler: h.Apply},
			{Method: "POST", Pattern: "/{id}/ignore", Handler: h.Ignore},
			{Method: "POST", Pattern: "/document/{id}/apply-all", Handler: h.ApplyAll},
			{Method: "POST", Pattern: "/document/{id}/ignore-all", Handler: h.IgnoreAll},
		},
	}
}

// List returns a paginated list of suggestions with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching suggestions.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single suggestion by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	s, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// ForDocument returns all suggestions for a document, newest first.
func (h *Handler) ForDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	items, err := h.sys.ForDocument(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Apply commits a suggestion's value to its document.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.sys.Apply)
}

// Ignore marks a suggestion ignored.
func (h *Handler) Ignore(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.sys.Ignore)
}

func (h *Handler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Suggestion, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd ResolveCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	s, err := fn(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// ApplyAll applies every pending suggestion on a document.
func (h *Handler) ApplyAll(w http.ResponseWriter, r *http.Request) {
	h.resolveAll(w, r, h.sys.ApplyAll)
}

// IgnoreAll ignores every pending suggestion on a document.
func (h *Handler) IgnoreAll(w http.ResponseWriter, r *http.Request) {
	h.resolveAll(w, r, h.sys.IgnoreAll)
}

func (h *Handler) resolveAll(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, documentID uuid.UUID, cmd ResolveCommand) (*BatchResult, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd ResolveCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := fn(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
