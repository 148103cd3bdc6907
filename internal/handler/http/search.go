package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/storeops/typesearch/internal/analytics"
	"github.com/storeops/typesearch/internal/reconcile"
	"github.com/storeops/typesearch/internal/service"
	apperrors "github.com/storeops/typesearch/pkg/errors"
	"github.com/storeops/typesearch/pkg/httputil"
	"github.com/storeops/typesearch/pkg/logger"
	"github.com/storeops/typesearch/pkg/validator"
)

// SearchHandler serves the storefront-facing search endpoints.
type SearchHandler struct {
	svc    *service.SearchService
	logger *slog.Logger
}

// NewSearchHandler creates the handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, logger: logger}
}

// Search handles GET /api/v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query parameter q is required"), h.logger)
		return
	}

	req := reconcile.Request{
		Query:    q,
		Page:     intParam(r, "page", 1),
		PerPage:  intParam(r, "per_page", 0),
		FilterBy: r.URL.Query().Get("filter_by"),
		Preset:   r.URL.Query().Get("preset"),
	}

	ctx := analytics.WithSessionID(r.Context(), logger.SessionIDFromContext(r.Context()))
	listing, err := h.svc.Search(ctx, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: listing})
}

// SuggestRequest is the as-you-type request body.
type SuggestRequest struct {
	Query string `json:"query" validate:"required,max=256"`
	Type  string `json:"type" validate:"omitempty,oneof=all products categories brands"`
}

// Suggest handles POST /api/v1/search/suggest.
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.svc.Suggest(r.Context(), req.Query, req.Type)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// LogRequest is the storefront's search outcome report.
type LogRequest struct {
	Query      string `json:"query" validate:"required,max=256"`
	HasResults bool   `json:"has_results"`
}

// Log handles POST /api/v1/search/log. The write is fire-and-forget; the
// endpoint acknowledges regardless of storage outcome.
func (h *SearchHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := analytics.WithSessionID(r.Context(), logger.SessionIDFromContext(r.Context()))
	h.svc.LogSearch(ctx, req.Query, req.HasResults)

	w.WriteHeader(http.StatusAccepted)
}

// Recents handles GET /api/v1/search/recents.
func (h *SearchHandler) Recents(w http.ResponseWriter, r *http.Request) {
	sessionID := logger.SessionIDFromContext(r.Context())
	if sessionID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("X-Search-Session header is required"), h.logger)
		return
	}

	searches, err := h.svc.RecentSearches(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	viewed, err := h.svc.RecentlyViewed(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"searches": searches,
		"viewed":   viewed,
	}})
}

// RecentRequest records one submitted search or one viewed product.
type RecentRequest struct {
	Query     string `json:"query" validate:"omitempty,max=256"`
	ProductID string `json:"product_id" validate:"omitempty,max=64"`
}

// AddRecent handles POST /api/v1/search/recents.
func (h *SearchHandler) AddRecent(w http.ResponseWriter, r *http.Request) {
	sessionID := logger.SessionIDFromContext(r.Context())
	if sessionID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("X-Search-Session header is required"), h.logger)
		return
	}

	var req RecentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.Query == "" && req.ProductID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("either query or product_id is required"), h.logger)
		return
	}

	if req.Query != "" {
		if err := h.svc.AddRecentSearch(r.Context(), sessionID, req.Query); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}
	if req.ProductID != "" {
		if err := h.svc.AddRecentlyViewed(r.Context(), sessionID, req.ProductID); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
