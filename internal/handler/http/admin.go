package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storeops/typesearch/internal/domain"
	"github.com/storeops/typesearch/internal/service"
	apperrors "github.com/storeops/typesearch/pkg/errors"
	"github.com/storeops/typesearch/pkg/httputil"
	"github.com/storeops/typesearch/pkg/pagination"
)

// AdminHandler serves the collection management surface used by the admin
// CLI and operators.
type AdminHandler struct {
	svc    *service.SearchService
	logger *slog.Logger
}

// NewAdminHandler creates the handler.
func NewAdminHandler(svc *service.SearchService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// Status handles GET /api/v1/admin/collections.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.CollectionStatus(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: statuses})
}

// Create handles POST /api/v1/admin/collections/{type}. Creating a
// collection that already exists succeeds.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.collectionType(w, r)
	if !ok {
		return
	}

	if err := h.svc.EnsureCollection(r.Context(), t); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]string{
		"collection": t.String(),
		"status":     "created",
	}})
}

// Delete handles DELETE /api/v1/admin/collections/{type}. Deleting a
// missing collection succeeds.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.collectionType(w, r)
	if !ok {
		return
	}

	if err := h.svc.DropCollection(r.Context(), t); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"collection": t.String(),
		"status":     "deleted",
	}})
}

// Sync handles POST /api/v1/admin/collections/{type}/sync.
func (h *AdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	t, ok := h.collectionType(w, r)
	if !ok {
		return
	}

	report, err := h.svc.SyncCollection(r.Context(), t)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// Queries handles GET /api/v1/admin/analytics/queries. It pages the
// aggregated search log, most frequent terms first; zero_only=true restricts
// the view to searches that found nothing.
func (h *AdminHandler) Queries(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	zeroOnly := r.URL.Query().Get("zero_only") == "true"

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			httputil.WriteError(w, r, apperrors.InvalidInput("days must be a positive integer"), h.logger)
			return
		}
		days = v
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	offset := (params.Page - 1) * params.PerPage
	queries, total, err := h.svc.QueryStats(r.Context(), since, zeroOnly, params.PerPage, offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(queries, total, params.Page, params.PerPage),
	})
}

func (h *AdminHandler) collectionType(w http.ResponseWriter, r *http.Request) (domain.CollectionType, bool) {
	t, err := domain.ParseCollectionType(chi.URLParam(r, "type"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return 0, false
	}
	return t, true
}
