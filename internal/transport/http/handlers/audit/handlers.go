package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timepay/internal/domain/audit"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Audit: audit.New(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/audit/{entityType}/{entityID}", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	events, err := h.Audit.List(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}
