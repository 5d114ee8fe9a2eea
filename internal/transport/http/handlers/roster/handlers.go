package rosterhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/roster"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Handler struct {
	Workers roster.StoreAPI
	Audit   *audit.Service
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Workers: roster.NewStore(db), Audit: audit.New(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{workerID}", h.handleGet)
		r.Patch("/{workerID}/active", h.handleSetActive)
	})
}

type workerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload workerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if payload.Name == "" || payload.Email == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "name and email are required", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Workers.Create(r.Context(), payload.Name, payload.Email)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_create_failed", "failed to create worker", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "roster.worker.create", "worker", id, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit roster.worker.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	workers, err := h.Workers.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_list_failed", "failed to list workers", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, workers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	worker, err := h.Workers.Get(r.Context(), chi.URLParam(r, "workerID"))
	if errors.Is(err, roster.ErrWorkerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_get_failed", "failed to load worker", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, worker, middleware.GetRequestID(r.Context()))
}

type activePayload struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload activePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	workerID := chi.URLParam(r, "workerID")
	err := h.Workers.SetActive(r.Context(), workerID, payload.Active)
	if errors.Is(err, roster.ErrWorkerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_update_failed", "failed to update worker", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "roster.worker.set_active", "worker", workerID, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit roster.worker.set_active failed: %v", err)
	}
	api.Success(w, map[string]any{"id": workerID, "active": payload.Active}, middleware.GetRequestID(r.Context()))
}
