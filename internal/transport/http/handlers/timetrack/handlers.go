package timetrackhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/roster"
	"timepay/internal/domain/timetrack"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Handler struct {
	Spans   timetrack.StoreAPI
	Workers roster.StoreAPI
	Audit   *audit.Service
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Spans: timetrack.NewStore(db), Workers: roster.NewStore(db), Audit: audit.New(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/time-spans", func(r chi.Router) {
		r.Post("/", h.handleCreate)
	})
	r.Get("/workers/{workerID}/time-spans", h.handleListForWorker)
}

type spanPayload struct {
	WorkerID  string `json:"workerId"`
	ProjectID string `json:"projectId"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload spanPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	startedAt, err := shared.ParseDate(payload.StartedAt)
	if err != nil || startedAt.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "startedAt must be a valid timestamp", middleware.GetRequestID(r.Context()))
		return
	}
	var endedAt *time.Time
	if payload.EndedAt != "" {
		parsed, err := shared.ParseDate(payload.EndedAt)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "endedAt must be a valid timestamp", middleware.GetRequestID(r.Context()))
			return
		}
		endedAt = &parsed
	}

	worker, err := h.Workers.Get(r.Context(), payload.WorkerID)
	if errors.Is(err, roster.ErrWorkerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "span_create_failed", "failed to create time span", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Spans.Create(r.Context(), timetrack.Span{
		WorkerID:  worker.ID,
		ProjectID: payload.ProjectID,
		StartedAt: startedAt,
		EndedAt:   endedAt,
	})
	if errors.Is(err, timetrack.ErrInvalidSpan) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "span end must be after span start", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "span_create_failed", "failed to create time span", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "timetrack.span.create", "time_span", id, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit timetrack.span.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListForWorker(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	from, err := shared.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "from must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	to, err := shared.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "to must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}
	if to.IsZero() {
		to = time.Now().UTC().AddDate(1, 0, 0)
	}

	page := shared.ParsePagination(r, 100, 500)
	spans, err := h.Spans.ListForWorker(r.Context(), chi.URLParam(r, "workerID"), from, to, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "span_list_failed", "failed to list time spans", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, spans, middleware.GetRequestID(r.Context()))
}
