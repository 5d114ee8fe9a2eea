package rateshandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/rates"
	"timepay/internal/domain/roster"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Handler struct {
	Rates   rates.StoreAPI
	Workers roster.StoreAPI
	Audit   *audit.Service
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Rates: rates.NewStore(db), Workers: roster.NewStore(db), Audit: audit.New(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workers/{workerID}/rates", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/history", h.handleHistory)
	})
	r.Route("/rates/{rateID}", func(r chi.Router) {
		r.Post("/close", h.handleClose)
		r.Post("/amend", h.handleAmend)
	})
}

type ratePayload struct {
	Kind               string `json:"kind"`
	AmountMinor        int64  `json:"amountMinor"`
	Currency           string `json:"currency"`
	OvertimeMultiplier string `json:"overtimeMultiplier"`
	EffectiveFrom      string `json:"effectiveFrom"`
	EffectiveTo        string `json:"effectiveTo"`
	Reason             string `json:"reason"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload ratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	effectiveFrom, err := shared.ParseDate(payload.EffectiveFrom)
	if err != nil || effectiveFrom.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "effectiveFrom must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	input := rates.CreateInput{
		WorkerID:           chi.URLParam(r, "workerID"),
		Kind:               strings.ToLower(strings.TrimSpace(payload.Kind)),
		AmountMinor:        payload.AmountMinor,
		Currency:           strings.ToUpper(strings.TrimSpace(payload.Currency)),
		OvertimeMultiplier: decimal.NewFromFloat(1.5),
		EffectiveFrom:      effectiveFrom,
		ActorID:            operator.OperatorID,
		Reason:             strings.TrimSpace(payload.Reason),
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if payload.OvertimeMultiplier != "" {
		multiplier, err := decimal.NewFromString(payload.OvertimeMultiplier)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "overtimeMultiplier must be a decimal number", middleware.GetRequestID(r.Context()))
			return
		}
		input.OvertimeMultiplier = multiplier
	}
	if payload.EffectiveTo != "" {
		effectiveTo, err := shared.ParseDate(payload.EffectiveTo)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "effectiveTo must be a valid date", middleware.GetRequestID(r.Context()))
			return
		}
		input.EffectiveTo = &effectiveTo
	}

	id, err := h.Rates.CreateRate(r.Context(), h.Workers, input)
	if err != nil {
		h.failRate(w, r, err, "rate_create_failed", "failed to create rate")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "rates.create", "pay_rate", id, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit rates.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	workerRates, err := h.Rates.ListForWorker(r.Context(), chi.URLParam(r, "workerID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rate_list_failed", "failed to list rates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, workerRates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	history, err := h.Rates.History(r.Context(), chi.URLParam(r, "workerID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rate_history_failed", "failed to list rate history", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

type closePayload struct {
	EffectiveTo string `json:"effectiveTo"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload closePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	effectiveTo, err := shared.ParseDate(payload.EffectiveTo)
	if err != nil || effectiveTo.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "effectiveTo must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}

	rateID := chi.URLParam(r, "rateID")
	if err := h.Rates.CloseRate(r.Context(), rateID, effectiveTo, operator.OperatorID, strings.TrimSpace(payload.Reason)); err != nil {
		h.failRate(w, r, err, "rate_close_failed", "failed to close rate")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "rates.close", "pay_rate", rateID, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit rates.close failed: %v", err)
	}
	api.Success(w, map[string]string{"id": rateID}, middleware.GetRequestID(r.Context()))
}

type amendPayload struct {
	AmountMinor int64  `json:"amountMinor"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleAmend(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload amendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	rateID := chi.URLParam(r, "rateID")
	if err := h.Rates.AmendAmount(r.Context(), rateID, payload.AmountMinor, operator.OperatorID, strings.TrimSpace(payload.Reason)); err != nil {
		h.failRate(w, r, err, "rate_amend_failed", "failed to amend rate")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "rates.amend", "pay_rate", rateID, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit rates.amend failed: %v", err)
	}
	api.Success(w, map[string]string{"id": rateID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failRate(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, rates.ErrRateNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "rate not found", requestID)
	case errors.Is(err, roster.ErrWorkerNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", requestID)
	case errors.Is(err, rates.ErrRateOverlap):
		api.Fail(w, http.StatusConflict, "rate_overlap", "rate overlaps an existing rate for this worker", requestID)
	case errors.Is(err, rates.ErrRateLocked):
		api.Fail(w, http.StatusConflict, "rate_locked", "rate amount is referenced by generated payroll; create a successor rate instead", requestID)
	case errors.Is(err, rates.ErrInvalidKind):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown rate kind", requestID)
	case errors.Is(err, rates.ErrInvalidRange):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid amount, multiplier, or date range", requestID)
	case errors.Is(err, rates.ErrWorkerInactive):
		api.Fail(w, http.StatusConflict, "worker_inactive", "worker is not active", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
