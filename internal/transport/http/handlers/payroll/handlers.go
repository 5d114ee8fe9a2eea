package payrollhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timepay/internal/domain/audit"
	"timepay/internal/domain/payroll"
	"timepay/internal/transport/http/api"
	"timepay/internal/transport/http/middleware"
	"timepay/internal/transport/http/shared"
)

type Handler struct {
	Payroll *payroll.Service
	Audit   *audit.Service
}

func NewHandler(service *payroll.Service, auditor *audit.Service) *Handler {
	return &Handler{Payroll: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.Get("/", h.handleListPeriods)
		r.Post("/", h.handleCreatePeriod)
		r.Get("/{periodID}", h.handleGetPeriod)
		r.Delete("/{periodID}", h.handleDeletePeriod)
		r.Post("/{periodID}/generate", h.handleGenerate)
		r.Post("/{periodID}/approve", h.handleApprove)
		r.Post("/{periodID}/void", h.handleVoid)
		r.Post("/{periodID}/pay", h.handleMarkPaid)
		r.Get("/{periodID}/summary", h.handleSummary)
		r.Get("/{periodID}/entries", h.handleListEntries)
	})
	r.Route("/entries/{entryID}/adjustments", func(r chi.Router) {
		r.Get("/", h.handleListAdjustments)
		r.Post("/", h.handleAppendAdjustment)
	})
}

type periodPayload struct {
	Kind      string `json:"kind"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	startDate, err := shared.ParseDate(payload.StartDate)
	if err != nil || startDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "startDate must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	endDate, err := shared.ParseDate(payload.EndDate)
	if err != nil || endDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "endDate must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}

	period, err := h.Payroll.CreatePeriod(r.Context(), payroll.CreatePeriodInput{
		Kind:      payload.Kind,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		h.failPayroll(w, r, err, "period_create_failed", "failed to create period")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.period.create", "payroll_period", period.ID, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit payroll.period.create failed: %v", err)
	}
	api.Created(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	periods, err := h.Payroll.ListPeriods(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_list_failed", "failed to list periods", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	period, err := h.Payroll.GetPeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.failPayroll(w, r, err, "period_get_failed", "failed to load period")
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePeriod(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	periodID := chi.URLParam(r, "periodID")
	if err := h.Payroll.DeletePeriod(r.Context(), periodID); err != nil {
		h.failPayroll(w, r, err, "period_delete_failed", "failed to delete period")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.period.delete", "payroll_period", periodID, middleware.GetRequestID(r.Context()), nil); err != nil {
		log.Printf("audit payroll.period.delete failed: %v", err)
	}
	api.Success(w, map[string]string{"id": periodID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	periodID := chi.URLParam(r, "periodID")
	result, err := h.Payroll.Generate(r.Context(), periodID)
	if err != nil {
		h.failPayroll(w, r, err, "generation_failed", "payroll generation failed")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.period.generate", "payroll_period", periodID, middleware.GetRequestID(r.Context()), result); err != nil {
		log.Printf("audit payroll.period.generate failed: %v", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	periodID := chi.URLParam(r, "periodID")
	period, err := h.Payroll.Approve(r.Context(), periodID, operator.OperatorID)
	if err != nil {
		h.failPayroll(w, r, err, "period_approve_failed", "failed to approve period")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.period.approve", "payroll_period", periodID, middleware.GetRequestID(r.Context()), nil); err != nil {
		log.Printf("audit payroll.period.approve failed: %v", err)
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	periodID := chi.URLParam(r, "periodID")
	period, err := h.Payroll.Void(r.Context(), periodID)
	if err != nil {
		h.failPayroll(w, r, err, "period_void_failed", "failed to void period")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.period.void", "payroll_period", periodID, middleware.GetRequestID(r.Context()), nil); err != nil {
		log.Printf("audit payroll.period.void failed: %v", err)
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	periodID := chi.URLParam(r, "periodID")
	period, err := h.Payroll.MarkPaid(r.Context(), periodID)
	if err != nil {
		h.failPayroll(w, r, err, "period_pay_failed", "failed to mark period paid")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.period.pay", "payroll_period", periodID, middleware.GetRequestID(r.Context()), nil); err != nil {
		log.Printf("audit payroll.period.pay failed: %v", err)
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	summary, err := h.Payroll.Summary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.failPayroll(w, r, err, "period_summary_failed", "failed to load period summary")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if _, err := h.Payroll.GetPeriod(r.Context(), chi.URLParam(r, "periodID")); err != nil {
		h.failPayroll(w, r, err, "entry_list_failed", "failed to list entries")
		return
	}
	entries, err := h.Payroll.ListEntries(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "entry_list_failed", "failed to list entries", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

type adjustmentPayload struct {
	Kind        string `json:"kind"`
	AmountMinor int64  `json:"amountMinor"`
	Description string `json:"description"`
}

func (h *Handler) handleAppendAdjustment(w http.ResponseWriter, r *http.Request) {
	operator, ok := middleware.GetOperator(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload adjustmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	entryID := chi.URLParam(r, "entryID")
	adjustment, err := h.Payroll.AppendAdjustment(r.Context(), entryID, payroll.AdjustmentInput{
		Kind:        payload.Kind,
		AmountMinor: payload.AmountMinor,
		Description: payload.Description,
	}, operator.OperatorID)
	if err != nil {
		h.failPayroll(w, r, err, "adjustment_create_failed", "failed to append adjustment")
		return
	}
	if err := h.Audit.Record(r.Context(), operator.OperatorID, "payroll.adjustment.create", "payroll_entry", entryID, middleware.GetRequestID(r.Context()), payload); err != nil {
		log.Printf("audit payroll.adjustment.create failed: %v", err)
	}
	api.Created(w, adjustment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOperator(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	adjustments, err := h.Payroll.ListAdjustments(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.failPayroll(w, r, err, "adjustment_list_failed", "failed to list adjustments")
		return
	}
	api.Success(w, adjustments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failPayroll(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())

	var conflict *payroll.StateConflictError
	var generation *payroll.GenerationError
	switch {
	case errors.Is(err, payroll.ErrPeriodNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "period not found", requestID)
	case errors.Is(err, payroll.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "entry not found", requestID)
	case errors.Is(err, payroll.ErrInvalidPeriodKind),
		errors.Is(err, payroll.ErrInvalidDateRange),
		errors.Is(err, payroll.ErrInvalidAdjustmentKind),
		errors.Is(err, payroll.ErrZeroAdjustment):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	case errors.Is(err, payroll.ErrPeriodOverlap):
		api.Fail(w, http.StatusConflict, "period_overlap", err.Error(), requestID)
	case errors.Is(err, payroll.ErrGenerationInProgress):
		api.Fail(w, http.StatusConflict, "generation_in_progress", err.Error(), requestID)
	case errors.Is(err, payroll.ErrPeriodImmutable):
		api.Fail(w, http.StatusConflict, "period_immutable", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNoEntries):
		api.Fail(w, http.StatusConflict, "no_entries", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNoEligibleWorkers):
		api.Fail(w, http.StatusUnprocessableEntity, "no_eligible_workers", err.Error(), requestID)
	case errors.Is(err, payroll.ErrAmountOverflow):
		api.Fail(w, http.StatusUnprocessableEntity, "amount_overflow", err.Error(), requestID)
	case errors.As(err, &conflict):
		api.Fail(w, http.StatusConflict, "state_conflict", conflict.Error(), requestID)
	case errors.As(err, &generation):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "rate_gaps", "one or more workers have no pay rate for worked dates",
			map[string]any{"gaps": generation.Gaps}, requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
