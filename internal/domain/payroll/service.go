package payroll

import (
	"context"
	"strings"
	"time"

	"timepay/internal/domain/rates"
	"timepay/internal/platform/metrics"
)

// Service owns the period lifecycle on top of the store and the pure
// calculation code.
type Service struct {
	store   StoreAPI
	policy  GenerationPolicy
	workers int
	timeout time.Duration
	metrics *metrics.Collector
}

func NewService(store StoreAPI, policy GenerationPolicy, workers int, timeout time.Duration, collector *metrics.Collector) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:   store,
		policy:  policy,
		workers: workers,
		timeout: timeout,
		metrics: collector,
	}
}

type CreatePeriodInput struct {
	Kind      string
	StartDate time.Time
	EndDate   time.Time
}

func (s *Service) CreatePeriod(ctx context.Context, in CreatePeriodInput) (Period, error) {
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if !ValidPeriodKind(kind) {
		return Period{}, ErrInvalidPeriodKind
	}
	start := rates.DateOf(in.StartDate)
	end := rates.DateOf(in.EndDate)
	if end.Before(start) {
		return Period{}, ErrInvalidDateRange
	}

	id, err := s.store.CreatePeriod(ctx, kind, start, end)
	if err != nil {
		return Period{}, err
	}
	return s.store.GetPeriod(ctx, id)
}

func (s *Service) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	return s.store.ListPeriods(ctx, limit, offset)
}

func (s *Service) DeletePeriod(ctx context.Context, periodID string) error {
	return s.store.DeletePeriod(ctx, periodID)
}

func (s *Service) Approve(ctx context.Context, periodID, approverID string) (Period, error) {
	if err := s.store.ApprovePeriod(ctx, periodID, approverID); err != nil {
		return Period{}, err
	}
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) MarkPaid(ctx context.Context, periodID string) (Period, error) {
	if err := s.store.MarkPaid(ctx, periodID); err != nil {
		return Period{}, err
	}
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) Void(ctx context.Context, periodID string) (Period, error) {
	if err := s.store.VoidPeriod(ctx, periodID); err != nil {
		return Period{}, err
	}
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) Summary(ctx context.Context, periodID string) (Summary, error) {
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return Summary{}, err
	}
	entries, err := s.store.ListEntries(ctx, periodID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Period: period, Entries: entries, TotalMinor: period.TotalMinor}, nil
}

func (s *Service) Entry(ctx context.Context, entryID string) (Entry, error) {
	return s.store.GetEntry(ctx, entryID)
}

func (s *Service) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	return s.store.ListEntries(ctx, periodID)
}

type AdjustmentInput struct {
	Kind        string
	AmountMinor int64
	Description string
}

func (s *Service) AppendAdjustment(ctx context.Context, entryID string, in AdjustmentInput, actorID string) (Adjustment, error) {
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if !ValidAdjustmentKind(kind) {
		return Adjustment{}, ErrInvalidAdjustmentKind
	}
	if in.AmountMinor == 0 {
		return Adjustment{}, ErrZeroAdjustment
	}
	return s.store.AppendAdjustment(ctx, entryID, kind, in.AmountMinor, actorID, strings.TrimSpace(in.Description))
}

func (s *Service) ListAdjustments(ctx context.Context, entryID string) ([]Adjustment, error) {
	if _, err := s.store.GetEntry(ctx, entryID); err != nil {
		return nil, err
	}
	return s.store.ListAdjustments(ctx, entryID)
}
