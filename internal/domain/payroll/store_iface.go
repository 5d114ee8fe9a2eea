package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreatePeriod(ctx context.Context, kind string, startDate, endDate time.Time) (string, error)
	GetPeriod(ctx context.Context, periodID string) (Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]Period, error)
	PeriodStatus(ctx context.Context, periodID string) (string, error)
	CASStatus(ctx context.Context, periodID, from, to string) (bool, error)
	DeletePeriod(ctx context.Context, periodID string) error
	ApprovePeriod(ctx context.Context, periodID, approverID string) error
	MarkPaid(ctx context.Context, periodID string) error
	VoidPeriod(ctx context.Context, periodID string) error
	GenerationSnapshot(ctx context.Context, period Period) (Snapshot, error)
	ReplaceEntries(ctx context.Context, periodID string, entries []Entry, totalMinor int64) error
	GetEntry(ctx context.Context, entryID string) (Entry, error)
	ListEntries(ctx context.Context, periodID string) ([]Entry, error)
	ListAdjustments(ctx context.Context, entryID string) ([]Adjustment, error)
	AppendAdjustment(ctx context.Context, entryID, kind string, amountMinor int64, actorID, description string) (Adjustment, error)
}

var _ StoreAPI = (*Store)(nil)
