package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/rates"
)

// Period is a named date range with a lifecycle status. Dates are inclusive.
type Period struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Status     string     `json:"status"`
	TotalMinor int64      `json:"totalMinor"`
	ApproverID string     `json:"approverId,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// StartInstant is the first covered instant; EndExclusive the first instant
// past the period, so span queries can use half-open ranges.
func (p Period) StartInstant() time.Time {
	return rates.DateOf(p.StartDate)
}

func (p Period) EndExclusive() time.Time {
	return rates.DateOf(p.EndDate).AddDate(0, 0, 1)
}

// Entry is one worker's computed result for one period, unique per
// (period, worker). net = gross + adjustments exactly, in minor units.
type Entry struct {
	ID                string          `json:"id"`
	PeriodID          string          `json:"periodId"`
	WorkerID          string          `json:"workerId"`
	RegularHours      decimal.Decimal `json:"regularHours"`
	OvertimeHours     decimal.Decimal `json:"overtimeHours"`
	RegularRateMinor  int64           `json:"regularRateMinor"`
	OvertimeRateMinor int64           `json:"overtimeRateMinor"`
	GrossMinor        int64           `json:"grossMinor"`
	AdjustmentsMinor  int64           `json:"adjustmentsMinor"`
	NetMinor          int64           `json:"netMinor"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Adjustment is one signed correction in an entry's append-only ledger.
// Never edited; a correction is a new adjustment with opposite sign.
type Adjustment struct {
	ID          string    `json:"id"`
	EntryID     string    `json:"entryId"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	AmountMinor int64     `json:"amountMinor"`
	ActorID     string    `json:"actorId,omitempty"`
	Seq         int64     `json:"seq"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Summary struct {
	Period     Period  `json:"period"`
	Entries    []Entry `json:"entries"`
	TotalMinor int64   `json:"totalMinor"`
}

type GenerationResult struct {
	PeriodID   string `json:"periodId"`
	Workers    int    `json:"workers"`
	Entries    int    `json:"entries"`
	TotalMinor int64  `json:"totalMinor"`
}
