package rates

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayRate is one worker's compensation terms for a contiguous date range.
// Amounts are minor currency units. Rates are never edited in place once a
// payroll period has been generated against them: close and create a successor.
type PayRate struct {
	ID                 string          `json:"id"`
	WorkerID           string          `json:"workerId"`
	Kind               string          `json:"kind"`
	AmountMinor        int64           `json:"amountMinor"`
	Currency           string          `json:"currency"`
	OvertimeMultiplier decimal.Decimal `json:"overtimeMultiplier"`
	EffectiveFrom      time.Time       `json:"effectiveFrom"`
	EffectiveTo        *time.Time      `json:"effectiveTo,omitempty"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// HistoryRecord is one immutable entry in the rate change log.
type HistoryRecord struct {
	ID             string    `json:"id"`
	RateID         string    `json:"rateId"`
	WorkerID       string    `json:"workerId"`
	Action         string    `json:"action"`
	PreviousAmount *int64    `json:"previousAmountMinor,omitempty"`
	NewAmount      *int64    `json:"newAmountMinor,omitempty"`
	ActorID        string    `json:"actorId,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	KindHourly  = "hourly"
	KindDaily   = "daily"
	KindMonthly = "monthly"
	KindPerUnit = "per_unit"

	HistoryCreated = "created"
	HistoryClosed  = "closed"
	HistoryAmended = "amended"
)

func ValidKind(kind string) bool {
	switch kind {
	case KindHourly, KindDaily, KindMonthly, KindPerUnit:
		return true
	}
	return false
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ContainsDate reports whether the rate is effective on the given date.
// Effective ranges are inclusive on both ends; a nil EffectiveTo is open-ended.
func (r PayRate) ContainsDate(on time.Time) bool {
	day := DateOf(on)
	if day.Before(DateOf(r.EffectiveFrom)) {
		return false
	}
	if r.EffectiveTo == nil {
		return true
	}
	return !day.After(DateOf(*r.EffectiveTo))
}
