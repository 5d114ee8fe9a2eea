package payroll

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPeriodNotFound        = errors.New("payroll period not found")
	ErrEntryNotFound         = errors.New("payroll entry not found")
	ErrInvalidDateRange      = errors.New("period start date must not be after end date")
	ErrInvalidPeriodKind     = errors.New("unknown payroll period kind")
	ErrPeriodOverlap         = errors.New("period overlaps an existing period of the same kind")
	ErrNoEligibleWorkers     = errors.New("no workers with completed time spans in period")
	ErrGenerationInProgress  = errors.New("another generation already holds the period lock")
	ErrPeriodImmutable       = errors.New("period is no longer mutable")
	ErrNoEntries             = errors.New("period has no entries to approve")
	ErrInvalidAdjustmentKind = errors.New("unknown adjustment kind")
	ErrZeroAdjustment        = errors.New("adjustment amount must not be zero")
	ErrAmountOverflow        = errors.New("amount exceeds representable minor units")
)

// StateConflictError names the current and attempted states so a losing
// concurrent caller sees exactly why the transition was refused.
type StateConflictError struct {
	Current   string
	Attempted string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot transition period from %s to %s", e.Current, e.Attempted)
}

// RateGap identifies one worker/date combination with worked time but no
// resolvable pay rate.
type RateGap struct {
	WorkerID string    `json:"workerId"`
	Date     time.Time `json:"date"`
}

// GenerationError aborts a whole generation run and carries every rate gap
// found across all workers, so all problems can be fixed in one pass.
type GenerationError struct {
	Gaps []RateGap
}

func (e *GenerationError) Error() string {
	parts := make([]string, 0, len(e.Gaps))
	for _, gap := range e.Gaps {
		parts = append(parts, fmt.Sprintf("%s@%s", gap.WorkerID, gap.Date.Format("2006-01-02")))
	}
	return "no pay rate resolves for: " + strings.Join(parts, ", ")
}
