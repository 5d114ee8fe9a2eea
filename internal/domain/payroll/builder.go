package payroll

import (
	"sort"

	"timepay/internal/domain/rates"
	"timepay/internal/domain/timetrack"
)

// BuildEntry computes one worker's entry for one period from already-fetched
// data. Pure: no I/O happens here, so a batch run can compute entries
// concurrently and persist them in a single transaction afterwards.
//
// Running spans (no end time) are excluded, never estimated. Any sub-interval
// with no resolvable rate is reported as a RateGap; the caller aborts the
// whole run when any worker has gaps.
func BuildEntry(period Period, workerID string, spans []timetrack.Span, workerRates []rates.PayRate, adjustments []Adjustment, policy GenerationPolicy) (Entry, []RateGap, error) {
	var slices []PricedSlice
	var gaps []RateGap
	for _, span := range spans {
		if !span.Completed() {
			continue
		}
		spanSlices, spanGaps := SplitSpan(span, workerRates)
		gaps = append(gaps, spanGaps...)
		slices = append(slices, spanSlices...)
	}
	if len(gaps) > 0 {
		return Entry{}, gaps, nil
	}

	totals, err := ApplyOvertime(slices, policy)
	if err != nil {
		return Entry{}, nil, err
	}
	adjustmentsTotal, err := LedgerTotal(adjustments)
	if err != nil {
		return Entry{}, nil, err
	}
	gross, err := addMinor(totals.RegularMinor, totals.OvertimeMinor)
	if err != nil {
		return Entry{}, nil, err
	}
	net, err := addMinor(gross, adjustmentsTotal)
	if err != nil {
		return Entry{}, nil, err
	}

	regularRate, overtimeRate, err := displayRates(slices, policy)
	if err != nil {
		return Entry{}, nil, err
	}

	return Entry{
		PeriodID:          period.ID,
		WorkerID:          workerID,
		RegularHours:      totals.RegularHours,
		OvertimeHours:     totals.OvertimeHours,
		RegularRateMinor:  regularRate,
		OvertimeRateMinor: overtimeRate,
		GrossMinor:        gross,
		AdjustmentsMinor:  adjustmentsTotal,
		NetMinor:          net,
		Status:            EntryStatusPending,
	}, nil, nil
}

// displayRates reports the hourly rate in effect on the latest worked slice.
// Amounts are computed per slice; these two fields are informational when a
// rate change lands inside the period.
func displayRates(slices []PricedSlice, policy GenerationPolicy) (int64, int64, error) {
	if len(slices) == 0 {
		return 0, 0, nil
	}
	latest := slices[0]
	for _, slice := range slices[1:] {
		if slice.StartAt.After(latest.StartAt) {
			latest = slice
		}
	}
	hourly := policy.HourlyRate(latest.Rate)
	regular, err := toMinor(hourly)
	if err != nil {
		return 0, 0, err
	}
	overtime, err := toMinor(hourly.Mul(latest.Rate.OvertimeMultiplier))
	if err != nil {
		return 0, 0, err
	}
	return regular, overtime, nil
}

// SortGaps orders rate gaps by worker then date for stable error reporting.
func SortGaps(gaps []RateGap) {
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].WorkerID != gaps[j].WorkerID {
			return gaps[i].WorkerID < gaps[j].WorkerID
		}
		return gaps[i].Date.Before(gaps[j].Date)
	})
}
