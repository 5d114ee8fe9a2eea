package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/rates"
	"timepay/internal/domain/timetrack"
)

// hoursPrecision bounds intermediate hour fractions; money is rounded to
// minor units separately, with round-half-to-even.
const hoursPrecision = 6

// PricedSlice is a contiguous portion of a span priced at exactly one rate.
type PricedSlice struct {
	Rate    rates.PayRate
	StartAt time.Time
	EndAt   time.Time
	Hours   decimal.Decimal
}

// SplitSpan divides a completed span at every calendar-date boundary it
// crosses and allocates the span's hours proportionally to sub-interval
// duration. Rate changes and overtime windows both land on midnights, so a
// slice never prices at more than one rate and never straddles a window.
// The final slice takes the exact remainder, so the slice hours always sum
// back to the span's hours. Returns one RateGap per sub-interval date with
// no resolvable rate instead of failing on the first.
func SplitSpan(span timetrack.Span, workerRates []rates.PayRate) ([]PricedSlice, []RateGap) {
	if !span.Completed() {
		return nil, nil
	}

	start, end := span.StartedAt.UTC(), span.EndedAt.UTC()
	points := []time.Time{start}
	for cut := rates.DateOf(start).AddDate(0, 0, 1); cut.Before(end); cut = cut.AddDate(0, 0, 1) {
		points = append(points, cut)
	}
	points = append(points, end)

	totalSeconds := decimal.NewFromInt(int64(end.Sub(start) / time.Second))
	spanHours := span.Hours()

	var slices []PricedSlice
	var gaps []RateGap
	allocated := decimal.Zero
	for i := 0; i+1 < len(points); i++ {
		sliceStart, sliceEnd := points[i], points[i+1]
		seconds := int64(sliceEnd.Sub(sliceStart) / time.Second)
		if seconds == 0 {
			continue
		}

		rate, err := rates.Resolve(workerRates, sliceStart)
		if err != nil {
			gaps = append(gaps, RateGap{WorkerID: span.WorkerID, Date: rates.DateOf(sliceStart)})
			continue
		}

		var hours decimal.Decimal
		if i+2 == len(points) {
			hours = spanHours.Sub(allocated)
		} else {
			hours = spanHours.Mul(decimal.NewFromInt(seconds)).DivRound(totalSeconds, hoursPrecision)
		}
		allocated = allocated.Add(hours)

		slices = append(slices, PricedSlice{
			Rate:    rate,
			StartAt: sliceStart,
			EndAt:   sliceEnd,
			Hours:   hours,
		})
	}

	if len(gaps) > 0 {
		return nil, gaps
	}
	return slices, nil
}
