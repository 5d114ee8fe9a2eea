package payroll

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the regular/overtime split of a set of priced slices.
type Totals struct {
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	RegularMinor  int64
	OvertimeMinor int64
}

// ApplyOvertime groups priced slices into overtime windows keyed by the date
// the hours were worked, then re-prices the portion of each window above the
// threshold at rate x overtime multiplier. Slices are walked chronologically
// within a window, so when a rate change lands mid-window the overtime hours
// are priced at the rate in effect when they were worked. Window attribution
// follows the worked date, never the reporting period.
func ApplyOvertime(slices []PricedSlice, policy GenerationPolicy) (Totals, error) {
	ordered := make([]PricedSlice, len(slices))
	copy(ordered, slices)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StartAt.Before(ordered[j].StartAt) })

	worked := map[time.Time]decimal.Decimal{}
	var totals Totals
	totals.RegularHours = decimal.Zero
	totals.OvertimeHours = decimal.Zero

	for _, slice := range ordered {
		window := policy.WindowStart(slice.StartAt)
		already := worked[window]
		worked[window] = already.Add(slice.Hours)

		regular := slice.Hours
		overtime := decimal.Zero
		if remaining := policy.OvertimeThreshold.Sub(already); remaining.LessThanOrEqual(decimal.Zero) {
			regular = decimal.Zero
			overtime = slice.Hours
		} else if slice.Hours.GreaterThan(remaining) {
			regular = remaining
			overtime = slice.Hours.Sub(remaining)
		}

		hourly := policy.HourlyRate(slice.Rate)
		if regular.IsPositive() {
			amount, err := toMinor(hourly.Mul(regular))
			if err != nil {
				return Totals{}, err
			}
			totals.RegularMinor, err = addMinor(totals.RegularMinor, amount)
			if err != nil {
				return Totals{}, err
			}
			totals.RegularHours = totals.RegularHours.Add(regular)
		}
		if overtime.IsPositive() {
			amount, err := toMinor(hourly.Mul(slice.Rate.OvertimeMultiplier).Mul(overtime))
			if err != nil {
				return Totals{}, err
			}
			totals.OvertimeMinor, err = addMinor(totals.OvertimeMinor, amount)
			if err != nil {
				return Totals{}, err
			}
			totals.OvertimeHours = totals.OvertimeHours.Add(overtime)
		}
	}
	return totals, nil
}

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// toMinor rounds an amount to whole minor units with round-half-to-even.
func toMinor(amount decimal.Decimal) (int64, error) {
	rounded := amount.RoundBank(0)
	if rounded.Abs().GreaterThan(maxMinor) {
		return 0, ErrAmountOverflow
	}
	return rounded.IntPart(), nil
}

func addMinor(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}
