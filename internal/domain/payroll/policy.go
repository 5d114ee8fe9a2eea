package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/rates"
)

// GenerationPolicy holds the knobs the pricing engine runs under. Proration
// allocates hours proportionally to sub-interval duration, which assumes
// uniform work intensity across a span; UniformIntensity names that choice
// rather than hard-coding it.
type GenerationPolicy struct {
	OvertimeThreshold decimal.Decimal
	WeekStart         time.Weekday
	HoursPerDay       decimal.Decimal
	WorkDaysPerMonth  decimal.Decimal
	UniformIntensity  bool
}

func DefaultPolicy() GenerationPolicy {
	return GenerationPolicy{
		OvertimeThreshold: decimal.NewFromInt(40),
		WeekStart:         time.Monday,
		HoursPerDay:       decimal.NewFromInt(8),
		WorkDaysPerMonth:  decimal.NewFromInt(22),
		UniformIntensity:  true,
	}
}

// HourlyRate converts any rate kind to an hourly-equivalent amount in minor
// units. Per-unit rates are priced per tracked hour.
func (p GenerationPolicy) HourlyRate(rate rates.PayRate) decimal.Decimal {
	amount := decimal.NewFromInt(rate.AmountMinor)
	switch rate.Kind {
	case rates.KindDaily:
		return amount.Div(p.HoursPerDay)
	case rates.KindMonthly:
		return amount.Div(p.WorkDaysPerMonth.Mul(p.HoursPerDay))
	default:
		return amount
	}
}

// WindowStart returns the first date of the overtime window containing t.
// Windows are calendar weeks anchored on WeekStart, independent of payroll
// period boundaries.
func (p GenerationPolicy) WindowStart(t time.Time) time.Time {
	day := rates.DateOf(t)
	back := (int(day.Weekday()) - int(p.WeekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}
