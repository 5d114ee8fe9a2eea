package payroll

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/rates"
	"timepay/internal/domain/timetrack"
)

func decimalInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func weekPeriod() Period {
	return Period{
		ID:        "p1",
		Kind:      PeriodKindWeekly,
		StartDate: day(2025, 3, 3),
		EndDate:   day(2025, 3, 9),
		Status:    PeriodStatusDraft,
	}
}

func TestBuildEntryReconciles(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2000)}

	// 46 worked hours in the week: 6h of overtime at 1.5x.
	var spans []timetrack.Span
	for i := 0; i < 5; i++ {
		spans = append(spans, testSpan(
			time.Date(2025, 3, 3+i, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 3+i, 17, 0, 0, 0, time.UTC),
		))
	}
	spans = append(spans, testSpan(
		time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC),
	))

	adjustments := []Adjustment{
		{Kind: AdjustmentBonus, AmountMinor: 5000},
		{Kind: AdjustmentDeduction, AmountMinor: -1500},
	}

	entry, gaps, err := BuildEntry(weekPeriod(), "w1", spans, workerRates, adjustments, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, gaps)

	assert.Equal(t, "p1", entry.PeriodID)
	assert.Equal(t, "w1", entry.WorkerID)
	assert.True(t, entry.RegularHours.Equal(decimalInt(40)), "regular hours = %s", entry.RegularHours)
	assert.True(t, entry.OvertimeHours.Equal(decimalInt(6)), "overtime hours = %s", entry.OvertimeHours)
	assert.Equal(t, int64(98000), entry.GrossMinor)
	assert.Equal(t, int64(3500), entry.AdjustmentsMinor)
	assert.Equal(t, int64(101500), entry.NetMinor)
	assert.Equal(t, entry.GrossMinor+entry.AdjustmentsMinor, entry.NetMinor)
	assert.Equal(t, int64(2000), entry.RegularRateMinor)
	assert.Equal(t, int64(3000), entry.OvertimeRateMinor)
	assert.Equal(t, EntryStatusPending, entry.Status)
}

func TestBuildEntryMidnightRateChangePricesPerSlice(t *testing.T) {
	endOld := day(2025, 3, 3)
	workerRates := []rates.PayRate{
		testRate("r1", day(2025, 1, 1), &endOld, 2000),
		testRate("r2", day(2025, 3, 4), nil, 2200),
	}
	// One 8h span straddling the rate change: 4h at $20, 4h at $22.
	spans := []timetrack.Span{testSpan(
		time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 4, 0, 0, 0, time.UTC),
	)}

	entry, gaps, err := BuildEntry(weekPeriod(), "w1", spans, workerRates, nil, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, gaps)
	assert.Equal(t, int64(16800), entry.GrossMinor)
	assert.True(t, entry.RegularHours.Equal(decimalInt(8)))
	assert.True(t, entry.OvertimeHours.IsZero())
}

func TestBuildEntrySpanStraddlingWeekBoundary(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2000)}

	// 40h Monday through Friday, then a night shift from Sunday 22:00 into the
	// next Monday 06:00. Only the two Sunday hours count against the first
	// week's threshold; the six Monday hours open the next window and stay
	// regular.
	var spans []timetrack.Span
	for i := 0; i < 5; i++ {
		spans = append(spans, testSpan(
			time.Date(2025, 3, 3+i, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 3+i, 17, 0, 0, 0, time.UTC),
		))
	}
	spans = append(spans, testSpan(
		time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
	))

	entry, gaps, err := BuildEntry(weekPeriod(), "w1", spans, workerRates, nil, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, gaps)
	assert.True(t, entry.RegularHours.Equal(decimalInt(46)), "regular hours = %s", entry.RegularHours)
	assert.True(t, entry.OvertimeHours.Equal(decimalInt(2)), "overtime hours = %s", entry.OvertimeHours)
	assert.Equal(t, int64(46*2000+2*3000), entry.GrossMinor)
}

func TestBuildEntryCollectsAllGaps(t *testing.T) {
	// Rate coverage starts mid-week; both earlier days must be reported.
	workerRates := []rates.PayRate{testRate("r1", day(2025, 3, 5), nil, 2000)}
	spans := []timetrack.Span{
		testSpan(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC)),
		testSpan(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 4, 17, 0, 0, 0, time.UTC)),
		testSpan(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC)),
	}

	_, gaps, err := BuildEntry(weekPeriod(), "w1", spans, workerRates, nil, DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	SortGaps(gaps)
	assert.True(t, gaps[0].Date.Equal(day(2025, 3, 3)))
	assert.True(t, gaps[1].Date.Equal(day(2025, 3, 4)))
}

func TestBuildEntryExcludesRunningSpans(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2000)}
	spans := []timetrack.Span{
		testSpan(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC)),
		{ID: "running", WorkerID: "w1", StartedAt: time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)},
	}

	entry, gaps, err := BuildEntry(weekPeriod(), "w1", spans, workerRates, nil, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, gaps)
	assert.True(t, entry.RegularHours.Equal(decimalInt(8)), "running span must not count, hours = %s", entry.RegularHours)
	assert.Equal(t, int64(16000), entry.GrossMinor)
}

func TestBuildEntryNoSpans(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2000)}

	entry, gaps, err := BuildEntry(weekPeriod(), "w1", nil, workerRates, []Adjustment{{Kind: AdjustmentBonus, AmountMinor: 5000}}, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, gaps)
	assert.Equal(t, int64(0), entry.GrossMinor)
	assert.Equal(t, int64(5000), entry.NetMinor)
}

func TestBuildEntryDisplayRateFollowsLatestSlice(t *testing.T) {
	endOld := day(2025, 3, 5)
	workerRates := []rates.PayRate{
		testRate("r1", day(2025, 1, 1), &endOld, 2000),
		testRate("r2", day(2025, 3, 6), nil, 2400),
	}
	spans := []timetrack.Span{
		testSpan(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC)),
		testSpan(time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 6, 17, 0, 0, 0, time.UTC)),
	}

	entry, gaps, err := BuildEntry(weekPeriod(), "w1", spans, workerRates, nil, DefaultPolicy())
	require.NoError(t, err)
	require.Empty(t, gaps)
	assert.Equal(t, int64(2400), entry.RegularRateMinor)
	assert.Equal(t, int64(3600), entry.OvertimeRateMinor)
	// Amounts are still priced per slice, not at the display rate.
	assert.Equal(t, int64(8*2000+8*2400), entry.GrossMinor)
}
