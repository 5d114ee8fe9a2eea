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

func testRate(id string, from time.Time, to *time.Time, amountMinor int64) rates.PayRate {
	return rates.PayRate{
		ID:                 id,
		WorkerID:           "w1",
		Kind:               rates.KindHourly,
		AmountMinor:        amountMinor,
		Currency:           "USD",
		OvertimeMultiplier: decimal.NewFromFloat(1.5),
		EffectiveFrom:      from,
		EffectiveTo:        to,
		Active:             true,
	}
}

func testSpan(start, end time.Time) timetrack.Span {
	return timetrack.Span{ID: "s1", WorkerID: "w1", StartedAt: start, EndedAt: &end}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSplitSpanSingleRate(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2200)}
	span := testSpan(
		time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC),
	)

	slices, gaps := SplitSpan(span, workerRates)
	require.Empty(t, gaps)
	require.Len(t, slices, 1)
	assert.True(t, slices[0].Hours.Equal(decimal.NewFromInt(8)), "hours = %s", slices[0].Hours)
	assert.Equal(t, "r1", slices[0].Rate.ID)
}

func TestSplitSpanMidnightRateChange(t *testing.T) {
	endFirst := day(2025, 3, 1)
	workerRates := []rates.PayRate{
		testRate("r1", day(2025, 1, 1), &endFirst, 2000),
		testRate("r2", day(2025, 3, 2), nil, 2200),
	}
	// 20:00 on the last day of the old rate through 04:00 on the first day of
	// the new one.
	span := testSpan(
		time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 2, 4, 0, 0, 0, time.UTC),
	)

	slices, gaps := SplitSpan(span, workerRates)
	require.Empty(t, gaps)
	require.Len(t, slices, 2)
	assert.Equal(t, "r1", slices[0].Rate.ID)
	assert.Equal(t, "r2", slices[1].Rate.ID)
	assert.True(t, slices[0].Hours.Equal(decimal.NewFromInt(4)), "first slice = %s", slices[0].Hours)
	assert.True(t, slices[1].Hours.Equal(decimal.NewFromInt(4)), "second slice = %s", slices[1].Hours)
}

func TestSplitSpanConservesHours(t *testing.T) {
	endFirst := day(2025, 3, 1)
	workerRates := []rates.PayRate{
		testRate("r1", day(2025, 1, 1), &endFirst, 2000),
		testRate("r2", day(2025, 3, 2), nil, 2200),
	}
	// Awkward durations: 1h33m before midnight, 1h13m after.
	span := testSpan(
		time.Date(2025, 3, 1, 22, 27, 0, 0, time.UTC),
		time.Date(2025, 3, 2, 1, 13, 0, 0, time.UTC),
	)

	slices, gaps := SplitSpan(span, workerRates)
	require.Empty(t, gaps)
	require.Len(t, slices, 2)

	sum := decimal.Zero
	for _, slice := range slices {
		sum = sum.Add(slice.Hours)
	}
	assert.True(t, sum.Equal(span.Hours()), "slice hours %s != span hours %s", sum, span.Hours())
}

func TestSplitSpanCutsAtDateBoundaries(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2000)}
	// One rate throughout, but the span crosses midnight: the hours before and
	// after belong to different dates.
	span := testSpan(
		time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
	)

	slices, gaps := SplitSpan(span, workerRates)
	require.Empty(t, gaps)
	require.Len(t, slices, 2)
	assert.True(t, slices[0].Hours.Equal(decimal.NewFromInt(2)), "first slice = %s", slices[0].Hours)
	assert.True(t, slices[1].Hours.Equal(decimal.NewFromInt(6)), "second slice = %s", slices[1].Hours)
	assert.True(t, slices[1].StartAt.Equal(day(2025, 3, 10)), "second slice starts at %s", slices[1].StartAt)
}

func TestSplitSpanReportsGapPerUncoveredDate(t *testing.T) {
	// Rate only covers from March 2nd; the span starts on the 1st.
	workerRates := []rates.PayRate{testRate("r2", day(2025, 3, 2), nil, 2200)}
	span := testSpan(
		time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 2, 4, 0, 0, 0, time.UTC),
	)

	slices, gaps := SplitSpan(span, workerRates)
	assert.Nil(t, slices)
	require.Len(t, gaps, 1)
	assert.Equal(t, "w1", gaps[0].WorkerID)
	assert.True(t, gaps[0].Date.Equal(day(2025, 3, 1)))
}

func TestSplitSpanIgnoresRunningSpan(t *testing.T) {
	workerRates := []rates.PayRate{testRate("r1", day(2025, 1, 1), nil, 2200)}
	span := timetrack.Span{ID: "s1", WorkerID: "w1", StartedAt: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}

	slices, gaps := SplitSpan(span, workerRates)
	assert.Nil(t, slices)
	assert.Nil(t, gaps)
}
