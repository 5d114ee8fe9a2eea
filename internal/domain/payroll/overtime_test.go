package payroll

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/rates"
)

func slice(rate rates.PayRate, start time.Time, hours int64) PricedSlice {
	return PricedSlice{
		Rate:    rate,
		StartAt: start,
		EndAt:   start.Add(time.Duration(hours) * time.Hour),
		Hours:   decimal.NewFromInt(hours),
	}
}

func TestApplyOvertimeUnderThreshold(t *testing.T) {
	rate := testRate("r1", day(2025, 1, 1), nil, 2200)
	slices := []PricedSlice{slice(rate, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), 8)}

	totals, err := ApplyOvertime(slices, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, totals.RegularHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, totals.OvertimeHours.IsZero())
	assert.Equal(t, int64(17600), totals.RegularMinor)
	assert.Equal(t, int64(0), totals.OvertimeMinor)
}

func TestApplyOvertimeWeeklyThreshold(t *testing.T) {
	rate := testRate("r1", day(2025, 1, 1), nil, 2000)
	// Monday through Friday at 8h, Saturday at 6h: 46h in one week.
	var slices []PricedSlice
	for i := 0; i < 5; i++ {
		slices = append(slices, slice(rate, time.Date(2025, 3, 3+i, 9, 0, 0, 0, time.UTC), 8))
	}
	slices = append(slices, slice(rate, time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC), 6))

	totals, err := ApplyOvertime(slices, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, totals.RegularHours.Equal(decimal.NewFromInt(40)), "regular hours = %s", totals.RegularHours)
	assert.True(t, totals.OvertimeHours.Equal(decimal.NewFromInt(6)), "overtime hours = %s", totals.OvertimeHours)
	assert.Equal(t, int64(80000), totals.RegularMinor)
	assert.Equal(t, int64(18000), totals.OvertimeMinor)
	assert.Equal(t, int64(98000), totals.RegularMinor+totals.OvertimeMinor)
}

func TestApplyOvertimeSliceStraddlingThreshold(t *testing.T) {
	rate := testRate("r1", day(2025, 1, 1), nil, 2000)
	slices := []PricedSlice{
		slice(rate, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 36),
		slice(rate, time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC), 10),
	}

	totals, err := ApplyOvertime(slices, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, totals.RegularHours.Equal(decimal.NewFromInt(40)))
	assert.True(t, totals.OvertimeHours.Equal(decimal.NewFromInt(6)))
}

func TestApplyOvertimeSeparateWindows(t *testing.T) {
	rate := testRate("r1", day(2025, 1, 1), nil, 2000)
	// 30h in one week and 30h in the next never cross the threshold, even
	// though the 60h total would.
	slices := []PricedSlice{
		slice(rate, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 30),
		slice(rate, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 30),
	}

	totals, err := ApplyOvertime(slices, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, totals.RegularHours.Equal(decimal.NewFromInt(60)))
	assert.True(t, totals.OvertimeHours.IsZero())
}

func TestApplyOvertimeMidWindowRateChange(t *testing.T) {
	endOld := day(2025, 3, 6)
	oldRate := testRate("r1", day(2025, 1, 1), &endOld, 2000)
	newRate := testRate("r2", day(2025, 3, 7), nil, 2400)

	// 38h priced at the old rate Monday-Thursday, then 6h on Friday at the
	// new rate. The 4 excess hours fall on Friday, so they are priced at the
	// new rate's overtime amount.
	var slices []PricedSlice
	for i := 0; i < 4; i++ {
		start := time.Date(2025, 3, 3+i, 8, 0, 0, 0, time.UTC)
		slices = append(slices, PricedSlice{
			Rate:    oldRate,
			StartAt: start,
			EndAt:   start.Add(9*time.Hour + 30*time.Minute),
			Hours:   decimal.NewFromFloat(9.5),
		})
	}
	slices = append(slices, slice(newRate, time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC), 6))

	totals, err := ApplyOvertime(slices, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, totals.RegularHours.Equal(decimal.NewFromInt(40)))
	assert.True(t, totals.OvertimeHours.Equal(decimal.NewFromInt(4)))
	// 38h x $20 + 2h x $24 regular, 4h x $36 overtime.
	assert.Equal(t, int64(80800), totals.RegularMinor)
	assert.Equal(t, int64(14400), totals.OvertimeMinor)
}

func TestToMinorRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"2.5", 2},
		{"3.5", 4},
		{"-2.5", -2},
		{"2.4999", 2},
		{"2.5001", 3},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.in)
		require.NoError(t, err)
		got, err := toMinor(amount)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "toMinor(%s)", tc.in)
	}
}

func TestToMinorOverflow(t *testing.T) {
	huge := decimal.NewFromInt(math.MaxInt64).Mul(decimal.NewFromInt(10))
	_, err := toMinor(huge)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestAddMinorOverflow(t *testing.T) {
	_, err := addMinor(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrAmountOverflow)
	_, err = addMinor(math.MinInt64, -1)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	sum, err := addMinor(40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sum)
}
