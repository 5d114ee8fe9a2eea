package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePeriodValidation(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store, DefaultPolicy(), 4, time.Minute, nil)

	_, err := service.CreatePeriod(context.Background(), CreatePeriodInput{
		Kind:      "fortnightly",
		StartDate: day(2025, 3, 3),
		EndDate:   day(2025, 3, 9),
	})
	assert.ErrorIs(t, err, ErrInvalidPeriodKind)

	_, err = service.CreatePeriod(context.Background(), CreatePeriodInput{
		Kind:      PeriodKindWeekly,
		StartDate: day(2025, 3, 9),
		EndDate:   day(2025, 3, 3),
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	period, err := service.CreatePeriod(context.Background(), CreatePeriodInput{
		Kind:      " Weekly ",
		StartDate: day(2025, 3, 3),
		EndDate:   day(2025, 3, 9),
	})
	require.NoError(t, err)
	assert.Equal(t, PeriodKindWeekly, period.Kind)

	singleDay, err := service.CreatePeriod(context.Background(), CreatePeriodInput{
		Kind:      PeriodKindWeekly,
		StartDate: day(2025, 3, 3),
		EndDate:   day(2025, 3, 3),
	})
	require.NoError(t, err)
	assert.True(t, singleDay.StartDate.Equal(singleDay.EndDate))
}

func TestAppendAdjustmentValidation(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store, DefaultPolicy(), 4, time.Minute, nil)

	_, err := service.AppendAdjustment(context.Background(), "e1", AdjustmentInput{
		Kind:        "garnishment",
		AmountMinor: 100,
	}, "op1")
	assert.ErrorIs(t, err, ErrInvalidAdjustmentKind)

	_, err = service.AppendAdjustment(context.Background(), "e1", AdjustmentInput{
		Kind:        AdjustmentBonus,
		AmountMinor: 0,
	}, "op1")
	assert.ErrorIs(t, err, ErrZeroAdjustment)

	_, err = service.AppendAdjustment(context.Background(), "e1", AdjustmentInput{
		Kind:        AdjustmentDeduction,
		AmountMinor: -1500,
	}, "op1")
	assert.NoError(t, err)
}
