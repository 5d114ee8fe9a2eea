package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timepay/internal/domain/rates"
	"timepay/internal/domain/timetrack"
)

// fakeStore keeps everything in memory and records lifecycle swaps so tests
// can assert the generation lock protocol.
type fakeStore struct {
	period   Period
	snapshot Snapshot
	snapErr  error
	casDeny  bool

	swaps     [][2]string
	replaced  []Entry
	total     int64
	persisted bool
}

func (f *fakeStore) CreatePeriod(_ context.Context, kind string, start, end time.Time) (string, error) {
	f.period = Period{ID: "p1", Kind: kind, StartDate: start, EndDate: end, Status: PeriodStatusDraft}
	return "p1", nil
}

func (f *fakeStore) GetPeriod(context.Context, string) (Period, error) { return f.period, nil }

func (f *fakeStore) ListPeriods(context.Context, int, int) ([]Period, error) {
	return []Period{f.period}, nil
}

func (f *fakeStore) PeriodStatus(context.Context, string) (string, error) {
	return f.period.Status, nil
}

func (f *fakeStore) CASStatus(_ context.Context, _ string, from, to string) (bool, error) {
	f.swaps = append(f.swaps, [2]string{from, to})
	if f.casDeny || f.period.Status != from {
		return false, nil
	}
	f.period.Status = to
	return true, nil
}

func (f *fakeStore) DeletePeriod(context.Context, string) error { return nil }

func (f *fakeStore) ApprovePeriod(context.Context, string, string) error { return nil }

func (f *fakeStore) MarkPaid(context.Context, string) error { return nil }

func (f *fakeStore) VoidPeriod(context.Context, string) error { return nil }

func (f *fakeStore) GenerationSnapshot(context.Context, Period) (Snapshot, error) {
	if f.snapErr != nil {
		return Snapshot{}, f.snapErr
	}
	return f.snapshot, nil
}

func (f *fakeStore) ReplaceEntries(_ context.Context, _ string, entries []Entry, total int64) error {
	f.replaced = entries
	f.total = total
	f.persisted = true
	f.period.Status = PeriodStatusDraft
	return nil
}

func (f *fakeStore) GetEntry(context.Context, string) (Entry, error) { return Entry{}, nil }

func (f *fakeStore) ListEntries(context.Context, string) ([]Entry, error) { return f.replaced, nil }

func (f *fakeStore) ListAdjustments(context.Context, string) ([]Adjustment, error) {
	return nil, nil
}

func (f *fakeStore) AppendAdjustment(context.Context, string, string, int64, string, string) (Adjustment, error) {
	return Adjustment{}, nil
}

func newGenerationFixture(snapshot Snapshot) (*fakeStore, *Service) {
	store := &fakeStore{
		period:   weekPeriod(),
		snapshot: snapshot,
	}
	service := NewService(store, DefaultPolicy(), 4, time.Minute, nil)
	return store, service
}

func snapshotWith(spans map[string][]timetrack.Span, workerRates map[string][]rates.PayRate, adjustments map[string][]Adjustment) Snapshot {
	snap := Snapshot{Spans: spans, Rates: workerRates, Adjustments: adjustments}
	for workerID := range spans {
		snap.Workers = append(snap.Workers, workerID)
	}
	if snap.Adjustments == nil {
		snap.Adjustments = map[string][]Adjustment{}
	}
	return snap
}

func TestGenerateComputesAndPersists(t *testing.T) {
	spans := map[string][]timetrack.Span{
		"w1": {testSpan(
			time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC),
		)},
	}
	workerRates := map[string][]rates.PayRate{
		"w1": {testRate("r1", day(2025, 1, 1), nil, 2200)},
	}
	store, service := newGenerationFixture(snapshotWith(spans, workerRates, nil))

	result, err := service.Generate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Workers)
	assert.Equal(t, 1, result.Entries)
	assert.Equal(t, int64(17600), result.TotalMinor)

	require.True(t, store.persisted)
	require.Len(t, store.replaced, 1)
	assert.Equal(t, int64(17600), store.replaced[0].NetMinor)
	assert.Equal(t, PeriodStatusDraft, store.period.Status)
}

func TestGenerateFoldsSurvivingAdjustments(t *testing.T) {
	spans := map[string][]timetrack.Span{
		"w1": {testSpan(
			time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC),
		)},
	}
	workerRates := map[string][]rates.PayRate{
		"w1": {testRate("r1", day(2025, 1, 1), nil, 2200)},
	}
	adjustments := map[string][]Adjustment{
		"w1": {{Kind: AdjustmentBonus, AmountMinor: 5000}},
	}
	store, service := newGenerationFixture(snapshotWith(spans, workerRates, adjustments))

	result, err := service.Generate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(22600), result.TotalMinor)
	assert.Equal(t, int64(5000), store.replaced[0].AdjustmentsMinor)
}

func TestGenerateRefusedWhileProcessing(t *testing.T) {
	store, service := newGenerationFixture(Snapshot{})
	store.period.Status = PeriodStatusProcessing

	_, err := service.Generate(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrGenerationInProgress)
	assert.False(t, store.persisted)
}

func TestGenerateRefusedOnImmutablePeriod(t *testing.T) {
	store, service := newGenerationFixture(Snapshot{})
	store.period.Status = PeriodStatusApproved

	_, err := service.Generate(context.Background(), "p1")
	var conflict *StateConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, PeriodStatusApproved, conflict.Current)
}

func TestGenerateLostSwapRace(t *testing.T) {
	store, service := newGenerationFixture(Snapshot{})
	store.casDeny = true

	_, err := service.Generate(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrGenerationInProgress)
}

func TestGenerateAbortsOnRateGapsAndReleasesLock(t *testing.T) {
	spans := map[string][]timetrack.Span{
		"w1": {testSpan(
			time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC),
		)},
		"w2": {testSpan(
			time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 4, 17, 0, 0, 0, time.UTC),
		)},
	}
	// Only w1 has a rate; w2's worked date must be reported and nothing
	// persisted.
	workerRates := map[string][]rates.PayRate{
		"w1": {testRate("r1", day(2025, 1, 1), nil, 2200)},
	}
	store, service := newGenerationFixture(snapshotWith(spans, workerRates, nil))

	_, err := service.Generate(context.Background(), "p1")
	var generation *GenerationError
	require.ErrorAs(t, err, &generation)
	require.Len(t, generation.Gaps, 1)
	assert.Equal(t, "w2", generation.Gaps[0].WorkerID)
	assert.True(t, generation.Gaps[0].Date.Equal(day(2025, 3, 4)))

	assert.False(t, store.persisted)
	assert.Equal(t, PeriodStatusDraft, store.period.Status, "lock must be released after a failed run")
	assert.Contains(t, store.swaps, [2]string{PeriodStatusProcessing, PeriodStatusDraft})
}

func TestGenerateNoEligibleWorkers(t *testing.T) {
	store, service := newGenerationFixture(snapshotWith(map[string][]timetrack.Span{}, nil, nil))

	_, err := service.Generate(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNoEligibleWorkers)
	assert.Equal(t, PeriodStatusDraft, store.period.Status)
}
