package payroll

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Generate recomputes every entry of a period from its recorded time spans.
//
// The run claims the period with a status swap draft -> processing; a second
// caller hitting a processing period gets ErrGenerationInProgress. Spans,
// rates, and surviving adjustments are read in one repeatable-read snapshot,
// entries are computed concurrently from that snapshot, and the result is
// written in a single transaction that also returns the period to draft.
// Nothing is persisted unless every worker computes cleanly.
func (s *Service) Generate(ctx context.Context, periodID string) (GenerationResult, error) {
	status, err := s.store.PeriodStatus(ctx, periodID)
	if err != nil {
		return GenerationResult{}, err
	}
	if err := GuardTransition(status, PeriodStatusProcessing); err != nil {
		if status == PeriodStatusProcessing {
			return GenerationResult{}, ErrGenerationInProgress
		}
		return GenerationResult{}, err
	}

	swapped, err := s.store.CASStatus(ctx, periodID, PeriodStatusDraft, PeriodStatusProcessing)
	if err != nil {
		return GenerationResult{}, err
	}
	if !swapped {
		// Lost the race between the status read and the swap.
		return GenerationResult{}, ErrGenerationInProgress
	}

	result, err := s.generateLocked(ctx, periodID)
	if err != nil {
		// ReplaceEntries releases the lock on success; on any failure the
		// period must not stay stuck in processing. Context may already be
		// dead, so the release uses a fresh one.
		_, _ = s.store.CASStatus(context.WithoutCancel(ctx), periodID, PeriodStatusProcessing, PeriodStatusDraft)
		s.recordGeneration(0, true)
		return GenerationResult{}, err
	}
	s.recordGeneration(result.Entries, false)
	return result, nil
}

func (s *Service) generateLocked(ctx context.Context, periodID string) (GenerationResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return GenerationResult{}, err
	}
	snap, err := s.store.GenerationSnapshot(ctx, period)
	if err != nil {
		return GenerationResult{}, err
	}
	if len(snap.Workers) == 0 {
		return GenerationResult{}, ErrNoEligibleWorkers
	}

	var mu sync.Mutex
	entries := make([]Entry, 0, len(snap.Workers))
	var gaps []RateGap

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, workerID := range snap.Workers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, workerGaps, err := BuildEntry(period, workerID, snap.Spans[workerID], snap.Rates[workerID], snap.Adjustments[workerID], s.policy)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if len(workerGaps) > 0 {
				gaps = append(gaps, workerGaps...)
				return nil
			}
			entries = append(entries, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return GenerationResult{}, err
	}
	if len(gaps) > 0 {
		SortGaps(gaps)
		return GenerationResult{}, &GenerationError{Gaps: gaps}
	}

	var total int64
	for _, entry := range entries {
		total, err = addMinor(total, entry.NetMinor)
		if err != nil {
			return GenerationResult{}, err
		}
	}
	if err := s.store.ReplaceEntries(ctx, periodID, entries, total); err != nil {
		return GenerationResult{}, err
	}

	return GenerationResult{
		PeriodID:   periodID,
		Workers:    len(snap.Workers),
		Entries:    len(entries),
		TotalMinor: total,
	}, nil
}

func (s *Service) recordGeneration(entries int, failed bool) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(entries, failed)
	}
}
