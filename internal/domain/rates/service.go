package rates

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/roster"
)

type CreateInput struct {
	WorkerID           string
	Kind               string
	AmountMinor        int64
	Currency           string
	OvertimeMultiplier decimal.Decimal
	EffectiveFrom      time.Time
	EffectiveTo        *time.Time
	ActorID            string
	Reason             string
}

// CreateRate inserts a new rate for a worker, auto-closing an open-ended
// predecessor the day before the new rate takes effect. The non-overlap
// invariant is enforced here, not by the administration UI.
func (s *Store) CreateRate(ctx context.Context, workers roster.StoreAPI, input CreateInput) (string, error) {
	if !ValidKind(input.Kind) {
		return "", ErrInvalidKind
	}
	if input.AmountMinor <= 0 || input.OvertimeMultiplier.LessThan(decimal.NewFromInt(1)) {
		return "", ErrInvalidRange
	}
	if input.EffectiveTo != nil && DateOf(*input.EffectiveTo).Before(DateOf(input.EffectiveFrom)) {
		return "", ErrInvalidRange
	}

	worker, err := workers.Get(ctx, input.WorkerID)
	if err != nil {
		return "", err
	}
	if !worker.Active {
		return "", ErrWorkerInactive
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Creates for the same worker serialize on the worker row; locking the
	// existing rates alone holds nothing when the worker has none yet.
	var lockedWorkerID string
	if err := tx.QueryRow(ctx, "SELECT id FROM workers WHERE id = $1 FOR UPDATE", input.WorkerID).Scan(&lockedWorkerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", roster.ErrWorkerNotFound
		}
		return "", err
	}

	existing, err := listForWorkerTx(ctx, tx, input.WorkerID, true)
	if err != nil {
		return "", err
	}

	newFrom := DateOf(input.EffectiveFrom)
	for _, rate := range existing {
		if rate.EffectiveTo != nil || !rate.Active {
			continue
		}
		if DateOf(rate.EffectiveFrom).Before(newFrom) {
			closeOn := newFrom.AddDate(0, 0, -1)
			if _, err := tx.Exec(ctx, "UPDATE pay_rates SET effective_to = $1 WHERE id = $2", closeOn, rate.ID); err != nil {
				return "", err
			}
			if err := recordHistory(ctx, tx, rate.ID, input.WorkerID, HistoryClosed, &rate.AmountMinor, &rate.AmountMinor, input.ActorID, "closed by successor rate"); err != nil {
				return "", err
			}
			closed := closeOn
			rate.EffectiveTo = &closed
		}
	}

	if err := CheckOverlap(existing, input.EffectiveFrom, input.EffectiveTo, ""); err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO pay_rates (worker_id, kind, amount_minor, currency, overtime_multiplier, effective_from, effective_to)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, input.WorkerID, input.Kind, input.AmountMinor, input.Currency, input.OvertimeMultiplier.String(), newFrom, nullableDate(input.EffectiveTo)).Scan(&id); err != nil {
		return "", err
	}
	if err := recordHistory(ctx, tx, id, input.WorkerID, HistoryCreated, nil, &input.AmountMinor, input.ActorID, input.Reason); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// CloseRate bounds an open-ended rate. Closing is always permitted; amounts
// stay untouched so already-generated periods keep reconciling.
func (s *Store) CloseRate(ctx context.Context, rateID string, effectiveTo time.Time, actorID, reason string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rate, err := getTx(ctx, tx, rateID)
	if err != nil {
		return err
	}
	closeOn := DateOf(effectiveTo)
	if closeOn.Before(DateOf(rate.EffectiveFrom)) {
		return ErrInvalidRange
	}

	if _, err := tx.Exec(ctx, "UPDATE pay_rates SET effective_to = $1 WHERE id = $2", closeOn, rateID); err != nil {
		return err
	}
	if err := recordHistory(ctx, tx, rateID, rate.WorkerID, HistoryClosed, &rate.AmountMinor, &rate.AmountMinor, actorID, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AmendAmount edits a rate amount in place. Refused once any non-void period
// with generated entries overlaps the rate's effective range; the correction
// path then is close-and-create-successor.
func (s *Store) AmendAmount(ctx context.Context, rateID string, newAmountMinor int64, actorID, reason string) error {
	if newAmountMinor <= 0 {
		return ErrInvalidRange
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rate, err := getTx(ctx, tx, rateID)
	if err != nil {
		return err
	}

	var generated int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM payroll_periods p
    WHERE p.status <> 'void'
      AND p.start_date <= COALESCE($1::date, 'infinity'::date)
      AND p.end_date >= $2::date
      AND EXISTS (
        SELECT 1 FROM payroll_entries e
        WHERE e.period_id = p.id AND e.worker_id = $3
      )
  `, nullableDate(rate.EffectiveTo), DateOf(rate.EffectiveFrom), rate.WorkerID).Scan(&generated); err != nil {
		return err
	}
	if generated > 0 {
		return ErrRateLocked
	}

	if _, err := tx.Exec(ctx, "UPDATE pay_rates SET amount_minor = $1 WHERE id = $2", newAmountMinor, rateID); err != nil {
		return err
	}
	if err := recordHistory(ctx, tx, rateID, rate.WorkerID, HistoryAmended, &rate.AmountMinor, &newAmountMinor, actorID, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func recordHistory(ctx context.Context, tx pgx.Tx, rateID, workerID, action string, previous, next *int64, actorID, reason string) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO pay_rate_history (rate_id, worker_id, action, previous_minor, new_minor, actor_id, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, rateID, workerID, action, previous, next, nullIfEmpty(actorID), reason)
	return err
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return DateOf(*t)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
