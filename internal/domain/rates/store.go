package rates

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/roster"
)

type StoreAPI interface {
	CreateRate(ctx context.Context, workers roster.StoreAPI, input CreateInput) (string, error)
	CloseRate(ctx context.Context, rateID string, effectiveTo time.Time, actorID, reason string) error
	AmendAmount(ctx context.Context, rateID string, newAmountMinor int64, actorID, reason string) error
	Get(ctx context.Context, rateID string) (PayRate, error)
	ListForWorker(ctx context.Context, workerID string) ([]PayRate, error)
	History(ctx context.Context, workerID string) ([]HistoryRecord, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const rateColumns = `
    id, worker_id, kind, amount_minor, currency, overtime_multiplier::text,
    effective_from, effective_to, active, created_at`

func (s *Store) Get(ctx context.Context, rateID string) (PayRate, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return PayRate{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	return getTx(ctx, tx, rateID)
}

func getTx(ctx context.Context, tx pgx.Tx, rateID string) (PayRate, error) {
	row := tx.QueryRow(ctx, "SELECT"+rateColumns+" FROM pay_rates WHERE id = $1", rateID)
	rate, err := scanRate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayRate{}, ErrRateNotFound
	}
	return rate, err
}

func (s *Store) ListForWorker(ctx context.Context, workerID string) ([]PayRate, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+rateColumns+" FROM pay_rates WHERE worker_id = $1 ORDER BY effective_from", workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRates(rows)
}

func listForWorkerTx(ctx context.Context, tx pgx.Tx, workerID string, forUpdate bool) ([]PayRate, error) {
	query := "SELECT" + rateColumns + " FROM pay_rates WHERE worker_id = $1 ORDER BY effective_from"
	if forUpdate {
		query += " FOR UPDATE"
	}
	rows, err := tx.Query(ctx, query, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRates(rows)
}

// ListForWorkersTx reads every worker's rates inside the caller's transaction
// so generation prices against a single snapshot of the rate table.
func ListForWorkersTx(ctx context.Context, tx pgx.Tx, workerIDs []string) (map[string][]PayRate, error) {
	rows, err := tx.Query(ctx, "SELECT"+rateColumns+" FROM pay_rates WHERE worker_id = ANY($1) ORDER BY worker_id, effective_from", workerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all, err := scanRates(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]PayRate, len(workerIDs))
	for _, rate := range all {
		out[rate.WorkerID] = append(out[rate.WorkerID], rate)
	}
	return out, nil
}

func (s *Store) History(ctx context.Context, workerID string) ([]HistoryRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, rate_id, worker_id, action, previous_minor, new_minor, COALESCE(actor_id::text, ''), COALESCE(reason, ''), created_at
    FROM pay_rate_history
    WHERE worker_id = $1
    ORDER BY created_at
  `, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var record HistoryRecord
		if err := rows.Scan(&record.ID, &record.RateID, &record.WorkerID, &record.Action, &record.PreviousAmount, &record.NewAmount, &record.ActorID, &record.Reason, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func scanRates(rows pgx.Rows) ([]PayRate, error) {
	var out []PayRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, nil
}

func scanRate(row pgx.Row) (PayRate, error) {
	var rate PayRate
	var multiplier string
	if err := row.Scan(&rate.ID, &rate.WorkerID, &rate.Kind, &rate.AmountMinor, &rate.Currency, &multiplier,
		&rate.EffectiveFrom, &rate.EffectiveTo, &rate.Active, &rate.CreatedAt); err != nil {
		return PayRate{}, err
	}
	parsed, err := decimal.NewFromString(multiplier)
	if err != nil {
		return PayRate{}, err
	}
	rate.OvertimeMultiplier = parsed
	return rate, nil
}
