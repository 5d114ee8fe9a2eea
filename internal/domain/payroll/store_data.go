package payroll

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/rates"
	"timepay/internal/domain/timetrack"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const periodColumns = `
    id, kind, start_date, end_date, status, total_minor,
    COALESCE(approver_id::text, ''), approved_at, created_at`

func (s *Store) CreatePeriod(ctx context.Context, kind string, startDate, endDate time.Time) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var overlapping int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM payroll_periods
    WHERE kind = $1 AND status <> 'void' AND start_date <= $3 AND end_date >= $2
  `, kind, startDate, endDate).Scan(&overlapping); err != nil {
		return "", err
	}
	if overlapping > 0 {
		return "", ErrPeriodOverlap
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO payroll_periods (kind, start_date, end_date)
    VALUES ($1,$2,$3)
    RETURNING id
  `, kind, startDate, endDate).Scan(&id); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+periodColumns+" FROM payroll_periods WHERE id = $1", periodID)
	period, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return period, err
}

func (s *Store) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+periodColumns+" FROM payroll_periods ORDER BY start_date DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, nil
}

func (s *Store) PeriodStatus(ctx context.Context, periodID string) (string, error) {
	var status string
	err := s.DB.QueryRow(ctx, "SELECT status FROM payroll_periods WHERE id = $1", periodID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPeriodNotFound
	}
	return status, err
}

// CASStatus is the atomic conditional status swap every lifecycle transition
// rides on. Returns false without error when another caller won the swap.
func (s *Store) CASStatus(ctx context.Context, periodID, from, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_periods SET status = $1 WHERE id = $2 AND status = $3
  `, to, periodID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeletePeriod removes a draft period and cascades to its entries and their
// adjustments. Any other state is refused.
func (s *Store) DeletePeriod(ctx context.Context, periodID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM payroll_periods WHERE id = $1 AND status = $2", periodID, PeriodStatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		status, statusErr := s.PeriodStatus(ctx, periodID)
		if statusErr != nil {
			return statusErr
		}
		return &StateConflictError{Current: status, Attempted: "deleted"}
	}
	return nil
}

func (s *Store) ApprovePeriod(ctx context.Context, periodID, approverID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var entries int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_entries WHERE period_id = $1", periodID).Scan(&entries); err != nil {
		return err
	}
	if entries == 0 {
		return ErrNoEntries
	}

	tag, err := tx.Exec(ctx, `
    UPDATE payroll_periods
    SET status = $1, approver_id = $2, approved_at = now()
    WHERE id = $3 AND status = ANY($4)
  `, PeriodStatusApproved, approverID, periodID, []string{PeriodStatusDraft, PeriodStatusProcessing})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.conflict(ctx, periodID, PeriodStatusApproved)
	}

	if _, err := tx.Exec(ctx, "UPDATE payroll_entries SET status = $1, updated_at = now() WHERE period_id = $2", EntryStatusApproved, periodID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) MarkPaid(ctx context.Context, periodID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE payroll_periods SET status = $1 WHERE id = $2 AND status = $3
  `, PeriodStatusPaid, periodID, PeriodStatusApproved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.conflict(ctx, periodID, PeriodStatusPaid)
	}
	if _, err := tx.Exec(ctx, "UPDATE payroll_entries SET status = $1, updated_at = now() WHERE period_id = $2", EntryStatusPaid, periodID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) VoidPeriod(ctx context.Context, periodID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_periods SET status = $1 WHERE id = $2 AND status = ANY($3)
  `, PeriodStatusVoid, periodID, []string{PeriodStatusDraft, PeriodStatusProcessing, PeriodStatusApproved})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.conflict(ctx, periodID, PeriodStatusVoid)
	}
	return nil
}

func (s *Store) conflict(ctx context.Context, periodID, attempted string) error {
	status, err := s.PeriodStatus(ctx, periodID)
	if err != nil {
		return err
	}
	return &StateConflictError{Current: status, Attempted: attempted}
}

// Snapshot is everything one generation run prices, read in one transaction.
type Snapshot struct {
	Workers     []string
	Spans       map[string][]timetrack.Span
	Rates       map[string][]rates.PayRate
	Adjustments map[string][]Adjustment
}

// GenerationSnapshot reads spans, rates, and surviving adjustments for every
// eligible worker within a single repeatable-read transaction, so a rate edit
// racing the run cannot produce an entry priced against two views of the rate
// table.
func (s *Store) GenerationSnapshot(ctx context.Context, period Period) (Snapshot, error) {
	snap := Snapshot{
		Spans:       map[string][]timetrack.Span{},
		Rates:       map[string][]rates.PayRate{},
		Adjustments: map[string][]Adjustment{},
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
    SELECT id, worker_id, COALESCE(project_id::text, ''), started_at, ended_at, created_at
    FROM time_spans
    WHERE ended_at IS NOT NULL AND started_at >= $1 AND started_at < $2
    ORDER BY worker_id, started_at
  `, period.StartInstant(), period.EndExclusive())
	if err != nil {
		return Snapshot{}, err
	}
	for rows.Next() {
		var span timetrack.Span
		if err := rows.Scan(&span.ID, &span.WorkerID, &span.ProjectID, &span.StartedAt, &span.EndedAt, &span.CreatedAt); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		snap.Spans[span.WorkerID] = append(snap.Spans[span.WorkerID], span)
	}
	rows.Close()
	if rows.Err() != nil {
		return Snapshot{}, rows.Err()
	}

	for workerID := range snap.Spans {
		snap.Workers = append(snap.Workers, workerID)
	}
	sort.Strings(snap.Workers)
	if len(snap.Workers) == 0 {
		return snap, tx.Commit(ctx)
	}

	snap.Rates, err = rates.ListForWorkersTx(ctx, tx, snap.Workers)
	if err != nil {
		return Snapshot{}, err
	}

	adjRows, err := tx.Query(ctx, `
    SELECT a.id, a.entry_id, a.kind, a.description, a.amount_minor, COALESCE(a.actor_id::text, ''), a.seq, a.created_at, e.worker_id
    FROM payroll_adjustments a
    JOIN payroll_entries e ON a.entry_id = e.id
    WHERE e.period_id = $1
    ORDER BY e.worker_id, a.seq
  `, period.ID)
	if err != nil {
		return Snapshot{}, err
	}
	for adjRows.Next() {
		var adjustment Adjustment
		var workerID string
		if err := adjRows.Scan(&adjustment.ID, &adjustment.EntryID, &adjustment.Kind, &adjustment.Description,
			&adjustment.AmountMinor, &adjustment.ActorID, &adjustment.Seq, &adjustment.CreatedAt, &workerID); err != nil {
			adjRows.Close()
			return Snapshot{}, err
		}
		snap.Adjustments[workerID] = append(snap.Adjustments[workerID], adjustment)
	}
	adjRows.Close()
	if adjRows.Err() != nil {
		return Snapshot{}, adjRows.Err()
	}

	return snap, tx.Commit(ctx)
}

// ReplaceEntries persists one generation run: upserts entries keyed
// (period, worker) so adjustment rows survive regeneration, removes entries
// for workers with no spans this run, refreshes the cached period total, and
// releases the generation lock, all in one transaction. Commit or nothing.
func (s *Store) ReplaceEntries(ctx context.Context, periodID string, entries []Entry, totalMinor int64) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	keep := make([]string, 0, len(entries))
	for _, entry := range entries {
		keep = append(keep, entry.WorkerID)
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_entries
        (period_id, worker_id, regular_hours, overtime_hours, regular_rate_minor, overtime_rate_minor,
         gross_minor, adjustments_minor, net_minor, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
      ON CONFLICT (period_id, worker_id)
      DO UPDATE SET
        regular_hours = EXCLUDED.regular_hours,
        overtime_hours = EXCLUDED.overtime_hours,
        regular_rate_minor = EXCLUDED.regular_rate_minor,
        overtime_rate_minor = EXCLUDED.overtime_rate_minor,
        gross_minor = EXCLUDED.gross_minor,
        adjustments_minor = EXCLUDED.adjustments_minor,
        net_minor = EXCLUDED.net_minor,
        status = EXCLUDED.status,
        updated_at = now()
    `, periodID, entry.WorkerID, entry.RegularHours.String(), entry.OvertimeHours.String(),
			entry.RegularRateMinor, entry.OvertimeRateMinor, entry.GrossMinor, entry.AdjustmentsMinor,
			entry.NetMinor, EntryStatusPending); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payroll_entries WHERE period_id = $1 AND worker_id <> ALL($2)", periodID, keep); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE payroll_periods SET total_minor = $1 WHERE id = $2", totalMinor, periodID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
    UPDATE payroll_periods SET status = $1 WHERE id = $2 AND status = $3
  `, PeriodStatusDraft, periodID, PeriodStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Lost the lock mid-run (e.g. the period was voided): abort everything.
		return s.conflict(ctx, periodID, PeriodStatusDraft)
	}
	return tx.Commit(ctx)
}

const entryColumns = `
    id, period_id, worker_id, regular_hours::text, overtime_hours::text,
    regular_rate_minor, overtime_rate_minor, gross_minor, adjustments_minor, net_minor,
    status, created_at, updated_at`

func (s *Store) GetEntry(ctx context.Context, entryID string) (Entry, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+entryColumns+" FROM payroll_entries WHERE id = $1", entryID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *Store) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+entryColumns+" FROM payroll_entries WHERE period_id = $1 ORDER BY worker_id", periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) ListAdjustments(ctx context.Context, entryID string) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, entry_id, kind, description, amount_minor, COALESCE(actor_id::text, ''), seq, created_at
    FROM payroll_adjustments
    WHERE entry_id = $1
    ORDER BY seq
  `, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []Adjustment
	for rows.Next() {
		var adjustment Adjustment
		if err := rows.Scan(&adjustment.ID, &adjustment.EntryID, &adjustment.Kind, &adjustment.Description,
			&adjustment.AmountMinor, &adjustment.ActorID, &adjustment.Seq, &adjustment.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adjustment)
	}
	return adjustments, nil
}

// AppendAdjustment appends one ledger row and re-derives the entry's
// adjustments/net and the period total from the full ledger in the same
// transaction. Fails for a missing entry, an immutable owning period, or a
// period whose generation lock is held. The period row stays locked until
// commit, so a run cannot snapshot the ledger mid-append and then overwrite
// the new row.
func (s *Store) AppendAdjustment(ctx context.Context, entryID, kind string, amountMinor int64, actorID, description string) (Adjustment, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Adjustment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var periodID, periodStatus string
	var grossMinor int64
	err = tx.QueryRow(ctx, `
    SELECT e.period_id, e.gross_minor, p.status
    FROM payroll_entries e
    JOIN payroll_periods p ON e.period_id = p.id
    WHERE e.id = $1
    FOR UPDATE OF e, p
  `, entryID).Scan(&periodID, &grossMinor, &periodStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return Adjustment{}, ErrEntryNotFound
	}
	if err != nil {
		return Adjustment{}, err
	}
	if periodStatus == PeriodStatusProcessing {
		return Adjustment{}, ErrGenerationInProgress
	}
	if !Mutable(periodStatus) {
		return Adjustment{}, ErrPeriodImmutable
	}

	var adjustment Adjustment
	if err := tx.QueryRow(ctx, `
    INSERT INTO payroll_adjustments (entry_id, kind, description, amount_minor, actor_id, seq)
    VALUES ($1,$2,$3,$4,$5,
      (SELECT COALESCE(MAX(seq), 0) + 1 FROM payroll_adjustments WHERE entry_id = $1))
    RETURNING id, entry_id, kind, description, amount_minor, COALESCE(actor_id::text, ''), seq, created_at
  `, entryID, kind, description, amountMinor, nullIfEmpty(actorID)).Scan(
		&adjustment.ID, &adjustment.EntryID, &adjustment.Kind, &adjustment.Description,
		&adjustment.AmountMinor, &adjustment.ActorID, &adjustment.Seq, &adjustment.CreatedAt); err != nil {
		return Adjustment{}, err
	}

	ledgerRows, err := tx.Query(ctx, "SELECT amount_minor FROM payroll_adjustments WHERE entry_id = $1 ORDER BY seq", entryID)
	if err != nil {
		return Adjustment{}, err
	}
	var ledger []Adjustment
	for ledgerRows.Next() {
		var row Adjustment
		if err := ledgerRows.Scan(&row.AmountMinor); err != nil {
			ledgerRows.Close()
			return Adjustment{}, err
		}
		ledger = append(ledger, row)
	}
	ledgerRows.Close()
	if ledgerRows.Err() != nil {
		return Adjustment{}, ledgerRows.Err()
	}

	total, err := LedgerTotal(ledger)
	if err != nil {
		return Adjustment{}, err
	}
	net, err := addMinor(grossMinor, total)
	if err != nil {
		return Adjustment{}, err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE payroll_entries SET adjustments_minor = $1, net_minor = $2, updated_at = now() WHERE id = $3
  `, total, net, entryID); err != nil {
		return Adjustment{}, err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE payroll_periods
    SET total_minor = (SELECT COALESCE(SUM(net_minor), 0) FROM payroll_entries WHERE period_id = $1)
    WHERE id = $1
  `, periodID); err != nil {
		return Adjustment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Adjustment{}, err
	}
	return adjustment, nil
}

func scanPeriod(row pgx.Row) (Period, error) {
	var period Period
	if err := row.Scan(&period.ID, &period.Kind, &period.StartDate, &period.EndDate, &period.Status,
		&period.TotalMinor, &period.ApproverID, &period.ApprovedAt, &period.CreatedAt); err != nil {
		return Period{}, err
	}
	return period, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var regularHours, overtimeHours string
	if err := row.Scan(&entry.ID, &entry.PeriodID, &entry.WorkerID, &regularHours, &overtimeHours,
		&entry.RegularRateMinor, &entry.OvertimeRateMinor, &entry.GrossMinor, &entry.AdjustmentsMinor,
		&entry.NetMinor, &entry.Status, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Entry{}, err
	}
	var err error
	if entry.RegularHours, err = decimal.NewFromString(regularHours); err != nil {
		return Entry{}, err
	}
	if entry.OvertimeHours, err = decimal.NewFromString(overtimeHours); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
