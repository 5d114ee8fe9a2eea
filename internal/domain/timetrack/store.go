package timetrack

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidSpan = errors.New("span end must be after span start")

type StoreAPI interface {
	Create(ctx context.Context, span Span) (string, error)
	ListForWorker(ctx context.Context, workerID string, from, to time.Time, limit, offset int) ([]Span, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, span Span) (string, error) {
	if span.EndedAt != nil && !span.EndedAt.After(span.StartedAt) {
		return "", ErrInvalidSpan
	}
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO time_spans (worker_id, project_id, started_at, ended_at)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, span.WorkerID, nullIfEmpty(span.ProjectID), span.StartedAt, span.EndedAt).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListForWorker(ctx context.Context, workerID string, from, to time.Time, limit, offset int) ([]Span, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, worker_id, COALESCE(project_id::text, ''), started_at, ended_at, created_at
    FROM time_spans
    WHERE worker_id = $1 AND started_at >= $2 AND started_at < $3
    ORDER BY started_at
    LIMIT $4 OFFSET $5
  `, workerID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpans(rows)
}

func scanSpans(rows pgx.Rows) ([]Span, error) {
	var spans []Span
	for rows.Next() {
		var span Span
		if err := rows.Scan(&span.ID, &span.WorkerID, &span.ProjectID, &span.StartedAt, &span.EndedAt, &span.CreatedAt); err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
