package roster

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrWorkerNotFound = errors.New("worker not found")

type StoreAPI interface {
	Create(ctx context.Context, name, email string) (string, error)
	Get(ctx context.Context, workerID string) (Worker, error)
	List(ctx context.Context, limit, offset int) ([]Worker, error)
	SetActive(ctx context.Context, workerID string, active bool) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, name, email string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO workers (name, email)
    VALUES ($1,$2)
    RETURNING id
  `, name, email).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, workerID string) (Worker, error) {
	var worker Worker
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, active, created_at
    FROM workers
    WHERE id = $1
  `, workerID).Scan(&worker.ID, &worker.Name, &worker.Email, &worker.Active, &worker.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Worker{}, ErrWorkerNotFound
	}
	return worker, err
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Worker, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, active, created_at
    FROM workers
    ORDER BY name
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var worker Worker
		if err := rows.Scan(&worker.ID, &worker.Name, &worker.Email, &worker.Active, &worker.CreatedAt); err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	return workers, nil
}

func (s *Store) SetActive(ctx context.Context, workerID string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE workers SET active = $1 WHERE id = $2", active, workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}
