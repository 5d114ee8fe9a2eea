package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record appends one audit event. Events are never updated or deleted.
func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, detail any) error {
	var detailJSON []byte
	if detail != nil {
		payload, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		detailJSON = payload
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, request_id, detail_json)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, nullIfEmpty(actorID), action, entityType, entityID, requestID, detailJSON)
	return err
}

func (s *Service) List(ctx context.Context, entityType, entityID string, limit int) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(actor_id::text, ''), action, entity_type, entity_id, COALESCE(request_id, ''), created_at, detail_json
    FROM audit_events
    WHERE entity_type = $1 AND entity_id = $2
    ORDER BY created_at DESC
    LIMIT $3
  `, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.ActorID, &event.Action, &event.EntityType, &event.EntityID, &event.RequestID, &event.CreatedAt, &event.Detail); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
