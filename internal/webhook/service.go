package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
	"github.com/nikhilbhutani/clinicstaff/internal/queue"
	"github.com/nikhilbhutani/clinicstaff/internal/tenant"
)

const (
	EventStaffCreated            = "staff.created"
	EventStaffUpdated            = "staff.updated"
	EventStaffPermissionsUpdated = "staff.permissions_updated"
	EventStaffDeleted            = "staff.deleted"
)

var ErrNotFound = errors.New("webhook not found")

type Enqueuer interface {
	EnqueueWebhookDeliver(payload queue.WebhookDeliverPayload) error
}

type Service struct {
	db    *pgxpool.Pool
	queue Enqueuer
}

func NewService(db *pgxpool.Pool, q Enqueuer) *Service {
	return &Service{db: db, queue: q}
}

type CreateRequest struct {
	URL    string   `json:"url" validate:"required,url,startswith=http"`
	Events []string `json:"events" validate:"required,min=1,dive,oneof=staff.created staff.updated staff.permissions_updated staff.deleted"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Webhook, error) {
	tenantID := tenant.IDFromContext(ctx)

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	eventsJSON, err := json.Marshal(req.Events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}

	var wh models.Webhook
	var storedEvents []byte
	err = s.db.QueryRow(ctx,
		`INSERT INTO webhooks (tenant_id, url, events, secret, is_active)
		 VALUES ($1, $2, $3, $4, true)
		 RETURNING id, tenant_id, url, events, is_active, created_at`,
		tenantID, req.URL, eventsJSON, secret,
	).Scan(&wh.ID, &wh.TenantID, &wh.URL, &storedEvents, &wh.IsActive, &wh.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert webhook: %w", err)
	}
	if err := json.Unmarshal(storedEvents, &wh.Events); err != nil {
		return nil, fmt.Errorf("decode webhook events: %w", err)
	}

	// Return secret only on creation
	wh.Secret = secret

	return &wh, nil
}

func (s *Service) List(ctx context.Context) ([]models.Webhook, error) {
	tenantID := tenant.IDFromContext(ctx)

	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, url, events, is_active, created_at
		 FROM webhooks WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := make([]models.Webhook, 0)
	for rows.Next() {
		var wh models.Webhook
		var events []byte
		if err := rows.Scan(&wh.ID, &wh.TenantID, &wh.URL, &events, &wh.IsActive, &wh.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		if err := json.Unmarshal(events, &wh.Events); err != nil {
			return nil, fmt.Errorf("decode webhook events: %w", err)
		}
		webhooks = append(webhooks, wh)
	}
	return webhooks, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID := tenant.IDFromContext(ctx)
	tag, err := s.db.Exec(ctx, "DELETE FROM webhooks WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Dispatch queues a delivery of event to every active webhook of the tenant
// in ctx that subscribes to it.
func (s *Service) Dispatch(ctx context.Context, event string, payload interface{}) error {
	tenantID := tenant.IDFromContext(ctx)

	eventFilter, _ := json.Marshal([]string{event})
	rows, err := s.db.Query(ctx,
		`SELECT id FROM webhooks
		 WHERE tenant_id = $1 AND is_active = true AND events @> $2::jsonb`,
		tenantID, eventFilter,
	)
	if err != nil {
		return fmt.Errorf("find matching webhooks: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan webhook id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("find matching webhooks: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":       event,
		"tenant_id":   tenantID,
		"occurred_at": time.Now().UTC(),
		"data":        payload,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	for _, id := range ids {
		err := s.queue.EnqueueWebhookDeliver(queue.WebhookDeliverPayload{
			WebhookID: id.String(),
			TenantID:  tenantID.String(),
			Event:     event,
			Payload:   body,
		})
		if err != nil {
			slog.Error("failed to enqueue webhook delivery", "error", err, "webhook_id", id, "event", event)
		}
	}
	return nil
}

// Target loads the delivery address of an active webhook.
func (s *Service) Target(ctx context.Context, tenantID, id uuid.UUID) (url, secret string, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT url, secret FROM webhooks WHERE id = $1 AND tenant_id = $2 AND is_active = true`,
		id, tenantID,
	).Scan(&url, &secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("load webhook target: %w", err)
	}
	return url, secret, nil
}

func (s *Service) RecordDelivery(ctx context.Context, req DeliveryRequest, status int, deliveryErr error) error {
	var deliveredAt *time.Time
	if deliveryErr == nil && status > 0 && status < 400 {
		now := time.Now()
		deliveredAt = &now
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO webhook_deliveries (webhook_id, event, payload, response_status, attempts, delivered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		req.WebhookID, req.Event, req.Payload, status, req.Attempt, deliveredAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(b), nil
}
