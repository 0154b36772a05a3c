package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/clinicstaff/internal/queue"
	"github.com/nikhilbhutani/clinicstaff/internal/webhook"
)

// TargetLoader resolves where a webhook delivers. webhook.Service satisfies it.
type TargetLoader interface {
	Target(ctx context.Context, tenantID, id uuid.UUID) (url, secret string, err error)
}

type Deliverer interface {
	Deliver(ctx context.Context, req webhook.DeliveryRequest) error
}

type WebhookWorker struct {
	targets   TargetLoader
	deliverer Deliverer
}

func NewWebhookWorker(targets TargetLoader, deliverer Deliverer) *WebhookWorker {
	return &WebhookWorker{targets: targets, deliverer: deliverer}
}

func (w *WebhookWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	webhookID, err := uuid.Parse(payload.WebhookID)
	if err != nil {
		return fmt.Errorf("parse webhook ID: %v: %w", err, asynq.SkipRetry)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("parse tenant ID: %v: %w", err, asynq.SkipRetry)
	}

	url, secret, err := w.targets.Target(ctx, tenantID, webhookID)
	if errors.Is(err, webhook.ErrNotFound) {
		slog.Info("webhook removed or disabled, dropping delivery", "webhook_id", webhookID, "event", payload.Event)
		return nil
	}
	if err != nil {
		return err
	}

	retry, _ := asynq.GetRetryCount(ctx)
	return w.deliverer.Deliver(ctx, webhook.DeliveryRequest{
		WebhookID: webhookID,
		URL:       url,
		Secret:    secret,
		Event:     payload.Event,
		Payload:   payload.Payload,
		Attempt:   retry + 1,
	})
}
