package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type DeliveryRequest struct {
	WebhookID uuid.UUID
	URL       string
	Secret    string
	Event     string
	Payload   []byte
	Attempt   int
}

// DeliveryRecorder stores the outcome of a delivery attempt.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, req DeliveryRequest, status int, deliveryErr error) error
}

// Dispatcher performs signed HTTP deliveries. Retries are left to the queue.
type Dispatcher struct {
	httpClient *http.Client
	recorder   DeliveryRecorder
}

func NewDispatcher(recorder DeliveryRecorder) *Dispatcher {
	return &Dispatcher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		recorder: recorder,
	}
}

// Deliver posts the payload and returns an error for transport failures and
// 5xx responses so the task is retried. 4xx responses are final.
func (d *Dispatcher) Deliver(ctx context.Context, req DeliveryRequest) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Payload))
	if err != nil {
		d.record(ctx, req, 0, err)
		return fmt.Errorf("create webhook request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Webhook-Event", req.Event)
	httpReq.Header.Set("X-Webhook-Signature", sign(req.Payload, req.Secret))
	httpReq.Header.Set("X-Webhook-ID", req.WebhookID.String())

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.record(ctx, req, 0, err)
		return fmt.Errorf("deliver webhook %s: %w", req.WebhookID, err)
	}
	defer resp.Body.Close()

	d.record(ctx, req, resp.StatusCode, nil)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("deliver webhook %s: receiver returned %d", req.WebhookID, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		slog.Warn("webhook received non-success response", "status", resp.StatusCode, "webhook_id", req.WebhookID)
	}
	return nil
}

func (d *Dispatcher) record(ctx context.Context, req DeliveryRequest, status int, deliveryErr error) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordDelivery(ctx, req, status, deliveryErr); err != nil {
		slog.Error("failed to record webhook delivery", "error", err, "webhook_id", req.WebhookID)
	}
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}
