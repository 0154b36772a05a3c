package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type recorded struct {
	status int
	err    error
}

type fakeRecorder struct {
	calls []recorded
}

func (f *fakeRecorder) RecordDelivery(_ context.Context, _ DeliveryRequest, status int, err error) error {
	f.calls = append(f.calls, recorded{status: status, err: err})
	return nil
}

func TestDeliverSignsPayload(t *testing.T) {
	payload := []byte(`{"event":"staff.created"}`)
	secret := "s3cret"
	id := uuid.New()

	var gotSig, gotEvent, gotID string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Webhook-Signature")
		gotEvent = r.Header.Get("X-Webhook-Event")
		gotID = r.Header.Get("X-Webhook-ID")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	err := NewDispatcher(rec).Deliver(context.Background(), DeliveryRequest{
		WebhookID: id, URL: srv.URL, Secret: secret, Event: EventStaffCreated, Payload: payload, Attempt: 1,
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if want := "sha256=" + hex.EncodeToString(mac.Sum(nil)); gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
	if gotEvent != EventStaffCreated || gotID != id.String() {
		t.Errorf("headers event=%q id=%q", gotEvent, gotID)
	}
	if string(gotBody) != string(payload) {
		t.Errorf("body = %s", gotBody)
	}
	if len(rec.calls) != 1 || rec.calls[0].status != http.StatusOK || rec.calls[0].err != nil {
		t.Errorf("recorded = %+v", rec.calls)
	}
}

func TestDeliverStatusHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"success", http.StatusNoContent, false},
		{"client error is final", http.StatusGone, false},
		{"server error retries", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewDispatcher(nil).Deliver(context.Background(), DeliveryRequest{
				WebhookID: uuid.New(), URL: srv.URL, Event: EventStaffDeleted, Payload: []byte(`{}`),
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeliverTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &fakeRecorder{}
	err := NewDispatcher(rec).Deliver(context.Background(), DeliveryRequest{
		WebhookID: uuid.New(), URL: url, Event: EventStaffUpdated, Payload: []byte(`{}`),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(rec.calls) != 1 || rec.calls[0].status != 0 || rec.calls[0].err == nil {
		t.Errorf("recorded = %+v", rec.calls)
	}
}
