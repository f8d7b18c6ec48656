package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"

	cashier "github.com/goliatone/go-cashier-fastspring"
	promadapter "github.com/goliatone/go-cashier-fastspring/adapters/prometheus"
	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/webhooks"
)

func TestRouter_ServesWebhookHealthAndMetrics(t *testing.T) {
	registry := promclient.NewRegistry()
	recorder, err := promadapter.NewRecorder("", registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	service, err := cashier.Setup(
		core.Config{
			FastSpring: core.FastSpringConfig{HMACSecret: "fs_secret"},
			HTTP:       core.HTTPConfig{WebhookPath: "/hooks/fastspring"},
		},
		cashier.WithMetricsRecorder(recorder),
		cashier.WithEnvLookup(func(string) (string, bool) { return "", false }),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	router := newRouter(service, registry)

	body := `{"events":[{"id":"evt_1","type":"order.completed","data":{}}]}`
	req := httptest.NewRequest(http.MethodPost, "/hooks/fastspring", strings.NewReader(body))
	req.Header.Set(core.DefaultSignatureHeader, webhooks.Sign("fs_secret", []byte(body), webhooks.EncodingBase64))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted || rec.Body.String() != "evt_1" {
		t.Fatalf("unexpected webhook response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cashier_webhook_events_total") {
		t.Fatalf("expected webhook event counter in metrics output")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hooks/fastspring", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET webhook, got %d", rec.Code)
	}
}
