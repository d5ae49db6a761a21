package botkit

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWebhookRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	bot := newTestBot(t, newFakeAPI(t), func(cfg *Config) {
		cfg.Mode = ModeWebhook
		cfg.Registerer = reg
		cfg.Webhook.SecretToken = "s3cret"
		cfg.Webhook.MetricsPath = "/metrics"
	})
	out := make(chan *Update, 1)
	router := bot.webhookRouter(newWebhookSink(out))

	tests := []struct {
		name     string
		method   string
		path     string
		secret   string
		body     string
		wantCode int
	}{
		{"healthz", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"missing secret", http.MethodPost, "/webhook", "", `{"update_id":1}`, http.StatusUnauthorized},
		{"wrong secret", http.MethodPost, "/webhook", "nope", `{"update_id":1}`, http.StatusUnauthorized},
		{"bad json", http.MethodPost, "/webhook", "s3cret", `{`, http.StatusBadRequest},
		{"get on webhook", http.MethodGet, "/webhook", "s3cret", "", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodPost, "/other", "s3cret", `{}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.secret != "" {
				req.Header.Set("X-Telegram-Bot-Api-Secret-Token", tt.secret)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}

	if len(out) != 0 {
		t.Fatalf("%d updates delivered by rejected requests", len(out))
	}

	body := `{"update_id":42,"message":{"message_id":1,"date":0,"chat":{"id":10,"type":"private"},"text":"hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	u := <-out
	if u.UpdateID != 42 || u.Message == nil || u.Message.Text != "hi" {
		t.Errorf("delivered update = %+v", u)
	}
}

func TestWebhookWithoutSecret(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), func(cfg *Config) {
		cfg.Webhook.Path = "/hook"
	})
	out := make(chan *Update, 1)

	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(`{"update_id":1}`))
	rec := httptest.NewRecorder()
	bot.webhookRouter(newWebhookSink(out)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(out) != 1 {
		t.Errorf("%d updates delivered, want 1", len(out))
	}
}

func TestWebhookSinkClose(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	out := make(chan *Update) // nobody reads, so handlers block
	sink := newWebhookSink(out)
	router := bot.webhookRouter(sink)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id":1}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	blocked := make(chan int, 1)
	go func() { blocked <- post() }()

	sink.close()
	select {
	case code := <-blocked:
		if code != http.StatusServiceUnavailable {
			t.Errorf("blocked request status = %d, want 503", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked request was not released by close")
	}

	// Closing the channel after the sink must not panic late requests.
	close(out)
	if code := post(); code != http.StatusServiceUnavailable {
		t.Errorf("late request status = %d, want 503", code)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestServeWebhook(t *testing.T) {
	api := newFakeAPI(t)
	addr := freeAddr(t)
	bot := newTestBot(t, api, func(cfg *Config) {
		cfg.Mode = ModeWebhook
		cfg.Webhook.ListenAddr = addr
		cfg.Webhook.URL = "https://example.com/webhook"
		cfg.Webhook.DropPendingUpdates = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan *Update, 1)
	done := make(chan error, 1)
	go func() { done <- bot.serveWebhook(ctx, out) }()

	var resp *http.Response
	waitFor(t, "webhook server", func() bool {
		var err error
		resp, err = http.Post("http://"+addr+"/webhook", "application/json", strings.NewReader(`{"update_id":5}`))
		return err == nil
	})
	resp.Body.Close()

	select {
	case u := <-out:
		if u.UpdateID != 5 {
			t.Errorf("update_id = %d, want 5", u.UpdateID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update not delivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveWebhook() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveWebhook() did not return after cancel")
	}

	calls := api.callsTo("setWebhook")
	if len(calls) != 1 {
		t.Fatalf("setWebhook called %d times, want 1", len(calls))
	}
	if got := jsonString(t, calls[0].Params["url"]); got != "https://example.com/webhook" {
		t.Errorf("url = %q", got)
	}
	if got := string(calls[0].Params["drop_pending_updates"]); got != "true" {
		t.Errorf("drop_pending_updates = %s, want true", got)
	}
}
