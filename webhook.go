package botkit

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxWebhookBody = 1 << 20

// webhookSink hands updates from request handlers to the dispatcher until
// it is closed. After close returns no handler sends on out anymore.
type webhookSink struct {
	out  chan<- *Update
	stop chan struct{}
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

func newWebhookSink(out chan<- *Update) *webhookSink {
	return &webhookSink{out: out, stop: make(chan struct{})}
}

// send reports whether u was queued.
func (s *webhookSink) send(ctx context.Context, u *Update) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- u:
		return true
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// close releases handlers blocked on a full channel and waits for them.
func (s *webhookSink) close() {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// webhookRouter builds the webhook server routes. Updates are pushed to the
// sink so they outlive the request that delivered them.
func (b *Bot) webhookRouter(sink *webhookSink) http.Handler {
	cfg := b.config.Webhook
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsPath != "" {
		if b.metrics != nil && b.metrics.gatherer != nil {
			r.Handle(cfg.MetricsPath, promhttp.HandlerFor(b.metrics.gatherer, promhttp.HandlerOpts{}))
		} else {
			b.config.Logger.Warn("metrics path set but the registerer is not a gatherer",
				"path", cfg.MetricsPath)
		}
	}

	r.Post(cfg.Path, b.handleWebhook(sink))
	return r
}

func (b *Bot) handleWebhook(sink *webhookSink) http.HandlerFunc {
	secret := b.config.Webhook.SecretToken
	logger := b.config.Logger

	return func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			token := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
			if subtle.ConstantTimeCompare([]byte(secret), []byte(token)) != 1 {
				http.Error(w, "invalid secret token", http.StatusUnauthorized)
				return
			}
		}

		var u Update
		if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&u); err != nil {
			logger.Debug("invalid webhook payload", "error", err)
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}

		if !sink.send(r.Context(), &u) {
			// Telegram redelivers updates answered with an error.
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// serveWebhook registers the webhook when a URL is configured and serves
// updates until ctx is done. When it returns nothing sends on out, even if
// the graceful shutdown timed out.
func (b *Bot) serveWebhook(ctx context.Context, out chan<- *Update) error {
	cfg := b.config.Webhook
	logger := b.config.Logger

	if cfg.URL != "" {
		err := b.SetWebhook(ctx, &SetWebhookParams{
			URL:                cfg.URL,
			MaxConnections:     cfg.MaxConnections,
			AllowedUpdates:     cfg.AllowedUpdates,
			DropPendingUpdates: cfg.DropPendingUpdates,
			SecretToken:        cfg.SecretToken,
		})
		if err != nil {
			return fmt.Errorf("botkit: set webhook: %w", err)
		}
		logger.Info("webhook registered", "url", cfg.URL)
	}

	sink := newWebhookSink(out)
	defer sink.close()

	server := &http.Server{
		Handler:           b.webhookRouter(sink),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("botkit: webhook listen failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook listening", "addr", ln.Addr().String(), "path", cfg.Path)
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("webhook server shutting down")
	return server.Shutdown(shutdownCtx)
}
