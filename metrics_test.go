package botkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&Error{Code: 429, Parameters: &ResponseParameters{RetryAfter: 3}}, "flood_wait"},
		{&Error{Code: 400}, "api_error"},
		{fmt.Errorf("wrapped: %w", &Error{Code: 403}), "api_error"},
		{&NetworkError{Method: "getMe", Err: errors.New("refused")}, "network_error"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		if got := requestOutcome(tt.err); got != tt.want {
			t.Errorf("requestOutcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	if m.gatherer == nil {
		t.Error("gatherer not set for a Registry")
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Error("registering twice error = nil")
	}

	unregistered, err := NewMetrics(nil)
	if err != nil || unregistered.gatherer != nil {
		t.Errorf("NewMetrics(nil) = %+v, %v", unregistered, err)
	}

	var nilMetrics *Metrics
	nilMetrics.observeUpdate("message")
	nilMetrics.observeRequest("getMe", nil, time.Second)
	nilMetrics.observeHandlerError()
	nilMetrics.observeQueueDelay(time.Second)
}

func TestMetricsObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	api := newFakeAPI(t)
	api.handle("sendMessage", func(map[string]json.RawMessage) any {
		return apiFailure{Code: 400, Description: "Bad Request: chat not found"}
	})
	bot := newTestBot(t, api, func(cfg *Config) { cfg.Registerer = reg })
	bot.OnMessage(nil, func(c *Context) error { return c.Reply("hi") })

	bot.Dispatcher().ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "hello")))
	if _, err := bot.GetMe(context.Background()); err != nil {
		t.Fatal(err)
	}

	m := bot.metrics
	if got := testutil.ToFloat64(m.updates.WithLabelValues(UpdateKindMessage)); got != 1 {
		t.Errorf("updates{kind=message} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.handlerErrors); got != 1 {
		t.Errorf("handler errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.apiRequests.WithLabelValues("sendMessage", "api_error")); got != 1 {
		t.Errorf("api_requests{sendMessage,api_error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.apiRequests.WithLabelValues("getMe", "ok")); got != 1 {
		t.Errorf("api_requests{getMe,ok} = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.apiDuration); n != 2 {
		t.Errorf("api duration series = %d, want 2", n)
	}
}
