package botkit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestPoll(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("getUpdates", func(params map[string]json.RawMessage) any {
		if _, ok := params["offset"]; !ok {
			return []Update{
				{UpdateID: 7, Message: textMessage(1, 10, 20, "a")},
				{UpdateID: 8, Message: textMessage(2, 10, 20, "b")},
			}
		}
		time.Sleep(10 * time.Millisecond)
		return []Update{}
	})
	bot := newTestBot(t, api, func(cfg *Config) { cfg.Polling.Timeout = 1 })

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan *Update, 10)
	done := make(chan error, 1)
	go func() { done <- bot.poll(ctx, out) }()

	for _, want := range []int{7, 8} {
		select {
		case u := <-out:
			if u.UpdateID != want {
				t.Errorf("update_id = %d, want %d", u.UpdateID, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("update %d not delivered", want)
		}
	}

	waitFor(t, "second getUpdates", func() bool { return len(api.callsTo("getUpdates")) >= 2 })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("poll() error = %v, want nil after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll() did not return after cancel")
	}

	calls := api.callsTo("getUpdates")
	var offset int
	if err := json.Unmarshal(calls[1].Params["offset"], &offset); err != nil {
		t.Fatal(err)
	}
	if offset != 9 {
		t.Errorf("second getUpdates offset = %d, want 9", offset)
	}
	var timeout int
	_ = json.Unmarshal(calls[0].Params["timeout"], &timeout)
	if timeout != 1 {
		t.Errorf("timeout = %d, want 1", timeout)
	}
}

func TestPollUnauthorized(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("getUpdates", func(map[string]json.RawMessage) any {
		return apiFailure{Code: 401, Description: "Unauthorized"}
	})
	bot := newTestBot(t, api, nil)

	err := bot.poll(context.Background(), make(chan *Update))
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("poll() error = %v, want ErrUnauthorized", err)
	}
}

func TestPollDropPendingUpdates(t *testing.T) {
	api := newFakeAPI(t)
	bot := newTestBot(t, api, func(cfg *Config) { cfg.Polling.DropPendingUpdates = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api.handle("getUpdates", func(map[string]json.RawMessage) any {
		cancel()
		return []Update{}
	})
	if err := bot.poll(ctx, make(chan *Update)); err != nil {
		t.Fatalf("poll() error = %v", err)
	}

	calls := api.callsTo("deleteWebhook")
	if len(calls) != 1 {
		t.Fatalf("deleteWebhook called %d times, want 1", len(calls))
	}
	if got := string(calls[0].Params["drop_pending_updates"]); got != "true" {
		t.Errorf("drop_pending_updates = %s, want true", got)
	}
}
