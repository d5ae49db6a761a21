package botkit

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing token", Config{}, ErrMissingToken},
		{"bad token", Config{Token: "not-a-token"}, ErrInvalidToken},
		{"bad mode", Config{Token: testToken, Mode: "carrier-pigeon"}, ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Logger = discardLogger()
			_, err := New(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := New(Config{Token: testToken, APIURL: "ftp://example.com"}); err == nil {
		t.Error("New() with an ftp API URL error = nil")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.APIURL != "https://api.telegram.org" || cfg.Mode != ModePolling || cfg.Workers != 1 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.MaxRetries != 3 || cfg.Polling.Timeout != 30 || cfg.Webhook.Path != "/webhook" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.AlbumTimeout != 500*time.Millisecond || cfg.Webhook.ShutdownTimeout != 5*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}

	cfg = Config{MaxRetries: -1}
	cfg.setDefaults()
	if cfg.MaxRetries != -1 {
		t.Errorf("MaxRetries = %d, want -1 kept", cfg.MaxRetries)
	}
}

func TestBotRun(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("getUpdates", func(params map[string]json.RawMessage) any {
		if _, ok := params["offset"]; !ok {
			return []Update{
				{UpdateID: 1, Message: textMessage(1, 10, 20, "/start")},
				{UpdateID: 2, Message: textMessage(2, 10, 20, "hello")},
				{UpdateID: 3, CallbackQuery: &CallbackQuery{ID: "q1", From: User{ID: 20}, Data: "vote:yes"}},
			}
		}
		time.Sleep(10 * time.Millisecond)
		return []Update{}
	})
	api.handle("sendMessage", func(params map[string]json.RawMessage) any {
		return Message{MessageID: 100, Chat: Chat{ID: 10, Type: ChatTypePrivate}}
	})

	bot := newTestBot(t, api, func(cfg *Config) {
		cfg.Polling.Timeout = 1
		cfg.SyncCommands = true
	})

	rec := &recorder{}
	var ready atomic.Bool
	bot.OnReady(func(context.Context) { ready.Store(true) })
	bot.CommandWithDesc(CommandDef{Name: "start", Description: "Start"}, func(c *Context) error {
		rec.add("start")
		return c.Reply("Welcome!")
	})
	bot.OnMessage(nil, func(c *Context) error {
		rec.add("message:" + c.Text())
		return nil
	})
	bot.OnCallbackPrefix("vote:", func(c *Context) error {
		rec.add("callback:" + c.Data())
		return c.AnswerCallback("thanks", false)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	waitFor(t, "three handlers", func() bool { return len(rec.get()) == 3 })

	if !ready.Load() {
		t.Error("OnReady not called")
	}
	if self := bot.Self(); self == nil || self.Username != "test_bot" || bot.SelfID() != 1 {
		t.Errorf("Self() = %+v", self)
	}
	if err := bot.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	want := []string{"start", "message:hello", "callback:vote:yes"}
	if got := rec.get(); !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	sends := api.callsTo("sendMessage")
	if len(sends) != 1 || jsonString(t, sends[0].Params["text"]) != "Welcome!" {
		t.Errorf("sendMessage calls = %+v", sends)
	}
	if got := len(api.callsTo("answerCallbackQuery")); got != 1 {
		t.Errorf("answerCallbackQuery called %d times, want 1", got)
	}
	if got := len(api.callsTo("setMyCommands")); got != 1 {
		t.Errorf("setMyCommands called %d times, want 1", got)
	}
}

func TestBotRunGetMeFails(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("getMe", func(map[string]json.RawMessage) any {
		return apiFailure{Code: 401, Description: "Unauthorized"}
	})
	bot := newTestBot(t, api, nil)

	err := bot.Run(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Run() error = %v, want ErrUnauthorized", err)
	}
}

func TestUpdateBotInfo(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("getMyName", func(map[string]json.RawMessage) any { return BotName{Name: "Old"} })
	api.handle("getMyDescription", func(map[string]json.RawMessage) any { return BotDescription{Description: "Same"} })
	api.handle("getMyShortDescription", func(map[string]json.RawMessage) any {
		return BotShortDescription{ShortDescription: ""}
	})
	bot := newTestBot(t, api, nil)

	err := bot.UpdateBotInfo(context.Background(), BotInfo{
		Name:             "New",
		ShortDescription: "Short",
		Description:      "Same",
		LangCode:         "en",
	})
	if err != nil {
		t.Fatalf("UpdateBotInfo() error = %v", err)
	}

	names := api.callsTo("setMyName")
	if len(names) != 1 || jsonString(t, names[0].Params["name"]) != "New" {
		t.Errorf("setMyName calls = %+v", names)
	}
	if got := jsonString(t, names[0].Params["language_code"]); got != "en" {
		t.Errorf("language_code = %q, want en", got)
	}
	if got := len(api.callsTo("setMyShortDescription")); got != 1 {
		t.Errorf("setMyShortDescription called %d times, want 1", got)
	}
	if got := len(api.callsTo("setMyDescription")); got != 0 {
		t.Errorf("setMyDescription called %d times for an unchanged value", got)
	}
}

func TestOnMessageSkipsCommands(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	rec := &recorder{}
	bot.OnMessage(nil, rec.handler("message"))
	bot.OnEdit(nil, rec.handler("edit"))

	d := bot.Dispatcher()
	ctx := context.Background()
	d.ProcessUpdate(ctx, messageUpdate(1, textMessage(1, 10, 20, "/help")))
	d.ProcessUpdate(ctx, messageUpdate(2, textMessage(2, 10, 20, "hi")))
	d.ProcessUpdate(ctx, &Update{UpdateID: 3, EditedMessage: textMessage(2, 10, 20, "hi!")})

	want := []string{"message", "edit"}
	if got := rec.get(); !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestShortcutsRunInOwnGroups(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	rec := &recorder{}
	bot.OnMessage(nil, rec.handler("first"))
	bot.OnPrivateMessage([]int64{20}, rec.handler("private"))
	bot.OnPrivateMessage([]int64{99}, rec.handler("other user"))

	bot.Dispatcher().ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 20, 20, "hi")))

	want := []string{"first", "private"}
	if got := rec.get(); !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestCommandFrom(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	rec := &recorder{}
	bot.CommandFrom("admin", nil, []int64{20}, rec.handler("admin"))

	d := bot.Dispatcher()
	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 21, "/admin")))
	d.ProcessUpdate(context.Background(), messageUpdate(2, textMessage(2, 10, 20, "/admin")))

	if got := rec.get(); !equalStrings(got, []string{"admin"}) {
		t.Errorf("calls = %v, want [admin]", got)
	}
}

func TestOnInlineQuery(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	var matches []string
	bot.OnInlineQuery(`^gif (\w+)$`, func(c *Context) error {
		matches = c.Matches
		return nil
	})

	bot.Dispatcher().ProcessUpdate(context.Background(), &Update{
		UpdateID:    1,
		InlineQuery: &InlineQuery{ID: "1", From: User{ID: 20}, Query: "gif cats"},
	})

	if len(matches) != 2 || matches[1] != "cats" {
		t.Errorf("Matches = %v, want [gif cats, cats]", matches)
	}
}
